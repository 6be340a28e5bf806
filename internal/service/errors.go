package service

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrNotFound - товар, строка корзины или заказ не существует либо не виден вызывающему
	ErrNotFound = errors.New("not found")
	// ErrEmptyCart - оформление пустой корзины
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPermission - у вызывающего нет прав (не staff)
	ErrPermission = errors.New("permission denied")
	// ErrConflict - операция противоречит текущему состоянию данных
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError - некорректный ввод с указанием поля
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// rollback откатывает транзакцию и логирует ошибку отката
func rollback(tx *sql.Tx, logger *slog.Logger) {
	if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		logger.Error("transaction rollback failed", slog.Any("error", rbErr))
	}
}
