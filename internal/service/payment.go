package service

import (
	"context"
	"fmt"

	"github.com/linemk/shop-checkout/internal/domain/models"
)

// PaymentResult - итог попытки оплаты: paid или failed
type PaymentResult struct {
	Status    models.OrderStatus
	Reference string
}

// PaymentProcessor - узкий интерфейс платежного шлюза.
// Ошибка означает сбой инфраструктуры, отказ в оплате возвращается как PaymentResult со статусом failed
type PaymentProcessor interface {
	AttemptPayment(ctx context.Context, order *models.Order) (PaymentResult, error)
}

// MockPaymentProcessor всегда успешно "оплачивает" заказ синхронно
type MockPaymentProcessor struct{}

func (MockPaymentProcessor) AttemptPayment(_ context.Context, order *models.Order) (PaymentResult, error) {
	return PaymentResult{
		Status:    models.OrderStatusPaid,
		Reference: fmt.Sprintf("mock_%d", order.ID),
	}, nil
}
