package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/linemk/shop-checkout/internal/storage"
)

// CartService - операции над корзиной вызывающего пользователя.
// Каждая операция выполняется в своей транзакции под блокировкой строки корзины
type CartService interface {
	GetCart(ctx context.Context, userID int64) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error)
	SetItemQuantity(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID int64) (*models.Cart, error)
}

type cartService struct {
	log         *slog.Logger
	db          *sql.DB
	cartRepo    storage.CartStorage
	catalogRepo storage.CatalogStorage
}

func NewCartService(log *slog.Logger, db *sql.DB, cartRepo storage.CartStorage, catalogRepo storage.CatalogStorage) CartService {
	return &cartService{
		log:         log,
		db:          db,
		cartRepo:    cartRepo,
		catalogRepo: catalogRepo,
	}
}

// maxQuantity - граница INTEGER колонки cart_items.quantity
const maxQuantity = math.MaxInt32

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return &ValidationError{Field: "quantity", Message: "must be a positive integer"}
	}
	if quantity > maxQuantity {
		return quantityTooLarge()
	}
	return nil
}

func quantityTooLarge() *ValidationError {
	return &ValidationError{
		Field:   "quantity",
		Message: fmt.Sprintf("Ensure this value is less than or equal to %d.", maxQuantity),
	}
}

// cartMutation выполняется под блокировкой корзины, после нее корзина перечитывается в той же транзакции
type cartMutation func(ctx context.Context, tx *sql.Tx, cart *models.Cart) error

func (s *cartService) withLockedCart(ctx context.Context, op string, userID int64, mutate cartMutation) (*models.Cart, error) {
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	cart, err := s.cartRepo.LockCartTx(ctx, tx, userID)
	if err != nil {
		rollback(tx, logger)
		logger.Error("failed to lock cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to lock cart: %w", op, err)
	}

	if mutate != nil {
		if err := mutate(ctx, tx, cart); err != nil {
			rollback(tx, logger)
			return nil, err
		}
	}

	items, err := s.cartRepo.ListItemsTx(ctx, tx, cart.ID)
	if err != nil {
		rollback(tx, logger)
		logger.Error("failed to list cart items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list cart items: %w", op, err)
	}
	cart.Items = items

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	return cart, nil
}

// GetCart возвращает корзину пользователя, создавая пустую при первом обращении
func (s *cartService) GetCart(ctx context.Context, userID int64) (*models.Cart, error) {
	const op = "service.CartService.GetCart"
	return s.withLockedCart(ctx, op, userID, nil)
}

// AddItem добавляет товар в корзину. Повторное добавление увеличивает количество в той же строке
func (s *cartService) AddItem(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	const op = "service.CartService.AddItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	cart, err := s.withLockedCart(ctx, op, userID, func(ctx context.Context, tx *sql.Tx, cart *models.Cart) error {
		// неактивный товар для корзины то же самое, что отсутствующий
		if _, err := s.catalogRepo.GetActiveProductTx(ctx, tx, productID); err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				logger.Warn("product not found or inactive")
				return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
			}
			logger.Error("failed to get product", slog.Any("error", err))
			return fmt.Errorf("%s: failed to get product: %w", op, err)
		}

		if err := s.cartRepo.AddItemTx(ctx, tx, cart.ID, productID, quantity); err != nil {
			// итог по строке вышел за границу после сложения с уже лежащим количеством
			if errors.Is(err, storage.ErrQuantityOutOfRange) {
				logger.Warn("cart item quantity overflow")
				return quantityTooLarge()
			}
			logger.Error("failed to add cart item", slog.Any("error", err))
			return fmt.Errorf("%s: failed to add cart item: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("item added to cart", slog.Int("quantity", quantity))
	return cart, nil
}

// SetItemQuantity перезаписывает количество в существующей строке
func (s *cartService) SetItemQuantity(ctx context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	const op = "service.CartService.SetItemQuantity"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	return s.withLockedCart(ctx, op, userID, func(ctx context.Context, tx *sql.Tx, cart *models.Cart) error {
		if err := s.cartRepo.SetItemQuantityTx(ctx, tx, cart.ID, productID, quantity); err != nil {
			if errors.Is(err, storage.ErrCartItemNotFound) {
				logger.Warn("cart item not found")
				return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
			}
			if errors.Is(err, storage.ErrQuantityOutOfRange) {
				logger.Warn("cart item quantity out of range")
				return quantityTooLarge()
			}
			logger.Error("failed to update cart item", slog.Any("error", err))
			return fmt.Errorf("%s: failed to update cart item: %w", op, err)
		}
		return nil
	})
}

// RemoveItem удаляет строку, отсутствие строки не ошибка
func (s *cartService) RemoveItem(ctx context.Context, userID, productID int64) (*models.Cart, error) {
	const op = "service.CartService.RemoveItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	return s.withLockedCart(ctx, op, userID, func(ctx context.Context, tx *sql.Tx, cart *models.Cart) error {
		if err := s.cartRepo.RemoveItemTx(ctx, tx, cart.ID, productID); err != nil {
			logger.Error("failed to remove cart item", slog.Any("error", err))
			return fmt.Errorf("%s: failed to remove cart item: %w", op, err)
		}
		return nil
	})
}
