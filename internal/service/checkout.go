package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/linemk/shop-checkout/internal/lib/metrics"
	"github.com/linemk/shop-checkout/internal/storage"
	"github.com/shopspring/decimal"
)

// NotificationEnqueuer ставит задачу уведомления покупателя в очередь. Не должен блокировать
type NotificationEnqueuer interface {
	Enqueue(ctx context.Context, orderID int64, recipientEmail string) error
}

type CheckoutService interface {
	Checkout(ctx context.Context, userID int64, shippingAddress string) (*models.Order, error)
}

type CheckoutOptions struct {
	// StrictProductCheck - отклонять оформление, если товар из корзины стал неактивным
	StrictProductCheck bool
	// EnqueueTimeout ограничивает передачу задачи уведомления диспетчеру
	EnqueueTimeout time.Duration
}

type checkoutService struct {
	log       *slog.Logger
	db        *sql.DB
	userRepo  storage.UserStorage
	cartRepo  storage.CartStorage
	orderRepo storage.OrderStorage
	payments  PaymentProcessor
	notifier  NotificationEnqueuer
	metrics   *metrics.Metrics
	opts      CheckoutOptions
}

func NewCheckoutService(
	log *slog.Logger,
	db *sql.DB,
	userRepo storage.UserStorage,
	cartRepo storage.CartStorage,
	orderRepo storage.OrderStorage,
	payments PaymentProcessor,
	notifier NotificationEnqueuer,
	m *metrics.Metrics,
	opts CheckoutOptions,
) CheckoutService {
	if opts.EnqueueTimeout <= 0 {
		opts.EnqueueTimeout = time.Second
	}
	return &checkoutService{
		log:       log,
		db:        db,
		userRepo:  userRepo,
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		payments:  payments,
		notifier:  notifier,
		metrics:   m,
		opts:      opts,
	}
}

// Checkout превращает корзину пользователя в заказ.
// Создание заказа, позиций, оплата и очистка корзины - одна транзакция под блокировкой корзины.
// Уведомление ставится в очередь только после коммита, его сбой на ответ не влияет
func (s *checkoutService) Checkout(ctx context.Context, userID int64, shippingAddress string) (*models.Order, error) {
	const op = "service.CheckoutService.Checkout"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Info("starting checkout transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// блокировка корзины держится до коммита: параллельный add_item или второй checkout ждут
	cart, err := s.cartRepo.LockCartTx(ctx, tx, userID)
	if err != nil {
		rollback(tx, logger)
		logger.Error("failed to lock cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to lock cart: %w", op, err)
	}

	items, err := s.cartRepo.ListItemsTx(ctx, tx, cart.ID)
	if err != nil {
		rollback(tx, logger)
		logger.Error("failed to list cart items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list cart items: %w", op, err)
	}

	if len(items) == 0 {
		rollback(tx, logger)
		logger.Warn("checkout of empty cart")
		s.metrics.CheckoutObserved("empty_cart")
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	if s.opts.StrictProductCheck {
		for _, item := range items {
			if !item.ProductActive {
				rollback(tx, logger)
				logger.Warn("cart contains inactive product", slog.Int64("productID", item.ProductID))
				return nil, &ValidationError{
					Field:   "cart",
					Message: fmt.Sprintf("product %q is no longer available", item.ProductName),
				}
			}
		}
	}

	order := &models.Order{
		UserID:          userID,
		Status:          models.OrderStatusPending,
		TotalAmount:     decimal.Zero,
		ShippingAddress: shippingAddress,
	}
	if err := s.orderRepo.CreateOrderTx(ctx, tx, order); err != nil {
		rollback(tx, logger)
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}
	logger = logger.With(slog.Int64("orderID", order.ID))

	// цена фиксируется в позиции заказа и дальше от каталога не зависит
	total := decimal.Zero
	order.Items = make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		orderItem := models.OrderItem{
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.ProductPrice,
			Quantity:    item.Quantity,
		}
		if err := s.orderRepo.CreateOrderItemTx(ctx, tx, &orderItem); err != nil {
			rollback(tx, logger)
			logger.Error("failed to create order item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to create order item: %w", op, err)
		}
		total = total.Add(orderItem.Subtotal())
		order.Items = append(order.Items, orderItem)
	}
	order.TotalAmount = total

	payment, err := s.payments.AttemptPayment(ctx, order)
	if err != nil {
		rollback(tx, logger)
		logger.Error("payment processor failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: payment processor failed: %w", op, err)
	}
	if err := order.TransitionTo(payment.Status); err != nil {
		rollback(tx, logger)
		logger.Error("unexpected payment status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	order.PaymentReference = payment.Reference

	if err := s.orderRepo.UpdateOrderTx(ctx, tx, order); err != nil {
		rollback(tx, logger)
		logger.Error("failed to update order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to update order: %w", op, err)
	}

	// корзина очищается и при отказе в оплате: заказ уже существует
	if _, err := s.cartRepo.ClearTx(ctx, tx, cart.ID); err != nil {
		rollback(tx, logger)
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to clear cart: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	s.metrics.CheckoutObserved(string(order.Status))
	logger.Info("checkout completed",
		slog.String("status", string(order.Status)),
		slog.String("total", order.TotalAmount.StringFixed(2)),
	)

	s.enqueueNotification(ctx, logger, order)
	return order, nil
}

// enqueueNotification - fire-and-forget, все ошибки только логируются
func (s *checkoutService) enqueueNotification(ctx context.Context, logger *slog.Logger, order *models.Order) {
	if s.notifier == nil {
		return
	}

	// запрос мог быть отменен сразу после коммита, задача все равно должна уйти
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.EnqueueTimeout)
	defer cancel()

	user, err := s.userRepo.GetUserByID(ctx, order.UserID)
	if err != nil {
		logger.Error("failed to load buyer for notification", slog.Any("error", err))
		return
	}
	if user.Email == "" {
		logger.Info("buyer has no email, notification skipped")
		return
	}

	if err := s.notifier.Enqueue(ctx, order.ID, user.Email); err != nil {
		logger.Error("failed to enqueue order notification", slog.Any("error", err))
		return
	}
	logger.Debug("order notification enqueued")
}
