package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/shop-checkout/internal/lib/idempotency"
	"github.com/linemk/shop-checkout/internal/service"
)

// CreateOrderRequest - тело POST /api/orders, адрес необязателен
type CreateOrderRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"max=1000"`
}

// IdempotencyStore запоминает, какой заказ создан по ключу Idempotency-Key
type IdempotencyStore interface {
	Reserve(ctx context.Context, userID int64, key string) (orderID int64, reserved bool, err error)
	Complete(ctx context.Context, userID int64, key string, orderID int64) error
	Release(ctx context.Context, userID int64, key string) error
}

// CreateOrderHandler обрабатывает POST /api/orders: оформляет корзину вызывающего в заказ.
// Повтор с тем же Idempotency-Key после успеха возвращает исходный заказ со статусом 200
func CreateOrderHandler(
	log *slog.Logger,
	checkoutService service.CheckoutService,
	orderService service.OrderService,
	store IdempotencyStore,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}
		var req CreateOrderRequest
		if !decodeAndValidate(w, r, logger, &req, true) {
			return
		}

		key := idempotency.Key(r)
		reserved := false
		if key != "" && store != nil {
			logger = logger.With(slog.String("idempotency_key", key))

			orderID, ok, err := store.Reserve(r.Context(), userID, key)
			switch {
			case errors.Is(err, idempotency.ErrInProgress):
				writeDetail(w, logger, http.StatusConflict, "A request with this Idempotency-Key is already in progress.")
				return
			case err != nil:
				// без redis оформляем как обычный запрос
				logger.Error("idempotency store unavailable", slog.Any("error", err))
			case !ok:
				logger.Info("replaying completed checkout", slog.Int64("orderID", orderID))
				order, err := orderService.GetOrder(r.Context(), userID, orderID)
				if err != nil {
					writeError(w, logger, err)
					return
				}
				writeJSON(w, logger, http.StatusOK, newOrderResponse(order))
				return
			default:
				reserved = true
			}
		}

		order, err := checkoutService.Checkout(r.Context(), userID, req.ShippingAddress)
		if err != nil {
			if reserved {
				if rErr := store.Release(context.WithoutCancel(r.Context()), userID, key); rErr != nil {
					logger.Error("failed to release idempotency key", slog.Any("error", rErr))
				}
			}
			writeError(w, logger, err)
			return
		}

		if reserved {
			storeCtx := context.WithoutCancel(r.Context())
			if cErr := store.Complete(storeCtx, userID, key, order.ID); cErr != nil {
				logger.Error("failed to complete idempotency key", slog.Any("error", cErr), slog.Int64("orderID", order.ID))
				// иначе ключ висит in progress до TTL и все повторы получают 409
				if rErr := store.Release(storeCtx, userID, key); rErr != nil {
					logger.Error("failed to release idempotency key", slog.Any("error", rErr))
				}
			}
		}

		writeJSON(w, logger, http.StatusCreated, newOrderResponse(order))
	}
}

// ListOrdersHandler обрабатывает GET /api/orders, только заказы вызывающего
func ListOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListOrdersHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}

		orders, err := orderService.ListOrders(r.Context(), userID)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		resp := make([]OrderResponse, 0, len(orders))
		for _, order := range orders {
			resp = append(resp, newOrderResponse(order))
		}
		writeJSON(w, logger, http.StatusOK, resp)
	}
}

// GetOrderHandler обрабатывает GET /api/orders/{id}. Чужой заказ неотличим от несуществующего
func GetOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}
		orderID, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		order, err := orderService.GetOrder(r.Context(), userID, orderID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, newOrderResponse(order))
	}
}
