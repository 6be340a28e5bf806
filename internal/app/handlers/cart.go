package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/linemk/shop-checkout/internal/service"
)

// CartItemRequest - тело POST /api/cart/add и PATCH /api/cart/update
type CartItemRequest struct {
	Product  int64 `json:"product" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0,lte=2147483647"`
}

// CartRemoveRequest - тело DELETE /api/cart/remove
type CartRemoveRequest struct {
	Product int64 `json:"product" validate:"required,gt=0"`
}

// GetCartHandler обрабатывает GET /api/cart
func GetCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}

		cart, err := cartService.GetCart(r.Context(), userID)
		respondCart(w, logger, cart, err)
	}
}

// AddToCartHandler обрабатывает POST /api/cart/add
func AddToCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}
		var req CartItemRequest
		if !decodeAndValidate(w, r, logger, &req, false) {
			return
		}

		cart, err := cartService.AddItem(r.Context(), userID, req.Product, req.Quantity)
		respondCart(w, logger, cart, err)
	}
}

// UpdateCartHandler обрабатывает PATCH /api/cart/update
func UpdateCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}
		var req CartItemRequest
		if !decodeAndValidate(w, r, logger, &req, false) {
			return
		}

		cart, err := cartService.SetItemQuantity(r.Context(), userID, req.Product, req.Quantity)
		respondCart(w, logger, cart, err)
	}
}

// RemoveFromCartHandler обрабатывает DELETE /api/cart/remove, отсутствие строки не ошибка
func RemoveFromCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveFromCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}
		var req CartRemoveRequest
		if !decodeAndValidate(w, r, logger, &req, false) {
			return
		}

		cart, err := cartService.RemoveItem(r.Context(), userID, req.Product)
		respondCart(w, logger, cart, err)
	}
}

func respondCart(w http.ResponseWriter, logger *slog.Logger, cart *models.Cart, err error) {
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, logger, http.StatusOK, newCartResponse(cart))
}
