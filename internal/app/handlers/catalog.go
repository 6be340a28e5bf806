package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/shop-checkout/internal/service"
)

// ListProductsHandler обрабатывает GET /api/products, только активные товары
func ListProductsHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		products, err := catalogService.ListProducts(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}

		resp := make([]ProductResponse, 0, len(products))
		for i := range products {
			resp = append(resp, newProductResponse(&products[i]))
		}
		writeJSON(w, logger, http.StatusOK, resp)
	}
}

// GetProductHandler обрабатывает GET /api/products/{id}
func GetProductHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		productID, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		product, err := catalogService.GetProduct(r.Context(), productID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, newProductResponse(product))
	}
}

// DeleteProductHandler обрабатывает DELETE /api/admin/products/{id}
func DeleteProductHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteProductHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}
		productID, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		if err := catalogService.DeleteProduct(r.Context(), userID, productID); err != nil {
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteCategoryHandler обрабатывает DELETE /api/admin/categories/{id}
func DeleteCategoryHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteCategoryHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := callerID(w, r, logger)
		if !ok {
			return
		}
		categoryID, ok := idParam(w, r, logger, "id")
		if !ok {
			return
		}

		if err := catalogService.DeleteCategory(r.Context(), userID, categoryID); err != nil {
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
