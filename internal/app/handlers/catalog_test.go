package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/linemk/shop-checkout/internal/app/handlers"
	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/linemk/shop-checkout/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProductsHandler(t *testing.T) {
	svc := &fakeCatalogService{products: []models.Product{
		{ID: 1, CategoryID: 2, Name: "Mug", Slug: "mug", Price: decimal.RequireFromString("9.5"), IsActive: true},
	}}
	router := routerFor(1, http.MethodGet, "/api/products", handlers.ListProductsHandler(testLogger(), svc))

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp []handlers.ProductResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "9.50", resp[0].Price)
	assert.Equal(t, int64(2), resp[0].Category)
}

func TestGetProductHandler_NotFound(t *testing.T) {
	router := routerFor(1, http.MethodGet, "/api/products/{id}", handlers.GetProductHandler(testLogger(), &fakeCatalogService{}))

	req := httptest.NewRequest(http.MethodGet, "/api/products/77", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteProductHandler(t *testing.T) {
	cases := map[string]struct {
		err  error
		code int
	}{
		"deleted":    {code: http.StatusNoContent},
		"not staff":  {err: fmt.Errorf("op: %w", service.ErrPermission), code: http.StatusForbidden},
		"referenced": {err: fmt.Errorf("op: %w", service.ErrConflict), code: http.StatusConflict},
		"missing":    {err: fmt.Errorf("op: %w", service.ErrNotFound), code: http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &fakeCatalogService{err: tc.err}
			router := routerFor(1, http.MethodDelete, "/api/admin/products/{id}", handlers.DeleteProductHandler(testLogger(), svc))

			req := httptest.NewRequest(http.MethodDelete, "/api/admin/products/3", nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tc.code, rr.Code)
			if tc.err == nil {
				assert.Equal(t, []int64{3}, svc.deleted)
			}
		})
	}
}

func TestDeleteCategoryHandler(t *testing.T) {
	svc := &fakeCatalogService{}
	router := routerFor(1, http.MethodDelete, "/api/admin/categories/{id}", handlers.DeleteCategoryHandler(testLogger(), svc))

	req := httptest.NewRequest(http.MethodDelete, "/api/admin/categories/8", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []int64{8}, svc.deleted)
}
