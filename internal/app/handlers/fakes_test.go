package handlers_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/linemk/shop-checkout/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop-checkout/internal/lib/idempotency"
	"github.com/linemk/shop-checkout/internal/service"
)

var errNotFound = fmt.Errorf("fake: %w", service.ErrNotFound)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// asUser эмулирует JWT middleware: кладет userID в контекст
func asUser(userID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), jwtmiddleware.UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func routerFor(userID int64, method, pattern string, h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(asUser(userID))
	r.Method(method, pattern, h)
	return r
}

// fakeAuthService — фиктивная реализация для тестирования.
type fakeAuthService struct {
	token string
	err   error
}

func (f *fakeAuthService) Login(ctx context.Context, username, password string) (string, error) {
	return f.token, f.err
}

type fakeCartService struct {
	cart *models.Cart
	err  error

	gotUserID    int64
	gotProductID int64
	gotQuantity  int
}

func (f *fakeCartService) GetCart(_ context.Context, userID int64) (*models.Cart, error) {
	f.gotUserID = userID
	return f.cart, f.err
}

func (f *fakeCartService) AddItem(_ context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	f.gotUserID, f.gotProductID, f.gotQuantity = userID, productID, quantity
	return f.cart, f.err
}

func (f *fakeCartService) SetItemQuantity(_ context.Context, userID, productID int64, quantity int) (*models.Cart, error) {
	f.gotUserID, f.gotProductID, f.gotQuantity = userID, productID, quantity
	return f.cart, f.err
}

func (f *fakeCartService) RemoveItem(_ context.Context, userID, productID int64) (*models.Cart, error) {
	f.gotUserID, f.gotProductID = userID, productID
	return f.cart, f.err
}

type fakeCheckoutService struct {
	order      *models.Order
	err        error
	calls      int
	gotAddress string
}

func (f *fakeCheckoutService) Checkout(_ context.Context, _ int64, shippingAddress string) (*models.Order, error) {
	f.calls++
	f.gotAddress = shippingAddress
	return f.order, f.err
}

type fakeOrderService struct {
	orders []*models.Order
	err    error
}

func (f *fakeOrderService) ListOrders(_ context.Context, userID int64) ([]*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderService) GetOrder(_ context.Context, userID, orderID int64) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, o := range f.orders {
		if o.ID == orderID && o.UserID == userID {
			return o, nil
		}
	}
	return nil, errNotFound
}

type fakeCatalogService struct {
	products []models.Product
	err      error
	deleted  []int64
}

func (f *fakeCatalogService) ListProducts(context.Context) ([]models.Product, error) {
	return f.products, f.err
}

func (f *fakeCatalogService) GetProduct(_ context.Context, productID int64) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.products {
		if f.products[i].ID == productID {
			return &f.products[i], nil
		}
	}
	return nil, errNotFound
}

func (f *fakeCatalogService) DeleteProduct(_ context.Context, _, productID int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, productID)
	return nil
}

func (f *fakeCatalogService) DeleteCategory(_ context.Context, _, categoryID int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, categoryID)
	return nil
}

// fakeIdempotencyStore повторяет семантику redis-хранилища в памяти
type fakeIdempotencyStore struct {
	mu          sync.Mutex
	keys        map[string]int64
	released    []string
	completeErr error
}

const inProgressMarker = -1

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{keys: map[string]int64{}}
}

func (s *fakeIdempotencyStore) Reserve(_ context.Context, _ int64, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orderID, ok := s.keys[key]
	if !ok {
		s.keys[key] = inProgressMarker
		return 0, true, nil
	}
	if orderID == inProgressMarker {
		return 0, false, idempotency.ErrInProgress
	}
	return orderID, false, nil
}

func (s *fakeIdempotencyStore) Complete(_ context.Context, _ int64, key string, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completeErr != nil {
		return s.completeErr
	}
	s.keys[key] = orderID
	return nil
}

func (s *fakeIdempotencyStore) Release(_ context.Context, _ int64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	s.released = append(s.released, key)
	return nil
}
