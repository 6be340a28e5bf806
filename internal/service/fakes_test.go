package service_test

import (
	"context"
	"database/sql"
	"log/slog"
	"math"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/linemk/shop-checkout/internal/storage"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// newMockDB - транзакции проверяются через sqlmock, данные живут в фейковых репозиториях
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// memStore - общее состояние фейков: строки корзины видят текущие цены товаров, как JOIN в postgres
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*models.User
	products map[int64]*models.Product
	carts    map[int64]*models.Cart // ключ: userID
	lines    map[int64][]*models.CartItem
	orders   map[int64]*models.Order
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]*models.User{},
		products: map[int64]*models.Product{},
		carts:    map[int64]*models.Cart{},
		lines:    map[int64][]*models.CartItem{},
		orders:   map[int64]*models.Order{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addUser(u *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) addProduct(p *models.Product) *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.id()
	}
	s.products[p.ID] = p
	return p
}

// --- users

type fakeUserRepo struct{ s *memStore }

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	return f.s.addUser(user), nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return u, nil
}

// --- catalog

type fakeCatalogRepo struct {
	s         *memStore
	deleteErr error
}

var _ storage.CatalogStorage = (*fakeCatalogRepo)(nil)

func (f *fakeCatalogRepo) GetActiveProductTx(ctx context.Context, _ *sql.Tx, id int64) (*models.Product, error) {
	return f.GetActiveProduct(ctx, id)
}

func (f *fakeCatalogRepo) GetActiveProduct(_ context.Context, id int64) (*models.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	p, ok := f.s.products[id]
	if !ok || !p.IsActive {
		return nil, storage.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalogRepo) ListActiveProducts(context.Context) ([]models.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []models.Product{}
	for _, p := range f.s.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCatalogRepo) DeleteProduct(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.products[id]; !ok {
		return storage.ErrProductNotFound
	}
	delete(f.s.products, id)
	return nil
}

func (f *fakeCatalogRepo) DeleteCategory(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	found := false
	for pid, p := range f.s.products {
		if p.CategoryID == id {
			delete(f.s.products, pid)
			found = true
		}
	}
	if !found {
		return storage.ErrCategoryNotFound
	}
	return nil
}

// --- cart

type fakeCartRepo struct{ s *memStore }

var _ storage.CartStorage = (*fakeCartRepo)(nil)

func (f *fakeCartRepo) LockCartTx(_ context.Context, _ *sql.Tx, userID int64) (*models.Cart, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cart, ok := f.s.carts[userID]
	if !ok {
		now := time.Now()
		cart = &models.Cart{ID: f.s.id(), UserID: userID, CreatedAt: now, UpdatedAt: now}
		f.s.carts[userID] = cart
	}
	c := *cart
	return &c, nil
}

func (f *fakeCartRepo) AddItemTx(_ context.Context, _ *sql.Tx, cartID, productID int64, quantity int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, line := range f.s.lines[cartID] {
		if line.ProductID == productID {
			if int64(line.Quantity)+int64(quantity) > math.MaxInt32 {
				return storage.ErrQuantityOutOfRange
			}
			line.Quantity += quantity
			return nil
		}
	}
	f.s.lines[cartID] = append(f.s.lines[cartID], &models.CartItem{
		ID: f.s.id(), CartID: cartID, ProductID: productID, Quantity: quantity,
	})
	return nil
}

func (f *fakeCartRepo) SetItemQuantityTx(_ context.Context, _ *sql.Tx, cartID, productID int64, quantity int) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, line := range f.s.lines[cartID] {
		if line.ProductID == productID {
			line.Quantity = quantity
			return nil
		}
	}
	return storage.ErrCartItemNotFound
}

func (f *fakeCartRepo) RemoveItemTx(_ context.Context, _ *sql.Tx, cartID, productID int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	lines := f.s.lines[cartID][:0]
	for _, line := range f.s.lines[cartID] {
		if line.ProductID != productID {
			lines = append(lines, line)
		}
	}
	f.s.lines[cartID] = lines
	return nil
}

func (f *fakeCartRepo) ListItemsTx(_ context.Context, _ *sql.Tx, cartID int64) ([]models.CartItem, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	items := []models.CartItem{}
	for _, line := range f.s.lines[cartID] {
		item := *line
		if p, ok := f.s.products[line.ProductID]; ok {
			item.ProductName = p.Name
			item.ProductPrice = p.Price
			item.ProductActive = p.IsActive
		}
		items = append(items, item)
	}
	return items, nil
}

func (f *fakeCartRepo) ClearTx(_ context.Context, _ *sql.Tx, cartID int64) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	n := int64(len(f.s.lines[cartID]))
	delete(f.s.lines, cartID)
	return n, nil
}

// --- orders

type fakeOrderRepo struct{ s *memStore }

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func (f *fakeOrderRepo) CreateOrderTx(_ context.Context, _ *sql.Tx, order *models.Order) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	order.ID = f.s.id()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	stored := *order
	f.s.orders[order.ID] = &stored
	return nil
}

func (f *fakeOrderRepo) CreateOrderItemTx(_ context.Context, _ *sql.Tx, item *models.OrderItem) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	item.ID = f.s.id()
	item.CreatedAt = time.Now()
	order := f.s.orders[item.OrderID]
	order.Items = append(order.Items, *item)
	return nil
}

func (f *fakeOrderRepo) UpdateOrderTx(_ context.Context, _ *sql.Tx, order *models.Order) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	stored, ok := f.s.orders[order.ID]
	if !ok {
		return storage.ErrOrderNotFound
	}
	stored.Status = order.Status
	stored.TotalAmount = order.TotalAmount
	stored.PaymentReference = order.PaymentReference
	stored.UpdatedAt = time.Now()
	return nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(_ context.Context, userID int64) ([]*models.Order, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []*models.Order{}
	for _, o := range f.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeOrderRepo) GetUserOrder(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	o, err := f.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, storage.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) GetOrderByID(_ context.Context, orderID int64) (*models.Order, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	o, ok := f.s.orders[orderID]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	return o, nil
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}
