package storage_test

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/linemk/shop-checkout/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orderColumns     = []string{"id", "user_id", "status", "total_amount", "payment_reference", "shipping_address", "created_at", "updated_at"}
	orderItemColumns = []string{"id", "order_id", "product_id", "name", "unit_price", "quantity", "created_at"}
)

// anyArg - pq.Array не сравнивается через DeepEqual
type anyArg struct{}

func (anyArg) Match(driver.Value) bool { return true }

func TestCreateOrderTx_FillsGeneratedFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO orders (user_id, status, total_amount, shipping_address)")).
		WithArgs(int64(1), "pending", decimal.Zero, "Main st. 1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(42, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO order_items (order_id, product_id, unit_price, quantity)")).
		WithArgs(int64(42), int64(3), decimal.RequireFromString("10.00"), 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(100, now))
	mock.ExpectCommit()

	repo := storage.NewOrderRepository(db)
	tx, err := db.Begin()
	require.NoError(t, err)

	order := &models.Order{UserID: 1, Status: models.OrderStatusPending, TotalAmount: decimal.Zero, ShippingAddress: "Main st. 1"}
	require.NoError(t, repo.CreateOrderTx(context.Background(), tx, order))
	assert.Equal(t, int64(42), order.ID)

	item := &models.OrderItem{OrderID: order.ID, ProductID: 3, UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2}
	require.NoError(t, repo.CreateOrderItemTx(context.Background(), tx, item))
	assert.Equal(t, int64(100), item.ID)

	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderTx_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE orders")).
		WithArgs("paid", decimal.RequireFromString("25"), "mock_9", int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	order := &models.Order{ID: 9, Status: models.OrderStatusPaid, TotalAmount: decimal.RequireFromString("25"), PaymentReference: "mock_9"}
	err = storage.NewOrderRepository(db).UpdateOrderTx(context.Background(), tx, order)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
	require.NoError(t, tx.Rollback())
}

func TestGetOrdersByUserID_LoadsItemsInOneQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(orderColumns).
			AddRow(2, 1, "paid", "5.00", "mock_2", "", now, now).
			AddRow(1, 1, "failed", "20.00", "", "", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE oi.order_id = ANY($1)")).
		WithArgs(anyArg{}).
		WillReturnRows(sqlmock.NewRows(orderItemColumns).
			AddRow(1, 1, 1, "A", "10.00", 2, now).
			AddRow(2, 2, 2, "B", "5.00", 1, now))

	orders, err := storage.NewOrderRepository(db).GetOrdersByUserID(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, int64(2), orders[0].ID)
	assert.Equal(t, models.OrderStatusPaid, orders[0].Status)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "B", orders[0].Items[0].ProductName)

	assert.Equal(t, models.OrderStatusFailed, orders[1].Status)
	require.Len(t, orders[1].Items, 1)
	assert.Equal(t, "20.00", orders[1].Items[0].Subtotal().StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrdersByUserID_NoOrdersSkipsItemsQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE user_id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	orders, err := storage.NewOrderRepository(db).GetOrdersByUserID(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserOrder_ForeignOrderIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1 AND user_id = $2")).
		WithArgs(int64(5), int64(2)).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	_, err = storage.NewOrderRepository(db).GetUserOrder(context.Background(), 2, 5)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderByID_WithItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(orderColumns).AddRow(5, 1, "paid", "25.00", "mock_5", "", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE oi.order_id = ANY($1)")).
		WithArgs(anyArg{}).
		WillReturnRows(sqlmock.NewRows(orderItemColumns).
			AddRow(1, 5, 1, "A", "10.00", 2, now).
			AddRow(2, 5, 2, "B", "5.00", 1, now))

	order, err := storage.NewOrderRepository(db).GetOrderByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "25.00", order.TotalAmount.StringFixed(2))
	assert.Len(t, order.Items, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
