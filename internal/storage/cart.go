package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/linemk/shop-checkout/internal/domain/models"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrQuantityOutOfRange - количество не помещается в INTEGER колонки cart_items.quantity
	ErrQuantityOutOfRange = errors.New("cart item quantity out of range")
)

// код postgres numeric_value_out_of_range
const pqNumericOutOfRange = "22003"

func quantityErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqNumericOutOfRange {
		return ErrQuantityOutOfRange
	}
	return err
}

// CartStorage работает с корзиной только внутри транзакции.
// LockCartTx должен вызываться первым: он берет блокировку строки корзины и этим сериализует
// все изменения корзины одного пользователя, включая оформление заказа
type CartStorage interface {
	// LockCartTx создает корзину при первом обращении и блокирует ее строку (FOR UPDATE)
	LockCartTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error)
	// AddItemTx создает строку или увеличивает количество в существующей
	AddItemTx(ctx context.Context, tx *sql.Tx, cartID, productID int64, quantity int) error
	SetItemQuantityTx(ctx context.Context, tx *sql.Tx, cartID, productID int64, quantity int) error
	// RemoveItemTx не считает отсутствие строки ошибкой
	RemoveItemTx(ctx context.Context, tx *sql.Tx, cartID, productID int64) error
	ListItemsTx(ctx context.Context, tx *sql.Tx, cartID int64) ([]models.CartItem, error)
	ClearTx(ctx context.Context, tx *sql.Tx, cartID int64) (int64, error)
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

func (r *cartRepository) LockCartTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING", userID); err != nil {
		return nil, err
	}

	cart := &models.Cart{}
	row := tx.QueryRowContext(ctx,
		"SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1 FOR UPDATE", userID)
	if err := row.Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *cartRepository) AddItemTx(ctx context.Context, tx *sql.Tx, cartID, productID int64, quantity int) error {
	query := `INSERT INTO cart_items (cart_id, product_id, quantity)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (cart_id, product_id)
	          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()`
	// сумма в upsert тоже может выйти за INTEGER
	if _, err := tx.ExecContext(ctx, query, cartID, productID, quantity); err != nil {
		return quantityErr(err)
	}
	return nil
}

func (r *cartRepository) SetItemQuantityTx(ctx context.Context, tx *sql.Tx, cartID, productID int64, quantity int) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE cart_id = $2 AND product_id = $3",
		quantity, cartID, productID)
	if err != nil {
		return quantityErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepository) RemoveItemTx(ctx context.Context, tx *sql.Tx, cartID, productID int64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2", cartID, productID)
	return err
}

// ListItemsTx возвращает строки с текущими ценами товаров, цены в строках корзины не хранятся
func (r *cartRepository) ListItemsTx(ctx context.Context, tx *sql.Tx, cartID int64) ([]models.CartItem, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, p.name, p.price, p.image_url, p.is_active,
		       ci.quantity, ci.created_at, ci.updated_at
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`
	rows, err := tx.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.ProductName, &item.ProductPrice,
			&item.ProductImageURL, &item.ProductActive, &item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) ClearTx(ctx context.Context, tx *sql.Tx, cartID int64) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", cartID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
