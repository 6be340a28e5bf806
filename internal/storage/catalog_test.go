package storage_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/linemk/shop-checkout/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productColumns = []string{
	"id", "category_id", "name", "slug", "description", "image_url", "price", "stock", "is_active", "created_at", "updated_at",
}

const activeProductQuery = "SELECT id, category_id, name, slug, description, image_url, price, stock, is_active, created_at, updated_at FROM products WHERE id = $1 AND is_active"

func TestGetActiveProduct_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(activeProductQuery)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(5, 1, "Mug", "mug", "", "", "12.50", 3, true, now, now))

	product, err := storage.NewCatalogRepository(db).GetActiveProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Mug", product.Name)
	assert.Equal(t, "12.50", product.Price.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveProduct_InactiveIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(activeProductQuery)).
		WithArgs(int64(6)).
		WillReturnRows(sqlmock.NewRows(productColumns))

	_, err = storage.NewCatalogRepository(db).GetActiveProduct(context.Background(), 6)
	assert.ErrorIs(t, err, storage.ErrProductNotFound)
}

func TestListActiveProducts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE is_active ORDER BY name")).
		WillReturnRows(sqlmock.NewRows(productColumns).
			AddRow(1, 1, "A", "a", "", "", "10.00", 1, true, now, now).
			AddRow(2, 1, "B", "b", "", "", "5.00", 0, true, now, now))

	products, err := storage.NewCatalogRepository(db).ListActiveProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "B", products[1].Name)
}

func TestDeleteProduct(t *testing.T) {
	cases := map[string]struct {
		setup func(mock sqlmock.Sqlmock)
		want  error
	}{
		"deleted": {
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = $1")).
					WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		"missing": {
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = $1")).
					WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			want: storage.ErrProductNotFound,
		},
		"referenced by order items": {
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = $1")).
					WithArgs(int64(3)).WillReturnError(&pq.Error{Code: "23503"})
			},
			want: storage.ErrProductReferenced,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tc.setup(mock)
			err = storage.NewCatalogRepository(db).DeleteProduct(context.Background(), 3)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeleteCategory_Missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM categories WHERE id = $1")).
		WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))

	err = storage.NewCatalogRepository(db).DeleteCategory(context.Background(), 9)
	assert.ErrorIs(t, err, storage.ErrCategoryNotFound)
}
