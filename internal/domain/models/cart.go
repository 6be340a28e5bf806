package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart - корзина пользователя (одна на пользователя, создается лениво)
type Cart struct {
	ID        int64
	UserID    int64
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem - строка корзины. Цена товара подтягивается JOIN-ом из products и не хранится в строке
type CartItem struct {
	ID              int64
	CartID          int64
	ProductID       int64
	ProductName     string
	ProductPrice    decimal.Decimal
	ProductImageURL string
	ProductActive   bool
	Quantity        int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Subtotal считается по текущей цене товара
func (i CartItem) Subtotal() decimal.Decimal {
	return i.ProductPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalAmount не хранится, всегда пересчитывается по текущим ценам
func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}
