package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// допустимые переходы статусов заказа
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusCancelled},
}

// IsTerminal - из статуса больше нет переходов
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IllegalTransitionError возвращается при попытке недопустимой смены статуса
type IllegalTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal order status transition %s -> %s", e.From, e.To)
}

// Order представляет заказ, созданный при оформлении корзины
type Order struct {
	ID               int64
	UserID           int64
	Status           OrderStatus
	TotalAmount      decimal.Decimal
	PaymentReference string
	ShippingAddress  string
	Items            []OrderItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TransitionTo меняет статус заказа, если переход разрешен
func (o *Order) TransitionTo(next OrderStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return &IllegalTransitionError{From: o.Status, To: next}
	}
	o.Status = next
	return nil
}

// OrderItem - снимок строки корзины на момент оформления. UnitPrice больше не пересчитывается
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string // заполняется через JOIN с таблицей products
	UnitPrice   decimal.Decimal
	Quantity    int
	CreatedAt   time.Time
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
