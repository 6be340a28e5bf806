package models_test

import (
	"testing"

	"github.com/linemk/shop-checkout/internal/domain/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_Transitions(t *testing.T) {
	cases := []struct {
		from, to models.OrderStatus
		allowed  bool
	}{
		{models.OrderStatusPending, models.OrderStatusPaid, true},
		{models.OrderStatusPending, models.OrderStatusFailed, true},
		{models.OrderStatusPending, models.OrderStatusCancelled, true},
		{models.OrderStatusPaid, models.OrderStatusCancelled, true},
		{models.OrderStatusPaid, models.OrderStatusPending, false},
		{models.OrderStatusPaid, models.OrderStatusFailed, false},
		{models.OrderStatusFailed, models.OrderStatusPaid, false},
		{models.OrderStatusCancelled, models.OrderStatusPaid, false},
		{models.OrderStatusPending, models.OrderStatusPending, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			order := &models.Order{Status: tc.from}
			err := order.TransitionTo(tc.to)
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tc.to, order.Status)
				return
			}
			var transitionErr *models.IllegalTransitionError
			require.ErrorAs(t, err, &transitionErr)
			assert.Equal(t, tc.from, transitionErr.From)
			assert.Equal(t, tc.from, order.Status, "status is unchanged")
		})
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.False(t, models.OrderStatusPending.IsTerminal())
	assert.False(t, models.OrderStatusPaid.IsTerminal())
	assert.True(t, models.OrderStatusFailed.IsTerminal())
	assert.True(t, models.OrderStatusCancelled.IsTerminal())
}

func TestCart_TotalAmountUsesCurrentPrices(t *testing.T) {
	cart := &models.Cart{Items: []models.CartItem{
		{ProductPrice: decimal.RequireFromString("10.00"), Quantity: 2},
		{ProductPrice: decimal.RequireFromString("5.00"), Quantity: 1},
	}}
	assert.Equal(t, "25.00", cart.TotalAmount().StringFixed(2))

	cart.Items[0].ProductPrice = decimal.RequireFromString("0.10")
	assert.Equal(t, "5.20", cart.TotalAmount().StringFixed(2))

	assert.True(t, (&models.Cart{}).TotalAmount().IsZero())
}

func TestOrderItem_SubtotalIsExact(t *testing.T) {
	item := models.OrderItem{UnitPrice: decimal.RequireFromString("0.10"), Quantity: 3}
	assert.Equal(t, "0.30", item.Subtotal().StringFixed(2))
}
