package model

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderRef(t *testing.T) {
	t.Run("sslcommerz refs use REF prefix", func(t *testing.T) {
		ref := NewOrderRef(PaymentMethodSSLCommerz)
		assert.True(t, strings.HasPrefix(ref, "REF"))
	})

	t.Run("other methods use PAY prefix with suffix", func(t *testing.T) {
		ref := NewOrderRef(PaymentMethodStripe)
		assert.True(t, strings.HasPrefix(ref, "PAY"))
		// millisecond timestamp (13 digits) plus 4 hex chars
		assert.Len(t, ref, 3+13+4)
	})

	t.Run("two refs in a row differ", func(t *testing.T) {
		assert.NotEqual(t, NewOrderRef(PaymentMethodBkash), NewOrderRef(PaymentMethodBkash))
	})
}

func TestCurrencyForMethod(t *testing.T) {
	assert.Equal(t, CurrencyBDT, CurrencyForMethod(PaymentMethodSSLCommerz))
	assert.Equal(t, CurrencyBDT, CurrencyForMethod(PaymentMethodBkash))
	assert.Equal(t, CurrencyBDT, CurrencyForMethod(PaymentMethodNagad))
	assert.Equal(t, CurrencyBDT, CurrencyForMethod(PaymentMethodRocket))
	assert.Equal(t, CurrencyUSD, CurrencyForMethod(PaymentMethodStripe))
	assert.Equal(t, CurrencyUSD, CurrencyForMethod(PaymentMethodPayoneer))
}

func TestMethodAllowedForLocation(t *testing.T) {
	assert.True(t, MethodAllowedForLocation(PaymentMethodBkash, LocationLocal))
	assert.True(t, MethodAllowedForLocation(PaymentMethodSSLCommerz, LocationLocal))
	assert.False(t, MethodAllowedForLocation(PaymentMethodStripe, LocationLocal))
	assert.True(t, MethodAllowedForLocation(PaymentMethodStripe, LocationInternational))
	assert.False(t, MethodAllowedForLocation(PaymentMethodNagad, LocationInternational))
	// no location selected, no restriction
	assert.True(t, MethodAllowedForLocation(PaymentMethodStripe, ""))
}

func TestOrderItemsTotal(t *testing.T) {
	order := &Order{
		Items: []OrderItem{
			{ID: "a", Title: "Mechanical Keyboard", Price: decimal.RequireFromString("1200.50")},
			{ID: "b", Title: "USB Hub", Price: decimal.RequireFromString("799.50")},
		},
	}

	require.True(t, order.ItemsTotal().Equal(decimal.RequireFromString("2000.00")))
}

func TestOrderStateHelpers(t *testing.T) {
	t.Run("pending order is not terminal", func(t *testing.T) {
		o := &Order{PaymentStatus: PaymentStatusPending}
		assert.False(t, o.IsTerminal())
		assert.False(t, o.IsPaid())
		assert.False(t, o.CanBeRefunded())
	})

	t.Run("completed payment is terminal and refundable", func(t *testing.T) {
		o := &Order{PaymentStatus: PaymentStatusCompleted}
		assert.True(t, o.IsTerminal())
		assert.True(t, o.IsPaid())
		assert.True(t, o.CanBeRefunded())
	})

	t.Run("failed payment is terminal but not refundable", func(t *testing.T) {
		o := &Order{PaymentStatus: PaymentStatusFailed}
		assert.True(t, o.IsTerminal())
		assert.False(t, o.CanBeRefunded())
	})
}

func TestAdminListOrdersRequestValidate(t *testing.T) {
	t.Run("normalizes paging", func(t *testing.T) {
		req := AdminListOrdersRequest{Page: 0, Limit: 500}
		require.NoError(t, req.Validate())
		assert.Equal(t, 1, req.Page)
		assert.Equal(t, 20, req.Limit)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		bad := "shipped"
		req := AdminListOrdersRequest{Status: &bad}
		assert.Error(t, req.Validate())
	})
}

func TestReconcileRequestValidate(t *testing.T) {
	t.Run("requires a known outcome", func(t *testing.T) {
		req := ReconcileRequest{Outcome: "refunded", Notes: "checked dashboard"}
		assert.Error(t, req.Validate())
	})

	t.Run("requires notes", func(t *testing.T) {
		req := ReconcileRequest{Outcome: PaymentStatusCompleted}
		assert.Error(t, req.Validate())
	})

	t.Run("accepts a completed outcome with notes", func(t *testing.T) {
		req := ReconcileRequest{Outcome: PaymentStatusCompleted, Notes: "verified on provider dashboard"}
		assert.NoError(t, req.Validate())
	})
}
