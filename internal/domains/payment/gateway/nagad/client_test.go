package nagad

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technest-backend/internal/config"
	"technest-backend/internal/domains/payment/gateway"
	"technest-backend/internal/domains/payment/model"
)

func testAdapter() *adapter {
	return &adapter{
		cfg: config.NagadConfig{
			MerchantID:  "M001",
			MerchantKey: "merchant-secret",
			APIURL:      "https://sandbox.mynagad.com/remote-payment-gateway",
			CallbackURL: "http://localhost:8080/api/v1/payments/nagad/callback",
		},
		now: func() time.Time { return time.Unix(1700000000, 0) },
	}
}

func validCallbackQuery(key string) map[string]string {
	params := map[string]string{
		"merchant_id":    "M001",
		"order_ref":      "PAY1700000000000abcd",
		"payment_ref_id": "NGD-42",
		"amount":         "2000.00",
		"currency":       "BDT",
		"status":         "Success",
	}
	params["signature"] = signParams(params, key)
	return params
}

func TestInitiateBuildsSignedURL(t *testing.T) {
	a := testAdapter()

	result, err := a.Initiate(context.Background(), gateway.InitiateRequest{
		OrderRef: "PAY1700000000000abcd",
		Amount:   decimal.RequireFromString("2000.00"),
		Currency: "BDT",
	})
	require.NoError(t, err)

	parsed, err := url.Parse(result.PaymentURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "M001", q.Get("merchant_id"))
	assert.Equal(t, "PAY1700000000000abcd", q.Get("order_ref"))
	assert.Equal(t, "2000.00", q.Get("amount"))
	assert.NotEmpty(t, q.Get("signature"))

	// The embedded signature must verify against the same params.
	params := map[string]string{}
	for k := range q {
		params[k] = q.Get(k)
	}
	assert.True(t, signatureMatches(params, "merchant-secret", params["signature"]))
}

func TestVerifyCallback(t *testing.T) {
	a := testAdapter()
	ctx := context.Background()

	t.Run("accepts a correctly signed callback", func(t *testing.T) {
		cb := gateway.Callback{Query: validCallbackQuery("merchant-secret")}
		assert.NoError(t, a.VerifyCallback(ctx, cb))
	})

	t.Run("rejects a signature from the wrong key", func(t *testing.T) {
		cb := gateway.Callback{Query: validCallbackQuery("wrong-key")}
		err := a.VerifyCallback(ctx, cb)
		assert.ErrorIs(t, err, model.ErrInvalidSignature)
	})

	t.Run("rejects a tampered status", func(t *testing.T) {
		q := validCallbackQuery("merchant-secret")
		q["status"] = "Success2"
		err := a.VerifyCallback(ctx, gateway.Callback{Query: q})
		assert.ErrorIs(t, err, model.ErrInvalidSignature)
	})

	t.Run("rejects an empty callback", func(t *testing.T) {
		err := a.VerifyCallback(ctx, gateway.Callback{})
		assert.ErrorIs(t, err, model.ErrMalformedCallback)
	})
}

func TestParseNagadCallback(t *testing.T) {
	a := testAdapter()

	t.Run("Success maps to success", func(t *testing.T) {
		result, err := a.ParseCallback(gateway.Callback{Query: validCallbackQuery("merchant-secret")})
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeSuccess, result.Outcome)
		assert.Equal(t, "NGD-42", result.ProviderRef)
		assert.Equal(t, "2000", result.Amount.String())
	})

	t.Run("Aborted maps to failed", func(t *testing.T) {
		q := validCallbackQuery("merchant-secret")
		q["status"] = "Aborted"
		result, err := a.ParseCallback(gateway.Callback{Query: q})
		require.NoError(t, err)
		assert.Equal(t, model.OutcomeFailed, result.Outcome)
	})
}
