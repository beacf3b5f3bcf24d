package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"technest-backend/internal/domains/payment/gateway"
	"technest-backend/internal/domains/payment/model"
)

func callbackWithBody(body []byte) gateway.Callback {
	return gateway.Callback{RawBody: body}
}

const testSecret = "whsec_test_secret"

func signedHeader(body []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), body)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifySignature(t *testing.T) {
	now := time.Now()
	body := []byte(`{"type":"checkout.session.completed"}`)

	t.Run("accepts a valid signature", func(t *testing.T) {
		header := signedHeader(body, testSecret, now)
		assert.NoError(t, verifySignature(body, header, testSecret, now))
	})

	t.Run("rejects a signature from the wrong secret", func(t *testing.T) {
		header := signedHeader(body, "whsec_other", now)
		err := verifySignature(body, header, testSecret, now)
		assert.ErrorIs(t, err, model.ErrInvalidSignature)
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		header := signedHeader(body, testSecret, now)
		tampered := []byte(`{"type":"checkout.session.completed","extra":1}`)
		err := verifySignature(tampered, header, testSecret, now)
		assert.ErrorIs(t, err, model.ErrInvalidSignature)
	})

	t.Run("rejects a stale timestamp", func(t *testing.T) {
		header := signedHeader(body, testSecret, now.Add(-10*time.Minute))
		err := verifySignature(body, header, testSecret, now)
		assert.ErrorIs(t, err, model.ErrInvalidSignature)
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		err := verifySignature(body, "", testSecret, now)
		assert.ErrorIs(t, err, model.ErrInvalidSignature)
	})

	t.Run("accepts when any v1 signature matches", func(t *testing.T) {
		valid := signedHeader(body, testSecret, now)
		header := valid + ",v1=deadbeef"
		assert.NoError(t, verifySignature(body, header, testSecret, now))
	})
}

func TestParseCallback(t *testing.T) {
	a := &adapter{}

	t.Run("maps a completed session to success", func(t *testing.T) {
		body := []byte(`{
			"type": "checkout.session.completed",
			"data": {"object": {
				"id": "cs_123",
				"payment_intent": "pi_456",
				"amount_total": 2550,
				"currency": "usd",
				"payment_status": "paid",
				"metadata": {"order_ref": "PAY1700000000000abcd"}
			}}
		}`)

		result, err := a.ParseCallback(callbackWithBody(body))
		assert.NoError(t, err)
		assert.Equal(t, "PAY1700000000000abcd", result.OrderRef)
		assert.Equal(t, model.OutcomeSuccess, result.Outcome)
		assert.Equal(t, "pi_456", result.ProviderRef)
		assert.Equal(t, "25.5", result.Amount.String())
		assert.Equal(t, "USD", result.Currency)
	})

	t.Run("maps an expired session to failed", func(t *testing.T) {
		body := []byte(`{
			"type": "checkout.session.expired",
			"data": {"object": {
				"id": "cs_123",
				"metadata": {"order_ref": "PAY1"}
			}}
		}`)

		result, err := a.ParseCallback(callbackWithBody(body))
		assert.NoError(t, err)
		assert.Equal(t, model.OutcomeFailed, result.Outcome)
	})

	t.Run("rejects an event without an order ref", func(t *testing.T) {
		body := []byte(`{"type": "checkout.session.completed", "data": {"object": {"id": "cs_1"}}}`)
		_, err := a.ParseCallback(callbackWithBody(body))
		assert.ErrorIs(t, err, model.ErrMalformedCallback)
	})

	t.Run("unhandled event types are unknown", func(t *testing.T) {
		body := []byte(`{"type": "invoice.paid", "data": {"object": {"metadata": {"order_ref": "PAY2"}}}}`)
		result, err := a.ParseCallback(callbackWithBody(body))
		assert.NoError(t, err)
		assert.Equal(t, model.OutcomeUnknown, result.Outcome)
	})
}
