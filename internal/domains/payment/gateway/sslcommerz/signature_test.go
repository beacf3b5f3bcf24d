package sslcommerz

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"technest-backend/internal/domains/payment/gateway"
	"technest-backend/internal/domains/payment/model"
)

const testStorePassword = "store-secret"

// signForm computes verify_sign the way the gateway does, so the tests
// exercise the real verification path end to end.
func signForm(form map[string]string, storePassword string) {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	form["verify_key"] = strings.Join(keys, ",")

	passwordHash := md5.Sum([]byte(storePassword))
	pairs := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		pairs = append(pairs, k+"="+form[k])
	}
	pairs = append(pairs, "store_passwd="+hex.EncodeToString(passwordHash[:]))
	sort.Strings(pairs)

	sum := md5.Sum([]byte(strings.Join(pairs, "&")))
	form["verify_sign"] = hex.EncodeToString(sum[:])
}

func validIPNForm() map[string]string {
	form := map[string]string{
		"tran_id":      "REF1700000000000",
		"val_id":       "VAL123",
		"amount":       "2000.00",
		"currency":     "BDT",
		"status":       "VALID",
		"card_type":    "VISA-Dutch Bangla",
		"card_brand":   "VISA",
		"card_issuer":  "STANDARD CHARTERED BANK",
		"bank_tran_id": "BANK789",
	}
	signForm(form, testStorePassword)
	return form
}

func TestVerifySign(t *testing.T) {
	t.Run("accepts a correctly signed IPN", func(t *testing.T) {
		assert.NoError(t, verifySign(validIPNForm(), testStorePassword))
	})

	t.Run("rejects a tampered amount", func(t *testing.T) {
		form := validIPNForm()
		form["amount"] = "1.00"
		err := verifySign(form, testStorePassword)
		assert.ErrorIs(t, err, model.ErrInvalidSignature)
	})

	t.Run("rejects the wrong store password", func(t *testing.T) {
		err := verifySign(validIPNForm(), "other-password")
		assert.ErrorIs(t, err, model.ErrInvalidSignature)
	})

	t.Run("rejects a payload without verify_sign", func(t *testing.T) {
		form := validIPNForm()
		delete(form, "verify_sign")
		err := verifySign(form, testStorePassword)
		assert.ErrorIs(t, err, model.ErrInvalidSignature)
	})
}

func TestParseIPN(t *testing.T) {
	a := &adapter{}

	t.Run("VALID status maps to success with provider details", func(t *testing.T) {
		result, err := a.ParseCallback(gateway.Callback{Form: validIPNForm()})
		require.NoError(t, err)
		assert.Equal(t, "REF1700000000000", result.OrderRef)
		assert.Equal(t, model.OutcomeSuccess, result.Outcome)
		assert.Equal(t, "VAL123", result.ValidationID)
		assert.Equal(t, "BANK789", result.BankTransactionID)
		assert.Equal(t, "2000", result.Amount.String())
		assert.Equal(t, "BDT", result.Currency)
	})

	t.Run("FAILED and CANCELLED map to failed", func(t *testing.T) {
		for _, status := range []string{"FAILED", "CANCELLED"} {
			form := validIPNForm()
			form["status"] = status
			result, err := a.ParseCallback(gateway.Callback{Form: form})
			require.NoError(t, err)
			assert.Equal(t, model.OutcomeFailed, result.Outcome)
		}
	})

	t.Run("missing tran_id is malformed", func(t *testing.T) {
		form := validIPNForm()
		delete(form, "tran_id")
		_, err := a.ParseCallback(gateway.Callback{Form: form})
		assert.ErrorIs(t, err, model.ErrMalformedCallback)
	})
}
