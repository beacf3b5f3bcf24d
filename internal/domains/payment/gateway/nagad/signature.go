package nagad

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// signParams computes the merchant signature: HMAC-SHA256 over the
// URL-encoded parameters sorted by key, excluding the signature field
// itself.
func signParams(params map[string]string, merchantKey string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}

	mac := hmac.New(sha256.New, []byte(merchantKey))
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

func signatureMatches(params map[string]string, merchantKey, got string) bool {
	expected := signParams(params, merchantKey)
	return hmac.Equal([]byte(expected), []byte(got))
}
