package sslcommerz

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"

	"technest-backend/internal/domains/payment/model"
)

// verifySign validates the IPN hash. SSLCommerz lists the signed fields
// in verify_key, the merchant adds store_passwd as an MD5 of the store
// password, sorts the pairs by key and MD5s the query-string form. A
// payload without verify_sign or verify_key is treated as forged.
func verifySign(form map[string]string, storePassword string) error {
	verifySign := form["verify_sign"]
	verifyKey := form["verify_key"]
	if verifySign == "" || verifyKey == "" {
		return model.ErrInvalidSignature
	}

	passwordHash := md5.Sum([]byte(storePassword))

	pairs := make([]string, 0, 16)
	for _, key := range strings.Split(verifyKey, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		pairs = append(pairs, key+"="+form[key])
	}
	pairs = append(pairs, "store_passwd="+hex.EncodeToString(passwordHash[:]))
	sort.Strings(pairs)

	sum := md5.Sum([]byte(strings.Join(pairs, "&")))
	expected := hex.EncodeToString(sum[:])

	if subtle.ConstantTimeCompare([]byte(expected), []byte(verifySign)) != 1 {
		return model.ErrInvalidSignature
	}

	return nil
}
