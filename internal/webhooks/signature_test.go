package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stripeHeader(secret string, ts string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", ts, body)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func base64Header(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyStripeSignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"id":"evt_1"}`)

	assert.NoError(t, VerifySignature("stripe", secret, stripeHeader(secret, "1700000000", body), body))

	// tampered body
	assert.ErrorIs(t,
		VerifySignature("stripe", secret, stripeHeader(secret, "1700000000", body), []byte(`{"id":"evt_2"}`)),
		ErrBadSignature)

	// wrong secret
	assert.ErrorIs(t,
		VerifySignature("stripe", "whsec_other", stripeHeader(secret, "1700000000", body), body),
		ErrBadSignature)

	// malformed header
	assert.ErrorIs(t, VerifySignature("stripe", secret, "v1=zzzz", body), ErrBadSignature)
	assert.ErrorIs(t, VerifySignature("stripe", secret, "garbage", body), ErrBadSignature)
}

func TestVerifyBase64Signature(t *testing.T) {
	secret := "iyz_secret"
	body := []byte(`{"paymentId":"42"}`)

	assert.NoError(t, VerifySignature("iyzico", secret, base64Header(secret, body), body))
	assert.NoError(t, VerifySignature("paytr", secret, base64Header(secret, body), body))

	assert.ErrorIs(t, VerifySignature("iyzico", secret, base64Header("other", body), body), ErrBadSignature)
	assert.ErrorIs(t, VerifySignature("iyzico", secret, "!!!not-base64!!!", body), ErrBadSignature)
}

func TestKnownProvider(t *testing.T) {
	assert.True(t, KnownProvider("stripe"))
	assert.True(t, KnownProvider("iyzico"))
	assert.True(t, KnownProvider("paytr"))
	assert.False(t, KnownProvider("paypal"))
	assert.False(t, KnownProvider(""))
}
