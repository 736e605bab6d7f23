package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrBadSignature = errors.New("webhook signature verification failed")

// VerifySignature checks the provider's signature header against the raw
// request body. Stripe signs "t.<body>" and sends "t=...,v1=<hex>"; iyzico
// and paytr send a plain base64 HMAC-SHA256 of the body.
func VerifySignature(provider, secret, header string, body []byte) error {
	switch provider {
	case "stripe":
		return verifyStripe(secret, header, body)
	case "iyzico", "paytr":
		return verifyBase64HMAC(secret, header, body)
	default:
		return ErrBadSignature
	}
}

func verifyStripe(secret, header string, body []byte) error {
	var ts, v1 string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			v1 = v
		}
	}
	if ts == "" || v1 == "" {
		return ErrBadSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)

	got, err := hex.DecodeString(v1)
	if err != nil || !hmac.Equal(got, mac.Sum(nil)) {
		return ErrBadSignature
	}
	return nil
}

func verifyBase64HMAC(secret, header string, body []byte) error {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	got, err := base64.StdEncoding.DecodeString(header)
	if err != nil || !hmac.Equal(got, mac.Sum(nil)) {
		return ErrBadSignature
	}
	return nil
}
