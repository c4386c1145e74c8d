package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyWebhookSignature checks the provider signature header against an
// HMAC-SHA256 of the exact raw payload bytes. Re-serialized JSON would
// invalidate the MAC, so callers must pass the body untouched.
//
// A mismatch returns (false, nil); ErrSecretNotConfigured is returned only
// when no secret is configured at all.
func VerifyWebhookSignature(payload []byte, signatureHeader, webhookSecret string) (bool, error) {
	secret := strings.TrimSpace(webhookSecret)
	if secret == "" {
		return false, ErrSecretNotConfigured
	}

	sig := strings.TrimSpace(signatureHeader)
	if sig == "" {
		return false, nil
	}

	expected, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false, nil
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected), nil
}

// VerifyCheckoutSignature checks the signature the buyer's browser carries
// back after provider-hosted checkout. Unlike the webhook MAC it binds
// "<provider order id>|<payment id>" rather than a request body.
func VerifyCheckoutSignature(providerOrderID, paymentID, signature, secret string) (bool, error) {
	if strings.TrimSpace(secret) == "" {
		return false, ErrSecretNotConfigured
	}
	if providerOrderID == "" || paymentID == "" || signature == "" {
		return false, nil
	}

	expected, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(signature)))
	if err != nil {
		return false, nil
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(providerOrderID + "|" + paymentID))
	return hmac.Equal(mac.Sum(nil), expected), nil
}
