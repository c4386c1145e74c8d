package controllers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookApp() *fiber.App {
	app := fiber.New()
	app.Post("/webhooks/:provider", HandleProviderWebhook)
	return app
}

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookUnknownProvider(t *testing.T) {
	app := newWebhookApp()

	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewReader([]byte(`{}`)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestWebhookOfflineProviderHasNoChannel(t *testing.T) {
	app := newWebhookApp()

	req := httptest.NewRequest("POST", "/webhooks/boxoffice", bytes.NewReader([]byte(`{}`)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestWebhookSecretNotConfigured(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "")
	app := newWebhookApp()

	req := httptest.NewRequest("POST", "/webhooks/razorpay", bytes.NewReader([]byte(`{}`)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestWebhookInvalidSignature(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "whsec")
	app := newWebhookApp()

	body := []byte(`{"event":"payment.captured","payload":{}}`)
	req := httptest.NewRequest("POST", "/webhooks/razorpay", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", signBody(body, "wrong-secret"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookMissingSignatureHeader(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "whsec")
	app := newWebhookApp()

	req := httptest.NewRequest("POST", "/webhooks/razorpay", bytes.NewReader([]byte(`{}`)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookMalformedPayload(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "whsec")
	app := newWebhookApp()

	body := []byte(`{"event":`)
	req := httptest.NewRequest("POST", "/webhooks/razorpay", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", signBody(body, "whsec"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWebhookUnsupportedEventTypeAcknowledged(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "whsec")
	app := newWebhookApp()

	body := []byte(`{"event":"invoice.paid","payload":{}}`)
	req := httptest.NewRequest("POST", "/webhooks/razorpay", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", signBody(body, "whsec"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
