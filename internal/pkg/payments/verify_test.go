package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcoHuebner/TicketPilot/app/models"
)

func checkoutSig(providerOrderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(providerOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyCheckoutSuccess(t *testing.T) {
	engine, repo, _ := newTestEngine()
	repo.addOrder(&models.Order{ID: 1, ShortID: "abc123", TotalCents: 5000, PaymentStatus: models.PaymentStatusAwaitingPayment})
	repo.addRecord(&models.PaymentRecord{OrderID: 1, Provider: models.PaymentProviderRazorpay, ProviderOrderID: "order_abc"})

	var notified int
	engine.NotifyPaymentReceived = func(uint) { notified++ }

	sig := checkoutSig("order_abc", "pay_1", "secret")
	ok, err := engine.VerifyCheckout(context.Background(), "abc123", "pay_1", "order_abc", sig, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, models.PaymentStatusPaymentReceived, repo.orders[1].PaymentStatus)
	assert.Equal(t, 1, notified)

	rec := repo.records[1]
	require.NotNil(t, rec.ProviderPaymentID)
	assert.Equal(t, "pay_1", *rec.ProviderPaymentID)
	require.NotNil(t, rec.ProviderSignature)
	assert.Equal(t, sig, *rec.ProviderSignature)
	// No amount on the browser callback; the order total stands in.
	require.NotNil(t, rec.AmountReceivedCents)
	assert.Equal(t, int64(5000), *rec.AmountReceivedCents)
}

func TestVerifyCheckoutSignatureMismatch(t *testing.T) {
	engine, repo, _ := newTestEngine()
	repo.addOrder(&models.Order{ID: 1, ShortID: "abc123", TotalCents: 5000, PaymentStatus: models.PaymentStatusAwaitingPayment})
	repo.addRecord(&models.PaymentRecord{OrderID: 1, Provider: models.PaymentProviderRazorpay, ProviderOrderID: "order_abc"})

	sig := checkoutSig("order_abc", "pay_1", "wrong-secret")
	ok, err := engine.VerifyCheckout(context.Background(), "abc123", "pay_1", "order_abc", sig, "secret")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, models.PaymentStatusAwaitingPayment, repo.orders[1].PaymentStatus)
	assert.Nil(t, repo.records[1].ProviderPaymentID)
}

func TestVerifyCheckoutAfterWebhookIsIdempotent(t *testing.T) {
	engine, repo, _ := newTestEngine()
	repo.addOrder(&models.Order{ID: 1, ShortID: "abc123", TotalCents: 5000, PaymentStatus: models.PaymentStatusAwaitingPayment})
	repo.addRecord(&models.PaymentRecord{OrderID: 1, Provider: models.PaymentProviderRazorpay, ProviderOrderID: "order_abc"})

	// Webhook wins the race.
	require.NoError(t, engine.HandlePaymentCaptured(context.Background(), mustParse(capturedPayload("pay_1", "order_abc", 4900))))

	var notified int
	engine.NotifyPaymentReceived = func(uint) { notified++ }

	sig := checkoutSig("order_abc", "pay_1", "secret")
	ok, err := engine.VerifyCheckout(context.Background(), "abc123", "pay_1", "order_abc", sig, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	// The webhook's provider-reported amount is kept.
	require.NotNil(t, repo.records[1].AmountReceivedCents)
	assert.Equal(t, int64(4900), *repo.records[1].AmountReceivedCents)
	assert.Equal(t, models.PaymentStatusPaymentReceived, repo.orders[1].PaymentStatus)
	assert.Equal(t, 0, notified)
}

func TestWebhookAfterVerifyCheckoutIsNoOp(t *testing.T) {
	engine, repo, ledger := newTestEngine()
	repo.addOrder(&models.Order{ID: 1, ShortID: "abc123", TotalCents: 5000, PaymentStatus: models.PaymentStatusAwaitingPayment})
	repo.addRecord(&models.PaymentRecord{OrderID: 1, Provider: models.PaymentProviderRazorpay, ProviderOrderID: "order_abc"})

	var notified int
	engine.NotifyPaymentReceived = func(uint) { notified++ }

	// The browser callback wins the race.
	sig := checkoutSig("order_abc", "pay_1", "secret")
	ok, err := engine.VerifyCheckout(context.Background(), "abc123", "pay_1", "order_abc", sig, "secret")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, notified)

	require.NoError(t, engine.HandlePaymentCaptured(context.Background(), mustParse(capturedPayload("pay_1", "order_abc", 4900))))

	assert.Equal(t, models.PaymentStatusPaymentReceived, repo.orders[1].PaymentStatus)
	// Issuance fired exactly once, on the verification side.
	assert.Equal(t, 1, notified)
	// The provider-reported amount supersedes the order-total stand-in.
	require.NotNil(t, repo.records[1].AmountReceivedCents)
	assert.Equal(t, int64(4900), *repo.records[1].AmountReceivedCents)

	// The losing delivery is still marked handled.
	seen, err := ledger.Seen(context.Background(), EventPaymentCaptured, "pay_1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestVerifyAndWebhookConcurrentConverge(t *testing.T) {
	engine, repo, _ := newTestEngine()
	repo.addOrder(&models.Order{ID: 1, ShortID: "abc123", TotalCents: 5000, PaymentStatus: models.PaymentStatusAwaitingPayment})
	repo.addRecord(&models.PaymentRecord{OrderID: 1, Provider: models.PaymentProviderRazorpay, ProviderOrderID: "order_abc"})

	var notified int32
	engine.NotifyPaymentReceived = func(uint) { atomic.AddInt32(&notified, 1) }

	sig := checkoutSig("order_abc", "pay_1", "secret")
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := engine.VerifyCheckout(context.Background(), "abc123", "pay_1", "order_abc", sig, "secret")
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		assert.NoError(t, engine.HandlePaymentCaptured(context.Background(), mustParse(capturedPayload("pay_1", "order_abc", 4900))))
	}()
	wg.Wait()

	// Whichever side lost observed a rejected transition; the row converged
	// and the issuance hook fired exactly once.
	assert.Equal(t, models.PaymentStatusPaymentReceived, repo.orders[1].PaymentStatus)
	assert.Equal(t, int32(1), atomic.LoadInt32(&notified))
}

func TestVerifyCheckoutRecordBelongsToOtherOrder(t *testing.T) {
	engine, repo, _ := newTestEngine()
	repo.addOrder(&models.Order{ID: 1, ShortID: "abc123", TotalCents: 5000, PaymentStatus: models.PaymentStatusAwaitingPayment})
	repo.addOrder(&models.Order{ID: 2, ShortID: "xyz789", TotalCents: 8000, PaymentStatus: models.PaymentStatusAwaitingPayment})
	repo.addRecord(&models.PaymentRecord{OrderID: 2, Provider: models.PaymentProviderRazorpay, ProviderOrderID: "order_abc"})

	sig := checkoutSig("order_abc", "pay_1", "secret")
	ok, err := engine.VerifyCheckout(context.Background(), "abc123", "pay_1", "order_abc", sig, "secret")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, models.PaymentStatusAwaitingPayment, repo.orders[2].PaymentStatus)
}

func TestVerifyCheckoutUnknownOrder(t *testing.T) {
	engine, _, _ := newTestEngine()

	sig := checkoutSig("order_abc", "pay_1", "secret")
	ok, err := engine.VerifyCheckout(context.Background(), "missing", "pay_1", "order_abc", sig, "secret")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyCheckoutEmptySecret(t *testing.T) {
	engine, _, _ := newTestEngine()

	_, err := engine.VerifyCheckout(context.Background(), "abc123", "pay_1", "order_abc", "deadbeef", "")
	assert.ErrorIs(t, err, ErrSecretNotConfigured)
}
