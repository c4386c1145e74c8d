package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebhookEventPaymentCaptured(t *testing.T) {
	ev, err := ParseWebhookEvent(capturedPayload("pay_1", "order_abc", 5000))
	require.NoError(t, err)

	assert.Equal(t, EventPaymentCaptured, ev.Type)
	assert.Equal(t, "pay_1", entityString(ev.Payment, "id"))
	assert.Equal(t, "order_abc", entityString(ev.Payment, "order_id"))
	assert.Equal(t, int64(5000), entityInt64(ev.Payment, "amount"))
	assert.NotEmpty(t, ev.Raw)
}

func TestParseWebhookEventRefund(t *testing.T) {
	ev, err := ParseWebhookEvent(refundPayload("rfnd_1", "pay_1", 2000))
	require.NoError(t, err)

	assert.Equal(t, EventRefundProcessed, ev.Type)
	assert.Equal(t, "rfnd_1", entityString(ev.Refund, "id"))
	assert.Equal(t, "pay_1", entityString(ev.Refund, "payment_id"))
	assert.Equal(t, int64(2000), entityInt64(ev.Refund, "amount"))
}

func TestParseWebhookEventOrderPaid(t *testing.T) {
	ev, err := ParseWebhookEvent(orderPaidPayload("order_abc", 5000))
	require.NoError(t, err)

	assert.Equal(t, EventOrderPaid, ev.Type)
	assert.Equal(t, "order_abc", entityString(ev.Order, "id"))
	assert.Equal(t, int64(5000), entityInt64(ev.Order, "amount_paid"))
}

func TestParseWebhookEventMalformedJSON(t *testing.T) {
	_, err := ParseWebhookEvent([]byte(`{"event":`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestParseWebhookEventMissingEventField(t *testing.T) {
	_, err := ParseWebhookEvent([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestParseWebhookEventUnknownTypeStillParses(t *testing.T) {
	ev, err := ParseWebhookEvent([]byte(`{"event":"invoice.paid","payload":{}}`))
	require.NoError(t, err)
	assert.Equal(t, "invoice.paid", ev.Type)
	assert.False(t, IsSupportedEventType(ev.Type))
}

func TestIsSupportedEventType(t *testing.T) {
	assert.True(t, IsSupportedEventType(EventPaymentCaptured))
	assert.True(t, IsSupportedEventType(EventPaymentFailed))
	assert.True(t, IsSupportedEventType(EventRefundProcessed))
	assert.True(t, IsSupportedEventType(EventOrderPaid))

	assert.False(t, IsSupportedEventType("payment.authorized"))
	assert.False(t, IsSupportedEventType(""))
}

func TestEntityHelpers(t *testing.T) {
	entity := map[string]interface{}{
		"id":     "pay_1",
		"amount": float64(5000),
		"note":   nil,
	}

	assert.Equal(t, "pay_1", entityString(entity, "id"))
	assert.Equal(t, "", entityString(entity, "note"))
	assert.Equal(t, "", entityString(entity, "missing"))
	assert.Equal(t, int64(5000), entityInt64(entity, "amount"))
	assert.Equal(t, int64(0), entityInt64(entity, "missing"))
	assert.Equal(t, "", entityString(nil, "id"))
}
