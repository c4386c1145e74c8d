package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupKeyShape(t *testing.T) {
	assert.Equal(t, "webhook:dedup:payment.captured:pay_1", dedupKey(EventPaymentCaptured, "pay_1"))
	assert.Equal(t, "webhook:dedup:refund.processed:rfnd_9", dedupKey(EventRefundProcessed, "rfnd_9"))
}

func TestDedupKeysDistinctAcrossEventTypes(t *testing.T) {
	// payment.captured and order.paid for the same entity id must not
	// collide; they are separate deliveries.
	assert.NotEqual(t, dedupKey(EventPaymentCaptured, "x"), dedupKey(EventOrderPaid, "x"))
}
