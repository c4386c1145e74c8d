package payments

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Webhook event types handled by the razorpay entry in the registry.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventRefundProcessed = "refund.processed"
	EventOrderPaid       = "order.paid"
)

var supportedEventTypes = map[string]struct{}{
	EventPaymentCaptured: {},
	EventPaymentFailed:   {},
	EventRefundProcessed: {},
	EventOrderPaid:       {},
}

// WebhookEvent is the typed view of one provider delivery. It is
// reconstructed per request and never persisted as an entity; the dedup
// ledger and payment record carry the durable state.
type WebhookEvent struct {
	Type    string
	Payment map[string]interface{}
	Refund  map[string]interface{}
	Order   map[string]interface{}
	Raw     json.RawMessage
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity map[string]interface{} `json:"entity"`
		} `json:"payment"`
		Refund struct {
			Entity map[string]interface{} `json:"entity"`
		} `json:"refund"`
		Order struct {
			Entity map[string]interface{} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

// ParseWebhookEvent turns raw payload bytes into a WebhookEvent. Returns
// ErrMalformedPayload when the body is not valid JSON or the event field is
// missing.
func ParseWebhookEvent(raw []byte) (*WebhookEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if strings.TrimSpace(env.Event) == "" {
		return nil, fmt.Errorf("%w: missing event field", ErrMalformedPayload)
	}

	return &WebhookEvent{
		Type:    env.Event,
		Payment: env.Payload.Payment.Entity,
		Refund:  env.Payload.Refund.Entity,
		Order:   env.Payload.Order.Entity,
		Raw:     append(json.RawMessage(nil), raw...),
	}, nil
}

// IsSupportedEventType filters to the event set the platform reacts to.
// Unsupported types are acknowledged with 2xx but never dispatched, so the
// provider does not retry events we intentionally ignore.
func IsSupportedEventType(eventType string) bool {
	_, ok := supportedEventTypes[eventType]
	return ok
}

// entityString extracts a string field from a nested entity map.
func entityString(entity map[string]interface{}, key string) string {
	if entity == nil {
		return ""
	}
	if v, ok := entity[key].(string); ok {
		return v
	}
	return ""
}

// entityInt64 extracts an integer amount from a nested entity map. Provider
// payloads deliver amounts as JSON numbers in minor currency units.
func entityInt64(entity map[string]interface{}, key string) int64 {
	if entity == nil {
		return 0
	}
	switch v := entity[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case json.Number:
		n, _ := v.Int64()
		return n
	}
	return 0
}
