package payments

import "errors"

var (
	// ErrSecretNotConfigured means the webhook or checkout secret is missing
	// from the environment. Distinct from a signature mismatch so callers can
	// log a configuration problem instead of a forged payload.
	ErrSecretNotConfigured = errors.New("payments: webhook secret not configured")

	// ErrProviderNotConfigured means the provider has no usable credentials.
	ErrProviderNotConfigured = errors.New("payments: provider not configured")

	// ErrUnknownProvider means no registry entry exists for the name.
	ErrUnknownProvider = errors.New("payments: unknown provider")

	// ErrMalformedPayload means the webhook body is not valid JSON or lacks
	// the event field.
	ErrMalformedPayload = errors.New("payments: malformed webhook payload")

	// ErrRecordNotFound means the payment record a handler looked up does not
	// exist. Logged and swallowed inside handlers; the order may have been
	// deleted or the webhook belongs to a foreign order.
	ErrRecordNotFound = errors.New("payments: payment record not found")

	// ErrRefundNotEligible is a business-rule rejection: wrong order state or
	// the amount exceeds the remaining refundable balance.
	ErrRefundNotEligible = errors.New("payments: order not eligible for refund")

	// ErrCurrencyMismatch means the requested refund currency differs from
	// the currency the order was charged in.
	ErrCurrencyMismatch = errors.New("payments: refund currency does not match order currency")
)
