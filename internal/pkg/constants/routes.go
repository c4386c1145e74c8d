package constants

// Static route constants
const (
	WebhooksRoute = "/webhooks"
	HealthRoute   = "/healthz"
)
