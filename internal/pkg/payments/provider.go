package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/MarcoHuebner/TicketPilot/internal/pkg/env"
)

// ProviderNames lists every registry entry, in LoadProvider's spelling.
var ProviderNames = []string{"razorpay", "boxoffice", "banktransfer"}

// HandlerFunc processes one webhook event for a provider. The registry
// binds Engine methods via method expressions.
type HandlerFunc func(e *Engine, ctx context.Context, ev *WebhookEvent) error

// Provider is one entry of the payment provider registry. The event-type to
// handler mapping and the signature scheme differ per provider, so each
// entry carries its own verifier and handler set instead of a type
// hierarchy.
type Provider struct {
	Name          string
	KeyID         string
	KeySecret     string
	WebhookSecret string

	// Handlers maps webhook event types to their handler. Empty for
	// providers without a webhook channel (boxoffice, banktransfer).
	Handlers map[string]HandlerFunc
}

// Configured reports whether the provider has usable credentials. It never
// errors so the platform can run with a subset of providers enabled.
func (p *Provider) Configured() bool {
	switch p.Name {
	case "razorpay":
		return p.KeyID != "" && p.KeySecret != ""
	default:
		// Offline providers need no credentials.
		return true
	}
}

// CheckConfiguration inspects the credentials of every registry entry. In
// strict mode the first unconfigured provider aborts startup with an error;
// otherwise it is logged and the platform runs with the remaining providers.
func CheckConfiguration(strict bool) error {
	for _, name := range ProviderNames {
		p, err := LoadProvider(name)
		if err != nil {
			return err
		}
		if p.Configured() {
			continue
		}
		if strict {
			return fmt.Errorf("provider %s: %w", name, ErrProviderNotConfigured)
		}
		log.Warnf("[Payments] provider %s is not configured, continuing without it", name)
	}
	return nil
}

// VerifyWebhook validates a raw delivery against the provider's webhook
// secret.
func (p *Provider) VerifyWebhook(payload []byte, signatureHeader string) (bool, error) {
	return VerifyWebhookSignature(payload, signatureHeader, p.WebhookSecret)
}

// LoadProvider resolves a registry entry by name, reading credentials from
// the environment on every call so configuration stays queryable without
// restarts.
func LoadProvider(name string) (*Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "razorpay":
		return &Provider{
			Name:          "razorpay",
			KeyID:         env.GetEnv("RAZORPAY_KEY_ID", ""),
			KeySecret:     env.GetEnv("RAZORPAY_KEY_SECRET", ""),
			WebhookSecret: env.GetEnv("RAZORPAY_WEBHOOK_SECRET", ""),
			Handlers: map[string]HandlerFunc{
				EventPaymentCaptured: (*Engine).HandlePaymentCaptured,
				EventPaymentFailed:   (*Engine).HandlePaymentFailed,
				EventRefundProcessed: (*Engine).HandleRefundProcessed,
				EventOrderPaid:       (*Engine).HandleOrderPaid,
			},
		}, nil
	case "boxoffice":
		// Embedded offline settlement: the point-of-sale terminal settles
		// locally and the settlement is recorded synchronously, no webhooks.
		return &Provider{Name: "boxoffice"}, nil
	case "banktransfer":
		// Manual confirmation by an operator.
		return &Provider{Name: "banktransfer"}, nil
	default:
		return nil, ErrUnknownProvider
	}
}
