package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/MarcoHuebner/TicketPilot/internal/pkg/jobqueue"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/metrics/counter"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/payments"
)

// HandleProviderWebhook ingests one provider delivery. The endpoint only
// verifies the signature and hands the raw body to the job queue; all state
// changes happen in the workers. Providers treat any non-2xx as a failed
// delivery and redeliver, so rejections must be deliberate.
func HandleProviderWebhook(c *fiber.Ctx) error {
	providerName := strings.ToLower(strings.TrimSpace(c.Params("provider")))

	provider, err := payments.LoadProvider(providerName)
	if err != nil {
		if errors.Is(err, payments.ErrUnknownProvider) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_provider"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "provider_load_failed"})
	}
	if len(provider.Handlers) == 0 {
		// Offline providers have no webhook channel.
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no_webhook_channel"})
	}

	counter.AddWebhookReceived(provider.Name)

	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("X-Razorpay-Signature"))

	valid, err := provider.VerifyWebhook(rawBody, signature)
	if err != nil {
		if errors.Is(err, payments.ErrSecretNotConfigured) {
			// Misconfiguration on our side; let the provider redeliver
			// once the secret is in place.
			log.Errorf("[Webhook] %s webhook secret not configured", provider.Name)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "provider_not_configured"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "verification_failed"})
	}
	if !valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	ev, err := payments.ParseWebhookEvent(rawBody)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if !payments.IsSupportedEventType(ev.Type) {
		// Acknowledged so the provider stops redelivering event types we
		// never act on.
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	payload := jobqueue.WebhookJobPayload{
		Provider:  provider.Name,
		EventType: ev.Type,
		Body:      string(rawBody),
	}
	job, err := jobqueue.GetManager().GetQueue().EnqueueJob(jobqueue.JobTypeWebhookProcess, payload.ToMap())
	if err != nil {
		log.Errorf("[Webhook] failed to enqueue %s delivery: %v", ev.Type, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "enqueue_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "job_id": job.ID})
}
