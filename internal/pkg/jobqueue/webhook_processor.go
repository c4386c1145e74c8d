package jobqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/MarcoHuebner/TicketPilot/internal/pkg/database"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/payments"
)

// processWebhookJob runs one verified webhook delivery through the payment
// engine. The endpoint already checked the signature and parsed the payload
// once; the raw bytes ride along so the handler sees the exact delivery.
// Returned errors trigger the queue's retry/backoff, which stands in for
// provider redelivery between retries.
func (q *Queue) processWebhookJob(ctx context.Context, job *Job) error {
	payload, err := WebhookJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid webhook job payload: %w", err)
	}

	provider, err := payments.LoadProvider(payload.Provider)
	if err != nil {
		// Unknown provider in a stored job is a bug, not retryable.
		log.Errorf("[JobQueue] webhook job %s references unknown provider %s", job.ID, payload.Provider)
		return nil
	}

	ev, err := payments.ParseWebhookEvent([]byte(payload.Body))
	if err != nil {
		if errors.Is(err, payments.ErrMalformedPayload) {
			// The endpoint parsed this body once already; a failure here
			// means corrupted job data. Retrying cannot fix it.
			log.Errorf("[JobQueue] webhook job %s carries malformed payload: %v", job.ID, err)
			return nil
		}
		return err
	}

	return NewPaymentEngine().Dispatch(ctx, provider, ev)
}

// NewPaymentEngine wires a payment engine against the shared DB and cache,
// with ticket issuance hooked to the queue.
func NewPaymentEngine() *payments.Engine {
	engine := payments.NewEngine(payments.NewRepository(database.GetDB()), payments.NewRedisLedger())
	engine.NotifyPaymentReceived = func(orderID uint) {
		payload := IssueTicketsJobPayload{OrderID: orderID}
		if _, err := GetManager().GetQueue().EnqueueJob(JobTypeIssueTickets, payload.ToMap()); err != nil {
			log.Errorf("[JobQueue] failed to enqueue ticket issuance for order %d: %v", orderID, err)
		}
	}
	return engine
}
