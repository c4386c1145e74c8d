package payments

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/datatypes"

	"github.com/MarcoHuebner/TicketPilot/app/models"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/metrics/counter"
)

// Engine drives the payment state machine from both confirmation channels.
// Webhook handlers run on job queue workers; the synchronous verification
// path runs on the buyer's request. Neither holds a lock; the conditional
// order update serializes them at the database row.
type Engine struct {
	repo   Repository
	ledger DedupLedger

	// NotifyPaymentReceived fires after an order transitions to
	// payment_received (ticket issuance hook). Optional.
	NotifyPaymentReceived func(orderID uint)
}

// NewEngine creates a payment engine on top of a repository and dedup ledger.
func NewEngine(repo Repository, ledger DedupLedger) *Engine {
	return &Engine{repo: repo, ledger: ledger}
}

// Dispatch routes one parsed event through the provider's handler table by
// exact event-type match. A supported type without a table entry is a
// registry misconfiguration and is logged as an error, never silently
// dropped.
func (e *Engine) Dispatch(ctx context.Context, p *Provider, ev *WebhookEvent) error {
	h, ok := p.Handlers[ev.Type]
	if !ok {
		if IsSupportedEventType(ev.Type) {
			log.Errorf("[Payments] no handler registered for supported event %s (provider %s)", ev.Type, p.Name)
		}
		return nil
	}
	return h(e, ctx, ev)
}

// HandlePaymentCaptured sets the provider payment id and captured amount on
// the payment record and moves the order to payment_received.
func (e *Engine) HandlePaymentCaptured(ctx context.Context, ev *WebhookEvent) error {
	paymentID := entityString(ev.Payment, "id")
	providerOrderID := entityString(ev.Payment, "order_id")
	if paymentID == "" || providerOrderID == "" {
		log.Errorf("[Payments] %s event missing payment id or order id", ev.Type)
		return nil
	}

	return e.runHandler(ctx, ev.Type, paymentID, func(tx Repository) (bool, error) {
		rec, err := tx.FindPaymentByProviderOrderID(providerOrderID)
		if err != nil {
			return false, err
		}

		amount := entityInt64(ev.Payment, "amount")
		if err := tx.UpdatePaymentFields(rec.ID, map[string]interface{}{
			"provider_payment_id":   paymentID,
			"amount_received_cents": amount,
		}); err != nil {
			return false, err
		}

		return e.transition(tx, rec.OrderID, models.PaymentStatusPaymentReceived)
	})
}

// HandlePaymentFailed overwrites the record's last_error with the provider's
// error fields and moves the order to payment_failed.
func (e *Engine) HandlePaymentFailed(ctx context.Context, ev *WebhookEvent) error {
	paymentID := entityString(ev.Payment, "id")
	providerOrderID := entityString(ev.Payment, "order_id")
	if paymentID == "" || providerOrderID == "" {
		log.Errorf("[Payments] %s event missing payment id or order id", ev.Type)
		return nil
	}

	lastError := extractErrorFields(ev.Payment)

	return e.runHandler(ctx, ev.Type, paymentID, func(tx Repository) (bool, error) {
		rec, err := tx.FindPaymentByProviderOrderID(providerOrderID)
		if err != nil {
			return false, err
		}

		fields := map[string]interface{}{
			"provider_payment_id": paymentID,
		}
		if raw, merr := json.Marshal(lastError); merr == nil {
			fields["last_error"] = datatypes.JSON(raw)
		}
		if err := tx.UpdatePaymentFields(rec.ID, fields); err != nil {
			return false, err
		}

		if ok, err := tx.UpdateOrderStatusConditional(rec.OrderID, models.PaymentStatusPaymentFailed); err != nil {
			return false, err
		} else if !ok {
			e.logRejected(models.PaymentProviderRazorpay, rec.OrderID, models.PaymentStatusPaymentFailed)
		}
		return false, nil
	})
}

// HandleRefundProcessed appends a ledger entry for the provider refund and
// recomputes the order status from the refunded total. Idempotent against a
// refund that was already fully recorded through the Refund Service.
func (e *Engine) HandleRefundProcessed(ctx context.Context, ev *WebhookEvent) error {
	refundID := entityString(ev.Refund, "id")
	paymentID := entityString(ev.Refund, "payment_id")
	if refundID == "" || paymentID == "" {
		log.Errorf("[Payments] %s event missing refund id or payment id", ev.Type)
		return nil
	}

	return e.runHandler(ctx, ev.Type, refundID, func(tx Repository) (bool, error) {
		rec, err := tx.FindPaymentByProviderPaymentID(paymentID)
		if err != nil {
			return false, err
		}

		amount := entityInt64(ev.Refund, "amount")
		currency := entityString(ev.Refund, "currency")
		if _, err := tx.CreateRefundIfNotExists(&models.Refund{
			PaymentRecordID:  rec.ID,
			OrderID:          rec.OrderID,
			ProviderRefundID: refundID,
			AmountCents:      amount,
			Currency:         currency,
			Origin:           models.RefundOriginWebhook,
		}); err != nil {
			return false, err
		}

		if err := tx.UpdatePaymentFields(rec.ID, map[string]interface{}{
			"refund_id": refundID,
		}); err != nil {
			return false, err
		}

		refunded, err := tx.SumRefunds(rec.ID)
		if err != nil {
			return false, err
		}

		target := models.PaymentStatusPartiallyRefunded
		if rec.AmountReceivedCents != nil && refunded >= *rec.AmountReceivedCents {
			target = models.PaymentStatusRefunded
		}
		if ok, err := tx.UpdateOrderStatusConditional(rec.OrderID, target); err != nil {
			return false, err
		} else if !ok {
			e.logRejected(models.PaymentProviderRazorpay, rec.OrderID, target)
		}
		return false, nil
	})
}

// HandleOrderPaid is the provider's secondary confirmation that an order was
// paid. It converges on the same transition as payment.captured; a record
// that already carries a payment id is left untouched.
func (e *Engine) HandleOrderPaid(ctx context.Context, ev *WebhookEvent) error {
	providerOrderID := entityString(ev.Order, "id")
	if providerOrderID == "" {
		log.Errorf("[Payments] %s event missing order id", ev.Type)
		return nil
	}

	return e.runHandler(ctx, ev.Type, providerOrderID, func(tx Repository) (bool, error) {
		rec, err := tx.FindPaymentByProviderOrderID(providerOrderID)
		if err != nil {
			return false, err
		}

		// No-op mutation when payment.captured already filled the record.
		if rec.ProviderPaymentID == nil {
			fields := map[string]interface{}{}
			if paymentID := entityString(ev.Payment, "id"); paymentID != "" {
				fields["provider_payment_id"] = paymentID
			}
			if amount := entityInt64(ev.Order, "amount_paid"); amount > 0 {
				fields["amount_received_cents"] = amount
			}
			if len(fields) > 0 {
				if err := tx.UpdatePaymentFields(rec.ID, fields); err != nil {
					return false, err
				}
			}
		}

		return e.transition(tx, rec.OrderID, models.PaymentStatusPaymentReceived)
	})
}

// runHandler wraps the shared handler shape: dedup check, one transaction,
// ledger mark after commit. The mutate callback reports whether the order
// reached payment_received so the ticket-issuance hook can fire.
func (e *Engine) runHandler(ctx context.Context, eventType, entityID string, mutate func(tx Repository) (bool, error)) error {
	seen, err := e.ledger.Seen(ctx, eventType, entityID)
	if err != nil {
		return err
	}
	if seen {
		log.Infof("[Payments] event already handled, skipping (type=%s, entity=%s)", eventType, entityID)
		counter.AddDedupHit(models.PaymentProviderRazorpay)
		return nil
	}

	var (
		received    bool
		recordFound = true
		orderID     uint
	)
	err = e.repo.Transaction(ctx, func(tx Repository) error {
		got, merr := mutate(txWithOrderCapture{tx, &orderID})
		if merr != nil {
			if errors.Is(merr, ErrRecordNotFound) {
				// Order deleted or webhook for an unknown order. Logged,
				// not retried.
				log.Errorf("[Payments] no payment record for event (type=%s, entity=%s)", eventType, entityID)
				recordFound = false
				return nil
			}
			return merr
		}
		received = got
		return nil
	})
	if err != nil {
		counter.AddHandlerFailure(models.PaymentProviderRazorpay)
		// Re-raise so the job queue's retry/backoff redelivers. The ledger
		// key stays unmarked.
		return err
	}

	if recordFound {
		if err := e.ledger.Mark(ctx, eventType, entityID); err != nil {
			log.Errorf("[Payments] failed to mark dedup ledger (type=%s, entity=%s): %v", eventType, entityID, err)
		}
	}
	if received && e.NotifyPaymentReceived != nil {
		e.NotifyPaymentReceived(orderID)
	}
	return nil
}

// transition applies target and reports whether the order actually reached
// payment_received through this call. DB errors propagate so the enclosing
// transaction rolls back.
func (e *Engine) transition(tx Repository, orderID uint, target string) (bool, error) {
	ok, err := tx.UpdateOrderStatusConditional(orderID, target)
	if err != nil {
		return false, err
	}
	if !ok {
		e.logRejected(models.PaymentProviderRazorpay, orderID, target)
		return false, nil
	}
	return target == models.PaymentStatusPaymentReceived, nil
}

func (e *Engine) logRejected(provider string, orderID uint, target string) {
	// Expected outcome of a won race on the other channel; informational.
	log.Infof("[Payments] transition to %s rejected for order %d (stale or already applied)", target, orderID)
	counter.AddTransitionRejected(provider)
}

// txWithOrderCapture records the order id touched by a mutation so the
// post-commit hook knows which order to issue tickets for.
type txWithOrderCapture struct {
	Repository
	orderID *uint
}

func (t txWithOrderCapture) UpdateOrderStatusConditional(orderID uint, target string) (bool, error) {
	*t.orderID = orderID
	return t.Repository.UpdateOrderStatusConditional(orderID, target)
}

// extractErrorFields copies the provider error fields onto a map, filtering
// nulls and empty strings. Overwrites the previous last_error wholesale.
func extractErrorFields(payment map[string]interface{}) map[string]string {
	out := map[string]string{}
	for _, key := range []string{"error_code", "error_description", "error_source", "error_step", "error_reason"} {
		if v := entityString(payment, key); v != "" {
			out[key] = v
		}
	}
	return out
}
