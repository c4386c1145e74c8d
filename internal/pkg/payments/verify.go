package payments

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/MarcoHuebner/TicketPilot/app/models"
)

// VerifyCheckout is the synchronous confirmation path, invoked by the
// buyer's browser right after provider-hosted checkout completes. It races
// the payment.captured webhook on purpose: both apply the identical record
// mutation and conditional transition, so whichever arrives first wins and
// the second observes a no-op that still counts as success.
//
// The dedup ledger is not consulted here, since it is keyed to webhook
// event types. Idempotence comes purely from the conditional update.
func (e *Engine) VerifyCheckout(ctx context.Context, orderShortID, paymentID, providerOrderID, signature, secret string) (bool, error) {
	ok, err := VerifyCheckoutSignature(providerOrderID, paymentID, signature, secret)
	if err != nil {
		return false, err
	}
	if !ok {
		log.Warnf("[Payments] checkout signature mismatch for order %s", orderShortID)
		return false, nil
	}

	var received bool
	var orderID uint
	err = e.repo.Transaction(ctx, func(tx Repository) error {
		order, err := tx.FindOrderByShortID(orderShortID)
		if err != nil {
			return err
		}

		rec, err := tx.FindPaymentByProviderOrderID(providerOrderID)
		if err != nil {
			return err
		}
		if rec.OrderID != order.ID {
			// Valid signature for a different order; reject.
			return ErrRecordNotFound
		}

		fields := map[string]interface{}{
			"provider_payment_id": paymentID,
			"provider_signature":  signature,
		}
		// The browser callback carries no amount; take it from the order
		// total unless the webhook already recorded the provider amount.
		if rec.AmountReceivedCents == nil {
			fields["amount_received_cents"] = order.TotalCents
		}
		if err := tx.UpdatePaymentFields(rec.ID, fields); err != nil {
			return err
		}

		got, err := e.transition(tx, order.ID, models.PaymentStatusPaymentReceived)
		if err != nil {
			return err
		}
		received = got
		orderID = order.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Payments] checkout verification found no matching record (order=%s, provider_order=%s)", orderShortID, providerOrderID)
			return false, nil
		}
		return false, err
	}

	if received && e.NotifyPaymentReceived != nil {
		e.NotifyPaymentReceived(orderID)
	}
	return true, nil
}
