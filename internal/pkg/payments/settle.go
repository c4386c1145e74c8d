package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MarcoHuebner/TicketPilot/app/models"
)

// SettleOffline records a synchronous settlement for providers without a
// webhook channel (box office terminal, bank transfer confirmation by an
// operator). The settlement is recorded in one transaction: a payment
// record for the full order amount plus the conditional transition to
// payment_received. A false result means the order was not in
// awaiting_payment anymore.
func (e *Engine) SettleOffline(ctx context.Context, providerName, orderShortID, reference string) (bool, error) {
	var (
		settled bool
		orderID uint
	)
	err := e.repo.Transaction(ctx, func(tx Repository) error {
		order, err := tx.FindOrderByShortID(orderShortID)
		if err != nil {
			return err
		}
		orderID = order.ID

		ok, err := tx.UpdateOrderStatusConditional(order.ID, models.PaymentStatusPaymentReceived)
		if err != nil {
			return err
		}
		if !ok {
			e.logRejected(providerName, order.ID, models.PaymentStatusPaymentReceived)
			return nil
		}

		providerOrderID := fmt.Sprintf("%s_%s", providerName, uuid.NewString())
		amount := order.TotalCents
		rec := &models.PaymentRecord{
			OrderID:             order.ID,
			Provider:            providerName,
			ProviderOrderID:     providerOrderID,
			AmountReceivedCents: &amount,
		}
		if reference != "" {
			rec.ProviderPaymentID = &reference
		}
		if err := tx.CreatePaymentRecord(rec); err != nil {
			return err
		}

		settled = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if settled && e.NotifyPaymentReceived != nil {
		e.NotifyPaymentReceived(orderID)
	}
	return settled, nil
}
