package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/MarcoHuebner/TicketPilot/app/models"
)

// RefundClient issues refund requests against the provider API. Calls are
// not idempotent at the provider; the eligibility check below is what keeps
// a double submission from over-refunding.
type RefundClient interface {
	CreateRefund(ctx context.Context, providerPaymentID string, amountCents int64, currency string) (*ProviderRefund, error)
}

// ProviderRefund is the provider's view of an issued refund.
type ProviderRefund struct {
	ID          string
	PaymentID   string
	AmountCents int64
	Currency    string
	Status      string
}

// RefundResult is returned to the refund endpoint caller.
type RefundResult struct {
	RefundID    string `json:"refund_id"`
	PaymentID   string `json:"payment_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// Refund issues a partial or full refund for an order. Fails with
// ErrRefundNotEligible when the order is not in payment_received or
// partially_refunded, or when amount exceeds the remaining refundable
// balance. An empty currency defaults to the order's; a differing one is
// rejected with ErrCurrencyMismatch. The provider confirmation may
// additionally arrive later as a refund.processed webhook; the unique
// ledger index absorbs it.
func (e *Engine) Refund(ctx context.Context, client RefundClient, orderID uint, amountCents int64, currency string) (*RefundResult, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrRefundNotEligible)
	}

	order, err := e.repo.FindOrderByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	if currency != "" && !strings.EqualFold(currency, order.Currency) {
		return nil, fmt.Errorf("%w: got %s, order is charged in %s", ErrCurrencyMismatch, currency, order.Currency)
	}
	currency = order.Currency
	if order.PaymentStatus != models.PaymentStatusPaymentReceived &&
		order.PaymentStatus != models.PaymentStatusPartiallyRefunded {
		return nil, fmt.Errorf("%w: order is %s", ErrRefundNotEligible, order.PaymentStatus)
	}

	rec, err := e.findCapturedRecord(orderID)
	if err != nil {
		return nil, err
	}

	refunded, err := e.repo.SumRefunds(rec.ID)
	if err != nil {
		return nil, err
	}
	remaining := *rec.AmountReceivedCents - refunded
	if amountCents > remaining {
		return nil, fmt.Errorf("%w: %d exceeds remaining refundable balance %d", ErrRefundNotEligible, amountCents, remaining)
	}

	providerRefund, err := client.CreateRefund(ctx, *rec.ProviderPaymentID, amountCents, currency)
	if err != nil {
		return nil, fmt.Errorf("provider refund call failed: %w", err)
	}

	target := models.PaymentStatusPartiallyRefunded
	if refunded+amountCents >= *rec.AmountReceivedCents {
		target = models.PaymentStatusRefunded
	}

	err = e.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.CreateRefundIfNotExists(&models.Refund{
			PaymentRecordID:  rec.ID,
			OrderID:          orderID,
			ProviderRefundID: providerRefund.ID,
			AmountCents:      amountCents,
			Currency:         currency,
			Origin:           models.RefundOriginAPI,
		}); err != nil {
			return err
		}
		if err := tx.UpdatePaymentFields(rec.ID, map[string]interface{}{
			"refund_id": providerRefund.ID,
		}); err != nil {
			return err
		}
		if ok, err := tx.UpdateOrderStatusConditional(orderID, target); err != nil {
			return err
		} else if !ok {
			e.logRejected(models.PaymentProviderRazorpay, orderID, target)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Infof("[Payments] refund %s recorded for order %d (%d %s, status %s)", providerRefund.ID, orderID, amountCents, currency, target)
	return &RefundResult{
		RefundID:    providerRefund.ID,
		PaymentID:   *rec.ProviderPaymentID,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      target,
	}, nil
}

// findCapturedRecord resolves the order's captured payment record; an order
// in a refundable state always has one.
func (e *Engine) findCapturedRecord(orderID uint) (*models.PaymentRecord, error) {
	rec, err := e.repo.FindCapturedPaymentByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if rec.ProviderPaymentID == nil || rec.AmountReceivedCents == nil {
		return nil, fmt.Errorf("%w: no captured payment on order %d", ErrRefundNotEligible, orderID)
	}
	return rec, nil
}
