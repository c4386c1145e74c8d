package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/MarcoHuebner/TicketPilot/app/models"
	"github.com/MarcoHuebner/TicketPilot/app/repository"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/jobqueue"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/payments"
)

// VerifyPaymentRequest is the body posted by the browser after the hosted
// checkout redirects back.
type VerifyPaymentRequest struct {
	ProviderOrderID   string `json:"provider_order_id" validate:"required"`
	ProviderPaymentID string `json:"provider_payment_id" validate:"required"`
	Signature         string `json:"signature" validate:"required"`
}

// HandleVerifyPayment is the synchronous confirmation path. It races the
// async webhook for the same payment; whichever lands first wins the
// transition and the other becomes a no-op.
func HandleVerifyPayment(c *fiber.Ctx) error {
	var req VerifyPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	provider, err := payments.LoadProvider(models.PaymentProviderRazorpay)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "provider_load_failed"})
	}
	if !provider.Configured() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "provider_not_configured"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	engine := jobqueue.NewPaymentEngine()
	ok, err := engine.VerifyCheckout(ctx, c.Params("shortID"), req.ProviderPaymentID, req.ProviderOrderID, req.Signature, provider.KeySecret)
	if err != nil {
		log.Errorf("[Payments] checkout verification failed for order %s: %v", c.Params("shortID"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "verification_failed"})
	}
	if !ok {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": false, "message": "payment could not be verified"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "message": "payment verified"})
}

// RefundRequest is the admin body for issuing a refund. Currency is
// optional and must match the order's when given.
type RefundRequest struct {
	AmountCents int64  `json:"amount_cents" validate:"required,min=1"`
	Currency    string `json:"currency" validate:"omitempty,len=3"`
}

// HandleRefund issues a partial or full refund through the provider and
// records it in the ledger.
func HandleRefund(c *fiber.Ctx) error {
	var req RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	order, err := repository.GetGlobalFactory().GetOrderRepository().GetByShortID(c.Params("shortID"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_lookup_failed"})
	}

	provider, err := payments.LoadProvider(models.PaymentProviderRazorpay)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "provider_load_failed"})
	}
	client, err := payments.NewRazorpayClient(provider)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "provider_not_configured"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	result, err := jobqueue.NewPaymentEngine().Refund(ctx, client, order.ID, req.AmountCents, req.Currency)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrRefundNotEligible):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "refund_not_eligible", "message": err.Error()})
		case errors.Is(err, payments.ErrCurrencyMismatch):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "currency_mismatch", "order_currency": order.Currency})
		case errors.Is(err, payments.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no_captured_payment"})
		default:
			log.Errorf("[Payments] refund failed for order %s: %v", order.ShortID, err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "refund_failed"})
		}
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

// SettleRequest carries the optional operator reference for offline
// settlements (terminal receipt number, bank statement line).
type SettleRequest struct {
	Reference string `json:"reference"`
}

// HandleBoxofficeSettle records a point-of-sale settlement for an order.
func HandleBoxofficeSettle(c *fiber.Ctx) error {
	return settleOffline(c, models.PaymentProviderBoxoffice)
}

// HandleBankTransferSettle records a manually confirmed bank transfer.
func HandleBankTransferSettle(c *fiber.Ctx) error {
	return settleOffline(c, models.PaymentProviderBankTransfer)
}

func settleOffline(c *fiber.Ctx, providerName string) error {
	var req SettleRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	settled, err := jobqueue.NewPaymentEngine().SettleOffline(ctx, providerName, c.Params("shortID"), req.Reference)
	if err != nil {
		if errors.Is(err, payments.ErrRecordNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
		}
		log.Errorf("[Payments] %s settlement failed for order %s: %v", providerName, c.Params("shortID"), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "settlement_failed"})
	}
	if !settled {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "order_not_payable"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "payment_status": models.PaymentStatusPaymentReceived})
}
