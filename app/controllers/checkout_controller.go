package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/MarcoHuebner/TicketPilot/app/models"
	"github.com/MarcoHuebner/TicketPilot/app/repository"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/database"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/payments"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/shortener"
)

var validate = validator.New()

const orderShortIDLength = 10

// CreateOrderRequest is the body for placing a new order.
type CreateOrderRequest struct {
	EventID    uint   `json:"event_id" validate:"required"`
	BuyerEmail string `json:"buyer_email" validate:"required,email"`
	Quantity   int    `json:"quantity" validate:"required,min=1,max=10"`
}

// HandleCreateOrder places a new order in awaiting_payment. The order holds
// no money yet; checkout against a provider is a separate step.
func HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	db := database.GetDB()
	var event models.Event
	if err := db.First(&event, req.EventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_lookup_failed"})
	}

	shortID, err := shortener.GenerateSecureSlug(orderShortIDLength)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "short_id_generation_failed"})
	}

	order := &models.Order{
		ShortID:       shortID,
		EventID:       event.ID,
		BuyerEmail:    req.BuyerEmail,
		Quantity:      req.Quantity,
		TotalCents:    event.TicketPriceCents * int64(req.Quantity),
		Currency:      event.Currency,
		PaymentStatus: models.PaymentStatusAwaitingPayment,
	}
	if err := repository.GetGlobalFactory().GetOrderRepository().Create(order); err != nil {
		log.Errorf("[Checkout] failed to create order: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_create_failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleGetOrder returns one order with its tickets and refund ledger.
func HandleGetOrder(c *fiber.Ctx) error {
	repos := repository.GetGlobalFactory().GetRepositories()

	order, err := repos.Order.GetByShortID(c.Params("shortID"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_lookup_failed"})
	}

	tickets, err := repos.Ticket.GetByOrderID(order.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "ticket_lookup_failed"})
	}
	refunds, err := repos.Refund.GetByOrderID(order.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "refund_lookup_failed"})
	}
	refundedCents, err := repos.Refund.SumAmountByOrderID(order.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "refund_lookup_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"order":          order,
		"tickets":        tickets,
		"refunds":        refunds,
		"refunded_cents": refundedCents,
	})
}

// HandleCheckout starts a provider checkout for an order: it creates the
// provider-side order and the local payment record keyed by its id. The
// browser takes the returned provider order id into the hosted checkout.
func HandleCheckout(c *fiber.Ctx) error {
	order, err := repository.GetGlobalFactory().GetOrderRepository().GetByShortID(c.Params("shortID"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_lookup_failed"})
	}
	if order.PaymentStatus != models.PaymentStatusAwaitingPayment && order.PaymentStatus != models.PaymentStatusPaymentFailed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "order_not_payable", "payment_status": order.PaymentStatus})
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

	providerOrder, err := client.CreateOrder(ctx, order.TotalCents, order.Currency, order.ShortID)
	if err != nil {
		log.Errorf("[Checkout] provider order creation failed for order %s: %v", order.ShortID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "provider_order_failed"})
	}

	rec := &models.PaymentRecord{
		OrderID:         order.ID,
		Provider:        provider.Name,
		ProviderOrderID: providerOrder.ID,
	}
	if err := database.GetDB().Create(rec).Error; err != nil {
		log.Errorf("[Checkout] failed to persist payment record for order %s: %v", order.ShortID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "payment_record_failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"provider":          provider.Name,
		"provider_order_id": providerOrder.ID,
		"key_id":            provider.KeyID,
		"amount_cents":      order.TotalCents,
		"currency":          order.Currency,
	})
}
