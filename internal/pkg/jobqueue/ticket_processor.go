package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/MarcoHuebner/TicketPilot/app/models"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/database"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/shortener"
)

const ticketCodeLength = 12

// processIssueTicketsJob creates one ticket per ordered seat once payment
// is confirmed. Idempotent: re-invocation only fills in tickets that are
// still missing, so a retried job or a double post-commit hook cannot
// over-issue.
func (q *Queue) processIssueTicketsJob(ctx context.Context, job *Job) error {
	payload, err := IssueTicketsJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("invalid ticket job payload: %w", err)
	}

	db := database.GetDB().WithContext(ctx)

	var order models.Order
	if err := db.First(&order, "id = ?", payload.OrderID).Error; err != nil {
		log.Errorf("[JobQueue] ticket issuance: order %d not found: %v", payload.OrderID, err)
		return nil
	}
	if order.PaymentStatus != models.PaymentStatusPaymentReceived &&
		order.PaymentStatus != models.PaymentStatusPartiallyRefunded {
		// The order moved on (refunded/cancelled) before the job ran.
		log.Warnf("[JobQueue] ticket issuance skipped for order %d (status %s)", order.ID, order.PaymentStatus)
		return nil
	}

	var issued int64
	if err := db.Model(&models.Ticket{}).Where("order_id = ?", order.ID).Count(&issued).Error; err != nil {
		return err
	}

	for i := issued; i < int64(order.Quantity); i++ {
		code, err := shortener.GenerateSecureSlug(ticketCodeLength)
		if err != nil {
			return err
		}
		ticket := models.Ticket{
			OrderID: order.ID,
			EventID: order.EventID,
			Code:    code,
			Status:  models.TicketStatusValid,
		}
		if err := db.Create(&ticket).Error; err != nil {
			return err
		}
	}

	log.Infof("[JobQueue] issued %d ticket(s) for order %d", int64(order.Quantity)-issued, order.ID)
	return nil
}
