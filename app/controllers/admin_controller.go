package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/MarcoHuebner/TicketPilot/app/models"
	"github.com/MarcoHuebner/TicketPilot/app/repository"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/database"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/jobqueue"
)

// HandleQueueStats reports job counts per status for the background queue.
func HandleQueueStats(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := jobqueue.GetManager().GetQueue().GetJobStats(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats_unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}

// HandleJobStatus returns one job by id, for chasing a stuck webhook.
func HandleJobStatus(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	job, err := jobqueue.GetManager().GetQueue().GetJob(ctx, c.Params("jobID"))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "job_lookup_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(job)
}

// HandleQueueInspect lists the raw Redis keys behind the queue, the dedup
// ledger and the pending counters, each with value and TTL. The low-level
// complement to the aggregated stats endpoint.
func HandleQueueInspect(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetQueueRepository()

	keys, err := repo.GetAllKeys()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "queue_inspect_failed"})
	}

	items := make([]fiber.Map, 0, len(keys))
	for _, key := range keys {
		value, err := repo.GetValue(key)
		if err != nil && !errors.Is(err, redis.Nil) {
			// List and hash keys (the queue itself, pending counters) have
			// no string value; report them by key and TTL only.
			value = ""
		}
		ttl, err := repo.GetTTL(key)
		if err != nil {
			ttl = -1
		}

		items = append(items, fiber.Map{
			"key":         key,
			"type":        classifyQueueKey(key),
			"value":       value,
			"ttl_seconds": int64(ttl.Seconds()),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"items": items, "count": len(items)})
}

// classifyQueueKey buckets a raw Redis key by the subsystem that owns it.
func classifyQueueKey(key string) string {
	switch {
	case strings.HasPrefix(key, jobqueue.JobKeyPrefix):
		return "job"
	case key == jobqueue.JobQueueKey || key == jobqueue.JobProcessingKey:
		return "queue"
	case strings.HasPrefix(key, "webhook:dedup:"):
		return "dedup_marker"
	case strings.HasPrefix(key, "payments:counters:"):
		return "counter"
	default:
		return "other"
	}
}

// HandleProviderStats returns the flushed operational counters per provider.
func HandleProviderStats(c *fiber.Ctx) error {
	var stats []models.ProviderStat
	if err := database.GetDB().Order("provider ASC").Find(&stats).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "stats_unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(stats)
}

// HandleOrderList pages through orders for the operator view.
func HandleOrderList(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	repo := repository.GetGlobalFactory().GetOrderRepository()
	orders, err := repo.List((page-1)*limit, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_list_failed"})
	}
	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_count_failed"})
	}

	statusCounts := make(map[string]int64, len(models.PaymentStatuses))
	for _, status := range models.PaymentStatuses {
		n, err := repo.CountByPaymentStatus(status)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_count_failed"})
		}
		statusCounts[status] = n
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"orders":        orders,
		"page":          page,
		"limit":         limit,
		"total":         total,
		"status_counts": statusCounts,
	})
}

// HandleTicketCheck resolves a ticket by its code, for entry scanning. A
// ticket is admissible while it is valid and its order kept enough of the
// payment (full refunds and cancellations void the whole order).
func HandleTicketCheck(c *fiber.Ctx) error {
	repos := repository.GetGlobalFactory().GetRepositories()

	ticket, err := repos.Ticket.GetByCode(c.Params("code"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "ticket_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "ticket_lookup_failed"})
	}

	order, err := repos.Order.GetByID(ticket.OrderID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_lookup_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ticket":         ticket,
		"payment_status": order.PaymentStatus,
		"admissible":     ticketAdmissible(ticket.Status, order.PaymentStatus),
	})
}

// ticketAdmissible reports whether a scanned ticket grants entry. A partial
// refund keeps the order's tickets admissible; a full refund or a
// cancellation voids them.
func ticketAdmissible(ticketStatus, paymentStatus string) bool {
	return ticketStatus == models.TicketStatusValid &&
		(paymentStatus == models.PaymentStatusPaymentReceived ||
			paymentStatus == models.PaymentStatusPartiallyRefunded)
}
