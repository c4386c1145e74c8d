package repository

import (
	"time"

	"github.com/MarcoHuebner/TicketPilot/app/models"
)

// OrderRepository defines the interface for order-related database
// operations. There is deliberately no blanket update: payment_status writes
// go through the payments repository's conditional update, and buyer fields
// never change after creation.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByShortID(shortID string) (*models.Order, error)
	List(offset, limit int) ([]models.Order, error)
	Count() (int64, error)
	CountByPaymentStatus(status string) (int64, error)
}

// TicketRepository defines the interface for ticket-related database operations
type TicketRepository interface {
	GetByOrderID(orderID uint) ([]models.Ticket, error)
	GetByCode(code string) (*models.Ticket, error)
}

// RefundRepository defines the interface for refund ledger reads
type RefundRepository interface {
	GetByOrderID(orderID uint) ([]models.Refund, error)
	SumAmountByOrderID(orderID uint) (int64, error)
}

// QueueRepository defines the interface for inspecting the Redis job queue
type QueueRepository interface {
	GetAllKeys() ([]string, error)
	GetValue(key string) (string, error)
	GetTTL(key string) (time.Duration, error)
}
