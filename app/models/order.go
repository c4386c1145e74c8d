package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PaymentStatusAwaitingPayment   = "awaiting_payment"
	PaymentStatusPaymentReceived   = "payment_received"
	PaymentStatusPaymentFailed     = "payment_failed"
	PaymentStatusPartiallyRefunded = "partially_refunded"
	PaymentStatusRefunded          = "refunded"
	PaymentStatusCancelled         = "cancelled"
)

// PaymentStatuses lists every order payment status.
var PaymentStatuses = []string{
	PaymentStatusAwaitingPayment,
	PaymentStatusPaymentReceived,
	PaymentStatusPaymentFailed,
	PaymentStatusPartiallyRefunded,
	PaymentStatusRefunded,
	PaymentStatusCancelled,
}

// Order is a ticket purchase. Its payment_status column is owned exclusively
// by the payment state machine; nothing else writes it directly.
type Order struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ShortID       string         `gorm:"type:varchar(16);not null;uniqueIndex" json:"short_id"`
	EventID       uint           `gorm:"not null;index" json:"event_id"`
	Event         *Event         `gorm:"foreignKey:EventID" json:"event,omitempty"`
	BuyerEmail    string         `gorm:"type:varchar(255);not null" json:"buyer_email"`
	Quantity      int            `gorm:"not null;default:1" json:"quantity"`
	TotalCents    int64          `gorm:"not null" json:"total_cents"`
	Currency      string         `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	PaymentStatus string         `gorm:"type:varchar(32);not null;default:'awaiting_payment';index" json:"payment_status"`
	PaidAt        *time.Time     `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	RefundedAt    *time.Time     `gorm:"type:timestamp;default:null" json:"refunded_at,omitempty"`
	CancelledAt   *time.Time     `gorm:"type:timestamp;default:null" json:"cancelled_at,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Order) TableName() string { return "orders" }

// IsTerminalPaymentStatus reports whether a status has no outgoing
// transitions.
func IsTerminalPaymentStatus(status string) bool {
	return status == PaymentStatusRefunded || status == PaymentStatusCancelled
}
