package models

import "time"

const (
	TicketStatusValid    = "valid"
	TicketStatusRevoked  = "revoked"
	TicketStatusRedeemed = "redeemed"
)

// Ticket is issued per seat once an order's payment is confirmed. Codes are
// base62 slugs, unique across the platform.
type Ticket struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	EventID   uint      `gorm:"not null;index" json:"event_id"`
	Code      string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"code"`
	Status    string    `gorm:"type:varchar(16);not null;default:'valid';index" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Ticket) TableName() string { return "tickets" }
