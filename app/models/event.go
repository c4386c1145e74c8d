package models

import (
	"time"

	"gorm.io/gorm"
)

// Event is a concert, show or other happening tickets are sold for.
type Event struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Title            string         `gorm:"type:varchar(255);not null" json:"title"`
	Venue            string         `gorm:"type:varchar(255);not null" json:"venue"`
	StartsAt         time.Time      `gorm:"type:timestamp;not null;index" json:"starts_at"`
	Capacity         int            `gorm:"not null;default:0" json:"capacity"`
	TicketPriceCents int64          `gorm:"not null;default:0" json:"ticket_price_cents"`
	Currency         string         `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Event) TableName() string { return "events" }
