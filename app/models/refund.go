package models

import "time"

const (
	RefundOriginAPI     = "api"
	RefundOriginWebhook = "webhook"
)

// Refund is one ledger entry per provider refund, partial or full. The sum
// of amount_cents per payment record never exceeds the captured amount; the
// unique provider_refund_id index makes webhook redelivery a no-op.
type Refund struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	PaymentRecordID  uint      `gorm:"not null;index" json:"payment_record_id"`
	OrderID          uint      `gorm:"not null;index" json:"order_id"`
	ProviderRefundID string    `gorm:"type:varchar(191);not null;uniqueIndex" json:"provider_refund_id"`
	AmountCents      int64     `gorm:"not null" json:"amount_cents"`
	Currency         string    `gorm:"type:varchar(3);not null" json:"currency"`
	Origin           string    `gorm:"type:varchar(16);not null;default:'api'" json:"origin"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Refund) TableName() string { return "refunds" }
