package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentProviderRazorpay     = "razorpay"
	PaymentProviderBoxoffice    = "boxoffice"
	PaymentProviderBankTransfer = "banktransfer"
)

// PaymentRecord is one checkout attempt against a provider. An order can
// accumulate several over retries, normally one active. Records are never
// hard-deleted; they are soft-retired with the parent order.
type PaymentRecord struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	OrderID             uint           `gorm:"not null;index" json:"order_id"`
	Provider            string         `gorm:"type:varchar(20);not null;index" json:"provider"`
	ProviderOrderID     string         `gorm:"type:varchar(191);not null;uniqueIndex" json:"provider_order_id"`
	ProviderPaymentID   *string        `gorm:"type:varchar(191);default:null;index" json:"provider_payment_id,omitempty"`
	ProviderSignature   *string        `gorm:"type:varchar(191);default:null" json:"-"`
	AmountReceivedCents *int64         `gorm:"default:null" json:"amount_received_cents,omitempty"`
	RefundID            *string        `gorm:"type:varchar(191);default:null" json:"refund_id,omitempty"`
	LastError           datatypes.JSON `gorm:"type:json" json:"last_error,omitempty"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PaymentRecord) TableName() string { return "payment_records" }
