package models

import "time"

// ProviderStat accumulates operational counters per payment provider. The
// live counts sit in Redis and are flushed here in batches by the jobqueue
// manager.
type ProviderStat struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	Provider             string    `gorm:"type:varchar(20);not null;uniqueIndex" json:"provider"`
	WebhooksReceived     int64     `gorm:"not null;default:0" json:"webhooks_received"`
	DedupHits            int64     `gorm:"not null;default:0" json:"dedup_hits"`
	TransitionsRejected  int64     `gorm:"not null;default:0" json:"transitions_rejected"`
	HandlerFailures      int64     `gorm:"not null;default:0" json:"handler_failures"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ProviderStat) TableName() string { return "provider_stats" }
