package payments

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MarcoHuebner/TicketPilot/app/models"
)

// Repository provides the DB operations the payment engine needs. Handlers
// run every mutation through Transaction so a record update and its order
// transition commit or roll back together.
type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	FindOrderByID(orderID uint) (*models.Order, error)
	FindOrderByShortID(shortID string) (*models.Order, error)
	FindPaymentByProviderOrderID(providerOrderID string) (*models.PaymentRecord, error)
	FindPaymentByProviderPaymentID(providerPaymentID string) (*models.PaymentRecord, error)
	FindCapturedPaymentByOrderID(orderID uint) (*models.PaymentRecord, error)
	CreatePaymentRecord(rec *models.PaymentRecord) error
	UpdatePaymentFields(recordID uint, fields map[string]interface{}) error

	// UpdateOrderStatusConditional applies the state-machine transition as a
	// single conditional UPDATE and reports whether a row was affected.
	// False is the expected outcome of a lost race, not an error.
	UpdateOrderStatusConditional(orderID uint, target string) (bool, error)

	SumRefunds(paymentRecordID uint) (int64, error)
	CreateRefundIfNotExists(r *models.Refund) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) FindOrderByID(orderID uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.First(&o, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *gormRepository) FindOrderByShortID(shortID string) (*models.Order, error) {
	var o models.Order
	if err := r.db.First(&o, "short_id = ?", shortID).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *gormRepository) FindPaymentByProviderOrderID(providerOrderID string) (*models.PaymentRecord, error) {
	var rec models.PaymentRecord
	err := r.db.First(&rec, "provider_order_id = ?", providerOrderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *gormRepository) FindPaymentByProviderPaymentID(providerPaymentID string) (*models.PaymentRecord, error) {
	var rec models.PaymentRecord
	err := r.db.First(&rec, "provider_payment_id = ?", providerPaymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *gormRepository) FindCapturedPaymentByOrderID(orderID uint) (*models.PaymentRecord, error) {
	var rec models.PaymentRecord
	err := r.db.
		Where("order_id = ? AND provider_payment_id IS NOT NULL", orderID).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *gormRepository) CreatePaymentRecord(rec *models.PaymentRecord) error {
	return r.db.Create(rec).Error
}

func (r *gormRepository) UpdatePaymentFields(recordID uint, fields map[string]interface{}) error {
	return r.db.Model(&models.PaymentRecord{}).Where("id = ?", recordID).Updates(fields).Error
}

func (r *gormRepository) UpdateOrderStatusConditional(orderID uint, target string) (bool, error) {
	sources := AllowedSources(target)
	if len(sources) == 0 {
		return false, nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"payment_status": target,
		"updated_at":     now,
	}
	switch target {
	case models.PaymentStatusPaymentReceived:
		updates["paid_at"] = &now
	case models.PaymentStatusRefunded:
		updates["refunded_at"] = &now
	case models.PaymentStatusCancelled:
		updates["cancelled_at"] = &now
	}

	tx := r.db.Model(&models.Order{}).
		Where("id = ? AND payment_status IN ?", orderID, sources).
		Updates(updates)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) SumRefunds(paymentRecordID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Refund{}).
		Where("payment_record_id = ?", paymentRecordID).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	return total, err
}

func (r *gormRepository) CreateRefundIfNotExists(ref *models.Refund) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_refund_id"}},
		DoNothing: true,
	}).Create(ref)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
