package repository

import (
	"github.com/MarcoHuebner/TicketPilot/app/models"
	"gorm.io/gorm"
)

// refundRepository implements the RefundRepository interface
type refundRepository struct {
	db *gorm.DB
}

// NewRefundRepository creates a new refund repository instance
func NewRefundRepository(db *gorm.DB) RefundRepository {
	return &refundRepository{db: db}
}

func (r *refundRepository) GetByOrderID(orderID uint) ([]models.Refund, error) {
	var refunds []models.Refund
	err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&refunds).Error
	return refunds, err
}

func (r *refundRepository) SumAmountByOrderID(orderID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Refund{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	return total, err
}
