package repository

import (
	"github.com/MarcoHuebner/TicketPilot/app/models"
	"gorm.io/gorm"
)

// ticketRepository implements the TicketRepository interface
type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository creates a new ticket repository instance
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) GetByOrderID(orderID uint) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepository) GetByCode(code string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.Where("code = ?", code).First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}
