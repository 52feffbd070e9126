package tickets

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ticketType *TicketType) error
	GetByID(id uuid.UUID) (*TicketType, error)
	GetByEvent(eventID uuid.UUID) ([]TicketType, error)
	GetByOrganizer(organizerID uuid.UUID) ([]TicketType, error)
	Update(id uuid.UUID, updates map[string]interface{}) (*TicketType, error)
	Delete(id uuid.UUID) error
	ActiveBookingCount(ticketTypeID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ticketType *TicketType) error {
	return r.db.Create(ticketType).Error
}

func (r *repository) GetByID(id uuid.UUID) (*TicketType, error) {
	var ticketType TicketType
	err := r.db.Where("id = ?", id).First(&ticketType).Error
	if err != nil {
		return nil, err
	}
	return &ticketType, nil
}

func (r *repository) GetByEvent(eventID uuid.UUID) ([]TicketType, error) {
	var ticketTypes []TicketType
	err := r.db.Where("event_id = ?", eventID).
		Order("price ASC").
		Find(&ticketTypes).Error
	return ticketTypes, err
}

func (r *repository) GetByOrganizer(organizerID uuid.UUID) ([]TicketType, error) {
	var ticketTypes []TicketType
	err := r.db.
		Joins("JOIN events ON events.id = ticket_types.event_id").
		Where("events.organizer_id = ?", organizerID).
		Order("ticket_types.event_id, ticket_types.price ASC").
		Find(&ticketTypes).Error
	return ticketTypes, err
}

func (r *repository) Update(id uuid.UUID, updates map[string]interface{}) (*TicketType, error) {
	var ticketType TicketType

	if err := r.db.Where("id = ?", id).First(&ticketType).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&ticketType).Updates(updates).Error; err != nil {
		return nil, err
	}

	if err := r.db.Where("id = ?", id).First(&ticketType).Error; err != nil {
		return nil, err
	}

	return &ticketType, nil
}

func (r *repository) Delete(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&TicketType{}).Error
}

func (r *repository) ActiveBookingCount(ticketTypeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Table("bookings").
		Where("ticket_type_id = ? AND status = ?", ticketTypeID, "ACTIVE").
		Count(&count).Error
	return count, err
}
