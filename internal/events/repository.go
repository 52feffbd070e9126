package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ticketly/internal/tickets"
)

type Repository interface {
	Create(event *Event) error
	GetByID(id uuid.UUID) (*Event, error)
	Update(id uuid.UUID, updates map[string]interface{}) (*Event, error)
	Delete(id uuid.UUID) error
	GetAll(query EventListQuery) ([]Event, int64, error)
	GetByOrganizer(organizerID uuid.UUID) ([]Event, error)
	GetUpcomingEvents(limit int) ([]Event, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(event *Event) error {
	return r.db.Create(event).Error
}

func (r *repository) GetByID(id uuid.UUID) (*Event, error) {
	var event Event
	err := r.db.Where("id = ?", id).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) Update(id uuid.UUID, updates map[string]interface{}) (*Event, error) {
	var event Event

	// First, get the current event
	if err := r.db.Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}

	// Update the event
	if err := r.db.Model(&event).Updates(updates).Error; err != nil {
		return nil, err
	}

	// Return updated event
	if err := r.db.Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}

	return &event, nil
}

func (r *repository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Bookings reference ticket types, so they go first
		if err := tx.Exec(
			"DELETE FROM bookings WHERE ticket_type_id IN (SELECT id FROM ticket_types WHERE event_id = ?)", id,
		).Error; err != nil {
			return fmt.Errorf("failed to delete event bookings: %w", err)
		}

		if err := tx.Where("event_id = ?", id).Delete(&tickets.TicketType{}).Error; err != nil {
			return fmt.Errorf("failed to delete event ticket types: %w", err)
		}

		if err := tx.Where("id = ?", id).Delete(&Event{}).Error; err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}

		return nil
	})
}

func (r *repository) GetAll(query EventListQuery) ([]Event, int64, error) {
	var events []Event
	var totalCount int64

	// Build the query
	db := r.db.Model(&Event{})

	// Apply filters
	if query.Search != "" {
		searchTerm := "%" + strings.ToLower(query.Search) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(venue) LIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	if query.Venue != "" {
		db = db.Where("LOWER(venue) LIKE ?", "%"+strings.ToLower(query.Venue)+"%")
	}

	// Date filters
	if query.DateFrom != "" {
		if dateFrom, err := time.Parse("2006-01-02", query.DateFrom); err == nil {
			db = db.Where("start_time >= ?", dateFrom)
		}
	}

	if query.DateTo != "" {
		if dateTo, err := time.Parse("2006-01-02", query.DateTo); err == nil {
			// Add 24 hours to include the entire day
			dateTo = dateTo.Add(24 * time.Hour)
			db = db.Where("start_time < ?", dateTo)
		}
	}

	// Count total records
	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination
	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}

	offset := (query.Page - 1) * query.Limit

	// Get paginated results
	err := db.Order("start_time ASC").
		Offset(offset).
		Limit(query.Limit).
		Find(&events).Error

	return events, totalCount, err
}

func (r *repository) GetByOrganizer(organizerID uuid.UUID) ([]Event, error) {
	var events []Event
	err := r.db.Where("organizer_id = ?", organizerID).
		Order("start_time ASC").
		Find(&events).Error
	return events, err
}

func (r *repository) GetUpcomingEvents(limit int) ([]Event, error) {
	var events []Event
	now := time.Now()

	err := r.db.Where("start_time > ?", now).
		Order("start_time ASC").
		Limit(limit).
		Find(&events).Error

	return events, err
}
