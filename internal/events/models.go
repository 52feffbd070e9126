package events

import (
	"time"

	"github.com/google/uuid"

	"ticketly/internal/tickets"
)

type Event struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title       string    `json:"title" gorm:"not null;size:255"`
	Description string    `json:"description" gorm:"type:text"`
	Venue       string    `json:"venue" gorm:"not null;size:255"`
	StartTime   time.Time `json:"start_time" gorm:"not null"`

	OrganizerID uuid.UUID `json:"organizer_id" gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type EventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartTime   time.Time `json:"start_time"`
	OrganizerID string    `json:"organizer_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Populated only on detail endpoints that include inventory
	TicketTypes []tickets.TicketTypeResponse `json:"ticket_types,omitempty"`
}

type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required,min=3,max=255"`
	Description string    `json:"description" binding:"max=2000"`
	Venue       string    `json:"venue" binding:"required,min=3,max=255"`
	StartTime   time.Time `json:"start_time" binding:"required"`
}

type UpdateEventRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=3,max=255"`
	Description *string    `json:"description" binding:"omitempty,max=2000"`
	Venue       *string    `json:"venue" binding:"omitempty,min=3,max=255"`
	StartTime   *time.Time `json:"start_time"`
}

type EventListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	Venue    string `form:"venue"`
	DateFrom string `form:"date_from"`
	DateTo   string `form:"date_to"`
}

type PaginatedEvents struct {
	Events     []EventResponse `json:"events"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// Helper method to convert Event to EventResponse
func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		ID:          e.ID.String(),
		Title:       e.Title,
		Description: e.Description,
		Venue:       e.Venue,
		StartTime:   e.StartTime,
		OrganizerID: e.OrganizerID.String(),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}
