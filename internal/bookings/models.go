package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking holds quantity units of a ticket type for one customer. While status
// is ACTIVE those units stay charged against the ticket type's availability.
type Booking struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	EventID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"event_id"`
	TicketTypeID uuid.UUID  `gorm:"type:uuid;index;not null" json:"ticket_type_id"`
	Quantity     int        `gorm:"not null;check:quantity > 0" json:"quantity"`
	TotalPrice   float64    `gorm:"not null" json:"total_price"`
	Status       string     `gorm:"type:varchar(20);check:status IN ('ACTIVE', 'CANCELLED');default:'ACTIVE'" json:"status"`
	BookingRef   string     `gorm:"unique;not null" json:"booking_ref"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) IsActive() bool {
	return b.Status == string(StatusActive)
}

func (b *Booking) IsCancelled() bool {
	return b.Status == string(StatusCancelled)
}

// Identity carries the authenticated caller resolved from the JWT claims
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// CreateBookingRequest represents the booking creation payload
type CreateBookingRequest struct {
	TicketTypeID string `json:"ticket_type_id" binding:"required,uuid"`
	Quantity     int    `json:"quantity" binding:"required,min=1"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID           string     `json:"id"`
	EventID      string     `json:"event_id"`
	TicketTypeID string     `json:"ticket_type_id"`
	Quantity     int        `json:"quantity"`
	TotalPrice   float64    `json:"total_price"`
	Status       string     `json:"status"`
	BookingRef   string     `json:"booking_ref"`
	CreatedAt    time.Time  `json:"created_at"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
}

// PaginatedBookings wraps a page of a user's bookings
type PaginatedBookings struct {
	Bookings   []BookingResponse `json:"bookings"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		ID:           b.ID.String(),
		EventID:      b.EventID.String(),
		TicketTypeID: b.TicketTypeID.String(),
		Quantity:     b.Quantity,
		TotalPrice:   b.TotalPrice,
		Status:       b.Status,
		BookingRef:   b.BookingRef,
		CreatedAt:    b.CreatedAt,
		CancelledAt:  b.CancelledAt,
	}
}
