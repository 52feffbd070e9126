package tickets

import (
	"time"

	"github.com/google/uuid"
)

// TicketType is a finite pool of identical tickets for one event. TotalCapacity
// is fixed at creation; Available is mutated only through the inventory ledger.
type TicketType struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	EventID       uuid.UUID `json:"event_id" gorm:"type:uuid;not null;index"`
	Label         string    `json:"label" gorm:"not null;size:100"`
	Price         float64   `json:"price" gorm:"not null;check:price >= 0"`
	TotalCapacity int       `json:"total_capacity" gorm:"not null;check:total_capacity > 0"`
	Available     int       `json:"available" gorm:"not null;check:available >= 0"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type TicketTypeResponse struct {
	ID            string  `json:"id"`
	EventID       string  `json:"event_id"`
	Label         string  `json:"label"`
	Price         float64 `json:"price"`
	TotalCapacity int     `json:"total_capacity"`
	Available     int     `json:"available"`
}

type CreateTicketTypeRequest struct {
	Label         string  `json:"label" binding:"required,min=1,max=100"`
	Price         float64 `json:"price" binding:"min=0"`
	TotalCapacity int     `json:"total_capacity" binding:"required,min=1,max=100000"`
}

type UpdateTicketTypeRequest struct {
	Label *string  `json:"label" binding:"omitempty,min=1,max=100"`
	Price *float64 `json:"price" binding:"omitempty,min=0"`
}

func (t *TicketType) ToResponse() TicketTypeResponse {
	return TicketTypeResponse{
		ID:            t.ID.String(),
		EventID:       t.EventID.String(),
		Label:         t.Label,
		Price:         t.Price,
		TotalCapacity: t.TotalCapacity,
		Available:     t.Available,
	}
}

// TableName specifies the table name for GORM
func (TicketType) TableName() string {
	return "ticket_types"
}
