package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTicketTypeNotFound    = errors.New("ticket type not found")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInvalidQuantity       = errors.New("quantity must be positive")

	// ErrInvariantViolation means a release would push availability past total
	// capacity. That is always a caller bug, it is logged and rejected rather
	// than clamped.
	ErrInvariantViolation = errors.New("inventory invariant violation")
)

// Reservation is the token returned by a successful Reserve. It records what
// was taken so the caller can hand it back through Release on a rollback.
type Reservation struct {
	TicketTypeID uuid.UUID `json:"ticket_type_id"`
	Quantity     int       `json:"quantity"`
	ReservedAt   time.Time `json:"reserved_at"`
}

// Ledger is the single authority over per-ticket-type availability. Both
// operations are atomic with respect to all other Reserve/Release calls on the
// same ticket type. Calls on distinct ticket types never contend with each
// other.
type Ledger interface {
	// Reserve atomically checks and decrements availability. It either takes
	// the full quantity or nothing.
	Reserve(ctx context.Context, ticketTypeID uuid.UUID, quantity int) (*Reservation, error)

	// Release atomically returns quantity units to the pool. Availability can
	// never exceed total capacity; an attempt to do so fails with
	// ErrInvariantViolation.
	Release(ctx context.Context, ticketTypeID uuid.UUID, quantity int) error
}
