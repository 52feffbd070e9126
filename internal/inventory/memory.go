package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ticketly/pkg/logger"
)

type memoryEntry struct {
	mu            sync.Mutex
	available     int
	totalCapacity int
}

// MemoryLedger is an in-process Ledger keyed by ticket type. Each entry
// carries its own mutex, so contention is per ticket type just like the row
// locks in the database implementation. Used by tests and the seed tool.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*memoryEntry
	log     *logger.Logger
}

func NewMemoryLedger(log *logger.Logger) *MemoryLedger {
	return &MemoryLedger{
		entries: make(map[uuid.UUID]*memoryEntry),
		log:     log,
	}
}

// Track registers a ticket type with the given capacity, fully available.
// Re-registering an ID resets its entry.
func (m *MemoryLedger) Track(ticketTypeID uuid.UUID, totalCapacity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[ticketTypeID] = &memoryEntry{
		available:     totalCapacity,
		totalCapacity: totalCapacity,
	}
}

// Available returns the current availability for a ticket type.
func (m *MemoryLedger) Available(ticketTypeID uuid.UUID) (int, error) {
	entry, ok := m.lookup(ticketTypeID)
	if !ok {
		return 0, ErrTicketTypeNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.available, nil
}

func (m *MemoryLedger) Reserve(ctx context.Context, ticketTypeID uuid.UUID, quantity int) (*Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	entry, ok := m.lookup(ticketTypeID)
	if !ok {
		return nil, ErrTicketTypeNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.available < quantity {
		return nil, ErrInsufficientInventory
	}
	entry.available -= quantity

	return &Reservation{
		TicketTypeID: ticketTypeID,
		Quantity:     quantity,
		ReservedAt:   time.Now().UTC(),
	}, nil
}

func (m *MemoryLedger) Release(ctx context.Context, ticketTypeID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	entry, ok := m.lookup(ticketTypeID)
	if !ok {
		return ErrTicketTypeNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.available+quantity > entry.totalCapacity {
		if m.log != nil {
			m.log.LogInvariantViolation(ctx, ticketTypeID.String(), quantity)
		}
		return ErrInvariantViolation
	}
	entry.available += quantity

	return nil
}

func (m *MemoryLedger) lookup(ticketTypeID uuid.UUID) (*memoryEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[ticketTypeID]
	return entry, ok
}
