package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ticketly/internal/tickets"
	"ticketly/pkg/logger"
)

// gormLedger implements Ledger on PostgreSQL. Each mutation is a single
// conditional UPDATE, so the row lock taken by the database serializes
// concurrent calls per ticket type while rows for other ticket types stay
// untouched.
type gormLedger struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGormLedger(db *gorm.DB, log *logger.Logger) Ledger {
	return &gormLedger{
		db:  db,
		log: log,
	}
}

func (l *gormLedger) Reserve(ctx context.Context, ticketTypeID uuid.UUID, quantity int) (*Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	result := l.db.WithContext(ctx).
		Model(&tickets.TicketType{}).
		Where("id = ? AND available >= ?", ticketTypeID, quantity).
		UpdateColumn("available", gorm.Expr("available - ?", quantity))

	if result.Error != nil {
		return nil, fmt.Errorf("failed to reserve inventory: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Either the row does not exist or it has too little stock. A second
		// read distinguishes the two; the reservation itself already failed
		// atomically either way.
		exists, err := l.ticketTypeExists(ctx, ticketTypeID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrTicketTypeNotFound
		}
		return nil, ErrInsufficientInventory
	}

	return &Reservation{
		TicketTypeID: ticketTypeID,
		Quantity:     quantity,
		ReservedAt:   time.Now().UTC(),
	}, nil
}

func (l *gormLedger) Release(ctx context.Context, ticketTypeID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	result := l.db.WithContext(ctx).
		Model(&tickets.TicketType{}).
		Where("id = ? AND available + ? <= total_capacity", ticketTypeID, quantity).
		UpdateColumn("available", gorm.Expr("available + ?", quantity))

	if result.Error != nil {
		return fmt.Errorf("failed to release inventory: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		exists, err := l.ticketTypeExists(ctx, ticketTypeID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrTicketTypeNotFound
		}
		// The release would overflow total capacity
		l.log.LogInvariantViolation(ctx, ticketTypeID.String(), quantity)
		return ErrInvariantViolation
	}

	return nil
}

func (l *gormLedger) ticketTypeExists(ctx context.Context, ticketTypeID uuid.UUID) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&tickets.TicketType{}).
		Where("id = ?", ticketTypeID).
		Count(&count).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to look up ticket type: %w", err)
	}
	return count > 0, nil
}
