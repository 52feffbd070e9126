package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrBookingNotFound = errors.New("booking not found")

// Repository defines the contract for booking data access
type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, bookingID uuid.UUID) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, int64, error)
	MarkCancelled(ctx context.Context, bookingID uuid.UUID, cancelledAt time.Time) error
	MarkActive(ctx context.Context, bookingID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) GetByID(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", bookingID).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, int64, error) {
	var bookings []Booking
	var totalCount int64

	db := r.db.WithContext(ctx).Model(&Booking{}).Where("user_id = ?", userID)

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&bookings).Error

	return bookings, totalCount, err
}

func (r *repository) MarkCancelled(ctx context.Context, bookingID uuid.UUID, cancelledAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ?", bookingID, string(StatusActive)).
		Updates(map[string]interface{}{
			"status":       string(StatusCancelled),
			"cancelled_at": cancelledAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// The status guard also skips rows a concurrent cancel already took;
		// read the row back to tell the two apart
		var current Booking
		err := r.db.WithContext(ctx).Select("status").Where("id = ?", bookingID).First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if current.IsCancelled() {
			return ErrAlreadyCancelled
		}
		return ErrBookingNotFound
	}
	return nil
}

func (r *repository) MarkActive(ctx context.Context, bookingID uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ?", bookingID).
		Updates(map[string]interface{}{
			"status":       string(StatusActive),
			"cancelled_at": nil,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}
