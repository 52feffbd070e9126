package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ticketly/internal/events"
	"ticketly/internal/inventory"
	"ticketly/internal/tickets"
	"ticketly/internal/users"
	"ticketly/pkg/cache"
	"ticketly/pkg/logger"
)

var (
	ErrAlreadyCancelled    = errors.New("booking already cancelled")
	ErrMaxQuantityExceeded = errors.New("requested quantity exceeds per-booking limit")
	ErrEventNotFound       = errors.New("event not found")
	ErrNotCustomer         = errors.New("bookings belong to customer accounts")
)

// TicketTypeReader gives the service read access to ticket types without
// dragging in the full ticket management surface
type TicketTypeReader interface {
	GetByID(id uuid.UUID) (*tickets.TicketType, error)
}

// EventReader gives the service read access to events
type EventReader interface {
	GetByID(id uuid.UUID) (*events.Event, error)
}

// UserReader resolves customer profiles for outbound email
type UserReader interface {
	GetUserByID(ctx context.Context, id string) (*users.User, error)
}

// NotificationDispatcher is the fire-and-forget outbound edge. Failures from
// it are logged by the service and never surfaced to callers.
type NotificationDispatcher interface {
	SendBookingConfirmation(ctx context.Context, userID uuid.UUID, email, name string,
		bookingID, eventID uuid.UUID, eventTitle, bookingRef string, quantity int, totalPrice float64) error

	ScheduleEventReminder(ctx context.Context, userID uuid.UUID, email, name string,
		bookingID, eventID uuid.UUID, eventTitle, venue string, eventTime, fireAt time.Time) error
}

// Config holds reservation-service tunables
type Config struct {
	// ReminderLead is the minimum gap between booking time and event start for
	// a reminder to be scheduled
	ReminderLead time.Duration
	// MaxQuantity caps a single booking request
	MaxQuantity int
}

// Service orchestrates booking lifecycle around the inventory ledger
type Service interface {
	Book(ctx context.Context, identity Identity, req CreateBookingRequest) (*BookingResponse, error)
	Cancel(ctx context.Context, identity Identity, bookingID uuid.UUID) error
	GetBooking(ctx context.Context, identity Identity, bookingID uuid.UUID) (*BookingResponse, error)
	GetUserBookings(ctx context.Context, identity Identity, page, limit int) (*PaginatedBookings, error)

	// SetCacheService injects the cache layer so cached availability reads
	// are dropped whenever a booking moves inventory
	SetCacheService(cacheService cache.Service)
}

type service struct {
	repo         Repository
	ledger       inventory.Ledger
	ticketRepo   TicketTypeReader
	eventRepo    EventReader
	userRepo     UserReader
	notifier     NotificationDispatcher
	cacheService cache.Service
	config       Config
	log          *logger.Logger
}

func NewService(repo Repository, ledger inventory.Ledger, ticketRepo TicketTypeReader,
	eventRepo EventReader, userRepo UserReader, notifier NotificationDispatcher,
	cfg Config, log *logger.Logger) Service {
	return &service{
		repo:       repo,
		ledger:     ledger,
		ticketRepo: ticketRepo,
		eventRepo:  eventRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		config:     cfg,
		log:        log,
	}
}

func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

func (s *service) invalidateAvailabilityCache(ctx context.Context, eventID uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	// Event detail and ticket type entries both carry availability
	if err := s.cacheService.DeletePattern(ctx, cache.EventPattern(eventID.String())); err != nil {
		s.log.ErrorWithContext(ctx, "failed to invalidate availability cache", err,
			map[string]interface{}{"event_id": eventID.String()})
	}
}

// Book reserves inventory first, then persists the booking. A failed persist
// hands the reservation back through the ledger so no units leak.
func (s *service) Book(ctx context.Context, identity Identity, req CreateBookingRequest) (*BookingResponse, error) {
	// Only customer accounts hold bookings; the route gate enforces the same
	if identity.Role != string(users.RoleCustomer) {
		return nil, ErrNotCustomer
	}

	ticketTypeID, err := uuid.Parse(req.TicketTypeID)
	if err != nil {
		return nil, inventory.ErrTicketTypeNotFound
	}

	if s.config.MaxQuantity > 0 && req.Quantity > s.config.MaxQuantity {
		return nil, ErrMaxQuantityExceeded
	}

	ticketType, err := s.ticketRepo.GetByID(ticketTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrTicketTypeNotFound
		}
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ticketType.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	reservation, err := s.ledger.Reserve(ctx, ticketTypeID, req.Quantity)
	if err != nil {
		return nil, err
	}

	bookingRef, err := generateBookingReference()
	if err != nil {
		s.compensateReservation(ctx, reservation, err)
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	booking := &Booking{
		UserID:       identity.UserID,
		EventID:      event.ID,
		TicketTypeID: ticketTypeID,
		Quantity:     req.Quantity,
		TotalPrice:   float64(req.Quantity) * ticketType.Price,
		Status:       string(StatusActive),
		BookingRef:   bookingRef,
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		// The units were taken but the booking never existed, give them back
		s.compensateReservation(ctx, reservation, err)
		return nil, fmt.Errorf("failed to persist booking: %w", err)
	}

	s.log.LogBookingCreated(ctx, booking.ID.String(), ticketTypeID.String(), identity.UserID.String(), req.Quantity)

	s.invalidateAvailabilityCache(ctx, event.ID)
	s.dispatchNotifications(ctx, identity, booking, event)

	resp := booking.ToResponse()
	return &resp, nil
}

// Cancel marks the booking cancelled before releasing inventory, so no other
// caller ever observes freed stock alongside an active booking. A failed
// release re-activates the booking.
func (s *service) Cancel(ctx context.Context, identity Identity, bookingID uuid.UUID) error {
	if identity.Role != string(users.RoleCustomer) {
		return ErrNotCustomer
	}

	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}

	// A booking is invisible to anyone but its owner
	if booking.UserID != identity.UserID {
		return ErrBookingNotFound
	}

	if booking.IsCancelled() {
		return ErrAlreadyCancelled
	}

	cancelledAt := time.Now().UTC()
	if err := s.repo.MarkCancelled(ctx, bookingID, cancelledAt); err != nil {
		// Concurrent cancellations race on the status guard
		if errors.Is(err, ErrAlreadyCancelled) || errors.Is(err, ErrBookingNotFound) {
			return err
		}
		return fmt.Errorf("failed to cancel booking: %w", err)
	}

	// Past this point the cancellation is persisted; the release and any
	// rollback run detached from the caller's cancellation
	ledgerCtx := context.WithoutCancel(ctx)
	if err := s.ledger.Release(ledgerCtx, booking.TicketTypeID, booking.Quantity); err != nil {
		// The cancellation and the release must land together; roll the
		// status back and report failure
		if reactivateErr := s.repo.MarkActive(ledgerCtx, bookingID); reactivateErr != nil {
			s.log.ErrorWithContext(ctx, "failed to re-activate booking after release failure", reactivateErr,
				map[string]interface{}{"booking_id": bookingID.String()})
		}
		return fmt.Errorf("failed to release inventory: %w", err)
	}

	s.log.LogBookingCancelled(ctx, bookingID.String(), booking.TicketTypeID.String(), identity.UserID.String())
	s.invalidateAvailabilityCache(ctx, booking.EventID)
	return nil
}

func (s *service) GetBooking(ctx context.Context, identity Identity, bookingID uuid.UUID) (*BookingResponse, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != identity.UserID {
		return nil, ErrBookingNotFound
	}

	resp := booking.ToResponse()
	return &resp, nil
}

func (s *service) GetUserBookings(ctx context.Context, identity Identity, page, limit int) (*PaginatedBookings, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	bookingList, totalCount, err := s.repo.GetUserBookings(ctx, identity.UserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	responses := make([]BookingResponse, len(bookingList))
	for i, booking := range bookingList {
		responses[i] = booking.ToResponse()
	}

	return &PaginatedBookings{
		Bookings:   responses,
		TotalCount: totalCount,
		Page:       page,
		Limit:      limit,
	}, nil
}

// compensateReservation hands reserved units back after a failed persist. It
// runs detached from the caller's cancellation; an abandoned request must not
// strand the units it reserved.
func (s *service) compensateReservation(ctx context.Context, reservation *inventory.Reservation, cause error) {
	ctx = context.WithoutCancel(ctx)
	s.log.LogReservationCompensated(ctx, reservation.TicketTypeID.String(), reservation.Quantity, cause)
	if err := s.ledger.Release(ctx, reservation.TicketTypeID, reservation.Quantity); err != nil {
		s.log.ErrorWithContext(ctx, "compensating release failed", err,
			map[string]interface{}{
				"ticket_type_id": reservation.TicketTypeID.String(),
				"quantity":       reservation.Quantity,
			})
	}
}

func (s *service) dispatchNotifications(ctx context.Context, identity Identity, booking *Booking, event *events.Event) {
	if s.notifier == nil {
		return
	}

	name := s.recipientName(ctx, identity)

	err := s.notifier.SendBookingConfirmation(ctx, identity.UserID, identity.Email, name,
		booking.ID, event.ID, event.Title, booking.BookingRef, booking.Quantity, booking.TotalPrice)
	if err != nil {
		s.log.ErrorWithContext(ctx, "failed to enqueue booking confirmation", err,
			map[string]interface{}{"booking_id": booking.ID.String()})
	}

	// Reminders only make sense when the event is far enough out; they fire
	// one hour before start
	if time.Until(event.StartTime) > s.config.ReminderLead {
		fireAt := event.StartTime.Add(-time.Hour)
		err := s.notifier.ScheduleEventReminder(ctx, identity.UserID, identity.Email, name,
			booking.ID, event.ID, event.Title, event.Venue, event.StartTime, fireAt)
		if err != nil {
			s.log.ErrorWithContext(ctx, "failed to schedule event reminder", err,
				map[string]interface{}{"booking_id": booking.ID.String()})
		}
	}
}

// recipientName falls back to the email address when the profile cannot be read
func (s *service) recipientName(ctx context.Context, identity Identity) string {
	if s.userRepo == nil {
		return identity.Email
	}
	user, err := s.userRepo.GetUserByID(ctx, identity.UserID.String())
	if err != nil {
		return identity.Email
	}
	return user.FullName()
}

const bookingRefCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateBookingReference() (string, error) {
	ref := make([]byte, 8)
	for i := range ref {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingRefCharset))))
		if err != nil {
			return "", err
		}
		ref[i] = bookingRefCharset[n.Int64()]
	}
	return "TKT-" + string(ref), nil
}
