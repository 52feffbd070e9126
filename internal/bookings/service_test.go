package bookings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ticketly/internal/events"
	"ticketly/internal/inventory"
	"ticketly/internal/tickets"
	"ticketly/internal/users"
	"ticketly/pkg/logger"
)

type fakeRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*Booking

	failCreate        error
	failMarkCancelled error
	failMarkActive    error

	onCreate        func()
	onMarkCancelled func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{bookings: make(map[uuid.UUID]*Booking)}
}

func (r *fakeRepo) Create(ctx context.Context, booking *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.onCreate != nil {
		r.onCreate()
	}
	if r.failCreate != nil {
		return r.failCreate
	}
	booking.ID = uuid.New()
	booking.CreatedAt = time.Now().UTC()
	copied := *booking
	r.bookings[booking.ID] = &copied
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking, ok := r.bookings[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	copied := *booking
	return &copied, nil
}

func (r *fakeRepo) GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []Booking
	for _, booking := range r.bookings {
		if booking.UserID == userID {
			matched = append(matched, *booking)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *fakeRepo) MarkCancelled(ctx context.Context, bookingID uuid.UUID, cancelledAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.onMarkCancelled != nil {
		r.onMarkCancelled()
	}
	if r.failMarkCancelled != nil {
		return r.failMarkCancelled
	}
	booking, ok := r.bookings[bookingID]
	if !ok {
		return ErrBookingNotFound
	}
	if booking.Status != string(StatusActive) {
		return ErrAlreadyCancelled
	}
	booking.Status = string(StatusCancelled)
	booking.CancelledAt = &cancelledAt
	return nil
}

func (r *fakeRepo) MarkActive(ctx context.Context, bookingID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failMarkActive != nil {
		return r.failMarkActive
	}
	booking, ok := r.bookings[bookingID]
	if !ok {
		return ErrBookingNotFound
	}
	booking.Status = string(StatusActive)
	booking.CancelledAt = nil
	return nil
}

type fakeTicketReader struct {
	ticketTypes map[uuid.UUID]*tickets.TicketType
}

func (f *fakeTicketReader) GetByID(id uuid.UUID) (*tickets.TicketType, error) {
	ticketType, ok := f.ticketTypes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ticketType, nil
}

type fakeEventReader struct {
	events map[uuid.UUID]*events.Event
}

func (f *fakeEventReader) GetByID(id uuid.UUID) (*events.Event, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return event, nil
}

type fakeUserReader struct {
	profiles map[string]*users.User
}

func (f *fakeUserReader) GetUserByID(ctx context.Context, id string) (*users.User, error) {
	user, ok := f.profiles[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return user, nil
}

type fakeNotifier struct {
	mu            sync.Mutex
	confirmations int
	reminders     int
	lastFireAt    time.Time
	lastName      string
	sendErr       error
}

func (f *fakeNotifier) SendBookingConfirmation(ctx context.Context, userID uuid.UUID, email, name string,
	bookingID, eventID uuid.UUID, eventTitle, bookingRef string, quantity int, totalPrice float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.confirmations++
	f.lastName = name
	return nil
}

func (f *fakeNotifier) ScheduleEventReminder(ctx context.Context, userID uuid.UUID, email, name string,
	bookingID, eventID uuid.UUID, eventTitle, venue string, eventTime, fireAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders++
	f.lastFireAt = fireAt
	return nil
}

// failingReleaseLedger delegates to a real ledger but rejects releases
type failingReleaseLedger struct {
	inventory.Ledger
	releaseErr error
}

func (l *failingReleaseLedger) Release(ctx context.Context, ticketTypeID uuid.UUID, quantity int) error {
	if l.releaseErr != nil {
		return l.releaseErr
	}
	return l.Ledger.Release(ctx, ticketTypeID, quantity)
}

// ctxBoundLedger refuses work once its context is done, matching how the
// database-backed ledger behaves under a cancelled request
type ctxBoundLedger struct {
	inventory.Ledger
}

func (l *ctxBoundLedger) Reserve(ctx context.Context, ticketTypeID uuid.UUID, quantity int) (*inventory.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.Ledger.Reserve(ctx, ticketTypeID, quantity)
}

func (l *ctxBoundLedger) Release(ctx context.Context, ticketTypeID uuid.UUID, quantity int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.Ledger.Release(ctx, ticketTypeID, quantity)
}

type testEnv struct {
	service    Service
	repo       *fakeRepo
	ledger     *inventory.MemoryLedger
	notifier   *fakeNotifier
	userReader *fakeUserReader
	identity   Identity
	ticketType *tickets.TicketType
	event      *events.Event
}

func newTestEnv(t *testing.T, capacity int) *testEnv {
	t.Helper()

	eventID := uuid.New()
	ticketTypeID := uuid.New()
	userID := uuid.New()

	event := &events.Event{
		ID:        eventID,
		Title:     "Go Conference",
		Venue:     "Convention Center",
		StartTime: time.Now().Add(72 * time.Hour),
	}
	ticketType := &tickets.TicketType{
		ID:            ticketTypeID,
		EventID:       eventID,
		Label:         "General Admission",
		Price:         50.0,
		TotalCapacity: capacity,
		Available:     capacity,
	}

	ledger := inventory.NewMemoryLedger(logger.New())
	ledger.Track(ticketTypeID, capacity)

	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	userReader := &fakeUserReader{profiles: map[string]*users.User{
		userID.String(): {ID: userID, FirstName: "Avery", LastName: "Quinn", Email: "customer@example.com"},
	}}

	env := &testEnv{
		repo:       repo,
		ledger:     ledger,
		notifier:   notifier,
		userReader: userReader,
		identity:   Identity{UserID: userID, Email: "customer@example.com", Role: string(users.RoleCustomer)},
		ticketType: ticketType,
		event:      event,
	}
	env.service = env.serviceWith(ledger)
	return env
}

// serviceWith builds the service around an alternate ledger while sharing the
// rest of the environment
func (env *testEnv) serviceWith(ledger inventory.Ledger) Service {
	return NewService(env.repo, ledger,
		&fakeTicketReader{ticketTypes: map[uuid.UUID]*tickets.TicketType{env.ticketType.ID: env.ticketType}},
		&fakeEventReader{events: map[uuid.UUID]*events.Event{env.event.ID: env.event}},
		env.userReader, env.notifier,
		Config{ReminderLead: 24 * time.Hour, MaxQuantity: 10},
		logger.New())
}

func (env *testEnv) available(t *testing.T) int {
	t.Helper()
	available, err := env.ledger.Available(env.ticketType.ID)
	if err != nil {
		t.Fatalf("reading availability: %v", err)
	}
	return available
}

func TestBook(t *testing.T) {
	t.Run("successful booking decrements availability", func(t *testing.T) {
		env := newTestEnv(t, 10)

		booking, err := env.service.Book(context.Background(), env.identity, CreateBookingRequest{
			TicketTypeID: env.ticketType.ID.String(),
			Quantity:     3,
		})
		if err != nil {
			t.Fatalf("Book() error = %v", err)
		}

		if booking.Quantity != 3 {
			t.Errorf("quantity = %d, want 3", booking.Quantity)
		}
		if booking.TotalPrice != 150.0 {
			t.Errorf("total price = %v, want 150", booking.TotalPrice)
		}
		if booking.Status != string(StatusActive) {
			t.Errorf("status = %q, want ACTIVE", booking.Status)
		}
		if booking.BookingRef == "" {
			t.Error("booking ref is empty")
		}
		if got := env.available(t); got != 7 {
			t.Errorf("available = %d, want 7", got)
		}
		if env.notifier.confirmations != 1 {
			t.Errorf("confirmations sent = %d, want 1", env.notifier.confirmations)
		}
	})

	t.Run("insufficient inventory leaves no booking behind", func(t *testing.T) {
		env := newTestEnv(t, 2)

		_, err := env.service.Book(context.Background(), env.identity, CreateBookingRequest{
			TicketTypeID: env.ticketType.ID.String(),
			Quantity:     3,
		})
		if !errors.Is(err, inventory.ErrInsufficientInventory) {
			t.Fatalf("Book() error = %v, want ErrInsufficientInventory", err)
		}

		if got := env.available(t); got != 2 {
			t.Errorf("available = %d, want 2 (unchanged)", got)
		}
		if len(env.repo.bookings) != 0 {
			t.Errorf("bookings persisted = %d, want 0", len(env.repo.bookings))
		}
	})

	t.Run("unknown ticket type", func(t *testing.T) {
		env := newTestEnv(t, 5)

		_, err := env.service.Book(context.Background(), env.identity, CreateBookingRequest{
			TicketTypeID: uuid.New().String(),
			Quantity:     1,
		})
		if !errors.Is(err, inventory.ErrTicketTypeNotFound) {
			t.Fatalf("Book() error = %v, want ErrTicketTypeNotFound", err)
		}
	})

	t.Run("quantity over per-booking limit", func(t *testing.T) {
		env := newTestEnv(t, 100)

		_, err := env.service.Book(context.Background(), env.identity, CreateBookingRequest{
			TicketTypeID: env.ticketType.ID.String(),
			Quantity:     11,
		})
		if !errors.Is(err, ErrMaxQuantityExceeded) {
			t.Fatalf("Book() error = %v, want ErrMaxQuantityExceeded", err)
		}
		if got := env.available(t); got != 100 {
			t.Errorf("available = %d, want 100 (unchanged)", got)
		}
	})

	t.Run("persistence failure releases the reservation", func(t *testing.T) {
		env := newTestEnv(t, 10)
		env.repo.failCreate = errors.New("connection reset")

		_, err := env.service.Book(context.Background(), env.identity, CreateBookingRequest{
			TicketTypeID: env.ticketType.ID.String(),
			Quantity:     4,
		})
		if err == nil {
			t.Fatal("Book() succeeded, want persistence error")
		}

		if got := env.available(t); got != 10 {
			t.Errorf("available = %d, want 10 after compensating release", got)
		}
	})

	t.Run("abandoned request still gets its reservation released", func(t *testing.T) {
		env := newTestEnv(t, 10)
		svc := env.serviceWith(&ctxBoundLedger{Ledger: env.ledger})

		// The caller gives up while the booking row is being written
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		env.repo.onCreate = cancel
		env.repo.failCreate = context.Canceled

		_, err := svc.Book(ctx, env.identity, CreateBookingRequest{
			TicketTypeID: env.ticketType.ID.String(),
			Quantity:     4,
		})
		if err == nil {
			t.Fatal("Book() succeeded, want persistence error")
		}

		if got := env.available(t); got != 10 {
			t.Errorf("available = %d, want 10 after compensating release", got)
		}
	})

	t.Run("organizer accounts cannot book", func(t *testing.T) {
		env := newTestEnv(t, 10)
		organizer := Identity{UserID: uuid.New(), Email: "organizer@example.com", Role: string(users.RoleOrganizer)}

		_, err := env.service.Book(context.Background(), organizer, CreateBookingRequest{
			TicketTypeID: env.ticketType.ID.String(),
			Quantity:     1,
		})
		if !errors.Is(err, ErrNotCustomer) {
			t.Fatalf("Book() error = %v, want ErrNotCustomer", err)
		}
		if got := env.available(t); got != 10 {
			t.Errorf("available = %d, want 10 (unchanged)", got)
		}
	})

	t.Run("notifications address the customer by profile name", func(t *testing.T) {
		env := newTestEnv(t, 10)

		_, err := env.service.Book(context.Background(), env.identity, CreateBookingRequest{
			TicketTypeID: env.ticketType.ID.String(),
			Quantity:     1,
		})
		if err != nil {
			t.Fatalf("Book() error = %v", err)
		}
		if env.notifier.lastName != "Avery Quinn" {
			t.Errorf("recipient name = %q, want %q", env.notifier.lastName, "Avery Quinn")
		}
	})

	t.Run("missing profile falls back to the email address", func(t *testing.T) {
		env := newTestEnv(t, 10)
		env.userReader.profiles = map[string]*users.User{}

		_, err := env.service.Book(context.Background(), env.identity, CreateBookingRequest{
			TicketTypeID: env.ticketType.ID.String(),
			Quantity:     1,
		})
		if err != nil {
			t.Fatalf("Book() error = %v", err)
		}
		if env.notifier.lastName != env.identity.Email {
			t.Errorf("recipient name = %q, want %q", env.notifier.lastName, env.identity.Email)
		}
	})

	t.Run("notification failure does not fail the booking", func(t *testing.T) {
		env := newTestEnv(t, 10)
		env.notifier.sendErr = errors.New("broker unreachable")

		booking, err := env.service.Book(context.Background(), env.identity, CreateBookingRequest{
			TicketTypeID: env.ticketType.ID.String(),
			Quantity:     2,
		})
		if err != nil {
			t.Fatalf("Book() error = %v", err)
		}
		if booking == nil {
			t.Fatal("booking is nil")
		}
		if got := env.available(t); got != 8 {
			t.Errorf("available = %d, want 8", got)
		}
	})

	t.Run("reminder scheduled one hour before start for far-out events", func(t *testing.T) {
		env := newTestEnv(t, 10)

		_, err := env.service.Book(context.Background(), env.identity, CreateBookingRequest{
			TicketTypeID: env.ticketType.ID.String(),
			Quantity:     1,
		})
		if err != nil {
			t.Fatalf("Book() error = %v", err)
		}

		if env.notifier.reminders != 1 {
			t.Fatalf("reminders scheduled = %d, want 1", env.notifier.reminders)
		}
		wantFireAt := env.event.StartTime.Add(-time.Hour)
		if !env.notifier.lastFireAt.Equal(wantFireAt) {
			t.Errorf("fire at = %v, want %v", env.notifier.lastFireAt, wantFireAt)
		}
	})

	t.Run("no reminder for imminent events", func(t *testing.T) {
		env := newTestEnv(t, 10)
		env.event.StartTime = time.Now().Add(2 * time.Hour)

		_, err := env.service.Book(context.Background(), env.identity, CreateBookingRequest{
			TicketTypeID: env.ticketType.ID.String(),
			Quantity:     1,
		})
		if err != nil {
			t.Fatalf("Book() error = %v", err)
		}

		if env.notifier.reminders != 0 {
			t.Errorf("reminders scheduled = %d, want 0", env.notifier.reminders)
		}
		if env.notifier.confirmations != 1 {
			t.Errorf("confirmations sent = %d, want 1", env.notifier.confirmations)
		}
	})
}

func TestCancel(t *testing.T) {
	book := func(t *testing.T, env *testEnv, quantity int) uuid.UUID {
		t.Helper()
		booking, err := env.service.Book(context.Background(), env.identity, CreateBookingRequest{
			TicketTypeID: env.ticketType.ID.String(),
			Quantity:     quantity,
		})
		if err != nil {
			t.Fatalf("Book() error = %v", err)
		}
		return uuid.MustParse(booking.ID)
	}

	t.Run("cancel restores availability", func(t *testing.T) {
		env := newTestEnv(t, 10)
		bookingID := book(t, env, 4)

		if err := env.service.Cancel(context.Background(), env.identity, bookingID); err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}

		if got := env.available(t); got != 10 {
			t.Errorf("available = %d, want 10", got)
		}
		cancelled, err := env.repo.GetByID(context.Background(), bookingID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if !cancelled.IsCancelled() {
			t.Errorf("status = %q, want CANCELLED", cancelled.Status)
		}
		if cancelled.CancelledAt == nil {
			t.Error("cancelled_at is nil")
		}
	})

	t.Run("cancelling twice is rejected without a double release", func(t *testing.T) {
		env := newTestEnv(t, 10)
		bookingID := book(t, env, 4)

		if err := env.service.Cancel(context.Background(), env.identity, bookingID); err != nil {
			t.Fatalf("first Cancel() error = %v", err)
		}
		err := env.service.Cancel(context.Background(), env.identity, bookingID)
		if !errors.Is(err, ErrAlreadyCancelled) {
			t.Fatalf("second Cancel() error = %v, want ErrAlreadyCancelled", err)
		}

		if got := env.available(t); got != 10 {
			t.Errorf("available = %d, want 10 (released exactly once)", got)
		}
	})

	t.Run("cancelling another user's booking reads as not found", func(t *testing.T) {
		env := newTestEnv(t, 10)
		bookingID := book(t, env, 2)

		stranger := Identity{UserID: uuid.New(), Email: "stranger@example.com", Role: string(users.RoleCustomer)}
		err := env.service.Cancel(context.Background(), stranger, bookingID)
		if !errors.Is(err, ErrBookingNotFound) {
			t.Fatalf("Cancel() error = %v, want ErrBookingNotFound", err)
		}
		if got := env.available(t); got != 8 {
			t.Errorf("available = %d, want 8 (nothing released)", got)
		}
	})

	t.Run("failed release re-activates the booking", func(t *testing.T) {
		env := newTestEnv(t, 10)
		bookingID := book(t, env, 3)

		// Swap in a ledger whose releases fail after the booking exists
		svc := env.serviceWith(&failingReleaseLedger{Ledger: env.ledger, releaseErr: errors.New("db gone")})

		err := svc.Cancel(context.Background(), env.identity, bookingID)
		if err == nil {
			t.Fatal("Cancel() succeeded, want release error")
		}

		booking, getErr := env.repo.GetByID(context.Background(), bookingID)
		if getErr != nil {
			t.Fatalf("GetByID() error = %v", getErr)
		}
		if !booking.IsActive() {
			t.Errorf("status = %q, want ACTIVE after rollback", booking.Status)
		}
		if got := env.available(t); got != 7 {
			t.Errorf("available = %d, want 7 (inventory still held)", got)
		}
	})

	t.Run("release survives the caller giving up mid-cancel", func(t *testing.T) {
		env := newTestEnv(t, 10)
		bookingID := book(t, env, 4)
		svc := env.serviceWith(&ctxBoundLedger{Ledger: env.ledger})

		// The caller disconnects right after the status flips to CANCELLED
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		env.repo.onMarkCancelled = cancel

		if err := svc.Cancel(ctx, env.identity, bookingID); err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}
		if got := env.available(t); got != 10 {
			t.Errorf("available = %d, want 10 after release", got)
		}
	})

	t.Run("losing a cancellation race reports already cancelled", func(t *testing.T) {
		env := newTestEnv(t, 10)
		bookingID := book(t, env, 2)

		// Another request takes the status guard between the ownership read
		// and the update
		env.repo.onMarkCancelled = func() {
			now := time.Now().UTC()
			raced := env.repo.bookings[bookingID]
			raced.Status = string(StatusCancelled)
			raced.CancelledAt = &now
		}

		err := env.service.Cancel(context.Background(), env.identity, bookingID)
		if !errors.Is(err, ErrAlreadyCancelled) {
			t.Fatalf("Cancel() error = %v, want ErrAlreadyCancelled", err)
		}
		if got := env.available(t); got != 8 {
			t.Errorf("available = %d, want 8 (losing caller released nothing)", got)
		}
	})

	t.Run("organizer accounts cannot cancel", func(t *testing.T) {
		env := newTestEnv(t, 10)
		bookingID := book(t, env, 2)

		organizer := Identity{UserID: uuid.New(), Email: "organizer@example.com", Role: string(users.RoleOrganizer)}
		err := env.service.Cancel(context.Background(), organizer, bookingID)
		if !errors.Is(err, ErrNotCustomer) {
			t.Fatalf("Cancel() error = %v, want ErrNotCustomer", err)
		}
		if got := env.available(t); got != 8 {
			t.Errorf("available = %d, want 8 (nothing released)", got)
		}
	})

	t.Run("cancelled units become bookable again", func(t *testing.T) {
		env := newTestEnv(t, 5)

		first := book(t, env, 5)
		if err := env.service.Cancel(context.Background(), env.identity, first); err != nil {
			t.Fatalf("Cancel() error = %v", err)
		}

		second := book(t, env, 5)
		if second == uuid.Nil {
			t.Fatal("rebooking after cancel failed")
		}
		if got := env.available(t); got != 0 {
			t.Errorf("available = %d, want 0", got)
		}
	})
}

func TestOversellScenario(t *testing.T) {
	// Capacity 5: a 3-unit booking succeeds, a second 3-unit booking must
	// fail, and after cancelling the first it succeeds.
	env := newTestEnv(t, 5)
	other := Identity{UserID: uuid.New(), Email: "second@example.com", Role: string(users.RoleCustomer)}

	first, err := env.service.Book(context.Background(), env.identity, CreateBookingRequest{
		TicketTypeID: env.ticketType.ID.String(),
		Quantity:     3,
	})
	if err != nil {
		t.Fatalf("first Book() error = %v", err)
	}

	_, err = env.service.Book(context.Background(), other, CreateBookingRequest{
		TicketTypeID: env.ticketType.ID.String(),
		Quantity:     3,
	})
	if !errors.Is(err, inventory.ErrInsufficientInventory) {
		t.Fatalf("second Book() error = %v, want ErrInsufficientInventory", err)
	}

	if err := env.service.Cancel(context.Background(), env.identity, uuid.MustParse(first.ID)); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	if _, err := env.service.Book(context.Background(), other, CreateBookingRequest{
		TicketTypeID: env.ticketType.ID.String(),
		Quantity:     3,
	}); err != nil {
		t.Fatalf("rebooking after cancel error = %v", err)
	}

	available, err := env.ledger.Available(env.ticketType.ID)
	if err != nil {
		t.Fatalf("reading availability: %v", err)
	}
	if available != 2 {
		t.Errorf("available = %d, want 2", available)
	}
}

func TestGetUserBookings(t *testing.T) {
	env := newTestEnv(t, 50)

	for i := 0; i < 3; i++ {
		_, err := env.service.Book(context.Background(), env.identity, CreateBookingRequest{
			TicketTypeID: env.ticketType.ID.String(),
			Quantity:     1,
		})
		if err != nil {
			t.Fatalf("Book() error = %v", err)
		}
	}

	page, err := env.service.GetUserBookings(context.Background(), env.identity, 1, 10)
	if err != nil {
		t.Fatalf("GetUserBookings() error = %v", err)
	}
	if page.TotalCount != 3 {
		t.Errorf("total count = %d, want 3", page.TotalCount)
	}
	if len(page.Bookings) != 3 {
		t.Errorf("bookings on page = %d, want 3", len(page.Bookings))
	}

	stranger := Identity{UserID: uuid.New(), Email: "stranger@example.com", Role: string(users.RoleCustomer)}
	empty, err := env.service.GetUserBookings(context.Background(), stranger, 1, 10)
	if err != nil {
		t.Fatalf("GetUserBookings() error = %v", err)
	}
	if empty.TotalCount != 0 {
		t.Errorf("stranger total count = %d, want 0", empty.TotalCount)
	}
}
