package tickets

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeRepo struct {
	ticketTypes    map[uuid.UUID]*TicketType
	activeBookings map[uuid.UUID]int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		ticketTypes:    make(map[uuid.UUID]*TicketType),
		activeBookings: make(map[uuid.UUID]int64),
	}
}

func (r *fakeRepo) Create(ticketType *TicketType) error {
	ticketType.ID = uuid.New()
	copied := *ticketType
	r.ticketTypes[ticketType.ID] = &copied
	return nil
}

func (r *fakeRepo) GetByID(id uuid.UUID) (*TicketType, error) {
	ticketType, ok := r.ticketTypes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *ticketType
	return &copied, nil
}

func (r *fakeRepo) GetByEvent(eventID uuid.UUID) ([]TicketType, error) {
	var result []TicketType
	for _, tt := range r.ticketTypes {
		if tt.EventID == eventID {
			result = append(result, *tt)
		}
	}
	return result, nil
}

func (r *fakeRepo) GetByOrganizer(organizerID uuid.UUID) ([]TicketType, error) {
	var result []TicketType
	for _, tt := range r.ticketTypes {
		result = append(result, *tt)
	}
	return result, nil
}

func (r *fakeRepo) Update(id uuid.UUID, updates map[string]interface{}) (*TicketType, error) {
	ticketType, ok := r.ticketTypes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if label, ok := updates["label"].(string); ok {
		ticketType.Label = label
	}
	if price, ok := updates["price"].(float64); ok {
		ticketType.Price = price
	}
	copied := *ticketType
	return &copied, nil
}

func (r *fakeRepo) Delete(id uuid.UUID) error {
	delete(r.ticketTypes, id)
	return nil
}

func (r *fakeRepo) ActiveBookingCount(ticketTypeID uuid.UUID) (int64, error) {
	return r.activeBookings[ticketTypeID], nil
}

// fakeOwnership treats one organizer as owner of every known event
type fakeOwnership struct {
	eventID   uuid.UUID
	organizer uuid.UUID
}

func (f *fakeOwnership) IsOrganizer(eventID, userID uuid.UUID) (bool, error) {
	if eventID != f.eventID {
		// Wrapped so callers have to match the sentinel, not the message
		return false, fmt.Errorf("loading event: %w", ErrEventNotFound)
	}
	return userID == f.organizer, nil
}

func newTestService(t *testing.T) (Service, *fakeRepo, uuid.UUID, uuid.UUID) {
	t.Helper()
	eventID := uuid.New()
	organizerID := uuid.New()
	repo := newFakeRepo()
	svc := NewService(repo, &fakeOwnership{eventID: eventID, organizer: organizerID})
	return svc, repo, eventID, organizerID
}

func TestCreateTicketType(t *testing.T) {
	t.Run("new pool starts fully available", func(t *testing.T) {
		svc, _, eventID, organizerID := newTestService(t)

		created, err := svc.CreateTicketType(eventID, organizerID, CreateTicketTypeRequest{
			Label:         "General Admission",
			Price:         50.0,
			TotalCapacity: 100,
		})
		if err != nil {
			t.Fatalf("CreateTicketType() error = %v", err)
		}
		if created.Available != 100 {
			t.Errorf("available = %d, want 100", created.Available)
		}
		if created.TotalCapacity != 100 {
			t.Errorf("total capacity = %d, want 100", created.TotalCapacity)
		}
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		svc, _, eventID, _ := newTestService(t)

		_, err := svc.CreateTicketType(eventID, uuid.New(), CreateTicketTypeRequest{
			Label:         "VIP",
			Price:         200.0,
			TotalCapacity: 10,
		})
		if !errors.Is(err, ErrNotOwner) {
			t.Fatalf("CreateTicketType() error = %v, want ErrNotOwner", err)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		svc, _, _, organizerID := newTestService(t)

		_, err := svc.CreateTicketType(uuid.New(), organizerID, CreateTicketTypeRequest{
			Label:         "VIP",
			Price:         200.0,
			TotalCapacity: 10,
		})
		if !errors.Is(err, ErrEventNotFound) {
			t.Fatalf("CreateTicketType() error = %v, want ErrEventNotFound", err)
		}
	})
}

func TestUpdateTicketType(t *testing.T) {
	t.Run("only label and price change", func(t *testing.T) {
		svc, repo, eventID, organizerID := newTestService(t)

		created, err := svc.CreateTicketType(eventID, organizerID, CreateTicketTypeRequest{
			Label:         "Standard",
			Price:         80.0,
			TotalCapacity: 50,
		})
		if err != nil {
			t.Fatalf("CreateTicketType() error = %v", err)
		}

		newLabel := "Standard Plus"
		newPrice := 95.0
		updated, err := svc.UpdateTicketType(uuid.MustParse(created.ID), organizerID, UpdateTicketTypeRequest{
			Label: &newLabel,
			Price: &newPrice,
		})
		if err != nil {
			t.Fatalf("UpdateTicketType() error = %v", err)
		}

		if updated.Label != "Standard Plus" || updated.Price != 95.0 {
			t.Errorf("got label %q price %v, want Standard Plus / 95", updated.Label, updated.Price)
		}

		stored := repo.ticketTypes[uuid.MustParse(created.ID)]
		if stored.TotalCapacity != 50 || stored.Available != 50 {
			t.Errorf("capacity/available changed: %d/%d, want 50/50", stored.TotalCapacity, stored.Available)
		}
	})

	t.Run("unknown ticket type", func(t *testing.T) {
		svc, _, _, organizerID := newTestService(t)

		label := "x"
		_, err := svc.UpdateTicketType(uuid.New(), organizerID, UpdateTicketTypeRequest{Label: &label})
		if !errors.Is(err, ErrTicketTypeNotFound) {
			t.Fatalf("UpdateTicketType() error = %v, want ErrTicketTypeNotFound", err)
		}
	})
}

func TestDeleteTicketType(t *testing.T) {
	t.Run("blocked while active bookings exist", func(t *testing.T) {
		svc, repo, eventID, organizerID := newTestService(t)

		created, err := svc.CreateTicketType(eventID, organizerID, CreateTicketTypeRequest{
			Label:         "Early Bird",
			Price:         30.0,
			TotalCapacity: 20,
		})
		if err != nil {
			t.Fatalf("CreateTicketType() error = %v", err)
		}
		ticketTypeID := uuid.MustParse(created.ID)
		repo.activeBookings[ticketTypeID] = 3

		err = svc.DeleteTicketType(ticketTypeID, organizerID)
		if !errors.Is(err, ErrHasActiveBookings) {
			t.Fatalf("DeleteTicketType() error = %v, want ErrHasActiveBookings", err)
		}
		if _, ok := repo.ticketTypes[ticketTypeID]; !ok {
			t.Error("ticket type was deleted despite active bookings")
		}
	})

	t.Run("deletes when no active bookings remain", func(t *testing.T) {
		svc, repo, eventID, organizerID := newTestService(t)

		created, err := svc.CreateTicketType(eventID, organizerID, CreateTicketTypeRequest{
			Label:         "Early Bird",
			Price:         30.0,
			TotalCapacity: 20,
		})
		if err != nil {
			t.Fatalf("CreateTicketType() error = %v", err)
		}
		ticketTypeID := uuid.MustParse(created.ID)

		if err := svc.DeleteTicketType(ticketTypeID, organizerID); err != nil {
			t.Fatalf("DeleteTicketType() error = %v", err)
		}
		if _, ok := repo.ticketTypes[ticketTypeID]; ok {
			t.Error("ticket type still present after delete")
		}
	})
}
