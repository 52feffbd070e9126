package tickets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ticketly/pkg/cache"
)

var (
	ErrTicketTypeNotFound = errors.New("ticket type not found")
	ErrEventNotFound      = errors.New("event not found")
	ErrNotOwner           = errors.New("event belongs to another organizer")
	ErrHasActiveBookings  = errors.New("ticket type has active bookings")
)

// EventOwnership is satisfied by the events service. It lets ticket type
// management check organizer ownership without a package cycle. A missing
// event is reported as ErrEventNotFound.
type EventOwnership interface {
	IsOrganizer(eventID, userID uuid.UUID) (bool, error)
}

type Service interface {
	CreateTicketType(eventID, organizerID uuid.UUID, req CreateTicketTypeRequest) (*TicketTypeResponse, error)
	GetTicketType(ticketTypeID uuid.UUID) (*TicketTypeResponse, error)
	GetTicketTypesByEvent(eventID uuid.UUID) ([]TicketTypeResponse, error)
	GetMyTicketTypes(organizerID uuid.UUID) ([]TicketTypeResponse, error)
	UpdateTicketType(ticketTypeID, organizerID uuid.UUID, req UpdateTicketTypeRequest) (*TicketTypeResponse, error)
	DeleteTicketType(ticketTypeID, organizerID uuid.UUID) error

	// SetCacheService injects the cache layer; reads work without it
	SetCacheService(cacheService cache.Service, availabilityTTL time.Duration)
}

type service struct {
	repo            Repository
	ownership       EventOwnership
	cacheService    cache.Service
	availabilityTTL time.Duration
}

func NewService(repo Repository, ownership EventOwnership) Service {
	return &service{
		repo:      repo,
		ownership: ownership,
	}
}

func (s *service) SetCacheService(cacheService cache.Service, availabilityTTL time.Duration) {
	s.cacheService = cacheService
	s.availabilityTTL = availabilityTTL
}

func (s *service) invalidateTicketTypeCache(eventID uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	ctx := context.Background()
	if err := s.cacheService.Delete(ctx, cache.TicketTypesKey(eventID.String())); err != nil {
		log.Printf("Warning: failed to invalidate ticket type cache: %v", err)
	}
	// Event detail responses embed the ticket type list
	if err := s.cacheService.DeletePattern(ctx, cache.EventPattern(eventID.String())); err != nil {
		log.Printf("Warning: failed to invalidate event cache: %v", err)
	}
}

func (s *service) CreateTicketType(eventID, organizerID uuid.UUID, req CreateTicketTypeRequest) (*TicketTypeResponse, error) {
	if err := s.requireOwner(eventID, organizerID); err != nil {
		return nil, err
	}

	ticketType := &TicketType{
		EventID:       eventID,
		Label:         req.Label,
		Price:         req.Price,
		TotalCapacity: req.TotalCapacity,
		// New pools start fully available
		Available: req.TotalCapacity,
	}

	if err := s.repo.Create(ticketType); err != nil {
		return nil, fmt.Errorf("failed to create ticket type: %w", err)
	}

	s.invalidateTicketTypeCache(eventID)

	resp := ticketType.ToResponse()
	return &resp, nil
}

func (s *service) GetTicketType(ticketTypeID uuid.UUID) (*TicketTypeResponse, error) {
	ticketType, err := s.repo.GetByID(ticketTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketTypeNotFound
		}
		return nil, err
	}

	resp := ticketType.ToResponse()
	return &resp, nil
}

func (s *service) GetTicketTypesByEvent(eventID uuid.UUID) ([]TicketTypeResponse, error) {
	ctx := context.Background()
	cacheKey := cache.TicketTypesKey(eventID.String())

	// Availability changes with every booking, so this entry stays short-lived
	if s.cacheService != nil {
		var cached []TicketTypeResponse
		if err := s.cacheService.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	ticketTypes, err := s.repo.GetByEvent(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticket types: %w", err)
	}

	responses := make([]TicketTypeResponse, len(ticketTypes))
	for i, tt := range ticketTypes {
		responses[i] = tt.ToResponse()
	}

	if s.cacheService != nil {
		if err := s.cacheService.Set(ctx, cacheKey, responses, s.availabilityTTL); err != nil {
			log.Printf("Warning: failed to cache ticket types: %v", err)
		}
	}

	return responses, nil
}

// GetMyTicketTypes lists every pool across the organizer's events
func (s *service) GetMyTicketTypes(organizerID uuid.UUID) ([]TicketTypeResponse, error) {
	ticketTypes, err := s.repo.GetByOrganizer(organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizer ticket types: %w", err)
	}

	responses := make([]TicketTypeResponse, len(ticketTypes))
	for i, tt := range ticketTypes {
		responses[i] = tt.ToResponse()
	}
	return responses, nil
}

func (s *service) UpdateTicketType(ticketTypeID, organizerID uuid.UUID, req UpdateTicketTypeRequest) (*TicketTypeResponse, error) {
	ticketType, err := s.repo.GetByID(ticketTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketTypeNotFound
		}
		return nil, err
	}

	if err := s.requireOwner(ticketType.EventID, organizerID); err != nil {
		return nil, err
	}

	// Capacity is fixed for the lifetime of the pool, only label and price move
	updates := make(map[string]interface{})
	if req.Label != nil {
		updates["label"] = *req.Label
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}

	if len(updates) == 0 {
		resp := ticketType.ToResponse()
		return &resp, nil
	}

	updated, err := s.repo.Update(ticketTypeID, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update ticket type: %w", err)
	}

	s.invalidateTicketTypeCache(updated.EventID)

	resp := updated.ToResponse()
	return &resp, nil
}

func (s *service) DeleteTicketType(ticketTypeID, organizerID uuid.UUID) error {
	ticketType, err := s.repo.GetByID(ticketTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTicketTypeNotFound
		}
		return err
	}

	if err := s.requireOwner(ticketType.EventID, organizerID); err != nil {
		return err
	}

	active, err := s.repo.ActiveBookingCount(ticketTypeID)
	if err != nil {
		return fmt.Errorf("failed to check active bookings: %w", err)
	}
	if active > 0 {
		return ErrHasActiveBookings
	}

	if err := s.repo.Delete(ticketTypeID); err != nil {
		return err
	}

	s.invalidateTicketTypeCache(ticketType.EventID)
	return nil
}

func (s *service) requireOwner(eventID, organizerID uuid.UUID) error {
	owns, err := s.ownership.IsOrganizer(eventID, organizerID)
	if err != nil {
		return err
	}
	if !owns {
		return ErrNotOwner
	}
	return nil
}
