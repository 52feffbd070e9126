package events

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ticketly/internal/tickets"
	"ticketly/pkg/cache"
)

var (
	// ErrEventNotFound is the tickets package sentinel so ownership checks
	// surface the same error from either package
	ErrEventNotFound = tickets.ErrEventNotFound
	ErrNotOwner      = errors.New("event belongs to another organizer")
)

type Service interface {
	CreateEvent(organizerID uuid.UUID, req CreateEventRequest) (*EventResponse, error)
	GetEventByID(eventID uuid.UUID) (*EventResponse, error)
	GetEventWithTickets(eventID uuid.UUID) (*EventResponse, error)
	UpdateEvent(eventID, organizerID uuid.UUID, req UpdateEventRequest) (*EventResponse, error)
	DeleteEvent(eventID, organizerID uuid.UUID) error
	GetAllEvents(query EventListQuery) (*PaginatedEvents, error)
	GetMyEvents(organizerID uuid.UUID) ([]EventResponse, error)
	GetUpcomingEvents(limit int) ([]EventResponse, error)

	// IsOrganizer reports whether userID owns the event
	IsOrganizer(eventID, userID uuid.UUID) (bool, error)

	// SetCacheService injects the cache layer; reads work without it
	SetCacheService(cacheService cache.Service, ttl time.Duration)
}

type service struct {
	repo         Repository
	ticketRepo   tickets.Repository
	cacheService cache.Service
	cacheTTL     time.Duration
}

func NewService(repo Repository, ticketRepo tickets.Repository) Service {
	return &service{
		repo:       repo,
		ticketRepo: ticketRepo,
	}
}

func (s *service) SetCacheService(cacheService cache.Service, ttl time.Duration) {
	s.cacheService = cacheService
	s.cacheTTL = ttl
}

func (s *service) getCache(ctx context.Context, key string, dest interface{}) error {
	if s.cacheService == nil {
		return cache.ErrCacheMiss
	}
	return s.cacheService.Get(ctx, key, dest)
}

func (s *service) setCache(ctx context.Context, key string, value interface{}) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Set(ctx, key, value, s.cacheTTL); err != nil {
		log.Printf("Warning: failed to cache %s: %v", key, err)
	}
}

func (s *service) invalidateEventCache(ctx context.Context, eventID *uuid.UUID) {
	if s.cacheService == nil {
		return
	}

	patterns := []string{cache.EventListPattern(), cache.UpcomingEventsKey()}
	if eventID != nil {
		patterns = append(patterns, cache.EventPattern(eventID.String()))
	}

	for _, pattern := range patterns {
		if err := s.cacheService.DeletePattern(ctx, pattern); err != nil {
			log.Printf("Warning: failed to invalidate event cache: %v", err)
		}
	}
}

func (s *service) CreateEvent(organizerID uuid.UUID, req CreateEventRequest) (*EventResponse, error) {
	if req.StartTime.Before(time.Now()) {
		return nil, fmt.Errorf("event start time must be in the future")
	}

	event := &Event{
		Title:       req.Title,
		Description: req.Description,
		Venue:       req.Venue,
		StartTime:   req.StartTime,
		OrganizerID: organizerID,
	}

	if err := s.repo.Create(event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	s.invalidateEventCache(context.Background(), nil)

	resp := event.ToResponse()
	return &resp, nil
}

func (s *service) GetEventByID(eventID uuid.UUID) (*EventResponse, error) {
	event, err := s.repo.GetByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	resp := event.ToResponse()
	return &resp, nil
}

func (s *service) GetEventWithTickets(eventID uuid.UUID) (*EventResponse, error) {
	ctx := context.Background()
	cacheKey := cache.EventKey(eventID.String())

	var cached EventResponse
	if err := s.getCache(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	event, err := s.repo.GetByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	types, err := s.ticketRepo.GetByEvent(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket types: %w", err)
	}

	resp := event.ToResponse()
	resp.TicketTypes = make([]tickets.TicketTypeResponse, len(types))
	for i, tt := range types {
		resp.TicketTypes[i] = tt.ToResponse()
	}

	s.setCache(ctx, cacheKey, resp)

	return &resp, nil
}

func (s *service) UpdateEvent(eventID, organizerID uuid.UUID, req UpdateEventRequest) (*EventResponse, error) {
	event, err := s.repo.GetByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	if event.OrganizerID != organizerID {
		return nil, ErrNotOwner
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Venue != nil {
		updates["venue"] = *req.Venue
	}
	if req.StartTime != nil {
		if req.StartTime.Before(time.Now()) {
			return nil, fmt.Errorf("event start time must be in the future")
		}
		updates["start_time"] = *req.StartTime
	}

	if len(updates) == 0 {
		resp := event.ToResponse()
		return &resp, nil
	}

	updated, err := s.repo.Update(eventID, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	s.invalidateEventCache(context.Background(), &eventID)

	resp := updated.ToResponse()
	return &resp, nil
}

func (s *service) DeleteEvent(eventID, organizerID uuid.UUID) error {
	event, err := s.repo.GetByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}

	if event.OrganizerID != organizerID {
		return ErrNotOwner
	}

	if err := s.repo.Delete(eventID); err != nil {
		return err
	}

	s.invalidateEventCache(context.Background(), &eventID)
	return nil
}

func (s *service) GetAllEvents(query EventListQuery) (*PaginatedEvents, error) {
	if query.Page == 0 {
		query.Page = 1
	}
	if query.Limit == 0 {
		query.Limit = 10
	}

	ctx := context.Background()
	cacheKey := cache.EventListKey(query.Page, query.Limit, query.Search, query.Venue)

	// Date-filtered queries bypass the cache, the key space would explode
	cacheable := query.DateFrom == "" && query.DateTo == ""

	if cacheable {
		var cached PaginatedEvents
		if err := s.getCache(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	eventList, totalCount, err := s.repo.GetAll(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	responses := make([]EventResponse, len(eventList))
	for i, event := range eventList {
		responses[i] = event.ToResponse()
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(query.Limit)))

	result := &PaginatedEvents{
		Events:     responses,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages,
	}

	if cacheable {
		s.setCache(ctx, cacheKey, result)
	}

	return result, nil
}

func (s *service) GetMyEvents(organizerID uuid.UUID) ([]EventResponse, error) {
	eventList, err := s.repo.GetByOrganizer(organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizer events: %w", err)
	}

	responses := make([]EventResponse, len(eventList))
	for i, event := range eventList {
		responses[i] = event.ToResponse()
	}
	return responses, nil
}

func (s *service) GetUpcomingEvents(limit int) ([]EventResponse, error) {
	ctx := context.Background()

	var cached []EventResponse
	if err := s.getCache(ctx, cache.UpcomingEventsKey(), &cached); err == nil {
		return cached, nil
	}

	eventList, err := s.repo.GetUpcomingEvents(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}

	responses := make([]EventResponse, len(eventList))
	for i, event := range eventList {
		responses[i] = event.ToResponse()
	}

	s.setCache(ctx, cache.UpcomingEventsKey(), responses)

	return responses, nil
}

func (s *service) IsOrganizer(eventID, userID uuid.UUID) (bool, error) {
	event, err := s.repo.GetByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrEventNotFound
		}
		return false, err
	}
	return event.OrganizerID == userID, nil
}
