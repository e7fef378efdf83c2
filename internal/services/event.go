package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rsvpdesk/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	capacityRepo   domain.CapacityRepository
	contextTimeout time.Duration
}

func NewEventService(
	eventRepo domain.EventRepository,
	capacityRepo domain.CapacityRepository,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		capacityRepo:   capacityRepo,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, ownerID, title string, description *string, date time.Time, location string, capacity int) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if ownerID == "" {
		return nil, fmt.Errorf("%w: event owner is required", domain.ErrInvalidInput)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("%w: location is required", domain.ErrInvalidInput)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("%w: capacity must not be negative", domain.ErrInvalidInput)
	}
	// Past dates are allowed; an organizer may record an event retroactively.

	event := domain.NewEvent(title, description, date, location, capacity, ownerID, time.Now())
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, *domain.EventCapacity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}
	capacity, err := s.capacityRepo.Get(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("read capacity: %w", err)
	}
	return event, capacity, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, ownerID string, title, location *string, description *string, date *time.Time, capacity *int) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if title != nil && strings.TrimSpace(*title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if location != nil && strings.TrimSpace(*location) == "" {
		return nil, fmt.Errorf("%w: location is required", domain.ErrInvalidInput)
	}
	// Capacity may be lowered below the current attending count; existing
	// responses are kept and the event simply reads as oversold.
	if capacity != nil && *capacity < 0 {
		return nil, fmt.Errorf("%w: capacity must not be negative", domain.ErrInvalidInput)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	updated, err := s.eventRepo.Update(ctx, eventID, title, location, description, date, capacity)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// withCapacities pairs each event with its aggregate, falling back to an
// all-seats-free aggregate when the batch is missing an entry.
func withCapacities(events []*domain.Event, capacities map[string]*domain.EventCapacity) []*domain.EventWithCapacity {
	result := make([]*domain.EventWithCapacity, 0, len(events))
	for _, e := range events {
		c, ok := capacities[e.ID]
		if !ok {
			c = &domain.EventCapacity{EventID: e.ID, Capacity: e.Capacity, Remaining: e.Capacity}
		}
		result = append(result, &domain.EventWithCapacity{Event: e, Capacity: c})
	}
	return result
}

func eventIDs(events []*domain.Event) []string {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func (s *eventService) ListEventsByOwner(ctx context.Context, ownerID string) ([]*domain.EventWithCapacity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	capacities, err := s.capacityRepo.List(ctx, eventIDs(events))
	if err != nil {
		return nil, fmt.Errorf("read capacities: %w", err)
	}
	return withCapacities(events, capacities), nil
}

func (s *eventService) ListEventsPublic(ctx context.Context, filter domain.EventDateFilter, search string, params domain.PaginationParams) ([]*domain.EventWithCapacity, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if filter == "" {
		filter = domain.FilterUpcoming
	}
	if filter != domain.FilterUpcoming && filter != domain.FilterPast {
		return nil, 0, fmt.Errorf("%w: unknown filter %q", domain.ErrInvalidInput, filter)
	}
	events, total, err := s.eventRepo.ListPublic(ctx, filter, search, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	capacities, err := s.capacityRepo.List(ctx, eventIDs(events))
	if err != nil {
		return nil, 0, fmt.Errorf("read capacities: %w", err)
	}
	return withCapacities(events, capacities), total, nil
}
