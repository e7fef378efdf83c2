package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared across resources.
var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the requester is not the resource owner.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned when a request fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// Event represents an organizer-owned event with a seat limit.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity"`
	OwnerID     string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(title string, description *string, date time.Time, location string, capacity int, ownerID string, createdAt time.Time) *Event {
	return &Event{
		Title:       title,
		Description: description,
		Date:        date,
		Location:    location,
		Capacity:    capacity,
		OwnerID:     ownerID,
		CreatedAt:   createdAt,
	}
}

// EventDateFilter selects upcoming or past events in public listings.
type EventDateFilter string

const (
	FilterUpcoming EventDateFilter = "upcoming"
	FilterPast     EventDateFilter = "past"
)

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	// ListPublic returns events matching the date filter and optional
	// title/location search term, plus the total match count for pagination.
	ListPublic(ctx context.Context, filter EventDateFilter, search string, params PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, eventID string, title, location *string, description *string, date *time.Time, capacity *int) (*Event, error)
	// Delete removes the event and all of its RSVPs in one transaction.
	Delete(ctx context.Context, id string) error
}

// EventWithCapacity bundles an event with its derived capacity aggregate.
type EventWithCapacity struct {
	Event    *Event         `json:"event"`
	Capacity *EventCapacity `json:"capacity"`
}

// EventService defines organizer-facing event operations.
type EventService interface {
	CreateEvent(ctx context.Context, ownerID, title string, description *string, date time.Time, location string, capacity int) (*Event, error)
	// GetEvent returns the event together with a fresh capacity aggregate. Public.
	GetEvent(ctx context.Context, eventID string) (*Event, *EventCapacity, error)
	UpdateEvent(ctx context.Context, eventID, ownerID string, title, location *string, description *string, date *time.Time, capacity *int) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, ownerID string) error
	ListEventsByOwner(ctx context.Context, ownerID string) ([]*EventWithCapacity, error)
	ListEventsPublic(ctx context.Context, filter EventDateFilter, search string, params PaginationParams) ([]*EventWithCapacity, int, error)
}
