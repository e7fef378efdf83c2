package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateRSVP is returned when an email has already responded to the event.
var ErrDuplicateRSVP = errors.New("email already responded to this event")

// ErrEventFull is returned when an attending response is rejected because the
// event has no remaining capacity.
var ErrEventFull = errors.New("event is fully booked")

// RSVPStatus is an attendee's reply to an event.
type RSVPStatus string

const (
	StatusAttending RSVPStatus = "attending"
	StatusMaybe     RSVPStatus = "maybe"
	StatusDeclined  RSVPStatus = "declined"
)

// Valid reports whether s is one of the three known statuses.
func (s RSVPStatus) Valid() bool {
	switch s {
	case StatusAttending, StatusMaybe, StatusDeclined:
		return true
	}
	return false
}

// RSVP represents one attendee's response to an event. Email is stored
// trimmed and lowercased; at most one RSVP exists per (event, email) pair.
// swagger:model RSVP
type RSVP struct {
	ID                  string     `json:"id"`
	EventID             string     `json:"event_id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	Status              RSVPStatus `json:"status"`
	Guests              int        `json:"guests"`
	DietaryRestrictions *string    `json:"dietary_restrictions"`
	CreatedAt           time.Time  `json:"created_at"`
}

// NewRSVP returns a new RSVP. ID is typically set by the repository on create.
func NewRSVP(eventID, name, email string, status RSVPStatus, guests int, dietary *string, createdAt time.Time) *RSVP {
	return &RSVP{
		EventID:             eventID,
		Name:                name,
		Email:               email,
		Status:              status,
		Guests:              guests,
		DietaryRestrictions: dietary,
		CreatedAt:           createdAt,
	}
}

// RSVPListFilter narrows an organizer's RSVP listing.
type RSVPListFilter struct {
	// Status filters to a single status when non-empty.
	Status RSVPStatus
	// Search matches name or email substrings, case-insensitive.
	Search string
}

// RSVPRepository defines storage operations for RSVPs.
//
// Create must enforce the admission contract atomically: re-check remaining
// capacity for attending responses and the (event, email) uniqueness inside
// the same transaction as the insert, returning ErrEventFull or
// ErrDuplicateRSVP when the race is lost. A failed create leaves no rows.
type RSVPRepository interface {
	Create(ctx context.Context, rsvp *RSVP) error
	GetByID(ctx context.Context, id string) (*RSVP, error)
	GetByEventAndEmail(ctx context.Context, eventID, email string) (*RSVP, error)
	ListByEventID(ctx context.Context, eventID string, filter RSVPListFilter) ([]*RSVP, error)
	UpdateStatus(ctx context.Context, id string, status RSVPStatus) (*RSVP, error)
	Delete(ctx context.Context, id string) error
}

// RSVPService defines the admission-control core and organizer RSVP management.
type RSVPService interface {
	// SubmitRSVP validates and admits a public response. It returns the stored
	// RSVP together with a freshly recomputed capacity aggregate.
	SubmitRSVP(ctx context.Context, eventID, name, email string, status RSVPStatus, guests int, dietary *string) (*RSVP, *EventCapacity, error)
	// UpdateRSVPStatus changes a response's status. Only the owning event's
	// organizer may call it; no capacity re-check is applied on promotion to
	// attending (organizer overrides are trusted).
	UpdateRSVPStatus(ctx context.Context, rsvpID, requesterID string, status RSVPStatus) (*RSVP, error)
	DeleteRSVP(ctx context.Context, rsvpID, requesterID string) error
	ListEventRSVPs(ctx context.Context, eventID, requesterID string, filter RSVPListFilter) ([]*RSVP, error)
	// SeedDemoRSVPs inserts up to min(10, capacity) generated responses for the
	// organizer's event without exceeding remaining capacity. Returns the
	// created RSVPs.
	SeedDemoRSVPs(ctx context.Context, eventID, requesterID string) ([]*RSVP, error)
}
