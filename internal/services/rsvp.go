package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"rsvpdesk/internal/domain"
)

type rsvpService struct {
	eventRepo      domain.EventRepository
	rsvpRepo       domain.RSVPRepository
	capacityRepo   domain.CapacityRepository
	emailService   domain.EmailService
	contextTimeout time.Duration
}

func NewRSVPService(
	eventRepo domain.EventRepository,
	rsvpRepo domain.RSVPRepository,
	capacityRepo domain.CapacityRepository,
	emailService domain.EmailService,
	timeout time.Duration,
) domain.RSVPService {
	return &rsvpService{
		eventRepo:      eventRepo,
		rsvpRepo:       rsvpRepo,
		capacityRepo:   capacityRepo,
		emailService:   emailService,
		contextTimeout: timeout,
	}
}

func (s *rsvpService) SubmitRSVP(ctx context.Context, eventID, name, email string, status domain.RSVPStatus, guests int, dietary *string) (*domain.RSVP, *domain.EventCapacity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return nil, nil, fmt.Errorf("%w: a valid email address is required", domain.ErrInvalidInput)
	}
	if !status.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	if guests < 0 {
		return nil, nil, fmt.Errorf("%w: guests must not be negative", domain.ErrInvalidInput)
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get event: %w", err)
	}

	// Uniqueness is per (event, email) regardless of status: a maybe or
	// declined response also blocks a second submission.
	if _, err := s.rsvpRepo.GetByEventAndEmail(ctx, eventID, email); err == nil {
		return nil, nil, domain.ErrDuplicateRSVP
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, fmt.Errorf("check existing rsvp: %w", err)
	}

	// Pre-check capacity for attending responses. This is advisory only; the
	// repository re-validates under a row lock at insert time, so losing a
	// race here still yields the same ErrEventFull outcome.
	if status == domain.StatusAttending {
		capacity, err := s.capacityRepo.Get(ctx, eventID)
		if err != nil {
			return nil, nil, fmt.Errorf("read capacity: %w", err)
		}
		if capacity.SoldOut() {
			return nil, nil, domain.ErrEventFull
		}
	}

	if dietary != nil {
		v := strings.TrimSpace(*dietary)
		if v == "" {
			dietary = nil
		} else {
			dietary = &v
		}
	}
	rsvp := domain.NewRSVP(eventID, name, email, status, guests, dietary, time.Now())
	if err := s.rsvpRepo.Create(ctx, rsvp); err != nil {
		if errors.Is(err, domain.ErrDuplicateRSVP) || errors.Is(err, domain.ErrEventFull) || errors.Is(err, domain.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("create rsvp: %w", err)
	}

	capacity, err := s.capacityRepo.Get(ctx, eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("read capacity: %w", err)
	}

	// Confirmation email is best-effort; a mail failure never fails an
	// accepted RSVP.
	if status == domain.StatusAttending && s.emailService != nil {
		_ = s.emailService.SendRSVPConfirmation(ctx, &domain.RSVPConfirmationEmailData{
			Email:      email,
			Name:       name,
			EventTitle: event.Title,
			EventDate:  event.Date.Format(time.RFC1123),
			Location:   event.Location,
		})
	}

	return rsvp, capacity, nil
}

// getOwnedRSVP loads the RSVP and verifies the requester owns its event.
func (s *rsvpService) getOwnedRSVP(ctx context.Context, rsvpID, requesterID string) (*domain.RSVP, error) {
	rsvp, err := s.rsvpRepo.GetByID(ctx, rsvpID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get rsvp: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, rsvp.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != requesterID {
		return nil, domain.ErrForbidden
	}
	return rsvp, nil
}

func (s *rsvpService) UpdateRSVPStatus(ctx context.Context, rsvpID, requesterID string, status domain.RSVPStatus) (*domain.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	if _, err := s.getOwnedRSVP(ctx, rsvpID, requesterID); err != nil {
		return nil, err
	}
	// Deliberately no capacity re-check: an organizer promoting a response to
	// attending may exceed the nominal capacity.
	updated, err := s.rsvpRepo.UpdateStatus(ctx, rsvpID, status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update rsvp status: %w", err)
	}
	return updated, nil
}

func (s *rsvpService) DeleteRSVP(ctx context.Context, rsvpID, requesterID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getOwnedRSVP(ctx, rsvpID, requesterID); err != nil {
		return err
	}
	if err := s.rsvpRepo.Delete(ctx, rsvpID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete rsvp: %w", err)
	}
	return nil
}

func (s *rsvpService) ListEventRSVPs(ctx context.Context, eventID, requesterID string, filter domain.RSVPListFilter) ([]*domain.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != requesterID {
		return nil, domain.ErrForbidden
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	rsvps, err := s.rsvpRepo.ListByEventID(ctx, eventID, filter)
	if err != nil {
		return nil, fmt.Errorf("list rsvps: %w", err)
	}
	if rsvps == nil {
		rsvps = []*domain.RSVP{}
	}
	return rsvps, nil
}

var demoFirstNames = []string{"Ivan", "Maria", "Georgi", "Elena", "Petar", "Darina", "Nikolay", "Sofia", "Dimitar", "Anna"}
var demoLastNames = []string{"Ivanov", "Petrov", "Georgiev", "Dimitrov", "Stoyanov", "Nikolov", "Hristov", "Angelov", "Todorov", "Kolev"}

const maxDemoRSVPs = 10

func (s *rsvpService) SeedDemoRSVPs(ctx context.Context, eventID, requesterID string) ([]*domain.RSVP, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != requesterID {
		return nil, domain.ErrForbidden
	}

	capacity, err := s.capacityRepo.Get(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("read capacity: %w", err)
	}
	available := capacity.Remaining
	if available <= 0 {
		return nil, domain.ErrEventFull
	}

	statuses := []domain.RSVPStatus{domain.StatusAttending, domain.StatusMaybe, domain.StatusDeclined}
	count := maxDemoRSVPs
	if event.Capacity < count {
		count = event.Capacity
	}

	created := make([]*domain.RSVP, 0, count)
	attendingAdded := 0
	for i := 0; i < count; i++ {
		first := demoFirstNames[rand.IntN(len(demoFirstNames))]
		last := demoLastNames[rand.IntN(len(demoLastNames))]

		// Stop handing out attending seats once the remaining capacity is
		// spoken for; fall back to the non-consuming statuses.
		status := statuses[rand.IntN(len(statuses))]
		if attendingAdded >= available && status == domain.StatusAttending {
			if rand.IntN(2) == 0 {
				status = domain.StatusMaybe
			} else {
				status = domain.StatusDeclined
			}
		}
		if status == domain.StatusAttending {
			attendingAdded++
		}

		var dietary *string
		if rand.IntN(10) >= 7 {
			v := "vegetarian"
			dietary = &v
		}
		rsvp := domain.NewRSVP(
			eventID,
			first+" "+last,
			fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(first), strings.ToLower(last), i),
			status,
			rand.IntN(3),
			dietary,
			time.Now(),
		)
		if err := s.rsvpRepo.Create(ctx, rsvp); err != nil {
			// Generated emails can collide with earlier seeded rows; skip those.
			if errors.Is(err, domain.ErrDuplicateRSVP) {
				continue
			}
			if errors.Is(err, domain.ErrEventFull) {
				break
			}
			return nil, fmt.Errorf("create demo rsvp: %w", err)
		}
		created = append(created, rsvp)
	}
	return created, nil
}
