package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"rsvpdesk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

func newRSVPFixture(t *testing.T) (*fakeEventRepo, *fakeRSVPRepo, *fakeCapacityRepo, *fakeEmailService, domain.RSVPService) {
	t.Helper()
	events := newFakeEventRepo()
	rsvps := newFakeRSVPRepo(events)
	capacities := newFakeCapacityRepo(events, rsvps)
	emails := &fakeEmailService{}
	svc := NewRSVPService(events, rsvps, capacities, emails, testTimeout)
	return events, rsvps, capacities, emails, svc
}

func seedEvent(t *testing.T, events *fakeEventRepo, ownerID string, capacity int) *domain.Event {
	t.Helper()
	e := domain.NewEvent("Team Meetup", nil, time.Now().Add(48*time.Hour), "Sofia", capacity, ownerID, time.Now())
	require.NoError(t, events.Create(context.Background(), e))
	return e
}

func TestSubmitRSVP_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		rsvpN  string
		email  string
		status domain.RSVPStatus
		guests int
	}{
		{name: "blank name", rsvpN: "  ", email: "a@example.com", status: domain.StatusAttending},
		{name: "bad email", rsvpN: "Ana", email: "not-an-email", status: domain.StatusAttending},
		{name: "unknown status", rsvpN: "Ana", email: "a@example.com", status: "going"},
		{name: "negative guests", rsvpN: "Ana", email: "a@example.com", status: domain.StatusMaybe, guests: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, _, _, _, svc := newRSVPFixture(t)
			event := seedEvent(t, events, "owner-1", 10)

			_, _, err := svc.SubmitRSVP(ctx, event.ID, tt.rsvpN, tt.email, tt.status, tt.guests, nil)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSubmitRSVP_Success(t *testing.T) {
	ctx := context.Background()
	events, _, _, emails, svc := newRSVPFixture(t)
	event := seedEvent(t, events, "owner-1", 10)

	dietary := "  vegetarian  "
	rsvp, capacity, err := svc.SubmitRSVP(ctx, event.ID, "  Ana Petrova  ", "Ana@Example.COM", domain.StatusAttending, 2, &dietary)
	require.NoError(t, err)

	assert.Equal(t, "Ana Petrova", rsvp.Name)
	assert.Equal(t, "ana@example.com", rsvp.Email, "email is normalized before storage")
	assert.Equal(t, 2, rsvp.Guests)
	require.NotNil(t, rsvp.DietaryRestrictions)
	assert.Equal(t, "vegetarian", *rsvp.DietaryRestrictions)
	assert.NotEmpty(t, rsvp.ID)

	assert.Equal(t, 1, capacity.AttendingCount)
	assert.Equal(t, 9, capacity.Remaining)

	require.Len(t, emails.confirmations, 1)
	assert.Equal(t, "ana@example.com", emails.confirmations[0].Email)
	assert.Equal(t, "Team Meetup", emails.confirmations[0].EventTitle)
}

func TestSubmitRSVP_NonAttendingSkipsConfirmation(t *testing.T) {
	ctx := context.Background()
	events, _, _, emails, svc := newRSVPFixture(t)
	event := seedEvent(t, events, "owner-1", 10)

	_, capacity, err := svc.SubmitRSVP(ctx, event.ID, "Ana", "ana@example.com", domain.StatusMaybe, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, capacity.AttendingCount)
	assert.Empty(t, emails.confirmations)
}

func TestSubmitRSVP_UnknownEvent(t *testing.T) {
	ctx := context.Background()
	_, _, _, _, svc := newRSVPFixture(t)

	_, _, err := svc.SubmitRSVP(ctx, "ev-missing", "Ana", "ana@example.com", domain.StatusAttending, 0, nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmitRSVP_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	events, _, _, _, svc := newRSVPFixture(t)
	event := seedEvent(t, events, "owner-1", 10)

	_, _, err := svc.SubmitRSVP(ctx, event.ID, "Ana", "ana@example.com", domain.StatusDeclined, 0, nil)
	require.NoError(t, err)

	// A declined response still blocks resubmission, even with another status
	// and different casing.
	_, _, err = svc.SubmitRSVP(ctx, event.ID, "Ana", "ANA@example.com", domain.StatusAttending, 0, nil)
	require.ErrorIs(t, err, domain.ErrDuplicateRSVP)
}

func TestSubmitRSVP_CapacityBoundary(t *testing.T) {
	ctx := context.Background()
	events, _, _, _, svc := newRSVPFixture(t)
	event := seedEvent(t, events, "owner-1", 1)

	_, capacity, err := svc.SubmitRSVP(ctx, event.ID, "Ana", "ana@example.com", domain.StatusAttending, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, capacity.Remaining)

	_, _, err = svc.SubmitRSVP(ctx, event.ID, "Boris", "boris@example.com", domain.StatusAttending, 0, nil)
	require.ErrorIs(t, err, domain.ErrEventFull)

	// Non-consuming statuses are admitted even when sold out.
	rsvp, _, err := svc.SubmitRSVP(ctx, event.ID, "Vera", "vera@example.com", domain.StatusMaybe, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusMaybe, rsvp.Status)
}

func TestSubmitRSVP_ZeroCapacityEvent(t *testing.T) {
	ctx := context.Background()
	events, _, _, _, svc := newRSVPFixture(t)
	event := seedEvent(t, events, "owner-1", 0)

	_, _, err := svc.SubmitRSVP(ctx, event.ID, "Ana", "ana@example.com", domain.StatusAttending, 0, nil)
	require.ErrorIs(t, err, domain.ErrEventFull)
}

func TestSubmitRSVP_ConcurrentLastSeat(t *testing.T) {
	ctx := context.Background()
	events, _, capacities, _, svc := newRSVPFixture(t)
	event := seedEvent(t, events, "owner-1", 1)

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.SubmitRSVP(ctx, event.ID, "Guest", fmt.Sprintf("guest%d@example.com", i), domain.StatusAttending, 0, nil)
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
		} else {
			require.ErrorIs(t, err, domain.ErrEventFull)
		}
	}
	assert.Equal(t, 1, admitted, "exactly one submitter wins the last seat")

	capacity, err := capacities.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, capacity.AttendingCount)
}

func TestUpdateRSVPStatus(t *testing.T) {
	ctx := context.Background()
	events, rsvps, _, _, svc := newRSVPFixture(t)
	event := seedEvent(t, events, "owner-1", 1)

	rsvp := domain.NewRSVP(event.ID, "Ana", "ana@example.com", domain.StatusMaybe, 0, nil, time.Now())
	require.NoError(t, rsvps.Create(ctx, rsvp))

	t.Run("requester must own the event", func(t *testing.T) {
		_, err := svc.UpdateRSVPStatus(ctx, rsvp.ID, "intruder", domain.StatusAttending)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("unknown rsvp", func(t *testing.T) {
		_, err := svc.UpdateRSVPStatus(ctx, "rsvp-missing", "owner-1", domain.StatusAttending)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := svc.UpdateRSVPStatus(ctx, rsvp.ID, "owner-1", "going")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("promotion ignores capacity", func(t *testing.T) {
		// Fill the only seat, then promote the maybe. The override is allowed
		// to overbook.
		taken := domain.NewRSVP(event.ID, "Boris", "boris@example.com", domain.StatusAttending, 0, nil, time.Now())
		require.NoError(t, rsvps.Create(ctx, taken))

		updated, err := svc.UpdateRSVPStatus(ctx, rsvp.ID, "owner-1", domain.StatusAttending)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAttending, updated.Status)
	})
}

func TestDeleteRSVP(t *testing.T) {
	ctx := context.Background()
	events, rsvps, capacities, _, svc := newRSVPFixture(t)
	event := seedEvent(t, events, "owner-1", 5)

	rsvp := domain.NewRSVP(event.ID, "Ana", "ana@example.com", domain.StatusAttending, 0, nil, time.Now())
	require.NoError(t, rsvps.Create(ctx, rsvp))

	require.ErrorIs(t, svc.DeleteRSVP(ctx, rsvp.ID, "intruder"), domain.ErrForbidden)

	require.NoError(t, svc.DeleteRSVP(ctx, rsvp.ID, "owner-1"))

	capacity, err := capacities.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, capacity.Remaining, "deleting an attending response frees its seat")

	require.ErrorIs(t, svc.DeleteRSVP(ctx, rsvp.ID, "owner-1"), domain.ErrNotFound)
}

func TestListEventRSVPs(t *testing.T) {
	ctx := context.Background()
	events, rsvps, _, _, svc := newRSVPFixture(t)
	event := seedEvent(t, events, "owner-1", 10)

	require.NoError(t, rsvps.Create(ctx, domain.NewRSVP(event.ID, "Ana Petrova", "ana@example.com", domain.StatusAttending, 0, nil, time.Now())))
	require.NoError(t, rsvps.Create(ctx, domain.NewRSVP(event.ID, "Boris Iliev", "boris@example.com", domain.StatusDeclined, 0, nil, time.Now())))

	t.Run("requester must own the event", func(t *testing.T) {
		_, err := svc.ListEventRSVPs(ctx, event.ID, "intruder", domain.RSVPListFilter{})
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("invalid status filter", func(t *testing.T) {
		_, err := svc.ListEventRSVPs(ctx, event.ID, "owner-1", domain.RSVPListFilter{Status: "going"})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("status filter", func(t *testing.T) {
		got, err := svc.ListEventRSVPs(ctx, event.ID, "owner-1", domain.RSVPListFilter{Status: domain.StatusDeclined})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "boris@example.com", got[0].Email)
	})

	t.Run("search filter", func(t *testing.T) {
		got, err := svc.ListEventRSVPs(ctx, event.ID, "owner-1", domain.RSVPListFilter{Search: "petrova"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "ana@example.com", got[0].Email)
	})

	t.Run("no matches returns empty slice", func(t *testing.T) {
		got, err := svc.ListEventRSVPs(ctx, event.ID, "owner-1", domain.RSVPListFilter{Search: "nobody"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestSeedDemoRSVPs(t *testing.T) {
	ctx := context.Background()

	t.Run("requester must own the event", func(t *testing.T) {
		events, _, _, _, svc := newRSVPFixture(t)
		event := seedEvent(t, events, "owner-1", 10)

		_, err := svc.SeedDemoRSVPs(ctx, event.ID, "intruder")
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("full event is rejected", func(t *testing.T) {
		events, rsvps, _, _, svc := newRSVPFixture(t)
		event := seedEvent(t, events, "owner-1", 1)
		require.NoError(t, rsvps.Create(ctx, domain.NewRSVP(event.ID, "Ana", "ana@example.com", domain.StatusAttending, 0, nil, time.Now())))

		_, err := svc.SeedDemoRSVPs(ctx, event.ID, "owner-1")
		require.ErrorIs(t, err, domain.ErrEventFull)
	})

	t.Run("respects capacity and the seed cap", func(t *testing.T) {
		events, _, capacities, _, svc := newRSVPFixture(t)
		event := seedEvent(t, events, "owner-1", 3)

		created, err := svc.SeedDemoRSVPs(ctx, event.ID, "owner-1")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(created), 3)

		capacity, err := capacities.Get(ctx, event.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, capacity.Remaining, 0, "seeding never overbooks")
	})

	t.Run("large event caps the batch", func(t *testing.T) {
		events, _, _, _, svc := newRSVPFixture(t)
		event := seedEvent(t, events, "owner-1", 500)

		created, err := svc.SeedDemoRSVPs(ctx, event.ID, "owner-1")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(created), 10)
		for _, r := range created {
			assert.True(t, r.Status.Valid())
			assert.Contains(t, r.Email, "@example.com")
		}
	})
}
