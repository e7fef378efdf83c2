package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"rsvpdesk/internal/domain"
)

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID   map[string]*domain.Event
	nextID int
	err    error // if set, Create returns this error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:   make(map[string]*domain.Event),
		nextID: 1,
	}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.byID {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeEventRepo) ListPublic(ctx context.Context, filter domain.EventDateFilter, search string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	now := time.Now()
	var out []*domain.Event
	for _, e := range f.byID {
		if filter == domain.FilterPast && !e.Date.Before(now) {
			continue
		}
		if filter != domain.FilterPast && e.Date.Before(now) {
			continue
		}
		if s := strings.ToLower(search); s != "" &&
			!strings.Contains(strings.ToLower(e.Title), s) &&
			!strings.Contains(strings.ToLower(e.Location), s) {
			continue
		}
		out = append(out, e)
	}
	if filter == domain.FilterPast {
		sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	}
	total := len(out)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.Limit()
	if end > total {
		end = total
	}
	return out[start:end], total, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, eventID string, title, location *string, description *string, date *time.Time, capacity *int) (*domain.Event, error) {
	e, ok := f.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if title != nil {
		e.Title = *title
	}
	if location != nil {
		e.Location = *location
	}
	if description != nil {
		e.Description = description
	}
	if date != nil {
		e.Date = *date
	}
	if capacity != nil {
		e.Capacity = *capacity
	}
	return e, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeRSVPRepo is an in-memory RSVPRepository. Create enforces the same
// admission contract as the real repository, guarded by a mutex so concurrent
// submissions are serialized the way the row lock serializes them.
type fakeRSVPRepo struct {
	mu     sync.Mutex
	events *fakeEventRepo
	byID   map[string]*domain.RSVP
	nextID int
	err    error // if set, Create returns this error
}

func newFakeRSVPRepo(events *fakeEventRepo) *fakeRSVPRepo {
	return &fakeRSVPRepo{
		events: events,
		byID:   make(map[string]*domain.RSVP),
		nextID: 1,
	}
}

func (f *fakeRSVPRepo) attendingCount(eventID string) int {
	n := 0
	for _, r := range f.byID {
		if r.EventID == eventID && r.Status == domain.StatusAttending {
			n++
		}
	}
	return n
}

func (f *fakeRSVPRepo) Create(ctx context.Context, rsvp *domain.RSVP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	event, ok := f.events.byID[rsvp.EventID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, r := range f.byID {
		if r.EventID == rsvp.EventID && r.Email == rsvp.Email {
			return domain.ErrDuplicateRSVP
		}
	}
	if rsvp.Status == domain.StatusAttending && f.attendingCount(rsvp.EventID) >= event.Capacity {
		return domain.ErrEventFull
	}
	rsvp.ID = fmt.Sprintf("rsvp-%d", f.nextID)
	f.nextID++
	f.byID[rsvp.ID] = rsvp
	return nil
}

func (f *fakeRSVPRepo) GetByID(ctx context.Context, id string) (*domain.RSVP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byID[id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRSVPRepo) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.RSVP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.byID {
		if r.EventID == eventID && r.Email == email {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRSVPRepo) ListByEventID(ctx context.Context, eventID string, filter domain.RSVPListFilter) ([]*domain.RSVP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.RSVP
	for _, r := range f.byID {
		if r.EventID != eventID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if s := strings.ToLower(filter.Search); s != "" &&
			!strings.Contains(strings.ToLower(r.Name), s) &&
			!strings.Contains(strings.ToLower(r.Email), s) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRSVPRepo) UpdateStatus(ctx context.Context, id string, status domain.RSVPStatus) (*domain.RSVP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r.Status = status
	return r, nil
}

func (f *fakeRSVPRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeCapacityRepo derives the aggregate from the fake event and RSVP stores.
type fakeCapacityRepo struct {
	events *fakeEventRepo
	rsvps  *fakeRSVPRepo
	err    error
}

func newFakeCapacityRepo(events *fakeEventRepo, rsvps *fakeRSVPRepo) *fakeCapacityRepo {
	return &fakeCapacityRepo{events: events, rsvps: rsvps}
}

func (f *fakeCapacityRepo) Get(ctx context.Context, eventID string) (*domain.EventCapacity, error) {
	if f.err != nil {
		return nil, f.err
	}
	event, ok := f.events.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	f.rsvps.mu.Lock()
	attending := f.rsvps.attendingCount(eventID)
	f.rsvps.mu.Unlock()
	return &domain.EventCapacity{
		EventID:        eventID,
		Capacity:       event.Capacity,
		AttendingCount: attending,
		Remaining:      event.Capacity - attending,
	}, nil
}

func (f *fakeCapacityRepo) List(ctx context.Context, eventIDs []string) (map[string]*domain.EventCapacity, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]*domain.EventCapacity, len(eventIDs))
	for _, id := range eventIDs {
		c, err := f.Get(ctx, id)
		if err != nil {
			continue
		}
		out[id] = c
	}
	return out, nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	byID   map[string]*domain.User
	nextID int
	err    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:   make(map[string]*domain.User),
		nextID: 1,
	}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

// fakeHasher implements PasswordHasher with reversible fake values.
type fakeHasher struct{}

func (fakeHasher) GenerateSalt() (string, error) { return "salt", nil }

func (fakeHasher) Hash(salt, password string) (string, error) {
	return "hashed:" + salt + ":" + password, nil
}

func (fakeHasher) Compare(hash, salt, password string) error {
	if hash != "hashed:"+salt+":"+password {
		return fmt.Errorf("mismatch")
	}
	return nil
}

// fakeIssuer implements TokenIssuer.
type fakeIssuer struct {
	err error
}

func (f fakeIssuer) Issue(userID, email string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-for-" + userID, nil
}

// fakeEmailService records sent messages instead of delivering them.
type fakeEmailService struct {
	mu            sync.Mutex
	welcomes      []*domain.WelcomeMessageEmailData
	confirmations []*domain.RSVPConfirmationEmailData
}

func (f *fakeEmailService) SendWelcomeMessage(ctx context.Context, data *domain.WelcomeMessageEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes = append(f.welcomes, data)
	return nil
}

func (f *fakeEmailService) SendRSVPConfirmation(ctx context.Context, data *domain.RSVPConfirmationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmations = append(f.confirmations, data)
	return nil
}
