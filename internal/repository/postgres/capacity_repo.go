package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"rsvpdesk/internal/domain"
)

type capacityRepository struct {
	DB *sql.DB
}

// NewCapacityRepository returns a CapacityRepository that recomputes the
// aggregate from the rsvps table on every call, mirroring the
// event_capacity_view the frontend reads.
func NewCapacityRepository(db *sql.DB) domain.CapacityRepository {
	return &capacityRepository{
		DB: db,
	}
}

const capacityQuery = `
	SELECT e.id, e.capacity,
		COUNT(r.id) FILTER (WHERE r.status = 'attending') AS attending_count
	FROM events e
	LEFT JOIN rsvps r ON r.event_id = e.id
	WHERE e.id = $1
	GROUP BY e.id, e.capacity
`

func (r *capacityRepository) Get(ctx context.Context, eventID string) (*domain.EventCapacity, error) {
	c := &domain.EventCapacity{}
	err := r.DB.QueryRowContext(ctx, capacityQuery, eventID).
		Scan(&c.EventID, &c.Capacity, &c.AttendingCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	// Remaining is intentionally not floored; <= 0 signals sold out.
	c.Remaining = c.Capacity - c.AttendingCount
	return c, nil
}

const capacityListQuery = `
	SELECT e.id, e.capacity,
		COUNT(r.id) FILTER (WHERE r.status = 'attending') AS attending_count
	FROM events e
	LEFT JOIN rsvps r ON r.event_id = e.id
	WHERE e.id = ANY($1)
	GROUP BY e.id, e.capacity
`

// List batches the aggregate for a set of events in one query so list views
// avoid a query per event.
func (r *capacityRepository) List(ctx context.Context, eventIDs []string) (map[string]*domain.EventCapacity, error) {
	result := make(map[string]*domain.EventCapacity, len(eventIDs))
	if len(eventIDs) == 0 {
		return result, nil
	}
	rows, err := r.DB.QueryContext(ctx, capacityListQuery, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		c := &domain.EventCapacity{}
		if err := rows.Scan(&c.EventID, &c.Capacity, &c.AttendingCount); err != nil {
			return nil, err
		}
		c.Remaining = c.Capacity - c.AttendingCount
		result[c.EventID] = c
	}
	return result, rows.Err()
}
