package domain

import "context"

// EventCapacity is the derived capacity aggregate for one event. Remaining is
// capacity minus attending count and is NOT floored at zero: a value <= 0
// means sold out.
// swagger:model EventCapacity
type EventCapacity struct {
	EventID        string `json:"event_id"`
	Capacity       int    `json:"capacity"`
	AttendingCount int    `json:"attending_count"`
	Remaining      int    `json:"remaining"`
}

// SoldOut reports whether the event has no remaining seats.
func (c *EventCapacity) SoldOut() bool {
	return c.Remaining <= 0
}

// CapacityRepository produces capacity aggregates on demand. Values are
// recomputed from committed rows on every call, never cached, because
// admission decisions depend on them.
type CapacityRepository interface {
	Get(ctx context.Context, eventID string) (*EventCapacity, error)
	// List returns aggregates for the given events in one query, keyed by
	// event ID. Events with no RSVPs are still present in the result.
	List(ctx context.Context, eventIDs []string) (map[string]*EventCapacity, error)
}
