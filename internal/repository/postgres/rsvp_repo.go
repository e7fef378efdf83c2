package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"rsvpdesk/internal/domain"
)

type rsvpRepository struct {
	DB *sql.DB
}

func NewRSVPRepository(db *sql.DB) domain.RSVPRepository {
	return &rsvpRepository{
		DB: db,
	}
}

const rsvpColumns = "id, event_id, name, email, status, guests, dietary_restrictions, created_at"

// uniqueViolation is the Postgres error code for a unique constraint violation.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func scanRSVP(row interface{ Scan(...any) error }) (*domain.RSVP, error) {
	rsvp := &domain.RSVP{}
	var dietaryNull sql.NullString
	err := row.Scan(&rsvp.ID, &rsvp.EventID, &rsvp.Name, &rsvp.Email, &rsvp.Status, &rsvp.Guests, &dietaryNull, &rsvp.CreatedAt)
	if err != nil {
		return nil, err
	}
	if dietaryNull.Valid {
		rsvp.DietaryRestrictions = &dietaryNull.String
	}
	return rsvp, nil
}

// Create admits an RSVP inside a single transaction. For attending responses
// the event row is locked with SELECT ... FOR UPDATE before the attending
// count is re-read, so two submitters racing for the last seat are serialized
// and the loser gets domain.ErrEventFull. The unique index on
// (event_id, email) backs the duplicate check; a violation surfaces as
// domain.ErrDuplicateRSVP. On any failure the transaction is rolled back and
// no rows remain.
func (r *rsvpRepository) Create(ctx context.Context, rsvp *domain.RSVP) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Lock the event row. Holding the lock until commit serializes concurrent
	// admissions for the same event; different events are unaffected.
	var capacity int
	err = tx.QueryRowContext(ctx, `
		SELECT capacity
		FROM events
		WHERE id = $1
		FOR UPDATE
	`, rsvp.EventID).Scan(&capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrNotFound
			return err
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	// Only attending responses consume capacity; maybe and declined are
	// always admitted.
	if rsvp.Status == domain.StatusAttending {
		var attending int
		err = tx.QueryRowContext(ctx, `
			SELECT COUNT(*)
			FROM rsvps
			WHERE event_id = $1 AND status = 'attending'
		`, rsvp.EventID).Scan(&attending)
		if err != nil {
			return fmt.Errorf("count attending: %w", err)
		}
		if attending >= capacity {
			err = domain.ErrEventFull
			return err
		}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO rsvps (event_id, name, email, status, guests, dietary_restrictions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, rsvp.EventID, rsvp.Name, rsvp.Email, rsvp.Status, rsvp.Guests, rsvp.DietaryRestrictions, rsvp.CreatedAt).Scan(&rsvp.ID)
	if err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrDuplicateRSVP
			return err
		}
		return fmt.Errorf("insert rsvp: %w", err)
	}

	return tx.Commit()
}

func (r *rsvpRepository) GetByID(ctx context.Context, id string) (*domain.RSVP, error) {
	query := `
		SELECT ` + rsvpColumns + `
		FROM rsvps
		WHERE id = $1
	`
	rsvp, err := scanRSVP(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rsvp, nil
}

func (r *rsvpRepository) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.RSVP, error) {
	query := `
		SELECT ` + rsvpColumns + `
		FROM rsvps
		WHERE event_id = $1 AND email = $2
	`
	rsvp, err := scanRSVP(r.DB.QueryRowContext(ctx, query, eventID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rsvp, nil
}

func (r *rsvpRepository) ListByEventID(ctx context.Context, eventID string, filter domain.RSVPListFilter) ([]*domain.RSVP, error) {
	where := []string{"event_id = $1"}
	args := []interface{}{eventID}
	n := 2
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", n))
		args = append(args, filter.Status)
		n++
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", n, n))
		args = append(args, "%"+s+"%")
		n++
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM rsvps
		WHERE %s
		ORDER BY created_at DESC
	`, rsvpColumns, strings.Join(where, " AND "))
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rsvps := make([]*domain.RSVP, 0)
	for rows.Next() {
		rsvp, err := scanRSVP(rows)
		if err != nil {
			return nil, err
		}
		rsvps = append(rsvps, rsvp)
	}
	return rsvps, rows.Err()
}

func (r *rsvpRepository) UpdateStatus(ctx context.Context, id string, status domain.RSVPStatus) (*domain.RSVP, error) {
	query := `
		UPDATE rsvps SET status = $1
		WHERE id = $2
		RETURNING ` + rsvpColumns + `
	`
	rsvp, err := scanRSVP(r.DB.QueryRowContext(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rsvp, nil
}

func (r *rsvpRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM rsvps WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
