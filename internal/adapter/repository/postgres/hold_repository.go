package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/velora/checkout_hold/internal/core/domain"
)

type HoldRepository struct {
	db *sql.DB
}

func NewHoldRepository(db *sql.DB) *HoldRepository {
	return &HoldRepository{db: db}
}

// CreateSession moves tickets from available to held and records the
// session in one transaction, so a hold can never exceed the inventory.
func (r *HoldRepository) CreateSession(ctx context.Context, session *domain.HoldSession) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	holdQuery := `
	UPDATE event_inventory
	SET available_count = available_count - $1,
		held_count = held_count + $1
	WHERE event_id = $2 AND available_count >= $1
	`

	result, err := tx.ExecContext(ctx, holdQuery, session.TicketQuantity, session.EventID)
	if err != nil {
		return fmt.Errorf("failed to hold inventory: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrInsufficientStock
	}

	insertQuery := `
	INSERT INTO checkout_sessions (id, user_id, event_id, ticket_quantity, duration_seconds, status, redirect_url, created_at, expires_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = tx.ExecContext(ctx, insertQuery,
		session.ID,
		session.UserID,
		session.EventID,
		session.TicketQuantity,
		session.DurationSeconds,
		session.Status,
		session.RedirectURL,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert checkout session: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *HoldRepository) GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.HoldSession, error) {
	query := `
	SELECT id, user_id, event_id, ticket_quantity, duration_seconds, status, redirect_url, created_at, expires_at
	FROM checkout_sessions
	WHERE id = $1
	`

	var session domain.HoldSession
	var redirectURL sql.NullString

	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.EventID,
		&session.TicketQuantity,
		&session.DurationSeconds,
		&session.Status,
		&redirectURL,
		&session.CreatedAt,
		&session.ExpiresAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrSessionNotFound
		}

		return nil, err
	}

	if redirectURL.Valid {
		session.RedirectURL = redirectURL.String
	}

	return &session, nil
}

func (r *HoldRepository) UpdateStatus(ctx context.Context, sessionID uuid.UUID, status domain.SessionStatus) error {
	query := `
	UPDATE checkout_sessions
	SET status = $1, confirmed_at = $2
	WHERE id = $3
	`

	// A confirmed sale is final. The expiry relabel only lands on
	// sessions that were still live or whose inventory was just
	// returned, never on a row another path already confirmed.
	if status == domain.SessionExpired {
		query = `
	UPDATE checkout_sessions
	SET status = $1, confirmed_at = $2
	WHERE id = $3 AND status IN ('ACTIVE', 'PAUSED', 'RELEASED')
	`
	}

	var confirmedAt *time.Time
	if status == domain.SessionConfirmed {
		now := time.Now()
		confirmedAt = &now
	}

	_, err := r.db.ExecContext(ctx, query, status, confirmedAt, sessionID)
	if err != nil {
		return err
	}

	return nil
}

// ReleaseSession returns the held tickets to sale. Guarding on live
// status makes a second release of the same session a no-op, which the
// expiry sweep and the timer callback both rely on.
func (r *HoldRepository) ReleaseSession(ctx context.Context, sessionID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	var eventID uuid.UUID
	var quantity int

	err = tx.QueryRowContext(ctx, `
	UPDATE checkout_sessions
	SET status = 'RELEASED'
	WHERE id = $1 AND status IN ('ACTIVE', 'PAUSED')
	RETURNING event_id, ticket_quantity
	`, sessionID).Scan(&eventID, &quantity)

	if err != nil {
		if err == sql.ErrNoRows {
			// Already released, confirmed or expired.
			return nil
		}
		return err
	}

	_, err = tx.ExecContext(ctx, `
	UPDATE event_inventory
	SET available_count = available_count + $1,
		held_count = held_count - $1
	WHERE event_id = $2
	`, quantity, eventID)

	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *HoldRepository) GetExpiredSessions(ctx context.Context) ([]uuid.UUID, error) {
	query := `
	SELECT id FROM checkout_sessions
	WHERE status IN ('ACTIVE', 'PAUSED') AND expires_at < NOW()
	LIMIT 100
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, nil
}
