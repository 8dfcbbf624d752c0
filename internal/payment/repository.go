package payment

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Repository persists payment attempts. State changes go through guarded
// transitions so two concurrent callbacks cannot both claim an attempt.
type Repository interface {
	CreateAttempt(ctx context.Context, a *Attempt) error
	GetByReference(ctx context.Context, reference string) (*Attempt, error)
	GetActiveByOrder(ctx context.Context, orderID uint) (*Attempt, error)
	TransitionState(ctx context.Context, reference string, from, to AttemptState, reason *string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateAttempt(ctx context.Context, a *Attempt) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.State == "" {
		a.State = AttemptInitiated
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, reference, amount_minor, channel, state)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.OrderID, a.Reference, a.AmountMinor, a.Channel, a.State)
	return err
}

func (r *repository) GetByReference(ctx context.Context, reference string) (*Attempt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, reference, amount_minor, channel, state, fail_reason, created_at, updated_at
		FROM payments
		WHERE reference = $1
	`, reference)

	return scanAttempt(row)
}

// GetActiveByOrder returns the order's non-terminal attempt, or nil when
// every attempt has settled.
func (r *repository) GetActiveByOrder(ctx context.Context, orderID uint) (*Attempt, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, reference, amount_minor, channel, state, fail_reason, created_at, updated_at
		FROM payments
		WHERE order_id = $1 AND state IN ('INITIATED', 'VERIFYING')
		ORDER BY created_at DESC
		LIMIT 1
	`, orderID)

	a, err := scanAttempt(row)
	if errors.Is(err, ErrAttemptNotFound) {
		return nil, nil
	}
	return a, err
}

func (r *repository) TransitionState(ctx context.Context, reference string, from, to AttemptState, reason *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET state = $1, fail_reason = $2, updated_at = now()
		WHERE reference = $3 AND state = $4
	`, to, reason, reference, from)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(row rowScanner) (*Attempt, error) {
	var a Attempt
	err := row.Scan(
		&a.ID, &a.OrderID, &a.Reference, &a.AmountMinor,
		&a.Channel, &a.State, &a.FailReason, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
