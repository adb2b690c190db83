package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recruitkit/billing/pkg/holder"
	"github.com/recruitkit/billing/pkg/pg"
	"github.com/recruitkit/billing/pkg/subscription"
)

// SubscriptionStore implements subscription.Store on PostgreSQL.
// The one-active-subscription-per-holder invariant is enforced by a partial
// unique index, and Update uses the version column as an optimistic lock.
type SubscriptionStore struct {
	pool *pgxpool.Pool
}

// NewSubscriptionStore creates a PostgreSQL subscription store.
// Panics on a nil pool to fail fast during initialization.
func NewSubscriptionStore(pool *pgxpool.Pool) *SubscriptionStore {
	if pool == nil {
		panic("store: pgxpool.Pool is required")
	}
	return &SubscriptionStore{pool: pool}
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	const q = `
		INSERT INTO subscriptions (
			id, holder_kind, holder_id, plan_id, status, cancel_at_period_end,
			current_period_start, current_period_end, version,
			created_at, updated_at, canceled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.pool.Exec(ctx, q,
		sub.ID, string(sub.Holder.Kind), sub.Holder.ID, sub.PlanID,
		string(sub.Status), sub.CancelAtPeriodEnd,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.Version,
		sub.CreatedAt, sub.UpdatedAt, sub.CanceledAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return subscription.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *SubscriptionStore) GetActiveByHolder(ctx context.Context, ref holder.Ref) (*subscription.Subscription, error) {
	const q = `
		SELECT id, holder_kind, holder_id, plan_id, status, cancel_at_period_end,
		       current_period_start, current_period_end, version,
		       created_at, updated_at, canceled_at
		FROM subscriptions
		WHERE holder_kind = $1 AND holder_id = $2 AND status = 'active'`

	sub, err := scanSubscription(s.pool.QueryRow(ctx, q, string(ref.Kind), ref.ID))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, subscription.ErrNotFound
		}
		return nil, err
	}
	return sub, nil
}

// Update writes the subscription only if the stored version still matches
// sub.Version, incrementing it on success. A zero row count means another
// writer got there first (or the row is gone).
func (s *SubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	const q = `
		UPDATE subscriptions
		SET plan_id = $3, status = $4, cancel_at_period_end = $5,
		    current_period_start = $6, current_period_end = $7,
		    version = version + 1, updated_at = $8, canceled_at = $9
		WHERE id = $1 AND version = $2`

	tag, err := s.pool.Exec(ctx, q,
		sub.ID, sub.Version, sub.PlanID, string(sub.Status), sub.CancelAtPeriodEnd,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.UpdatedAt, sub.CanceledAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM subscriptions WHERE id = $1)`, sub.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return subscription.ErrNotFound
		}
		return subscription.ErrVersionConflict
	}

	sub.Version++
	return nil
}

func (s *SubscriptionStore) ListExpired(ctx context.Context, now time.Time) ([]*subscription.Subscription, error) {
	const q = `
		SELECT id, holder_kind, holder_id, plan_id, status, cancel_at_period_end,
		       current_period_start, current_period_end, version,
		       created_at, updated_at, canceled_at
		FROM subscriptions
		WHERE status = 'active' AND current_period_end <= $1
		ORDER BY current_period_end`

	rows, err := s.pool.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var (
		sub        subscription.Subscription
		holderKind string
		status     string
	)
	err := row.Scan(
		&sub.ID, &holderKind, &sub.Holder.ID, &sub.PlanID, &status,
		&sub.CancelAtPeriodEnd, &sub.CurrentPeriodStart, &sub.CurrentPeriodEnd,
		&sub.Version, &sub.CreatedAt, &sub.UpdatedAt, &sub.CanceledAt)
	if err != nil {
		return nil, err
	}
	sub.Holder.Kind = holder.Kind(holderKind)
	sub.Status = subscription.Status(status)
	return &sub, nil
}

var _ subscription.Store = (*SubscriptionStore)(nil)
