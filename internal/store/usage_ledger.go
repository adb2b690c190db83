package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/recruitkit/billing/pkg/holder"
	"github.com/recruitkit/billing/pkg/pg"
	"github.com/recruitkit/billing/pkg/plan"
	"github.com/recruitkit/billing/pkg/usage"
)

// UsageLedger implements usage.Ledger on PostgreSQL.
//
// The bounded increment is one conditional upsert: the row lock taken by
// INSERT ... ON CONFLICT serializes concurrent consumers on the same counter,
// and the DO UPDATE predicate rejects any increment that would cross the cap.
// Two requests racing for the last unit cannot both be admitted.
type UsageLedger struct {
	pool *pgxpool.Pool
}

// NewUsageLedger creates a PostgreSQL usage ledger.
// Panics on a nil pool to fail fast during initialization.
func NewUsageLedger(pool *pgxpool.Pool) *UsageLedger {
	if pool == nil {
		panic("store: pgxpool.Pool is required")
	}
	return &UsageLedger{pool: pool}
}

func (l *UsageLedger) Count(ctx context.Context, ref holder.Ref, feature plan.FeatureKey, periodStart time.Time) (int64, error) {
	const q = `
		SELECT count FROM usage_records
		WHERE holder_kind = $1 AND holder_id = $2 AND feature = $3 AND period_start = $4`

	var count int64
	err := l.pool.QueryRow(ctx, q, string(ref.Kind), ref.ID, string(feature), periodStart).Scan(&count)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func (l *UsageLedger) IncrementIfUnderCap(ctx context.Context, ref holder.Ref, feature plan.FeatureKey, period usage.Period, amount, cap int64) (int64, bool, error) {
	if amount <= 0 {
		return 0, false, usage.ErrInvalidAmount
	}

	// A fresh counter would open at amount; if that already exceeds the cap
	// there is nothing to serialize, the request is simply denied.
	if cap != plan.Unlimited && amount > cap {
		count, err := l.Count(ctx, ref, feature, period.Start)
		if err != nil {
			return 0, false, err
		}
		return count, false, nil
	}

	const q = `
		INSERT INTO usage_records (holder_kind, holder_id, feature, period_start, period_end, count)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (holder_kind, holder_id, feature, period_start)
		DO UPDATE SET count = usage_records.count + $6, updated_at = now()
		WHERE $7 = -1 OR usage_records.count + $6 <= $7
		RETURNING count`

	var newCount int64
	err := l.pool.QueryRow(ctx, q,
		string(ref.Kind), ref.ID, string(feature),
		period.Start, period.End, amount, cap).Scan(&newCount)
	if err == nil {
		return newCount, true, nil
	}
	if !pg.IsNotFoundError(err) {
		return 0, false, err
	}

	// The conditional update declined: report the untouched count.
	count, err := l.Count(ctx, ref, feature, period.Start)
	if err != nil {
		return 0, false, err
	}
	return count, false, nil
}

func (l *UsageLedger) DeleteExpired(ctx context.Context, ref holder.Ref, cutoff time.Time) error {
	const q = `
		DELETE FROM usage_records
		WHERE holder_kind = $1 AND holder_id = $2 AND period_end <= $3`

	_, err := l.pool.Exec(ctx, q, string(ref.Kind), ref.ID, cutoff)
	return err
}

var _ usage.Ledger = (*UsageLedger)(nil)
