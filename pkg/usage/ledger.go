package usage

import (
	"context"
	"time"

	"github.com/recruitkit/billing/pkg/holder"
	"github.com/recruitkit/billing/pkg/plan"
)

// Record is one usage counter: accumulated consumption of a quota feature by
// a holder within a billing period. Counts only ever move up; enforcement of
// caps happens in the resolver before an increment is admitted.
type Record struct {
	Holder      holder.Ref
	Feature     plan.FeatureKey
	PeriodStart time.Time
	PeriodEnd   time.Time // exclusive
	Count       int64
}

// Ledger is the durable counter primitive the entitlement engine builds on.
// It carries no business logic beyond the atomic bounded increment.
type Ledger interface {
	// Count returns the accumulated count for the holder/feature/period,
	// or 0 if no record exists yet (records are created lazily on first use).
	Count(ctx context.Context, ref holder.Ref, feature plan.FeatureKey, periodStart time.Time) (int64, error)

	// IncrementIfUnderCap atomically adds amount to the counter unless doing
	// so would push it past cap. It reports the resulting count and whether
	// the increment was admitted. A cap of plan.Unlimited never rejects.
	// The check and the write must be a single serialized step per
	// holder/feature/period key; callers rely on this to keep the cap
	// invariant under concurrent requests.
	IncrementIfUnderCap(ctx context.Context, ref holder.Ref, feature plan.FeatureKey, period Period, amount, cap int64) (newCount int64, allowed bool, err error)

	// DeleteExpired removes the holder's records whose period ended at or
	// before cutoff. Cleanup only: the resolver never reads closed periods.
	DeleteExpired(ctx context.Context, ref holder.Ref, cutoff time.Time) error
}

// Period is the half-open billing window a counter is scoped to.
type Period struct {
	Start time.Time
	End   time.Time
}
