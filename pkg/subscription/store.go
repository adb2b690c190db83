package subscription

import (
	"context"
	"time"

	"github.com/recruitkit/billing/pkg/holder"
)

// Store defines subscription persistence. Implementations must enforce the
// one-active-subscription-per-holder invariant (partial unique index in SQL).
type Store interface {
	// Create inserts a new subscription.
	// Returns ErrAlreadyExists if the holder already has an active one.
	Create(ctx context.Context, sub *Subscription) error

	// GetActiveByHolder returns the holder's active subscription.
	// Returns ErrNotFound if the holder has none.
	GetActiveByHolder(ctx context.Context, ref holder.Ref) (*Subscription, error)

	// Update persists a modified subscription using the Version column as an
	// optimistic lock: the row is written only if the stored version matches
	// sub.Version, and the version is incremented on success.
	// Returns ErrVersionConflict if another writer got there first.
	Update(ctx context.Context, sub *Subscription) error

	// ListExpired returns active subscriptions whose period has fully
	// elapsed (currentPeriodEnd <= now). Reconciler idempotence rests on
	// this predicate: an advanced subscription no longer matches.
	ListExpired(ctx context.Context, now time.Time) ([]*Subscription, error)
}
