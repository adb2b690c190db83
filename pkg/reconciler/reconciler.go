package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/recruitkit/billing/pkg/holder"
	"github.com/recruitkit/billing/pkg/plan"
	"github.com/recruitkit/billing/pkg/subscription"
	"github.com/recruitkit/billing/pkg/usage"
)

// Report summarizes one reconciliation run.
type Report struct {
	Advanced int `json:"advanced"`
	Canceled int `json:"canceled"`
	Purged   int `json:"purged"`
	Failed   int `json:"failed"`
}

// InvalidateFunc drops any cached entitlements for a holder after the
// reconciler rewrites its period.
type InvalidateFunc func(ctx context.Context, ref holder.Ref)

// Reconciler advances or closes subscriptions whose billing period has
// elapsed. It is the only writer that runs on a schedule; everything else in
// the engine is per-request.
//
// Runs are idempotent by construction: the expiry predicate
// (currentPeriodEnd <= now) stops matching once a period is advanced, so
// re-running after a crash cannot double-advance anything.
type Reconciler struct {
	subs       subscription.Store
	catalog    plan.Catalog
	ledger     usage.Ledger
	invalidate InvalidateFunc
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures the Reconciler.
type Option func(*Reconciler)

// WithLogger sets the reconciler's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// WithInvalidate registers a cache-invalidation hook.
func WithInvalidate(fn InvalidateFunc) Option {
	return func(r *Reconciler) {
		if fn != nil {
			r.invalidate = fn
		}
	}
}

// New creates a Reconciler. Panics on nil dependencies to fail fast during
// initialization.
func New(subs subscription.Store, catalog plan.Catalog, ledger usage.Ledger, opts ...Option) *Reconciler {
	if subs == nil {
		panic("reconciler: subscription.Store is required")
	}
	if catalog == nil {
		panic("reconciler: plan.Catalog is required")
	}
	if ledger == nil {
		panic("reconciler: usage.Ledger is required")
	}

	r := &Reconciler{
		subs:    subs,
		catalog: catalog,
		ledger:  ledger,
		logger:  slog.Default(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes every expired subscription once. Per-subscription failures
// are logged and skipped; they never abort the batch, and the expiry
// predicate re-selects them on the next run. Only a storage outage on the
// initial selection fails the whole run.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	now := r.now()

	expired, err := r.subs.ListExpired(ctx, now)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, sub := range expired {
		if err := r.process(ctx, sub, now, &report); err != nil {
			report.Failed++
			r.logger.Error("failed to reconcile subscription",
				slog.String("subscription_id", sub.ID.String()),
				slog.String("holder", sub.Holder.String()),
				slog.String("error", err.Error()))
		}
	}

	r.logger.Info("reconciliation run completed",
		slog.Int("advanced", report.Advanced),
		slog.Int("canceled", report.Canceled),
		slog.Int("purged", report.Purged),
		slog.Int("failed", report.Failed))
	return report, nil
}

func (r *Reconciler) process(ctx context.Context, sub *subscription.Subscription, now time.Time, report *Report) error {
	// Cancellation takes precedence over advancement: a flagged
	// subscription is closed, its period untouched.
	if sub.CancelAtPeriodEnd {
		closedPeriodEnd := sub.CurrentPeriodEnd
		sub.Cancel(now)
		if err := r.subs.Update(ctx, sub); err != nil {
			return err
		}
		report.Canceled++
		r.logger.Info("subscription canceled at period end",
			slog.String("subscription_id", sub.ID.String()),
			slog.String("holder", sub.Holder.String()))
		r.purge(ctx, sub.Holder, closedPeriodEnd, report)
	} else {
		p, err := r.catalog.ByID(ctx, sub.PlanID)
		if err != nil {
			return err
		}

		closedPeriodEnd := sub.CurrentPeriodEnd
		sub.AdvancePeriod(p.Interval, now)

		// A version conflict means a concurrent plan change won the race;
		// that write opened a fresh period, so there is nothing to advance.
		if err := r.subs.Update(ctx, sub); err != nil {
			if errors.Is(err, subscription.ErrVersionConflict) {
				r.logger.Warn("skipped advance after concurrent update",
					slog.String("subscription_id", sub.ID.String()))
				return nil
			}
			return err
		}
		report.Advanced++
		r.purge(ctx, sub.Holder, closedPeriodEnd, report)
	}

	if r.invalidate != nil {
		r.invalidate(ctx, sub.Holder)
	}
	return nil
}

// purge drops usage rows for periods that ended at or before cutoff.
// Cleanup, not correctness: the resolver only reads the current period, so a
// failed purge just leaves dead rows for the next run.
func (r *Reconciler) purge(ctx context.Context, ref holder.Ref, cutoff time.Time, report *Report) {
	if err := r.ledger.DeleteExpired(ctx, ref, cutoff); err != nil {
		r.logger.Warn("failed to purge closed-period usage",
			slog.String("holder", ref.String()),
			slog.String("error", err.Error()))
		return
	}
	report.Purged++
}
