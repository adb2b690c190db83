package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/recruitkit/billing/pkg/holder"
	"github.com/recruitkit/billing/pkg/plan"
	"github.com/recruitkit/billing/pkg/usage"
)

// Service manages the user-initiated side of the subscription lifecycle:
// signup, plan changes, and scheduled cancellation. Period advancement is the
// reconciler's job, never this service's.
type Service interface {
	// Subscribe opens a subscription on the given plan with a fresh billing
	// period starting now. Returns ErrAlreadyExists if the holder already
	// has an active subscription.
	Subscribe(ctx context.Context, ref holder.Ref, planID string) (*Subscription, error)

	// Get returns the holder's active subscription or ErrNotFound.
	Get(ctx context.Context, ref holder.Ref) (*Subscription, error)

	// ChangePlan swaps the subscription to a new plan and opens an immediate
	// new billing period. Downgrades are refused while current-period usage
	// exceeds any of the target plan's quota caps.
	ChangePlan(ctx context.Context, ref holder.Ref, targetPlanID string) (*Subscription, error)

	// CancelAtPeriodEnd flags the subscription so the reconciler finalizes
	// the cancellation once the current period elapses.
	CancelAtPeriodEnd(ctx context.Context, ref holder.Ref) (*Subscription, error)
}

type service struct {
	store   Store
	catalog plan.Catalog
	ledger  usage.Ledger
	now     func() time.Time
}

// ServiceOption configures the subscription service.
type ServiceOption func(*service)

// WithClock injects a time source, used by tests for fixed period math.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a subscription Service. Panics on nil dependencies to
// fail fast during initialization.
func NewService(store Store, catalog plan.Catalog, ledger usage.Ledger, opts ...ServiceOption) Service {
	if store == nil {
		panic("subscription: Store is required")
	}
	if catalog == nil {
		panic("subscription: plan.Catalog is required")
	}
	if ledger == nil {
		panic("subscription: usage.Ledger is required")
	}

	s := &service{
		store:   store,
		catalog: catalog,
		ledger:  ledger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Subscribe(ctx context.Context, ref holder.Ref, planID string) (*Subscription, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	p, err := s.catalog.ByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub := &Subscription{
		ID:                 uuid.New(),
		Holder:             ref,
		PlanID:             p.ID,
		Status:             StatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   NextPeriodEnd(now, p.Interval),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.store.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *service) Get(ctx context.Context, ref holder.Ref) (*Subscription, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return s.store.GetActiveByHolder(ctx, ref)
}

func (s *service) ChangePlan(ctx context.Context, ref holder.Ref, targetPlanID string) (*Subscription, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	target, err := s.catalog.ByID(ctx, targetPlanID)
	if err != nil {
		return nil, err
	}

	sub, err := s.store.GetActiveByHolder(ctx, ref)
	if err != nil {
		return nil, err
	}

	current, err := s.catalog.ByID(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	if target.Tier.Rank() < current.Tier.Rank() {
		if err := s.checkDowngrade(ctx, sub, target); err != nil {
			return nil, err
		}
	}

	now := s.now()
	sub.PlanID = target.ID
	sub.CancelAtPeriodEnd = false
	sub.CurrentPeriodStart = now
	sub.CurrentPeriodEnd = NextPeriodEnd(now, target.Interval)
	sub.UpdatedAt = now

	// Version conflict means the reconciler advanced this row mid-flight;
	// surface it so the caller retries against fresh state.
	if err := s.store.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *service) CancelAtPeriodEnd(ctx context.Context, ref holder.Ref) (*Subscription, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.store.GetActiveByHolder(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive() {
		return nil, ErrNotActive
	}

	sub.CancelAtPeriodEnd = true
	sub.UpdatedAt = s.now()

	if err := s.store.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// checkDowngrade refuses the swap while current-period usage would already
// exceed any quota cap on the target plan.
func (s *service) checkDowngrade(ctx context.Context, sub *Subscription, target plan.Plan) error {
	for _, g := range target.Grants {
		if g.Kind != plan.KindQuota || g.IsUnlimited() {
			continue
		}

		used, err := s.ledger.Count(ctx, sub.Holder, g.Feature, sub.CurrentPeriodStart)
		if err != nil {
			return err
		}
		if used > g.Cap {
			return errors.Join(ErrDowngradeNotPossible,
				fmt.Errorf("feature %q used %d exceeds target cap %d", g.Feature, used, g.Cap))
		}
	}
	return nil
}
