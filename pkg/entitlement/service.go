package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/recruitkit/billing/pkg/holder"
	"github.com/recruitkit/billing/pkg/plan"
	"github.com/recruitkit/billing/pkg/subscription"
	"github.com/recruitkit/billing/pkg/usage"
)

// Service is the entitlement engine's request-path surface: resolve what a
// holder can do, and admit or deny quota consumption.
type Service interface {
	// Resolve computes effective entitlements for the holder: exactly one
	// entry per feature key on the resolved plan, in grant order. Holders
	// without a subscription resolve against the catalog's default plan
	// with zero usage.
	Resolve(ctx context.Context, ref holder.Ref) ([]EffectiveEntitlement, error)

	// TryConsume is the admission-control point for quota-gated actions.
	// It atomically checks and increments the holder's usage counter; a
	// denied result means the caller must not perform the gated action.
	TryConsume(ctx context.Context, ref holder.Ref, feature plan.FeatureKey, amount int64) (ConsumeResult, error)
}

// NearLimitNotifier is told when a consume pushes a capped quota across the
// warning threshold. Implementations must not block: they are invoked
// synchronously on the consume path.
type NearLimitNotifier interface {
	NotifyNearLimit(ctx context.Context, ref holder.Ref, ent EffectiveEntitlement)
}

type service struct {
	subs     subscription.Store
	catalog  plan.Catalog
	ledger   usage.Ledger
	cache    Cache
	cacheTTL time.Duration
	notifier NearLimitNotifier
	now      func() time.Time
}

// Option configures the entitlement service.
type Option func(*service)

// WithCache enables the resolver read cache. The cache is only consulted on
// Resolve; TryConsume always goes to the ledger so stale data can never
// admit an over-cap increment.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(s *service) {
		if c != nil && ttl > 0 {
			s.cache = c
			s.cacheTTL = ttl
		}
	}
}

// WithNearLimitNotifier wires near-limit alerts into the consume path.
func WithNearLimitNotifier(n NearLimitNotifier) Option {
	return func(s *service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates the entitlement Service. Panics on nil dependencies to
// fail fast during initialization.
func NewService(subs subscription.Store, catalog plan.Catalog, ledger usage.Ledger, opts ...Option) Service {
	if subs == nil {
		panic("entitlement: subscription.Store is required")
	}
	if catalog == nil {
		panic("entitlement: plan.Catalog is required")
	}
	if ledger == nil {
		panic("entitlement: usage.Ledger is required")
	}

	s := &service{
		subs:    subs,
		catalog: catalog,
		ledger:  ledger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Resolve(ctx context.Context, ref holder.Ref) ([]EffectiveEntitlement, error) {
	if err := ref.Validate(); err != nil {
		return nil, errors.Join(ErrHolderNotFound, err)
	}

	if s.cache != nil {
		if ents, ok := s.cache.Get(ctx, ref.String()); ok {
			return ents, nil
		}
	}

	p, period, err := s.resolvePlan(ctx, ref)
	if err != nil {
		return nil, err
	}

	ents := make([]EffectiveEntitlement, 0, len(p.Grants))
	for _, g := range p.Grants {
		ent, err := s.effective(ctx, ref, g, period)
		if err != nil {
			return nil, err
		}
		ents = append(ents, ent)
	}

	if s.cache != nil {
		s.cache.Set(ctx, ref.String(), ents, s.cacheTTL)
	}
	return ents, nil
}

func (s *service) TryConsume(ctx context.Context, ref holder.Ref, feature plan.FeatureKey, amount int64) (ConsumeResult, error) {
	if err := ref.Validate(); err != nil {
		return ConsumeResult{}, errors.Join(ErrHolderNotFound, err)
	}
	if amount <= 0 {
		return ConsumeResult{}, usage.ErrInvalidAmount
	}

	p, period, err := s.resolvePlan(ctx, ref)
	if err != nil {
		return ConsumeResult{}, err
	}

	grant, ok := p.Grant(feature)
	if !ok {
		return ConsumeResult{}, ErrFeatureNotGranted
	}
	if grant.Kind != plan.KindQuota {
		return ConsumeResult{}, ErrInvalidFeatureKind
	}

	newCount, allowed, err := s.ledger.IncrementIfUnderCap(ctx, ref, feature, period, amount, grant.Cap)
	if err != nil {
		return ConsumeResult{}, err
	}

	if s.cache != nil {
		s.cache.Delete(ctx, ref.String())
	}

	result := ConsumeResult{Allowed: allowed, Remaining: remaining(newCount, grant.Cap)}

	if allowed && s.notifier != nil && !grant.IsUnlimited() {
		crossedNow := nearLimit(newCount, grant.Cap) && !nearLimit(newCount-amount, grant.Cap)
		if crossedNow {
			s.notifier.NotifyNearLimit(ctx, ref, EffectiveEntitlement{
				Feature:   feature,
				Kind:      plan.KindQuota,
				Enabled:   result.Remaining > 0,
				Used:      newCount,
				Cap:       grant.Cap,
				Remaining: result.Remaining,
				Unit:      grant.Unit,
				NearLimit: true,
			})
		}
	}

	return result, nil
}

// resolvePlan returns the holder's plan and current billing period. Holders
// without a subscription fall back to the catalog's default plan measured
// against the current calendar month.
func (s *service) resolvePlan(ctx context.Context, ref holder.Ref) (plan.Plan, usage.Period, error) {
	sub, err := s.subs.GetActiveByHolder(ctx, ref)
	switch {
	case err == nil:
		p, err := s.catalog.ByID(ctx, sub.PlanID)
		if err != nil {
			return plan.Plan{}, usage.Period{}, err
		}
		return p, usage.Period{Start: sub.CurrentPeriodStart, End: sub.CurrentPeriodEnd}, nil

	case errors.Is(err, subscription.ErrNotFound):
		p, err := s.catalog.ByID(ctx, s.catalog.DefaultPlanID())
		if err != nil {
			return plan.Plan{}, usage.Period{}, err
		}
		return p, calendarMonth(s.now()), nil

	default:
		return plan.Plan{}, usage.Period{}, err
	}
}

func (s *service) effective(ctx context.Context, ref holder.Ref, g plan.Grant, period usage.Period) (EffectiveEntitlement, error) {
	switch g.Kind {
	case plan.KindToggle:
		return EffectiveEntitlement{
			Feature: g.Feature,
			Kind:    plan.KindToggle,
			Enabled: g.Enabled,
		}, nil

	case plan.KindMetered:
		// Metered use is billed downstream; always available.
		return EffectiveEntitlement{
			Feature:   g.Feature,
			Kind:      plan.KindMetered,
			Enabled:   true,
			Cap:       plan.Unlimited,
			Remaining: plan.Unlimited,
			Unit:      g.Unit,
		}, nil

	default: // plan.KindQuota
		used, err := s.ledger.Count(ctx, ref, g.Feature, period.Start)
		if err != nil {
			return EffectiveEntitlement{}, err
		}

		rem := remaining(used, g.Cap)
		return EffectiveEntitlement{
			Feature:   g.Feature,
			Kind:      plan.KindQuota,
			Enabled:   rem != 0,
			Used:      used,
			Cap:       g.Cap,
			Remaining: rem,
			Unit:      g.Unit,
			NearLimit: g.Cap != plan.Unlimited && nearLimit(used, g.Cap),
		}, nil
	}
}

// remaining clamps at zero; unlimited caps pass the sentinel through.
func remaining(used, cap int64) int64 {
	if cap == plan.Unlimited {
		return plan.Unlimited
	}
	return max(cap-used, 0)
}

// calendarMonth is the implicit period for holders on the default plan:
// the current UTC calendar month, half-open.
func calendarMonth(now time.Time) usage.Period {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return usage.Period{Start: start, End: start.AddDate(0, 1, 0)}
}
