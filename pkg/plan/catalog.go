package plan

import (
	"context"
	"errors"
	"fmt"
)

// Catalog is the read-only plan lookup the entitlement engine depends on.
type Catalog interface {
	// ByID returns the plan with the given ID.
	// Returns ErrPlanNotFound if no such plan exists.
	ByID(ctx context.Context, id string) (Plan, error)

	// DefaultPlanID returns the well-known implicit free plan applied to
	// holders without a subscription row.
	DefaultPlanID() string

	// All returns every plan in the catalog, keyed by ID.
	All(ctx context.Context) (map[string]Plan, error)
}

// validatePlans checks catalog-wide invariants: closed product set, known
// tiers and intervals, and unique feature keys per plan.
func validatePlans(plans map[string]Plan) error {
	for id, p := range plans {
		if p.ID != id {
			return errors.Join(ErrInvalidPlan,
				fmt.Errorf("plan ID mismatch: map key %s != plan.ID %s", id, p.ID))
		}
		if !p.Product.Valid() {
			return errors.Join(ErrInvalidPlan,
				fmt.Errorf("plan %s has unknown product %q", id, p.Product))
		}
		if p.Tier.Rank() < 0 {
			return errors.Join(ErrInvalidPlan,
				fmt.Errorf("plan %s has unknown tier %q", id, p.Tier))
		}
		if !p.Interval.Valid() {
			return errors.Join(ErrInvalidPlan,
				fmt.Errorf("plan %s has unknown interval %q", id, p.Interval))
		}

		seen := make(map[FeatureKey]struct{}, len(p.Grants))
		for _, g := range p.Grants {
			if g.Feature == "" {
				return errors.Join(ErrInvalidPlan,
					fmt.Errorf("plan %s has a grant without a feature key", id))
			}
			if _, dup := seen[g.Feature]; dup {
				return errors.Join(ErrInvalidPlan,
					fmt.Errorf("plan %s grants feature %q twice", id, g.Feature))
			}
			seen[g.Feature] = struct{}{}

			switch g.Kind {
			case KindToggle, KindMetered:
				if g.Cap != 0 {
					return errors.Join(ErrInvalidPlan,
						fmt.Errorf("plan %s: %s grant %q must not carry a cap", id, g.Kind, g.Feature))
				}
			case KindQuota:
				if g.Cap < Unlimited {
					return errors.Join(ErrInvalidPlan,
						fmt.Errorf("plan %s: quota grant %q has invalid cap %d", id, g.Feature, g.Cap))
				}
			default:
				return errors.Join(ErrInvalidPlan,
					fmt.Errorf("plan %s: grant %q has unknown kind %q", id, g.Feature, g.Kind))
			}
		}
	}
	return nil
}
