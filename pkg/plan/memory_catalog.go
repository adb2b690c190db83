package plan

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// memoryCatalog serves plans from an immutable in-memory map.
type memoryCatalog struct {
	plans         map[string]Plan
	defaultPlanID string
}

// NewMemoryCatalog builds a Catalog from a deep copy of the given plans.
// The default plan must be present in the map.
func NewMemoryCatalog(plans map[string]Plan, defaultPlanID string) (Catalog, error) {
	if err := validatePlans(plans); err != nil {
		return nil, err
	}
	if _, ok := plans[defaultPlanID]; !ok {
		return nil, errors.Join(ErrNoDefaultPlan,
			fmt.Errorf("default plan %q missing", defaultPlanID))
	}

	return &memoryCatalog{
		plans:         clonePlans(plans),
		defaultPlanID: defaultPlanID,
	}, nil
}

func (c *memoryCatalog) ByID(_ context.Context, id string) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrPlanNotFound, id)
	}
	return clonePlan(p), nil
}

func (c *memoryCatalog) DefaultPlanID() string {
	return c.defaultPlanID
}

func (c *memoryCatalog) All(_ context.Context) (map[string]Plan, error) {
	return clonePlans(c.plans), nil
}

// Copies keep callers from mutating shared grant slices.
func clonePlan(p Plan) Plan {
	p.Grants = slices.Clone(p.Grants)
	return p
}

func clonePlans(plans map[string]Plan) map[string]Plan {
	out := make(map[string]Plan, len(plans))
	for id, p := range plans {
		out[id] = clonePlan(p)
	}
	return out
}
