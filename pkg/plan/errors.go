package plan

import "errors"

var (
	ErrPlanNotFound      = errors.New("plan: plan not found")
	ErrInvalidPlan       = errors.New("plan: invalid plan configuration")
	ErrNoDefaultPlan     = errors.New("plan: default plan not present in catalog")
	ErrFailedToLoadPlans = errors.New("plan: failed to load plan catalog")
)
