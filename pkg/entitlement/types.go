package entitlement

import (
	"github.com/recruitkit/billing/pkg/plan"
)

// EffectiveEntitlement is the resolved answer to "what can this holder do
// right now" for one feature: the plan grant merged with current usage.
type EffectiveEntitlement struct {
	Feature plan.FeatureKey `json:"feature"`
	Kind    plan.GrantKind  `json:"kind"`
	Enabled bool            `json:"enabled"`

	// Quota fields. Cap and Remaining use plan.Unlimited (-1) as the
	// no-cap sentinel; Used is always a real count.
	Used      int64  `json:"used"`
	Cap       int64  `json:"cap"`
	Remaining int64  `json:"remaining"`
	Unit      string `json:"unit,omitempty"`

	// NearLimit is set once a capped quota reaches the warning threshold.
	NearLimit bool `json:"near_limit"`
}

// IsUnlimited reports whether the entitlement has no cap.
func (e EffectiveEntitlement) IsUnlimited() bool {
	return e.Kind == plan.KindQuota && e.Cap == plan.Unlimited
}

// ConsumeResult is the outcome of a TryConsume call. Denied consumption is a
// normal outcome, not an error: Allowed is false and Remaining reports what
// is left.
type ConsumeResult struct {
	Allowed   bool
	Remaining int64 // plan.Unlimited when the quota has no cap
}

// nearLimitThreshold marks a quota as near its cap at 80% consumption.
const nearLimitThreshold = 0.8

func nearLimit(used, cap int64) bool {
	if cap <= 0 {
		return false
	}
	return float64(used) >= float64(cap)*nearLimitThreshold
}
