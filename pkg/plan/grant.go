package plan

// FeatureKey names an entitlement a plan can grant.
type FeatureKey string

// Feature keys used across the recruiting product surfaces.
const (
	FeatureJobPostings     FeatureKey = "job_postings"
	FeatureCVExports       FeatureKey = "cv_exports"
	FeatureCVParsing       FeatureKey = "cv_parsing"
	FeatureCoachingChats   FeatureKey = "coaching_chats"
	FeatureCandidateSearch FeatureKey = "candidate_search"
	FeatureCalendarSync    FeatureKey = "calendar_sync"
	FeaturePipelineBoards  FeatureKey = "pipeline_boards"
)

// GrantKind distinguishes how an entitlement is measured.
type GrantKind string

const (
	// KindToggle is a plain on/off capability.
	KindToggle GrantKind = "toggle"
	// KindQuota is a capped count per billing period.
	KindQuota GrantKind = "quota"
	// KindMetered is unlimited use billed per unit downstream.
	KindMetered GrantKind = "metered"
)

// Unlimited marks a quota with no cap (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// Grant attaches one entitlement to a plan. Which fields are meaningful
// depends on Kind: toggles use Enabled, quotas use Cap and Unit, metered
// grants carry neither.
type Grant struct {
	Feature FeatureKey `yaml:"feature"`
	Kind    GrantKind  `yaml:"kind"`
	Enabled bool       `yaml:"enabled,omitempty"`
	Cap     int64      `yaml:"cap,omitempty"`
	Unit    string     `yaml:"unit,omitempty"`
}

// IsUnlimited reports whether a quota grant has no cap.
func (g Grant) IsUnlimited() bool {
	return g.Kind == KindQuota && g.Cap == Unlimited
}
