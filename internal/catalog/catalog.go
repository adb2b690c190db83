// Package catalog assembles the plan catalog the service runs with: either a
// YAML file referenced by configuration, or the built-in default set covering
// the three product lines.
package catalog

import "github.com/recruitkit/billing/pkg/plan"

// DefaultPlanID is the implicit free plan every holder without a subscription
// resolves against.
const DefaultPlanID = "candidate-free"

// Load returns the catalog from the YAML file at path, or the built-in
// defaults when path is empty.
func Load(path string) (plan.Catalog, error) {
	if path != "" {
		return plan.LoadYAMLCatalog(path)
	}
	return plan.NewMemoryCatalog(defaultPlans(), DefaultPlanID)
}

func defaultPlans() map[string]plan.Plan {
	return map[string]plan.Plan{
		"candidate-free": {
			ID:       "candidate-free",
			Name:     "Candidate Free",
			Product:  plan.ProductCandidate,
			Tier:     plan.TierFree,
			Interval: plan.IntervalMonthly,
			Grants: []plan.Grant{
				{Feature: plan.FeatureCVExports, Kind: plan.KindQuota, Cap: 3, Unit: "exports"},
				{Feature: plan.FeatureCVParsing, Kind: plan.KindQuota, Cap: 5, Unit: "documents"},
				{Feature: plan.FeatureCoachingChats, Kind: plan.KindQuota, Cap: 10, Unit: "messages"},
			},
		},
		"candidate-premium-monthly": {
			ID:       "candidate-premium-monthly",
			Name:     "Candidate Premium",
			Product:  plan.ProductCandidate,
			Tier:     plan.TierPremium,
			Interval: plan.IntervalMonthly,
			Price:    plan.Money{Amount: 900, Currency: "USD"},
			Grants: []plan.Grant{
				{Feature: plan.FeatureCVExports, Kind: plan.KindQuota, Cap: plan.Unlimited, Unit: "exports"},
				{Feature: plan.FeatureCVParsing, Kind: plan.KindQuota, Cap: 50, Unit: "documents"},
				{Feature: plan.FeatureCoachingChats, Kind: plan.KindQuota, Cap: plan.Unlimited, Unit: "messages"},
			},
		},
		"recruiting-standard-monthly": {
			ID:       "recruiting-standard-monthly",
			Name:     "Recruiting Standard",
			Product:  plan.ProductRecruiting,
			Tier:     plan.TierStandard,
			Interval: plan.IntervalMonthly,
			Price:    plan.Money{Amount: 4900, Currency: "USD"},
			Grants: []plan.Grant{
				{Feature: plan.FeatureJobPostings, Kind: plan.KindQuota, Cap: 10, Unit: "postings"},
				{Feature: plan.FeatureCandidateSearch, Kind: plan.KindQuota, Cap: 200, Unit: "searches"},
				{Feature: plan.FeatureCalendarSync, Kind: plan.KindToggle, Enabled: true},
			},
		},
		"recruiting-premium-annual": {
			ID:       "recruiting-premium-annual",
			Name:     "Recruiting Premium (annual)",
			Product:  plan.ProductRecruiting,
			Tier:     plan.TierPremium,
			Interval: plan.IntervalAnnual,
			Price:    plan.Money{Amount: 99900, Currency: "USD"},
			Grants: []plan.Grant{
				{Feature: plan.FeatureJobPostings, Kind: plan.KindQuota, Cap: plan.Unlimited, Unit: "postings"},
				{Feature: plan.FeatureCandidateSearch, Kind: plan.KindMetered, Unit: "searches"},
				{Feature: plan.FeatureCalendarSync, Kind: plan.KindToggle, Enabled: true},
				{Feature: plan.FeaturePipelineBoards, Kind: plan.KindToggle, Enabled: true},
			},
		},
		"business-standard-monthly": {
			ID:       "business-standard-monthly",
			Name:     "Business Standard",
			Product:  plan.ProductBusiness,
			Tier:     plan.TierStandard,
			Interval: plan.IntervalMonthly,
			Price:    plan.Money{Amount: 9900, Currency: "USD"},
			Grants: []plan.Grant{
				{Feature: plan.FeatureJobPostings, Kind: plan.KindQuota, Cap: 50, Unit: "postings"},
				{Feature: plan.FeaturePipelineBoards, Kind: plan.KindToggle, Enabled: true},
			},
		},
	}
}
