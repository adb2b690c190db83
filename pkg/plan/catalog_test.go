package plan_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recruitkit/billing/pkg/plan"
)

func testPlans() map[string]plan.Plan {
	return map[string]plan.Plan{
		"recruiting-free": {
			ID:       "recruiting-free",
			Name:     "Recruiting Free",
			Product:  plan.ProductRecruiting,
			Tier:     plan.TierFree,
			Interval: plan.IntervalMonthly,
			Grants: []plan.Grant{
				{Feature: plan.FeatureJobPostings, Kind: plan.KindQuota, Cap: 1, Unit: "postings"},
				{Feature: plan.FeatureCVExports, Kind: plan.KindQuota, Cap: 5, Unit: "exports"},
				{Feature: plan.FeatureCalendarSync, Kind: plan.KindToggle, Enabled: false},
			},
		},
		"recruiting-premium-monthly": {
			ID:       "recruiting-premium-monthly",
			Name:     "Recruiting Premium",
			Product:  plan.ProductRecruiting,
			Tier:     plan.TierPremium,
			Interval: plan.IntervalMonthly,
			Price:    plan.Money{Amount: 9900, Currency: "USD"},
			Grants: []plan.Grant{
				{Feature: plan.FeatureJobPostings, Kind: plan.KindQuota, Cap: plan.Unlimited, Unit: "postings"},
				{Feature: plan.FeatureCVParsing, Kind: plan.KindMetered},
				{Feature: plan.FeatureCalendarSync, Kind: plan.KindToggle, Enabled: true},
			},
		},
	}
}

func TestNewMemoryCatalog(t *testing.T) {
	t.Parallel()

	t.Run("valid catalog", func(t *testing.T) {
		t.Parallel()

		catalog, err := plan.NewMemoryCatalog(testPlans(), "recruiting-free")
		require.NoError(t, err)
		assert.Equal(t, "recruiting-free", catalog.DefaultPlanID())

		p, err := catalog.ByID(context.Background(), "recruiting-premium-monthly")
		require.NoError(t, err)
		assert.Equal(t, plan.TierPremium, p.Tier)
	})

	t.Run("missing default plan", func(t *testing.T) {
		t.Parallel()

		_, err := plan.NewMemoryCatalog(testPlans(), "does-not-exist")
		assert.ErrorIs(t, err, plan.ErrNoDefaultPlan)
	})

	t.Run("unknown plan lookup", func(t *testing.T) {
		t.Parallel()

		catalog, err := plan.NewMemoryCatalog(testPlans(), "recruiting-free")
		require.NoError(t, err)

		_, err = catalog.ByID(context.Background(), "nope")
		assert.ErrorIs(t, err, plan.ErrPlanNotFound)
	})

	t.Run("duplicate feature key rejected", func(t *testing.T) {
		t.Parallel()

		plans := map[string]plan.Plan{
			"bad": {
				ID:       "bad",
				Product:  plan.ProductCandidate,
				Tier:     plan.TierFree,
				Interval: plan.IntervalMonthly,
				Grants: []plan.Grant{
					{Feature: plan.FeatureCVExports, Kind: plan.KindQuota, Cap: 5},
					{Feature: plan.FeatureCVExports, Kind: plan.KindToggle, Enabled: true},
				},
			},
		}

		_, err := plan.NewMemoryCatalog(plans, "bad")
		assert.ErrorIs(t, err, plan.ErrInvalidPlan)
	})

	t.Run("toggle with cap rejected", func(t *testing.T) {
		t.Parallel()

		plans := map[string]plan.Plan{
			"bad": {
				ID:       "bad",
				Product:  plan.ProductBusiness,
				Tier:     plan.TierStandard,
				Interval: plan.IntervalAnnual,
				Grants: []plan.Grant{
					{Feature: plan.FeatureCalendarSync, Kind: plan.KindToggle, Cap: 10},
				},
			},
		}

		_, err := plan.NewMemoryCatalog(plans, "bad")
		assert.ErrorIs(t, err, plan.ErrInvalidPlan)
	})

	t.Run("returned plans are copies", func(t *testing.T) {
		t.Parallel()

		catalog, err := plan.NewMemoryCatalog(testPlans(), "recruiting-free")
		require.NoError(t, err)

		p, err := catalog.ByID(context.Background(), "recruiting-free")
		require.NoError(t, err)
		p.Grants[0].Cap = 999

		again, err := catalog.ByID(context.Background(), "recruiting-free")
		require.NoError(t, err)
		assert.Equal(t, int64(1), again.Grants[0].Cap)
	})
}

func TestParseYAMLCatalog(t *testing.T) {
	t.Parallel()

	t.Run("parses plans and preserves grant order", func(t *testing.T) {
		t.Parallel()

		raw := []byte(`
default_plan: candidate-free
plans:
  - id: candidate-free
    name: Candidate Free
    product: candidate
    tier: free
    interval: monthly
    grants:
      - feature: cv_exports
        kind: quota
        cap: 5
        unit: exports
      - feature: coaching_chats
        kind: quota
        cap: 3
        unit: sessions
      - feature: cv_parsing
        kind: toggle
        enabled: false
  - id: candidate-premium-annual
    name: Candidate Premium
    product: candidate
    tier: premium
    interval: annual
    price:
      amount: 14900
      currency: USD
    grants:
      - feature: cv_exports
        kind: quota
        cap: -1
      - feature: cv_parsing
        kind: metered
`)

		catalog, err := plan.ParseYAMLCatalog(raw)
		require.NoError(t, err)

		p, err := catalog.ByID(context.Background(), "candidate-free")
		require.NoError(t, err)
		require.Len(t, p.Grants, 3)
		assert.Equal(t, plan.FeatureCVExports, p.Grants[0].Feature)
		assert.Equal(t, plan.FeatureCoachingChats, p.Grants[1].Feature)
		assert.Equal(t, plan.FeatureCVParsing, p.Grants[2].Feature)

		premium, err := catalog.ByID(context.Background(), "candidate-premium-annual")
		require.NoError(t, err)
		assert.True(t, premium.Grants[0].IsUnlimited())
		assert.Equal(t, plan.IntervalAnnual, premium.Interval)
	})

	t.Run("duplicate plan id rejected", func(t *testing.T) {
		t.Parallel()

		raw := []byte(`
default_plan: p
plans:
  - id: p
    product: candidate
    tier: free
    interval: monthly
  - id: p
    product: candidate
    tier: free
    interval: monthly
`)

		_, err := plan.ParseYAMLCatalog(raw)
		assert.ErrorIs(t, err, plan.ErrInvalidPlan)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		_, err := plan.ParseYAMLCatalog([]byte("plans: ["))
		assert.ErrorIs(t, err, plan.ErrFailedToLoadPlans)
	})
}
