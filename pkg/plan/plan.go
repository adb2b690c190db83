package plan

// Product is the product category a plan belongs to. The set is closed:
// plans outside these categories are rejected at catalog load time.
type Product string

const (
	ProductRecruiting Product = "recruiting"
	ProductCandidate  Product = "candidate"
	ProductBusiness   Product = "business"
)

// Valid reports whether the product is part of the closed set.
func (p Product) Valid() bool {
	switch p {
	case ProductRecruiting, ProductCandidate, ProductBusiness:
		return true
	}
	return false
}

// Tier is the ordered plan tier. Ordering matters for upgrade/downgrade
// decisions: free < standard < premium.
type Tier string

const (
	TierFree     Tier = "free"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// Rank returns the tier's position in the ordering, -1 for unknown tiers.
func (t Tier) Rank() int {
	switch t {
	case TierFree:
		return 0
	case TierStandard:
		return 1
	case TierPremium:
		return 2
	}
	return -1
}

// BillingInterval is the billing frequency of a plan.
type BillingInterval string

const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalAnnual  BillingInterval = "annual"
)

// Valid reports whether the interval is a known billing frequency.
func (i BillingInterval) Valid() bool {
	return i == IntervalMonthly || i == IntervalAnnual
}

// Money represents a monetary amount in the smallest currency unit.
// $10.99 USD is Amount: 1099, Currency: "USD".
type Money struct {
	Amount   int64  `yaml:"amount"`
	Currency string `yaml:"currency"`
}

// Plan describes a product/tier/interval combination and the entitlement
// grants it carries. Plans are immutable once referenced by an active
// subscription; pricing changes ship as new plan versions, never in place.
type Plan struct {
	ID       string          `yaml:"id"`
	Name     string          `yaml:"name"`
	Product  Product         `yaml:"product"`
	Tier     Tier            `yaml:"tier"`
	Interval BillingInterval `yaml:"interval"`
	Price    Money           `yaml:"price"`
	Grants   []Grant         `yaml:"grants"`
}

// Grant returns the grant for the given feature key, if the plan carries one.
func (p Plan) Grant(key FeatureKey) (Grant, bool) {
	for _, g := range p.Grants {
		if g.Feature == key {
			return g, true
		}
	}
	return Grant{}, false
}
