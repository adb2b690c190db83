package subscription_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/recruitkit/billing/pkg/plan"
	"github.com/recruitkit/billing/pkg/subscription"
)

func TestNextPeriodEnd(t *testing.T) {
	t.Parallel()

	t.Run("monthly mid-month anchor", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
		end := subscription.NextPeriodEnd(start, plan.IntervalMonthly)
		assert.Equal(t, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), end)
	})

	t.Run("monthly month-end normalization", func(t *testing.T) {
		t.Parallel()

		// Jan 31 + 1 month is Feb 31, which normalizes to Mar 2 in a leap
		// year. Calendar addition, never a fixed 30 days.
		start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
		end := subscription.NextPeriodEnd(start, plan.IntervalMonthly)
		assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), end)
	})

	t.Run("annual leap day", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
		end := subscription.NextPeriodEnd(start, plan.IntervalAnnual)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), end)
	})
}

func TestAdvancePeriod(t *testing.T) {
	t.Parallel()

	t.Run("new start is old end", func(t *testing.T) {
		t.Parallel()

		sub := &subscription.Subscription{
			Status:             subscription.StatusActive,
			CurrentPeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			CurrentPeriodEnd:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		}

		now := time.Date(2024, 2, 1, 4, 0, 0, 0, time.UTC)
		sub.AdvancePeriod(plan.IntervalMonthly, now)

		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), sub.CurrentPeriodStart)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), sub.CurrentPeriodEnd)
		assert.Equal(t, now, sub.UpdatedAt)
	})
}

func TestPeriodExpired(t *testing.T) {
	t.Parallel()

	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	sub := &subscription.Subscription{CurrentPeriodEnd: end}

	assert.False(t, sub.PeriodExpired(end.Add(-time.Second)))
	assert.True(t, sub.PeriodExpired(end), "period end is exclusive")
	assert.True(t, sub.PeriodExpired(end.Add(time.Hour)))
}
