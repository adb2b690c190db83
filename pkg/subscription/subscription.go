package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/recruitkit/billing/pkg/holder"
	"github.com/recruitkit/billing/pkg/plan"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled" // terminal
)

// Subscription ties a billing holder to a plan for the current billing
// period. Each holder has at most one active subscription; rows are never
// hard-deleted, they transition to canceled instead.
type Subscription struct {
	ID                 uuid.UUID
	Holder             holder.Ref
	PlanID             string
	Status             Status
	CancelAtPeriodEnd  bool
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time // exclusive
	// Version serializes concurrent writers (user-initiated plan changes vs
	// the reconciler) via compare-and-swap updates.
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CanceledAt *time.Time
}

// IsActive reports whether the subscription is live.
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// PeriodExpired reports whether the current period has fully elapsed.
// The period is half-open, so expiry is end <= now.
func (s *Subscription) PeriodExpired(now time.Time) bool {
	return !s.CurrentPeriodEnd.After(now)
}

// NextPeriodEnd advances a period boundary by one billing interval using
// calendar-aware addition. Month-end anchors normalize the way time.AddDate
// does: Jan 31 + 1 month lands on Mar 2 (Mar 3 in leap-less years), never a
// fixed 30 days.
func NextPeriodEnd(start time.Time, interval plan.BillingInterval) time.Time {
	if interval == plan.IntervalAnnual {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// AdvancePeriod moves the subscription into the next billing window:
// the old end becomes the new start.
func (s *Subscription) AdvancePeriod(interval plan.BillingInterval, now time.Time) {
	s.CurrentPeriodStart = s.CurrentPeriodEnd
	s.CurrentPeriodEnd = NextPeriodEnd(s.CurrentPeriodStart, interval)
	s.UpdatedAt = now
}

// Cancel marks the subscription canceled without advancing the period.
func (s *Subscription) Cancel(now time.Time) {
	s.Status = StatusCanceled
	s.CanceledAt = &now
	s.UpdatedAt = now
}
