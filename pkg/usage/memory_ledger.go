package usage

import (
	"context"
	"sync"
	"time"

	"github.com/recruitkit/billing/pkg/holder"
	"github.com/recruitkit/billing/pkg/plan"
)

type recordKey struct {
	holder      string
	feature     plan.FeatureKey
	periodStart int64 // unix seconds, UTC
}

// memoryLedger is an in-memory Ledger for tests and local development.
// A single mutex serializes increments, which gives the same atomicity the
// SQL implementation gets from its conditional update statement.
type memoryLedger struct {
	mu      sync.Mutex
	records map[recordKey]*Record
}

// NewMemoryLedger returns an empty in-memory usage ledger.
func NewMemoryLedger() Ledger {
	return &memoryLedger{records: make(map[recordKey]*Record)}
}

func key(ref holder.Ref, feature plan.FeatureKey, periodStart time.Time) recordKey {
	return recordKey{
		holder:      ref.String(),
		feature:     feature,
		periodStart: periodStart.UTC().Unix(),
	}
}

func (l *memoryLedger) Count(_ context.Context, ref holder.Ref, feature plan.FeatureKey, periodStart time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key(ref, feature, periodStart)]
	if !ok {
		return 0, nil
	}
	return rec.Count, nil
}

func (l *memoryLedger) IncrementIfUnderCap(_ context.Context, ref holder.Ref, feature plan.FeatureKey, period Period, amount, cap int64) (int64, bool, error) {
	if amount <= 0 {
		return 0, false, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	k := key(ref, feature, period.Start)
	rec, ok := l.records[k]
	if !ok {
		rec = &Record{
			Holder:      ref,
			Feature:     feature,
			PeriodStart: period.Start,
			PeriodEnd:   period.End,
		}
	}

	if cap != plan.Unlimited && rec.Count+amount > cap {
		return rec.Count, false, nil
	}

	rec.Count += amount
	l.records[k] = rec
	return rec.Count, true, nil
}

func (l *memoryLedger) DeleteExpired(_ context.Context, ref holder.Ref, cutoff time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, rec := range l.records {
		if k.holder == ref.String() && !rec.PeriodEnd.After(cutoff) {
			delete(l.records, k)
		}
	}
	return nil
}
