package resilience

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Bulkhead caps how many callers run a section at once. Callers beyond the
// limit wait for a slot or give up when their context ends.
type Bulkhead struct {
	sem *semaphore.Weighted
}

// NewBulkhead creates a Bulkhead admitting at most limit concurrent callers.
func NewBulkhead(limit int) *Bulkhead {
	if limit < 1 {
		limit = 1
	}
	return &Bulkhead{sem: semaphore.NewWeighted(int64(limit))}
}

// Run acquires a slot, runs fn and releases the slot. A nil Bulkhead runs
// fn directly.
func (b *Bulkhead) Run(ctx context.Context, fn func() error) error {
	if b == nil || b.sem == nil {
		return fn()
	}
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("bulkhead: %w", err)
	}
	defer b.sem.Release(1)
	return fn()
}
