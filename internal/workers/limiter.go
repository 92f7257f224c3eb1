package workers

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Limiter bounds how many calls run media engine work at once. Waiting
// calls block in Acquire without holding any engine resources.
type Limiter struct {
	sem  *semaphore.Weighted
	size int
	busy atomic.Int64
}

// NewLimiter creates a limiter with n slots. n < 1 means ForCPU(0).
func NewLimiter(n int) *Limiter {
	if n < 1 {
		n = ForCPU(0)
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n)), size: n}
}

// Acquire waits for a slot or for ctx to end. The returned release func
// must be called exactly once.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	l.busy.Add(1)

	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			l.busy.Add(-1)
			l.sem.Release(1)
		}
	}, nil
}

// Size returns the number of slots.
func (l *Limiter) Size() int { return l.size }

// Busy returns the number of slots currently held.
func (l *Limiter) Busy() int { return int(l.busy.Load()) }
