// Package resilience guards calls to the broker and the database pool.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the position of a Breaker.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	}
	return "unknown"
}

// Breaker stops calling a failing dependency. After maxFailures consecutive
// failures it rejects calls for cooldown, then lets a single probe through:
// a successful probe closes it again, a failed one reopens it.
type Breaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	onChange    func(name string, from, to State)
	now         func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker creates an unnamed Breaker.
func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	return NewNamedBreaker("", maxFailures, cooldown)
}

// NewNamedBreaker creates a Breaker whose transitions are logged under name.
func NewNamedBreaker(name string, maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	return &Breaker{name: name, maxFailures: maxFailures, cooldown: cooldown, now: time.Now}
}

// OnStateChange registers fn to run after every transition. fn runs outside
// the breaker's lock. Call it before the breaker is shared.
func (b *Breaker) OnStateChange(fn func(name string, from, to State)) {
	b.onChange = fn
}

// State returns the current position, reporting an open breaker whose
// cooldown has elapsed as half-open.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cooldown {
		return HalfOpen
	}
	return b.state
}

// Open reports whether calls are currently rejected.
func (b *Breaker) Open() bool {
	return b.State() == Open
}

// Call runs fn unless the breaker is open. A cancelled ctx is returned
// without calling fn and is not counted as a failure.
func (b *Breaker) Call(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !b.acquire() {
		return ErrCircuitOpen
	}
	err := fn(ctx)
	b.release(err)
	return err
}

func (b *Breaker) acquire() bool {
	b.mu.Lock()
	from := b.state
	switch b.state {
	case Closed:
		b.mu.Unlock()
		return true
	case Open:
		if b.now().Sub(b.openedAt) < b.cooldown {
			b.mu.Unlock()
			return false
		}
		b.state = HalfOpen
	}
	if b.probing {
		b.mu.Unlock()
		return false
	}
	b.probing = true
	to := b.state
	b.mu.Unlock()
	b.changed(from, to)
	return true
}

func (b *Breaker) release(err error) {
	b.mu.Lock()
	from := b.state
	b.probing = false
	if err == nil {
		b.failures = 0
		b.state = Closed
	} else {
		b.failures++
		if from == HalfOpen || b.failures >= b.maxFailures {
			b.state = Open
			b.openedAt = b.now()
		}
	}
	to, failures := b.state, b.failures
	b.mu.Unlock()

	if from != to && b.name != "" {
		if to == Open {
			slog.Warn("circuit breaker opened", "breaker", b.name, "failures", failures)
		} else {
			slog.Info("circuit breaker closed", "breaker", b.name)
		}
	}
	b.changed(from, to)
}

func (b *Breaker) changed(from, to State) {
	if from != to && b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}
