package query

import (
	"context"
	"errors"
	"sync"
)

// Status is the lifecycle of a mutation instance.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// ErrPending is returned when a mutation is triggered while a previous
// run of the same instance is still in flight.
var ErrPending = errors.New("mutation already pending")

// Mutation wraps one logical write action: it tracks
// idle→pending→success|error, allows at most one concurrent run, and
// invalidates its declared key prefixes only after a successful run.
type Mutation struct {
	mu          sync.Mutex
	name        string
	cache       *Cache
	invalidates []Key
	status      Status
	lastErr     error
}

// NewMutation declares a named write action and the key prefixes that
// become stale when it succeeds.
func NewMutation(c *Cache, name string, invalidates ...Key) *Mutation {
	return &Mutation{name: name, cache: c, invalidates: invalidates}
}

// Run executes fn. It returns ErrPending if a previous run has not
// resolved. On success the declared prefixes are invalidated; on
// failure nothing is invalidated (no partial state change is
// assumed) and the error is returned as-is.
func (m *Mutation) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	if m.status == StatusPending {
		m.mu.Unlock()
		return ErrPending
	}
	m.status = StatusPending
	m.lastErr = nil
	m.mu.Unlock()

	err := fn(ctx)

	m.mu.Lock()
	if err != nil {
		m.status = StatusError
		m.lastErr = err
		m.mu.Unlock()
		return err
	}
	m.status = StatusSuccess
	m.mu.Unlock()

	for _, prefix := range m.invalidates {
		m.cache.Invalidate(prefix)
	}
	return nil
}

func (m *Mutation) Name() string { return m.name }

func (m *Mutation) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Pending reports whether a run is in flight; the UI disables the
// triggering control while true.
func (m *Mutation) Pending() bool {
	return m.Status() == StatusPending
}

func (m *Mutation) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}
