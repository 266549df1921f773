package svcinstall

import (
	"context"
	"sync"
	"time"
)

// Manager runs query, start and remove operations over several services
// of one backend. Concurrency defaults to 1 so at most one operation
// talks to the host at a time. Failures are collected in a MultiError.
type Manager struct {
	// Backend is the service-control subsystem
	Backend Backend
	// Concurrency is the maximum number of concurrent operations
	Concurrency int
	// Timeout is the per-operation timeout
	Timeout time.Duration
	// Verifier starts services and settles their state
	Verifier *Verifier
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithConcurrency sets the maximum number of concurrent operations
func WithConcurrency(n int) ManagerOption {
	return func(m *Manager) {
		m.Concurrency = n
	}
}

// WithTimeout sets the per-operation timeout
func WithTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.Timeout = d
	}
}

// WithVerifier sets the verifier used by Start
func WithVerifier(v *Verifier) ManagerOption {
	return func(m *Manager) {
		m.Verifier = v
	}
}

// NewManager creates a Manager for backend
func NewManager(backend Backend, opts ...ManagerOption) *Manager {
	m := &Manager{
		Backend:     backend,
		Concurrency: 1,
		Timeout:     DefaultStartTimeout,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.Concurrency < 1 {
		m.Concurrency = 1
	}
	if m.Verifier == nil {
		m.Verifier = NewVerifier(backend)
	}

	return m
}

func (m *Manager) execute(ctx context.Context, services []string, op func(context.Context, string) error) error {
	if len(services) == 0 {
		return nil
	}

	sem := make(chan struct{}, m.Concurrency)

	var wg sync.WaitGroup
	var mu sync.Mutex
	merr := &MultiError{}

	for _, service := range services {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				merr.Add(&OpError{Op: OpUnknown, Service: name, Err: ctx.Err()})
				mu.Unlock()
				return
			}

			opCtx := ctx
			if m.Timeout > 0 {
				var cancel context.CancelFunc
				opCtx, cancel = context.WithTimeout(ctx, m.Timeout)
				defer cancel()
			}

			if err := op(opCtx, name); err != nil {
				mu.Lock()
				merr.Add(err)
				mu.Unlock()
			}
		}(service)
	}

	wg.Wait()

	return merr.Err()
}

// Status returns the state of each service. Services whose query failed
// are absent from the map and reported in the error.
func (m *Manager) Status(ctx context.Context, services ...string) (map[string]ServiceState, error) {
	var mu sync.Mutex
	results := make(map[string]ServiceState, len(services))

	err := m.execute(ctx, services, func(ctx context.Context, name string) error {
		state, err := m.Verifier.QueryState(ctx, name)
		if err != nil {
			return err
		}
		mu.Lock()
		results[name] = state
		mu.Unlock()
		return nil
	})
	return results, err
}

// Start starts each service and returns the settled states
func (m *Manager) Start(ctx context.Context, services ...string) (map[string]ServiceState, error) {
	var mu sync.Mutex
	results := make(map[string]ServiceState, len(services))

	err := m.execute(ctx, services, func(ctx context.Context, name string) error {
		state, err := m.Verifier.Activate(ctx, name)
		if state != StateUnknown {
			mu.Lock()
			results[name] = state
			mu.Unlock()
		}
		return err
	})
	return results, err
}

// Remove deletes each service record
func (m *Manager) Remove(ctx context.Context, services ...string) error {
	return m.execute(ctx, services, func(ctx context.Context, name string) error {
		return m.Backend.Remove(ctx, name)
	})
}
