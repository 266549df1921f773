package svcinstall

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend is an in-process service registry. It backs dry runs and
// tests that need the register/query/start capabilities without a host.
type MemoryBackend struct {
	// StartState is the state a service settles in after Start (default Running)
	StartState ServiceState

	// PendingQueries is how many queries after Start still report StartPending
	PendingQueries int

	// StartErr, when set, is returned by Start and leaves the state unchanged
	StartErr error

	// ReadOnly makes every mutation fail with ErrPermissionDenied
	ReadOnly bool

	mu       sync.Mutex
	services map[string]*memoryRecord
}

type memoryRecord struct {
	desc    ServiceDescriptor
	state   ServiceState
	pending int
}

// NewMemoryBackend creates an empty MemoryBackend whose services start cleanly
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		StartState: StateRunning,
		services:   make(map[string]*memoryRecord),
	}
}

// Name implements Backend
func (b *MemoryBackend) Name() string {
	return BackendMemory.String()
}

// Lookup implements Backend
func (b *MemoryBackend) Lookup(_ context.Context, name string) (ServiceDescriptor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.services[name]
	if !ok {
		return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: ErrNotInstalled}
	}
	return rec.desc.Clone(), nil
}

// Register implements Backend
func (b *MemoryBackend) Register(_ context.Context, desc ServiceDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ReadOnly {
		return &OpError{Op: OpRegister, Service: desc.Name, Err: ErrPermissionDenied}
	}
	if _, ok := b.services[desc.Name]; ok {
		return &OpError{Op: OpRegister, Service: desc.Name, Err: ErrAlreadyExists}
	}
	b.services[desc.Name] = &memoryRecord{desc: desc.Clone(), state: StateStopped}
	return nil
}

// Remove implements Backend
func (b *MemoryBackend) Remove(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ReadOnly {
		return &OpError{Op: OpRemove, Service: name, Err: ErrPermissionDenied}
	}
	if _, ok := b.services[name]; !ok {
		return &OpError{Op: OpRemove, Service: name, Err: ErrNotInstalled}
	}
	delete(b.services, name)
	return nil
}

// Query implements Backend
func (b *MemoryBackend) Query(_ context.Context, name string) (ServiceState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.services[name]
	if !ok {
		return StateNotInstalled, nil
	}
	if rec.state == StateStartPending {
		if rec.pending > 0 {
			rec.pending--
			return StateStartPending, nil
		}
		rec.state = b.StartState
	}
	return rec.state, nil
}

// Start implements Backend
func (b *MemoryBackend) Start(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.services[name]
	if !ok {
		return &OpError{Op: OpStart, Service: name, Err: ErrNotInstalled}
	}
	if b.ReadOnly {
		return &OpError{Op: OpStart, Service: name, Err: ErrPermissionDenied}
	}
	if b.StartErr != nil {
		return &OpError{Op: OpStart, Service: name, Err: kindError(ErrStartFailed, b.StartErr)}
	}
	if rec.state == StateRunning {
		return nil
	}
	rec.state = StateStartPending
	rec.pending = b.PendingQueries
	return nil
}

// Services returns the registered service names in sorted order
func (b *MemoryBackend) Services() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := make([]string, 0, len(b.services))
	for name := range b.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
