//go:build !unix

package svcinstall

import (
	"context"
	"fmt"
	"time"
)

// Runit defaults
const (
	// DefaultRunitServiceDir is the directory runsvdir scans
	DefaultRunitServiceDir = "/etc/service"

	// DefaultSuperviseTimeout covers one runsvdir rescan (every 5 seconds)
	DefaultSuperviseTimeout = 6 * time.Second
)

var errRunitUnsupported = fmt.Errorf("%w: runit is only supported on Unix systems", ErrInvalidArgument)

// RunitBackend registers services as runit service directories (stub for non-Unix)
type RunitBackend struct {
	ServiceDir       string
	SuperviseTimeout time.Duration
	BackoffMin       time.Duration
	BackoffMax       time.Duration
	MaxAttempts      int
}

// NewRunitBackend creates a RunitBackend (stub for non-Unix)
func NewRunitBackend(serviceDir string) *RunitBackend {
	if serviceDir == "" {
		serviceDir = DefaultRunitServiceDir
	}
	return &RunitBackend{ServiceDir: serviceDir}
}

// Name implements Backend
func (b *RunitBackend) Name() string {
	return BackendRunit.String()
}

// Lookup implements Backend (stub - runit is only supported on Unix)
func (b *RunitBackend) Lookup(_ context.Context, name string) (ServiceDescriptor, error) {
	return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: errRunitUnsupported}
}

// Register implements Backend (stub - runit is only supported on Unix)
func (b *RunitBackend) Register(_ context.Context, desc ServiceDescriptor) error {
	return &OpError{Op: OpRegister, Service: desc.Name, Err: errRunitUnsupported}
}

// Remove implements Backend (stub - runit is only supported on Unix)
func (b *RunitBackend) Remove(_ context.Context, name string) error {
	return &OpError{Op: OpRemove, Service: name, Err: errRunitUnsupported}
}

// Query implements Backend (stub - runit is only supported on Unix)
func (b *RunitBackend) Query(_ context.Context, name string) (ServiceState, error) {
	return StateUnknown, &OpError{Op: OpQuery, Service: name, Err: errRunitUnsupported}
}

// Start implements Backend (stub - runit is only supported on Unix)
func (b *RunitBackend) Start(_ context.Context, name string) error {
	return &OpError{Op: OpStart, Service: name, Err: errRunitUnsupported}
}
