//go:build !windows

package svcinstall

import (
	"context"
	"fmt"
)

var errSCMUnsupported = fmt.Errorf("%w: the service control manager is only available on Windows", ErrInvalidArgument)

// SCMBackend registers services with the Windows Service Control Manager (stub for non-Windows)
type SCMBackend struct{}

// NewSCMBackend creates an SCMBackend (stub for non-Windows)
func NewSCMBackend() *SCMBackend {
	return &SCMBackend{}
}

// Name implements Backend
func (b *SCMBackend) Name() string {
	return BackendSCM.String()
}

// Lookup implements Backend (stub - SCM is only supported on Windows)
func (b *SCMBackend) Lookup(_ context.Context, name string) (ServiceDescriptor, error) {
	return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: errSCMUnsupported}
}

// Register implements Backend (stub - SCM is only supported on Windows)
func (b *SCMBackend) Register(_ context.Context, desc ServiceDescriptor) error {
	return &OpError{Op: OpRegister, Service: desc.Name, Err: errSCMUnsupported}
}

// Remove implements Backend (stub - SCM is only supported on Windows)
func (b *SCMBackend) Remove(_ context.Context, name string) error {
	return &OpError{Op: OpRemove, Service: name, Err: errSCMUnsupported}
}

// Query implements Backend (stub - SCM is only supported on Windows)
func (b *SCMBackend) Query(_ context.Context, name string) (ServiceState, error) {
	return StateUnknown, &OpError{Op: OpQuery, Service: name, Err: errSCMUnsupported}
}

// Start implements Backend (stub - SCM is only supported on Windows)
func (b *SCMBackend) Start(_ context.Context, name string) error {
	return &OpError{Op: OpStart, Service: name, Err: errSCMUnsupported}
}
