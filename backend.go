package svcinstall

import (
	"context"
)

// Backend is implemented by every service-control subsystem the installer
// can drive. It provides the register, query and start capabilities plus
// the read-back and removal needed for the replace policy.
type Backend interface {
	// Name identifies the backend in logs and reports
	Name() string

	// Lookup returns the registered descriptor, or ErrNotInstalled
	Lookup(ctx context.Context, name string) (ServiceDescriptor, error)

	// Register creates a persistent service record.
	// It fails with ErrAlreadyExists rather than overwrite a record.
	Register(ctx context.Context, desc ServiceDescriptor) error

	// Remove deletes the service record, or fails with ErrNotInstalled
	Remove(ctx context.Context, name string) error

	// Query returns the current state; a missing record is StateNotInstalled
	Query(ctx context.Context, name string) (ServiceState, error)

	// Start requests a start transition without waiting for Running
	Start(ctx context.Context, name string) error
}
