//go:build windows

package svcinstall

import (
	"context"
	"fmt"
)

// DefaultUnitDir is where system unit files are written
const DefaultUnitDir = "/etc/systemd/system"

var errSystemdUnsupported = fmt.Errorf("%w: systemd is not available on Windows", ErrInvalidArgument)

// SystemdBackend registers services as systemd units (stub for Windows)
type SystemdBackend struct {
	// SystemctlPath is the resolved path of systemctl
	SystemctlPath string

	// UnitDir is the directory where unit files are written
	UnitDir string

	// Runner executes systemctl
	Runner Runner
}

// NewSystemdBackend creates a SystemdBackend (stub for Windows)
func NewSystemdBackend(systemctlPath string, runner Runner) *SystemdBackend {
	if runner == nil {
		runner = NewExecRunner()
	}
	return &SystemdBackend{
		SystemctlPath: systemctlPath,
		UnitDir:       DefaultUnitDir,
		Runner:        runner,
	}
}

// WithUnitDir sets the systemd unit directory
func (b *SystemdBackend) WithUnitDir(dir string) *SystemdBackend {
	b.UnitDir = dir
	return b
}

// Name implements Backend
func (b *SystemdBackend) Name() string {
	return BackendSystemd.String()
}

// Lookup implements Backend (stub - systemd is not supported on Windows)
func (b *SystemdBackend) Lookup(_ context.Context, name string) (ServiceDescriptor, error) {
	return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: errSystemdUnsupported}
}

// Register implements Backend (stub - systemd is not supported on Windows)
func (b *SystemdBackend) Register(_ context.Context, desc ServiceDescriptor) error {
	return &OpError{Op: OpRegister, Service: desc.Name, Err: errSystemdUnsupported}
}

// Remove implements Backend (stub - systemd is not supported on Windows)
func (b *SystemdBackend) Remove(_ context.Context, name string) error {
	return &OpError{Op: OpRemove, Service: name, Err: errSystemdUnsupported}
}

// Query implements Backend (stub - systemd is not supported on Windows)
func (b *SystemdBackend) Query(_ context.Context, name string) (ServiceState, error) {
	return StateUnknown, &OpError{Op: OpQuery, Service: name, Err: errSystemdUnsupported}
}

// Start implements Backend (stub - systemd is not supported on Windows)
func (b *SystemdBackend) Start(_ context.Context, name string) error {
	return &OpError{Op: OpStart, Service: name, Err: errSystemdUnsupported}
}
