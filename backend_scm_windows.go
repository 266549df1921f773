//go:build windows

package svcinstall

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

// SCMBackend registers services directly with the Windows Service Control
// Manager. Services are created with automatic start so the record
// survives reboot.
type SCMBackend struct{}

// NewSCMBackend creates an SCMBackend
func NewSCMBackend() *SCMBackend {
	return &SCMBackend{}
}

// Name implements Backend
func (b *SCMBackend) Name() string {
	return BackendSCM.String()
}

func (b *SCMBackend) open(name string) (*mgr.Mgr, *mgr.Service, error) {
	m, err := mgr.Connect()
	if err != nil {
		return nil, nil, classifySCMError(err)
	}
	s, err := m.OpenService(name)
	if err != nil {
		_ = m.Disconnect()
		return nil, nil, classifySCMError(err)
	}
	return m, s, nil
}

// Register implements Backend
func (b *SCMBackend) Register(_ context.Context, desc ServiceDescriptor) error {
	m, err := mgr.Connect()
	if err != nil {
		return &OpError{Op: OpRegister, Service: desc.Name, Err: classifySCMError(err)}
	}
	defer func() { _ = m.Disconnect() }()

	cfg := mgr.Config{
		DisplayName: desc.Name,
		StartType:   mgr.StartAutomatic,
		Description: "Managed by svcinstall",
	}
	s, err := m.CreateService(desc.Name, desc.Executable, cfg)
	if err != nil {
		return &OpError{Op: OpRegister, Service: desc.Name, Err: classifySCMError(err)}
	}
	defer func() { _ = s.Close() }()

	if len(desc.Args) == 0 {
		return nil
	}

	// CreateService only quotes paths containing spaces; absolute paths
	// in the argument list are always quoted
	cfg, err = s.Config()
	if err == nil {
		cfg.BinaryPathName = QuoteArg(desc.Executable, QuoteWindows, true) + " " + desc.CommandLine(QuoteWindows)
		err = s.UpdateConfig(cfg)
	}
	if err != nil {
		_ = s.Delete()
		return &OpError{Op: OpRegister, Service: desc.Name, Err: classifySCMError(err)}
	}
	return nil
}

// Lookup implements Backend
func (b *SCMBackend) Lookup(_ context.Context, name string) (ServiceDescriptor, error) {
	m, s, err := b.open(name)
	if err != nil {
		return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: err}
	}
	defer func() { _ = m.Disconnect() }()
	defer func() { _ = s.Close() }()

	cfg, err := s.Config()
	if err != nil {
		return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: classifySCMError(err)}
	}
	argv, err := SplitArgs(cfg.BinaryPathName, QuoteWindows)
	if err != nil {
		return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: err}
	}
	if len(argv) == 0 {
		return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: fmt.Errorf("%w: empty binary path", ErrInvalidArgument)}
	}
	return ServiceDescriptor{Name: name, Executable: argv[0], Args: argv[1:]}, nil
}

// Remove implements Backend
func (b *SCMBackend) Remove(_ context.Context, name string) error {
	m, s, err := b.open(name)
	if err != nil {
		return &OpError{Op: OpRemove, Service: name, Err: err}
	}
	defer func() { _ = m.Disconnect() }()
	defer func() { _ = s.Close() }()

	// a running service is only deleted once it stops
	_, _ = s.Control(svc.Stop)

	if err := s.Delete(); err != nil {
		return &OpError{Op: OpRemove, Service: name, Err: classifySCMError(err)}
	}
	return nil
}

// Query implements Backend
func (b *SCMBackend) Query(_ context.Context, name string) (ServiceState, error) {
	m, s, err := b.open(name)
	if err != nil {
		if errors.Is(err, ErrNotInstalled) {
			return StateNotInstalled, nil
		}
		return StateUnknown, &OpError{Op: OpQuery, Service: name, Err: err}
	}
	defer func() { _ = m.Disconnect() }()
	defer func() { _ = s.Close() }()

	status, err := s.Query()
	if err != nil {
		return StateUnknown, &OpError{Op: OpQuery, Service: name, Err: classifySCMError(err)}
	}
	return scmState(status), nil
}

// Start implements Backend
func (b *SCMBackend) Start(_ context.Context, name string) error {
	m, s, err := b.open(name)
	if err != nil {
		return &OpError{Op: OpStart, Service: name, Err: err}
	}
	defer func() { _ = m.Disconnect() }()
	defer func() { _ = s.Close() }()

	if err := s.Start(); err != nil {
		if errors.Is(err, windows.ERROR_SERVICE_ALREADY_RUNNING) {
			return nil
		}
		return &OpError{Op: OpStart, Service: name, Err: kindError(ErrStartFailed, classifySCMError(err))}
	}
	return nil
}

func scmState(status svc.Status) ServiceState {
	switch status.State {
	case svc.Stopped:
		if status.Win32ExitCode != 0 && status.Win32ExitCode != uint32(windows.ERROR_SERVICE_NEVER_STARTED) {
			return StateFailed
		}
		return StateStopped
	case svc.StartPending, svc.ContinuePending:
		return StateStartPending
	case svc.StopPending:
		return StateStopPending
	case svc.Running, svc.Paused, svc.PausePending:
		return StateRunning
	default:
		return StateUnknown
	}
}

// classifySCMError maps SCM error codes onto the error taxonomy
func classifySCMError(err error) error {
	switch {
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return kindError(ErrPermissionDenied, err)
	case errors.Is(err, windows.ERROR_SERVICE_EXISTS),
		errors.Is(err, windows.ERROR_DUPLICATE_SERVICE_NAME),
		errors.Is(err, windows.ERROR_SERVICE_MARKED_FOR_DELETE):
		return kindError(ErrAlreadyExists, err)
	case errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST):
		return kindError(ErrNotInstalled, err)
	case errors.Is(err, windows.ERROR_INVALID_NAME),
		errors.Is(err, windows.ERROR_INVALID_PARAMETER):
		return kindError(ErrInvalidArgument, err)
	default:
		return err
	}
}
