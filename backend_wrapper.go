package svcinstall

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// WrapperBackend drives a service wrapper executable such as NSSM, which
// translates install/status/start commands into native registrations.
type WrapperBackend struct {
	// ManagerPath is the resolved path of the wrapper executable
	ManagerPath string

	// Runner executes the wrapper
	Runner Runner

	// Style is the quoting convention for the joined argument string
	Style QuoteStyle
}

// NewWrapperBackend creates a WrapperBackend for the wrapper at managerPath
func NewWrapperBackend(managerPath string, runner Runner) *WrapperBackend {
	if runner == nil {
		runner = &ExecRunner{SudoCommand: DefaultSudoCommand, Timeout: DefaultCommandTimeout}
	}
	return &WrapperBackend{
		ManagerPath: managerPath,
		Runner:      runner,
		Style:       HostQuoteStyle(),
	}
}

// Wrapper status strings as printed by `status`
const (
	wrapperStopped      = "SERVICE_STOPPED"
	wrapperStartPending = "SERVICE_START_PENDING"
	wrapperStopPending  = "SERVICE_STOP_PENDING"
	wrapperRunning      = "SERVICE_RUNNING"
	wrapperContinue     = "SERVICE_CONTINUE_PENDING"
	wrapperPausePending = "SERVICE_PAUSE_PENDING"
	wrapperPaused       = "SERVICE_PAUSED"
)

// Name implements Backend
func (b *WrapperBackend) Name() string {
	return BackendWrapper.String()
}

// InstallArgs returns the wrapper arguments that register desc:
// install <name> <executable> <joined arguments>
func (b *WrapperBackend) InstallArgs(desc ServiceDescriptor) []string {
	args := []string{"install", desc.Name, desc.Executable}
	if len(desc.Args) > 0 {
		args = append(args, desc.CommandLine(b.Style))
	}
	return args
}

// Register implements Backend
func (b *WrapperBackend) Register(ctx context.Context, desc ServiceDescriptor) error {
	state, err := b.Query(ctx, desc.Name)
	if err != nil {
		return &OpError{Op: OpRegister, Service: desc.Name, Err: err}
	}
	if state.Installed() {
		return &OpError{Op: OpRegister, Service: desc.Name, Err: ErrAlreadyExists}
	}

	if _, err := b.Runner.Run(ctx, b.ManagerPath, b.InstallArgs(desc)...); err != nil {
		return &OpError{Op: OpRegister, Service: desc.Name, Err: classifyWrapperError(err, nil)}
	}
	return nil
}

// Lookup implements Backend
func (b *WrapperBackend) Lookup(ctx context.Context, name string) (ServiceDescriptor, error) {
	app, err := b.get(ctx, name, "Application")
	if err != nil {
		return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: err}
	}
	if app == "" {
		return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: ErrNotInstalled}
	}
	params, err := b.get(ctx, name, "AppParameters")
	if err != nil {
		return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: err}
	}

	args, err := SplitArgs(params, b.Style)
	if err != nil {
		return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: err}
	}
	return ServiceDescriptor{Name: name, Executable: app, Args: args}, nil
}

func (b *WrapperBackend) get(ctx context.Context, name, param string) (string, error) {
	res, err := b.Runner.Run(ctx, b.ManagerPath, "get", name, param)
	if err != nil {
		return "", classifyWrapperError(err, nil)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// Remove implements Backend
func (b *WrapperBackend) Remove(ctx context.Context, name string) error {
	if _, err := b.Runner.Run(ctx, b.ManagerPath, "remove", name, "confirm"); err != nil {
		return &OpError{Op: OpRemove, Service: name, Err: classifyWrapperError(err, nil)}
	}
	return nil
}

// Query implements Backend
func (b *WrapperBackend) Query(ctx context.Context, name string) (ServiceState, error) {
	res, err := b.Runner.Run(ctx, b.ManagerPath, "status", name)
	if err != nil {
		classified := classifyWrapperError(err, nil)
		if errors.Is(classified, ErrNotInstalled) {
			return StateNotInstalled, nil
		}
		return StateUnknown, &OpError{Op: OpQuery, Service: name, Err: classified}
	}
	return parseWrapperState(res.Stdout), nil
}

// Start implements Backend
func (b *WrapperBackend) Start(ctx context.Context, name string) error {
	if _, err := b.Runner.Run(ctx, b.ManagerPath, "start", name); err != nil {
		return &OpError{Op: OpStart, Service: name, Err: classifyWrapperError(err, ErrStartFailed)}
	}
	return nil
}

// parseWrapperState maps the first recognised status token in out
func parseWrapperState(out string) ServiceState {
	for _, field := range strings.Fields(out) {
		switch strings.ToUpper(field) {
		case wrapperStopped:
			return StateStopped
		case wrapperStartPending, wrapperContinue:
			return StateStartPending
		case wrapperRunning, wrapperPaused, wrapperPausePending:
			return StateRunning
		case wrapperStopPending:
			return StateStopPending
		}
	}
	return StateUnknown
}

// wrapperMessages maps wrapper diagnostics onto the error taxonomy, first match wins
var wrapperMessages = []struct {
	fragment string
	kind     error
}{
	{"access is denied", ErrPermissionDenied},
	{"administrator access is needed", ErrPermissionDenied},
	{"permission denied", ErrPermissionDenied},
	{"does not exist as an installed service", ErrNotInstalled},
	{"can't open service", ErrNotInstalled},
	{"already exists", ErrAlreadyExists},
	{"marked for deletion", ErrAlreadyExists},
	{"invalid service name", ErrInvalidArgument},
	{"usage:", ErrInvalidArgument},
}

// classifyWrapperError maps a failed wrapper command onto the taxonomy.
// Unrecognised failures take fallback when it is non-nil.
func classifyWrapperError(err error, fallback error) error {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	if errors.Is(err, ErrTimeout) {
		return err
	}

	out := strings.ToLower(cmdErr.Output)
	for _, m := range wrapperMessages {
		if strings.Contains(out, m.fragment) {
			return kindError(m.kind, err)
		}
	}
	if fallback != nil {
		return kindError(fallback, err)
	}
	return fmt.Errorf("wrapper command failed: %w", err)
}
