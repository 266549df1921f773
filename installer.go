package svcinstall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// InstallSpec describes one service to install
type InstallSpec struct {
	// Name is the service name
	Name string `json:"name" yaml:"name"`
	// Manager overrides the manager command for backends that use one
	Manager string `json:"manager,omitempty" yaml:"manager,omitempty"`
	// Interpreter is the command that runs Script, resolved on the search path
	Interpreter string `json:"interpreter" yaml:"interpreter"`
	// Script is the wrapped automation script
	Script string `json:"script" yaml:"script"`
	// Args is the argument template; ScriptPlaceholder expands to the
	// absolute script path. Empty means just the script.
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`
}

// ExpandArgs expands the argument template against the absolute script path
func ExpandArgs(template []string, script string) []string {
	if len(template) == 0 {
		return []string{script}
	}
	args := make([]string, len(template))
	for i, arg := range template {
		args[i] = strings.ReplaceAll(arg, ScriptPlaceholder, script)
	}
	return args
}

// Installer runs the resolve, register, verify and start routine
type Installer struct {
	// Resolver locates the manager and the interpreter
	Resolver *Resolver
	// Backend configures the backend; ManagerPath is filled in by Install
	Backend BackendConfig
	// NewBackend constructs the backend (default: NewBackend)
	NewBackend func(BackendConfig) (Backend, error)
	// Policy decides what happens to an existing record
	Policy ExistingPolicy
	// Poller settles the final state
	Poller Poller
	// StartTimeout bounds the start-request/state-query pair
	StartTimeout time.Duration
	// Out receives the human-readable progress report
	Out io.Writer
	// Log receives structured entries
	Log logrus.FieldLogger
}

// NewInstaller creates an Installer for the given backend configuration
func NewInstaller(cfg BackendConfig) *Installer {
	return &Installer{
		Resolver:     NewResolver(""),
		Backend:      cfg,
		NewBackend:   NewBackend,
		Policy:       PolicyFail,
		Poller:       DefaultPoller(),
		StartTimeout: DefaultStartTimeout,
		Out:          io.Discard,
		Log:          DiscardLogger(),
	}
}

// Install registers spec as a service, starts it and reports the outcome.
// The result is filled in as far as the routine got; err is non-nil on
// the first failing step.
func (in *Installer) Install(ctx context.Context, spec InstallSpec) (InstallationResult, error) {
	result := InstallationResult{
		Descriptor: ServiceDescriptor{Name: spec.Name},
		Backend:    in.Backend.Type.String(),
		FinalState: StateUnknown,
	}
	log := loggerOrDiscard(in.Log).WithField(fieldService, spec.Name)

	if err := ValidateServiceName(spec.Name); err != nil {
		return result, result.fail(err)
	}

	resolver := in.Resolver
	if resolver == nil {
		resolver = NewResolver("")
	}

	cfg := in.Backend
	if cfg.Type.NeedsManager() {
		manager := spec.Manager
		if manager == "" {
			manager = DefaultManagerCommand(cfg.Type)
		}
		path, err := resolver.Resolve(manager)
		if err != nil {
			return result, result.fail(err)
		}
		cfg.ManagerPath = path
		log.WithField("manager", path).Debug("resolved service manager")
	}

	newBackend := in.NewBackend
	if newBackend == nil {
		newBackend = NewBackend
	}
	backend, err := newBackend(cfg)
	if err != nil {
		return result, result.fail(err)
	}
	result.Backend = backend.Name()
	log = log.WithField(fieldBackend, backend.Name())

	interpreter := spec.Interpreter
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	interpPath, err := resolver.Resolve(interpreter)
	if err != nil {
		return result, result.fail(err)
	}

	script, err := scriptPath(spec.Script)
	if err != nil {
		return result, result.fail(err)
	}

	desc := ServiceDescriptor{
		Name:       spec.Name,
		Executable: interpPath,
		Args:       ExpandArgs(spec.Args, script),
	}
	result.Descriptor = desc

	in.echo("%s\n", installCommand(backend, cfg.ManagerPath, desc))

	registrar := &Registrar{Backend: backend, Policy: in.Policy, Log: log}
	if err := registrar.Register(ctx, desc); err != nil {
		return result, result.fail(err)
	}

	verifier := &Verifier{Backend: backend, Poller: in.Poller, StartTimeout: in.StartTimeout, Log: log}

	prior, err := verifier.QueryState(ctx, desc.Name)
	if err != nil {
		return result, result.fail(err)
	}
	result.PriorState = &prior
	result.FinalState = prior
	in.echo("%s: %s\n", desc.Name, prior)

	final, err := verifier.Activate(ctx, desc.Name)
	if err != nil && final == StateUnknown {
		return result, result.fail(err)
	}
	in.echo("Service %q start requested\n", desc.Name)
	result.FinalState = final
	in.echo("%s: %s\n", desc.Name, final)
	if err != nil {
		return result, result.fail(err)
	}

	log.WithField(fieldState, final.String()).Info("service installed")
	return result, nil
}

func (in *Installer) echo(format string, args ...any) {
	if in.Out == nil {
		return
	}
	_, _ = fmt.Fprintf(in.Out, format, args...)
}

// installCommand renders the registration as the equivalent manager command
func installCommand(backend Backend, managerPath string, desc ServiceDescriptor) string {
	if w, ok := backend.(*WrapperBackend); ok {
		argv := append([]string{managerPath}, w.InstallArgs(desc)...)
		return "> " + JoinArgs(argv, w.Style)
	}
	return fmt.Sprintf("> %s install %s %s", backend.Name(), desc.Name, JoinArgs(desc.Argv(), HostQuoteStyle()))
}

// scriptPath returns the absolute path of an existing regular script file
func scriptPath(script string) (string, error) {
	if script == "" {
		return "", &OpError{Op: OpValidate, Service: script, Err: fmt.Errorf("%w: script path is empty", ErrInvalidArgument)}
	}
	abs, err := filepath.Abs(script)
	if err != nil {
		return "", &OpError{Op: OpValidate, Service: script, Err: kindError(ErrInvalidArgument, err)}
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return "", &OpError{Op: OpValidate, Service: abs, Err: kindError(ErrPermissionDenied, err)}
		}
		return "", &OpError{Op: OpValidate, Service: abs, Err: kindError(ErrInvalidArgument, err)}
	}
	if !info.Mode().IsRegular() {
		return "", &OpError{Op: OpValidate, Service: abs, Err: fmt.Errorf("%w: script is not a regular file", ErrInvalidArgument)}
	}
	return abs, nil
}
