//go:build !windows

package svcinstall

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// DefaultUnitDir is where system unit files are written
const DefaultUnitDir = "/etc/systemd/system"

// SystemdBackend registers services as systemd units. Unit files are
// written atomically, then the manager is reloaded and the unit enabled
// so the record survives reboot.
type SystemdBackend struct {
	// SystemctlPath is the resolved path of systemctl
	SystemctlPath string

	// UnitDir is the directory where unit files are written
	UnitDir string

	// Runner executes systemctl
	Runner Runner
}

// NewSystemdBackend creates a SystemdBackend using systemctl at systemctlPath
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

func unitName(name string) string {
	return name + ".service"
}

func (b *SystemdBackend) unitPath(name string) string {
	return filepath.Join(b.UnitDir, unitName(name))
}

// UnitFile generates the unit file content for desc
func (b *SystemdBackend) UnitFile(desc ServiceDescriptor) string {
	var unit strings.Builder

	unit.WriteString("[Unit]\n")
	fmt.Fprintf(&unit, "Description=%s service\n", desc.Name)
	unit.WriteString("Wants=network-online.target\n")
	unit.WriteString("After=network-online.target\n")
	unit.WriteString("# Managed by svcinstall\n")
	unit.WriteString("\n")

	unit.WriteString("[Service]\n")
	unit.WriteString("Type=simple\n")
	fmt.Fprintf(&unit, "ExecStart=%s\n", b.execStart(desc))
	unit.WriteString("Restart=on-failure\n")
	unit.WriteString("RestartSec=5\n")
	unit.WriteString("KillMode=mixed\n")
	unit.WriteString("TimeoutStopSec=10\n")
	unit.WriteString("StandardOutput=journal\n")
	unit.WriteString("StandardError=journal\n")
	unit.WriteString("\n")

	unit.WriteString("[Install]\n")
	unit.WriteString("WantedBy=multi-user.target\n")

	return unit.String()
}

func (b *SystemdBackend) execStart(desc ServiceDescriptor) string {
	line := QuoteArg(desc.Executable, QuoteSystemd, false)
	if len(desc.Args) > 0 {
		line += " " + desc.CommandLine(QuoteSystemd)
	}
	return line
}

// Register implements Backend
func (b *SystemdBackend) Register(ctx context.Context, desc ServiceDescriptor) error {
	path := b.unitPath(desc.Name)

	if _, err := os.Stat(path); err == nil {
		return &OpError{Op: OpRegister, Service: desc.Name, Err: ErrAlreadyExists}
	}
	state, err := b.Query(ctx, desc.Name)
	if err != nil {
		return &OpError{Op: OpRegister, Service: desc.Name, Err: err}
	}
	if state.Installed() {
		// a unit of that name is loaded from another directory
		return &OpError{Op: OpRegister, Service: desc.Name, Err: ErrAlreadyExists}
	}

	if err := renameio.WriteFile(path, []byte(b.UnitFile(desc)), FileMode); err != nil {
		return &OpError{Op: OpRegister, Service: desc.Name, Err: classifyFSError(err)}
	}

	if err := b.systemctl(ctx, "daemon-reload"); err != nil {
		_ = os.Remove(path)
		return &OpError{Op: OpRegister, Service: desc.Name, Err: err}
	}
	if err := b.systemctl(ctx, "enable", unitName(desc.Name)); err != nil {
		_ = os.Remove(path)
		_ = b.systemctl(ctx, "daemon-reload")
		return &OpError{Op: OpRegister, Service: desc.Name, Err: err}
	}
	return nil
}

// Lookup implements Backend. The descriptor is read back from ExecStart=
// of the unit in UnitDir or, failing that, of the file systemd loaded the
// unit from.
func (b *SystemdBackend) Lookup(ctx context.Context, name string) (ServiceDescriptor, error) {
	path := b.unitPath(name)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		fragment, err := b.fragmentPath(ctx, name)
		if err != nil {
			return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: err}
		}
		if fragment == "" {
			return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: ErrNotInstalled}
		}
		path = fragment
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: ErrNotInstalled}
		}
		return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: classifyFSError(err)}
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		value, ok := strings.CutPrefix(line, "ExecStart=")
		if !ok {
			continue
		}
		// prefixes such as "-" or "@" change execution semantics, not the argv
		value = strings.TrimLeft(value, "@-:+!")
		argv, err := SplitArgs(value, QuoteSystemd)
		if err != nil {
			return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: err}
		}
		if len(argv) == 0 {
			break
		}
		return ServiceDescriptor{Name: name, Executable: argv[0], Args: argv[1:]}, nil
	}
	if err := scanner.Err(); err != nil {
		return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: err}
	}
	return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: fmt.Errorf("%w: unit has no ExecStart", ErrInvalidArgument)}
}

// fragmentPath returns the file a loaded unit was read from, "" when
// systemd does not know the unit
func (b *SystemdBackend) fragmentPath(ctx context.Context, name string) (string, error) {
	res, err := b.Runner.Run(ctx, b.SystemctlPath, "show", "--no-pager",
		"-p", "LoadState", "-p", "FragmentPath", unitName(name))
	if err != nil {
		return "", classifySystemctlError(err, nil)
	}

	var loaded bool
	var fragment string
	for _, line := range strings.Split(res.Stdout, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "LoadState":
			loaded = value == "loaded"
		case "FragmentPath":
			fragment = value
		}
	}
	if !loaded {
		return "", nil
	}
	return fragment, nil
}

// Remove implements Backend
func (b *SystemdBackend) Remove(ctx context.Context, name string) error {
	path := b.unitPath(name)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		fragment, err := b.fragmentPath(ctx, name)
		if err != nil {
			return &OpError{Op: OpRemove, Service: name, Err: err}
		}
		if fragment != "" {
			// units shipped by packages are not ours to delete
			return &OpError{Op: OpRemove, Service: name,
				Err: fmt.Errorf("%w: unit is loaded from %s, outside %s", ErrInvalidArgument, fragment, b.UnitDir)}
		}
		return &OpError{Op: OpRemove, Service: name, Err: ErrNotInstalled}
	}

	// Stop and disable first; either may fail for a unit that never ran
	_ = b.systemctl(ctx, "stop", unitName(name))
	_ = b.systemctl(ctx, "disable", unitName(name))

	if err := os.Remove(path); err != nil {
		return &OpError{Op: OpRemove, Service: name, Err: classifyFSError(err)}
	}
	if err := b.systemctl(ctx, "daemon-reload"); err != nil {
		return &OpError{Op: OpRemove, Service: name, Err: err}
	}
	return nil
}

// Query implements Backend
func (b *SystemdBackend) Query(ctx context.Context, name string) (ServiceState, error) {
	res, err := b.Runner.Run(ctx, b.SystemctlPath, "show", "--no-pager",
		"-p", "LoadState", "-p", "ActiveState", "-p", "SubState", unitName(name))
	if err != nil {
		return StateUnknown, &OpError{Op: OpQuery, Service: name, Err: classifySystemctlError(err, nil)}
	}
	return parseSystemdState(res.Stdout), nil
}

// Start implements Backend. --no-block returns once the job is queued.
func (b *SystemdBackend) Start(ctx context.Context, name string) error {
	if _, err := b.Runner.Run(ctx, b.SystemctlPath, "start", "--no-block", unitName(name)); err != nil {
		return &OpError{Op: OpStart, Service: name, Err: classifySystemctlError(err, ErrStartFailed)}
	}
	return nil
}

func (b *SystemdBackend) systemctl(ctx context.Context, args ...string) error {
	if _, err := b.Runner.Run(ctx, b.SystemctlPath, args...); err != nil {
		return classifySystemctlError(err, nil)
	}
	return nil
}

// parseSystemdState maps `systemctl show` key=value output onto ServiceState
func parseSystemdState(out string) ServiceState {
	props := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		if key, value, ok := strings.Cut(line, "="); ok {
			props[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}

	switch props["LoadState"] {
	case "not-found":
		return StateNotInstalled
	case "":
		return StateUnknown
	}

	switch props["ActiveState"] {
	case "active", "reloading":
		return StateRunning
	case "activating":
		return StateStartPending
	case "deactivating":
		return StateStopPending
	case "failed":
		return StateFailed
	case "inactive":
		return StateStopped
	default:
		return StateUnknown
	}
}

// classifySystemctlError maps systemctl diagnostics onto the error taxonomy
func classifySystemctlError(err error, fallback error) error {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || errors.Is(err, ErrTimeout) {
		return err
	}

	out := strings.ToLower(cmdErr.Output)
	switch {
	case strings.Contains(out, "access denied"),
		strings.Contains(out, "permission denied"),
		strings.Contains(out, "interactive authentication required"):
		return kindError(ErrPermissionDenied, err)
	case strings.Contains(out, "not found"), strings.Contains(out, "not loaded"):
		return kindError(ErrNotInstalled, err)
	case fallback != nil:
		return kindError(fallback, err)
	default:
		return err
	}
}
