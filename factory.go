package svcinstall

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// BackendType represents the service-control subsystem an installer drives
type BackendType int

const (
	// BackendUnknown represents an unknown backend
	BackendUnknown BackendType = iota
	// BackendWrapper drives a service wrapper executable such as NSSM
	BackendWrapper
	// BackendSystemd writes and enables systemd units
	BackendSystemd
	// BackendRunit creates runit service directories
	BackendRunit
	// BackendSCM talks to the Windows Service Control Manager directly
	BackendSCM
	// BackendMemory is the in-process registry used for dry runs
	BackendMemory
)

// BackendType string constants
const (
	backendUnknownStr = "unknown"
	backendWrapperStr = "wrapper"
	backendSystemdStr = "systemd"
	backendRunitStr   = "runit"
	backendSCMStr     = "scm"
	backendMemoryStr  = "memory"
)

// String returns the string representation of BackendType
func (bt BackendType) String() string {
	switch bt {
	case BackendWrapper:
		return backendWrapperStr
	case BackendSystemd:
		return backendSystemdStr
	case BackendRunit:
		return backendRunitStr
	case BackendSCM:
		return backendSCMStr
	case BackendMemory:
		return backendMemoryStr
	case BackendUnknown:
		fallthrough
	default:
		return backendUnknownStr
	}
}

// ParseBackendType parses a backend name. An empty name selects the host default.
func ParseBackendType(s string) (BackendType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultBackendType(), nil
	case backendWrapperStr, "nssm":
		return BackendWrapper, nil
	case backendSystemdStr:
		return BackendSystemd, nil
	case backendRunitStr:
		return BackendRunit, nil
	case backendSCMStr:
		return BackendSCM, nil
	case backendMemoryStr:
		return BackendMemory, nil
	default:
		return BackendUnknown, fmt.Errorf("%w: unsupported backend %q", ErrInvalidArgument, s)
	}
}

// DefaultBackendType returns the backend used when none is configured:
// the service wrapper on Windows, systemd elsewhere.
func DefaultBackendType() BackendType {
	if runtime.GOOS == "windows" {
		return BackendWrapper
	}
	return BackendSystemd
}

// NeedsManager reports whether the backend drives an external manager
// executable that has to be resolved on the search path first
func (bt BackendType) NeedsManager() bool {
	return bt == BackendWrapper || bt == BackendSystemd
}

// DefaultManagerCommand returns the manager executable name for bt, or ""
// when the backend does not use one
func DefaultManagerCommand(bt BackendType) string {
	switch bt {
	case BackendWrapper:
		return DefaultWrapperCommand
	case BackendSystemd:
		return DefaultSystemctlCommand
	default:
		return ""
	}
}

// BackendConfig contains the settings needed to construct any backend
type BackendConfig struct {
	// Type selects the backend
	Type BackendType
	// ManagerPath is the resolved manager executable (wrapper, systemd)
	ManagerPath string
	// UseSudo elevates manager commands through SudoCommand
	UseSudo bool
	// SudoCommand is the elevation command (default: "sudo")
	SudoCommand string
	// CommandTimeout bounds one manager invocation
	CommandTimeout time.Duration
	// QuoteStyle names the wrapper's argument quoting ("" for the host default)
	QuoteStyle string
	// UnitDir is the systemd unit directory
	UnitDir string
	// ServiceDir is the runit scan directory
	ServiceDir string
	// Runner overrides command execution, mainly for tests
	Runner Runner
}

func (cfg BackendConfig) runner() Runner {
	if cfg.Runner != nil {
		return cfg.Runner
	}
	r := &ExecRunner{
		UseSudo:     cfg.UseSudo,
		SudoCommand: cfg.SudoCommand,
		Timeout:     cfg.CommandTimeout,
	}
	if r.SudoCommand == "" {
		r.SudoCommand = DefaultSudoCommand
	}
	if r.Timeout <= 0 {
		r.Timeout = DefaultCommandTimeout
	}
	return r
}

// NewBackend creates the Backend described by cfg
func NewBackend(cfg BackendConfig) (Backend, error) {
	if cfg.Type.NeedsManager() && cfg.ManagerPath == "" {
		return nil, fmt.Errorf("%w: %s backend needs a manager path", ErrInvalidArgument, cfg.Type)
	}

	switch cfg.Type {
	case BackendWrapper:
		style, err := ParseQuoteStyle(cfg.QuoteStyle)
		if err != nil {
			return nil, err
		}
		b := NewWrapperBackend(cfg.ManagerPath, cfg.runner())
		b.Style = style
		return b, nil
	case BackendSystemd:
		b := NewSystemdBackend(cfg.ManagerPath, cfg.runner())
		if cfg.UnitDir != "" {
			b.WithUnitDir(cfg.UnitDir)
		}
		return b, nil
	case BackendRunit:
		return NewRunitBackend(cfg.ServiceDir), nil
	case BackendSCM:
		return NewSCMBackend(), nil
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported backend %v", ErrInvalidArgument, cfg.Type)
	}
}
