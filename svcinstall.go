package svcinstall

import (
	"time"
)

// Defaults shared by the installer and its backends
const (
	// DefaultStartTimeout bounds the start-request/state-query pair
	DefaultStartTimeout = 30 * time.Second

	// DefaultSettleAttempts is the number of state queries after a start request
	DefaultSettleAttempts = 1

	// DefaultSettleInterval is the first delay between settle queries
	DefaultSettleInterval = 250 * time.Millisecond

	// DefaultSettleMaxInterval caps the delay between settle queries
	DefaultSettleMaxInterval = 2 * time.Second

	// DefaultBackoffMin is the minimum backoff duration for control retries
	DefaultBackoffMin = 10 * time.Millisecond

	// DefaultBackoffMax is the maximum backoff duration for control retries
	DefaultBackoffMax = 1 * time.Second

	// DefaultMaxAttempts is the default maximum number of control write attempts
	DefaultMaxAttempts = 10

	// DefaultCommandTimeout bounds a single service-manager invocation
	DefaultCommandTimeout = 10 * time.Second

	// ScriptPlaceholder is replaced by the absolute script path in argument templates
	ScriptPlaceholder = "{script}"

	// MaxServiceNameLength matches the Windows SCM limit, the strictest host
	MaxServiceNameLength = 256
)

// Binary names with defaults that can be overridden
const (
	// DefaultWrapperCommand is the service wrapper used by the wrapper backend
	DefaultWrapperCommand = "nssm"

	// DefaultSystemctlCommand is the systemd control binary
	DefaultSystemctlCommand = "systemctl"

	// DefaultSudoCommand is used to elevate backend commands
	DefaultSudoCommand = "sudo"

	// DefaultInterpreter runs the wrapped automation script
	DefaultInterpreter = "python"

	// DefaultServiceName is the service the installer registers when unconfigured
	DefaultServiceName = "AutoPkg"
)

// File modes
const (
	// DirMode is the default mode for created directories
	DirMode = 0o755

	// FileMode is the default mode for created files
	FileMode = 0o644

	// ExecMode is the default mode for executable scripts
	ExecMode = 0o755
)

// Operation represents an installer step
type Operation int

const (
	// OpUnknown represents an unknown operation
	OpUnknown Operation = iota
	// OpResolve locates an executable on the search path
	OpResolve
	// OpValidate checks a service descriptor
	OpValidate
	// OpRegister creates a service record
	OpRegister
	// OpRemove deletes a service record
	OpRemove
	// OpLookup reads a service record back
	OpLookup
	// OpQuery reads a service state
	OpQuery
	// OpStart requests a start transition
	OpStart
)

// Operation string constants
const (
	opUnknownStr  = "unknown"
	opResolveStr  = "resolve"
	opValidateStr = "validate"
	opRegisterStr = "install"
	opRemoveStr   = "remove"
	opLookupStr   = "lookup"
	opQueryStr    = "status"
	opStartStr    = "start"
)

// String returns the string representation of an Operation
func (op Operation) String() string {
	switch op {
	case OpResolve:
		return opResolveStr
	case OpValidate:
		return opValidateStr
	case OpRegister:
		return opRegisterStr
	case OpRemove:
		return opRemoveStr
	case OpLookup:
		return opLookupStr
	case OpQuery:
		return opQueryStr
	case OpStart:
		return opStartStr
	default:
		return opUnknownStr
	}
}
