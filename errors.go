package svcinstall

import (
	"errors"
	"fmt"
	"io/fs"
)

// Common errors returned by installer operations
var (
	// ErrNotFound indicates a required executable is absent from the search path
	ErrNotFound = errors.New("svcinstall: executable not found")

	// ErrAlreadyExists indicates the service name is already registered
	ErrAlreadyExists = errors.New("svcinstall: service already exists")

	// ErrPermissionDenied indicates the caller may not modify the service registry
	ErrPermissionDenied = errors.New("svcinstall: permission denied")

	// ErrInvalidArgument indicates a malformed name, executable path or argument
	ErrInvalidArgument = errors.New("svcinstall: invalid argument")

	// ErrStartFailed indicates a registered service refused to start
	ErrStartFailed = errors.New("svcinstall: start failed")

	// ErrNotInstalled indicates the service has no record in the registry
	ErrNotInstalled = errors.New("svcinstall: service not installed")

	// ErrTimeout indicates an operation exceeded its deadline
	ErrTimeout = errors.New("svcinstall: timeout")
)

// ErrorKind classifies installer failures for operators
type ErrorKind int

const (
	// KindNone means no error occurred
	KindNone ErrorKind = iota
	// KindNotFound maps to ErrNotFound
	KindNotFound
	// KindAlreadyExists maps to ErrAlreadyExists
	KindAlreadyExists
	// KindPermissionDenied maps to ErrPermissionDenied
	KindPermissionDenied
	// KindInvalidArgument maps to ErrInvalidArgument
	KindInvalidArgument
	// KindStartFailed maps to ErrStartFailed
	KindStartFailed
	// KindNotInstalled maps to ErrNotInstalled
	KindNotInstalled
	// KindTimeout maps to ErrTimeout
	KindTimeout
	// KindUnknown is any error outside the taxonomy
	KindUnknown
)

// ErrorKind string constants
const (
	kindNoneStr             = "none"
	kindNotFoundStr         = "NotFound"
	kindAlreadyExistsStr    = "AlreadyExists"
	kindPermissionDeniedStr = "PermissionDenied"
	kindInvalidArgumentStr  = "InvalidArgument"
	kindStartFailedStr      = "StartFailed"
	kindNotInstalledStr     = "NotInstalled"
	kindTimeoutStr          = "Timeout"
	kindUnknownStr          = "Unknown"
)

// String returns the string representation of the kind
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return kindNoneStr
	case KindNotFound:
		return kindNotFoundStr
	case KindAlreadyExists:
		return kindAlreadyExistsStr
	case KindPermissionDenied:
		return kindPermissionDeniedStr
	case KindInvalidArgument:
		return kindInvalidArgumentStr
	case KindStartFailed:
		return kindStartFailedStr
	case KindNotInstalled:
		return kindNotInstalledStr
	case KindTimeout:
		return kindTimeoutStr
	default:
		return kindUnknownStr
	}
}

// MarshalText renders the kind by name in JSON and YAML reports
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Hint returns operator guidance for the kind, or "" when there is none
func (k ErrorKind) Hint() string {
	switch k {
	case KindNotFound:
		return "install the missing executable or add its directory to the search path"
	case KindAlreadyExists:
		return "remove the existing service first or re-run with --replace"
	case KindPermissionDenied:
		return "re-run with administrator (root) privileges"
	case KindInvalidArgument:
		return "check the service name, interpreter and script paths"
	case KindStartFailed:
		return "the service is installed; inspect its logs before starting it again"
	case KindNotInstalled:
		return "the service was never registered; run install first"
	case KindTimeout:
		return "the service manager did not answer in time; query the status again later"
	default:
		return ""
	}
}

// KindOf maps an error onto the installer taxonomy
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrPermissionDenied), errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrStartFailed):
		return KindStartFailed
	case errors.Is(err, ErrNotInstalled):
		return KindNotInstalled
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	default:
		return KindUnknown
	}
}

// OpError represents an error from an installer operation
type OpError struct {
	// Op is the operation that failed
	Op Operation
	// Service is the service name or executable involved
	Service string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message
func (e *OpError) Error() string {
	return fmt.Sprintf("svcinstall %s %q: %v", e.Op.String(), e.Service, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *OpError) Unwrap() error {
	return e.Err
}

// CommandError is returned when a host command exits unsuccessfully
type CommandError struct {
	// Path is the executable that was run
	Path string
	// Args are the arguments passed to it
	Args []string
	// ExitCode is the native exit code, or -1 if the process never ran
	ExitCode int
	// Output is the combined diagnostic output of the command
	Output string
	// Err is the underlying exec error
	Err error
}

// Error returns a formatted error message
func (e *CommandError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Path, e.ExitCode, e.Output)
	}
	return fmt.Sprintf("%s exited with code %d: %v", e.Path, e.ExitCode, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code an operator should see for err.
// The host's native exit code is propagated when a command failed with one.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode
	}
	return 1
}

// kindError attaches a taxonomy sentinel to a cause, keeping both matchable
func kindError(kind, cause error) error {
	if cause == nil || errors.Is(cause, kind) {
		return cause
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// MultiError aggregates errors from operations over several services
type MultiError struct {
	// Errors contains all accumulated errors
	Errors []error
}

// Error returns a summary of the accumulated errors
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred", len(m.Errors))
}

// Add appends an error to the collection if it's not nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// Unwrap exposes the accumulated errors to errors.Is and errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Err returns nil if no errors occurred, otherwise returns the MultiError itself
func (m *MultiError) Err() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// classifyFSError maps filesystem errors onto the error taxonomy
func classifyFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return kindError(ErrPermissionDenied, err)
	case errors.Is(err, fs.ErrExist):
		return kindError(ErrAlreadyExists, err)
	default:
		return err
	}
}
