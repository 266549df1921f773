package svcinstall

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ServiceDescriptor describes how a background service is launched.
// It is never mutated after submission; changing a service means removing
// and registering it again.
type ServiceDescriptor struct {
	// Name is the unique key of the service in the host registry
	Name string `json:"name" yaml:"name"`
	// Executable is the absolute path of the program the host runs
	Executable string `json:"executable" yaml:"executable"`
	// Args is the ordered argument vector passed to Executable
	Args []string `json:"args" yaml:"args"`
}

// CommandLine joins the argument vector with the given quoting convention
func (d ServiceDescriptor) CommandLine(style QuoteStyle) string {
	return JoinArgs(d.Args, style)
}

// Argv returns the executable followed by its arguments
func (d ServiceDescriptor) Argv() []string {
	argv := make([]string, 0, len(d.Args)+1)
	argv = append(argv, d.Executable)
	return append(argv, d.Args...)
}

// Clone creates a deep copy of the descriptor
func (d ServiceDescriptor) Clone() ServiceDescriptor {
	clone := d
	if d.Args != nil {
		clone.Args = append([]string(nil), d.Args...)
	}
	return clone
}

// Equal reports whether two descriptors launch the same process
func (d ServiceDescriptor) Equal(o ServiceDescriptor) bool {
	if d.Name != o.Name || d.Executable != o.Executable || len(d.Args) != len(o.Args) {
		return false
	}
	for i := range d.Args {
		if d.Args[i] != o.Args[i] {
			return false
		}
	}
	return true
}

// Validate checks the descriptor against the registration invariants.
// The executable must exist and be executable at the time of the call.
func (d ServiceDescriptor) Validate() error {
	if err := ValidateServiceName(d.Name); err != nil {
		return err
	}

	if d.Executable == "" {
		return d.invalid("executable not specified")
	}
	if !filepath.IsAbs(d.Executable) {
		return d.invalid(fmt.Sprintf("executable %q is not an absolute path", d.Executable))
	}
	info, err := os.Stat(d.Executable)
	if err != nil {
		if os.IsNotExist(err) {
			return d.invalid(fmt.Sprintf("executable %q does not exist", d.Executable))
		}
		return &OpError{Op: OpValidate, Service: d.Name, Err: kindError(ErrPermissionDenied, err)}
	}
	if !info.Mode().IsRegular() {
		return d.invalid(fmt.Sprintf("executable %q is not a regular file", d.Executable))
	}
	if err := checkExecutable(d.Executable, info); err != nil {
		return d.invalid(fmt.Sprintf("executable %q: %v", d.Executable, err))
	}

	for i, arg := range d.Args {
		if strings.ContainsRune(arg, 0) {
			return d.invalid(fmt.Sprintf("argument %d contains a NUL byte", i))
		}
	}
	return nil
}

func (d ServiceDescriptor) invalid(msg string) error {
	return &OpError{Op: OpValidate, Service: d.Name, Err: fmt.Errorf("%w: %s", ErrInvalidArgument, msg)}
}

// ValidateServiceName checks that name is usable as a registry key on every backend
func ValidateServiceName(name string) error {
	var reason string
	switch {
	case name == "":
		reason = "service name is empty"
	case len(name) > MaxServiceNameLength:
		reason = fmt.Sprintf("service name exceeds %d bytes", MaxServiceNameLength)
	case strings.HasPrefix(name, ".") || strings.HasPrefix(name, "-"):
		reason = "service name must not start with '.' or '-'"
	case strings.ContainsAny(name, `/\`):
		reason = "service name must not contain path separators"
	default:
		for _, r := range name {
			if unicode.IsSpace(r) || unicode.IsControl(r) {
				reason = "service name must not contain whitespace or control characters"
				break
			}
		}
	}
	if reason == "" {
		return nil
	}
	return &OpError{Op: OpValidate, Service: name, Err: fmt.Errorf("%w: %s", ErrInvalidArgument, reason)}
}
