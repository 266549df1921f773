package svcinstall

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// InstallationResult records what one install run observed
type InstallationResult struct {
	// Descriptor is the descriptor submitted to the backend
	Descriptor ServiceDescriptor `json:"descriptor" yaml:"descriptor"`
	// Backend names the backend that handled the request
	Backend string `json:"backend" yaml:"backend"`
	// PriorState is the state after registration and before the start request
	PriorState *ServiceState `json:"prior_state,omitempty" yaml:"prior_state,omitempty"`
	// FinalState is the last state observed
	FinalState ServiceState `json:"final_state" yaml:"final_state"`
	// ErrorKind classifies the failure, KindNone on success
	ErrorKind ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	// Error is the failure message, if any
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// fail records err in the result and returns it
func (r *InstallationResult) fail(err error) error {
	r.ErrorKind = KindOf(err)
	r.Error = err.Error()
	return err
}

// OutputFormat selects how results are rendered
type OutputFormat int

const (
	// FormatText renders human-readable lines
	FormatText OutputFormat = iota
	// FormatJSON renders indented JSON
	FormatJSON
	// FormatYAML renders YAML
	FormatYAML
)

// OutputFormat string constants
const (
	formatTextStr = "text"
	formatJSONStr = "json"
	formatYAMLStr = "yaml"
)

// String returns the string representation of the format
func (f OutputFormat) String() string {
	switch f {
	case FormatJSON:
		return formatJSONStr
	case FormatYAML:
		return formatYAMLStr
	default:
		return formatTextStr
	}
}

// ParseOutputFormat parses a format name; "" selects FormatText
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", formatTextStr:
		return FormatText, nil
	case formatJSONStr:
		return FormatJSON, nil
	case formatYAMLStr, "yml":
		return FormatYAML, nil
	default:
		return FormatText, fmt.Errorf("%w: unknown output format %q", ErrInvalidArgument, s)
	}
}

// Render writes the result to w in the given format
func (r InstallationResult) Render(w io.Writer, format OutputFormat) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return r.renderText(w)
	}
}

func (r InstallationResult) renderText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Service:     %s\n", r.Descriptor.Name)
	fmt.Fprintf(&b, "Backend:     %s\n", r.Backend)
	fmt.Fprintf(&b, "Executable:  %s\n", r.Descriptor.Executable)
	if len(r.Descriptor.Args) > 0 {
		fmt.Fprintf(&b, "Arguments:   %s\n", JoinArgs(r.Descriptor.Args, HostQuoteStyle()))
	}
	if r.PriorState != nil {
		fmt.Fprintf(&b, "Prior state: %s\n", *r.PriorState)
	}
	fmt.Fprintf(&b, "Final state: %s\n", r.FinalState)
	if r.ErrorKind != KindNone {
		fmt.Fprintf(&b, "Error:       %s: %s\n", r.ErrorKind, r.Error)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
