package svcinstall

import (
	"fmt"
	"strings"
)

// ServiceState is the state of a service as reported by the host.
// Transitions are owned by the host; the installer only reads them.
type ServiceState int

const (
	// StateUnknown indicates the host reported something unrecognised
	StateUnknown ServiceState = iota
	// StateNotInstalled indicates no record exists for the service
	StateNotInstalled
	// StateStopped indicates the service is registered and not running
	StateStopped
	// StateStartPending indicates a start was requested but not yet confirmed
	StateStartPending
	// StateRunning indicates the service is running
	StateRunning
	// StateStopPending indicates a stop is in progress
	StateStopPending
	// StateFailed indicates the service exited and the host marked it failed
	StateFailed
)

// ServiceState string constants
const (
	stateUnknownStr      = "Unknown"
	stateNotInstalledStr = "NotInstalled"
	stateStoppedStr      = "Stopped"
	stateStartPendingStr = "StartPending"
	stateRunningStr      = "Running"
	stateStopPendingStr  = "StopPending"
	stateFailedStr       = "Failed"
)

// String returns the string representation of the state
func (s ServiceState) String() string {
	switch s {
	case StateNotInstalled:
		return stateNotInstalledStr
	case StateStopped:
		return stateStoppedStr
	case StateStartPending:
		return stateStartPendingStr
	case StateRunning:
		return stateRunningStr
	case StateStopPending:
		return stateStopPendingStr
	case StateFailed:
		return stateFailedStr
	default:
		return stateUnknownStr
	}
}

// MarshalText renders the state by name in JSON and YAML reports
func (s ServiceState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name
func (s *ServiceState) UnmarshalText(text []byte) error {
	st, err := ParseServiceState(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Transitional reports whether the host is still moving the service between states
func (s ServiceState) Transitional() bool {
	return s == StateStartPending || s == StateStopPending
}

// Installed reports whether the state implies an existing service record
func (s ServiceState) Installed() bool {
	return s != StateNotInstalled && s != StateUnknown
}

// ParseServiceState parses a state name case-insensitively
func ParseServiceState(s string) (ServiceState, error) {
	for st := StateNotInstalled; st <= StateFailed; st++ {
		if strings.EqualFold(s, st.String()) {
			return st, nil
		}
	}
	if strings.EqualFold(s, stateUnknownStr) {
		return StateUnknown, nil
	}
	return StateUnknown, fmt.Errorf("%w: unknown service state %q", ErrInvalidArgument, s)
}
