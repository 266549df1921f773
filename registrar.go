package svcinstall

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// ExistingPolicy decides what Register does when the name is already taken
type ExistingPolicy int

const (
	// PolicyFail leaves the existing record untouched and fails with ErrAlreadyExists
	PolicyFail ExistingPolicy = iota
	// PolicyReplace removes the existing record and registers the new descriptor
	PolicyReplace
)

// ExistingPolicy string constants
const (
	policyFailStr    = "fail"
	policyReplaceStr = "replace"
)

// String returns the string representation of the policy
func (p ExistingPolicy) String() string {
	if p == PolicyReplace {
		return policyReplaceStr
	}
	return policyFailStr
}

// ParseExistingPolicy parses a policy name; "" selects PolicyFail
func ParseExistingPolicy(s string) (ExistingPolicy, error) {
	switch strings.ToLower(s) {
	case "", policyFailStr:
		return PolicyFail, nil
	case policyReplaceStr:
		return PolicyReplace, nil
	default:
		return PolicyFail, fmt.Errorf("%w: unknown policy %q", ErrInvalidArgument, s)
	}
}

// Registrar submits service descriptors to a Backend
type Registrar struct {
	// Backend receives the registration
	Backend Backend
	// Policy decides what happens to an existing record
	Policy ExistingPolicy
	// Log receives progress entries
	Log logrus.FieldLogger
}

// NewRegistrar creates a Registrar with the fail-on-existing policy
func NewRegistrar(backend Backend) *Registrar {
	return &Registrar{Backend: backend, Policy: PolicyFail, Log: DiscardLogger()}
}

// WithPolicy sets the existing-record policy
func (r *Registrar) WithPolicy(p ExistingPolicy) *Registrar {
	r.Policy = p
	return r
}

// WithLogger sets the logger
func (r *Registrar) WithLogger(log logrus.FieldLogger) *Registrar {
	r.Log = log
	return r
}

// Register validates desc and creates its persistent record. An existing
// record under the same name is never overwritten silently.
func (r *Registrar) Register(ctx context.Context, desc ServiceDescriptor) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	log := loggerOrDiscard(r.Log).WithFields(logrus.Fields{
		fieldService: desc.Name,
		fieldBackend: r.Backend.Name(),
		fieldOp:      OpRegister.String(),
	})

	existing, err := r.Backend.Lookup(ctx, desc.Name)
	switch {
	case err == nil:
		if r.Policy != PolicyReplace {
			log.WithField("executable", existing.Executable).Debug("service already registered")
			return &OpError{Op: OpRegister, Service: desc.Name, Err: ErrAlreadyExists}
		}
		log.WithField("executable", existing.Executable).Info("replacing existing service")
		if err := r.Backend.Remove(ctx, desc.Name); err != nil && !errors.Is(err, ErrNotInstalled) {
			return err
		}
	case errors.Is(err, ErrNotInstalled):
	default:
		// a record that cannot be read back still blocks the name
		if r.Policy != PolicyReplace {
			if state, qerr := r.Backend.Query(ctx, desc.Name); qerr == nil && state.Installed() {
				log.WithError(err).Debug("service already registered, record unreadable")
				return &OpError{Op: OpRegister, Service: desc.Name, Err: ErrAlreadyExists}
			}
			return err
		}
		log.WithError(err).Warn("existing service unreadable, removing")
		if err := r.Backend.Remove(ctx, desc.Name); err != nil && !errors.Is(err, ErrNotInstalled) {
			return err
		}
	}

	if err := r.Backend.Register(ctx, desc); err != nil {
		return err
	}
	log.WithField("executable", desc.Executable).Info("service registered")
	return nil
}
