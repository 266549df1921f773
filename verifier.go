package svcinstall

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Verifier queries and starts registered services
type Verifier struct {
	// Backend is the service-control subsystem
	Backend Backend
	// Poller settles the state reported after a start request
	Poller Poller
	// StartTimeout bounds the start-request/state-query pair
	StartTimeout time.Duration
	// Log receives progress entries
	Log logrus.FieldLogger
}

// NewVerifier creates a Verifier with a single-query poller
func NewVerifier(backend Backend) *Verifier {
	return &Verifier{
		Backend:      backend,
		Poller:       DefaultPoller(),
		StartTimeout: DefaultStartTimeout,
		Log:          DiscardLogger(),
	}
}

// QueryState returns the current state of name. A missing record is
// StateNotInstalled, not an error.
func (v *Verifier) QueryState(ctx context.Context, name string) (ServiceState, error) {
	state, err := v.Backend.Query(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotInstalled) {
			return StateNotInstalled, nil
		}
		return StateUnknown, err
	}
	return state, nil
}

// StartService requests a start transition for name without waiting for
// Running. A host refusal is reported as ErrStartFailed, a start that
// outlives the context deadline as ErrTimeout.
func (v *Verifier) StartService(ctx context.Context, name string) error {
	state, err := v.QueryState(ctx, name)
	if err != nil {
		return err
	}
	if state == StateNotInstalled {
		return &OpError{Op: OpStart, Service: name, Err: ErrNotInstalled}
	}

	loggerOrDiscard(v.Log).WithFields(logrus.Fields{
		fieldService: name,
		fieldBackend: v.Backend.Name(),
		fieldState:   state.String(),
		fieldOp:      OpStart.String(),
	}).Debug("requesting start")

	if err := v.Backend.Start(ctx, name); err != nil {
		switch KindOf(err) {
		case KindNotInstalled, KindPermissionDenied, KindStartFailed, KindTimeout:
			return err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return &OpError{Op: OpStart, Service: name, Err: kindError(ErrTimeout, err)}
		}
		return &OpError{Op: OpStart, Service: name, Err: kindError(ErrStartFailed, err)}
	}
	return nil
}

// ReportState settles the state of name through the Poller
func (v *Verifier) ReportState(ctx context.Context, name string) (ServiceState, error) {
	return v.Poller.Settle(ctx, func(ctx context.Context) (ServiceState, error) {
		return v.QueryState(ctx, name)
	})
}

// Activate starts name and reports the settled state. A service that
// settles in StateFailed yields ErrStartFailed alongside the state, one
// whose record disappeared yields ErrNotInstalled.
func (v *Verifier) Activate(ctx context.Context, name string) (ServiceState, error) {
	if v.StartTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.StartTimeout)
		defer cancel()
	}

	if err := v.StartService(ctx, name); err != nil {
		return StateUnknown, err
	}
	state, err := v.ReportState(ctx, name)
	if err != nil {
		return state, err
	}

	loggerOrDiscard(v.Log).WithFields(logrus.Fields{
		fieldService: name,
		fieldBackend: v.Backend.Name(),
		fieldState:   state.String(),
	}).Info("service state settled")

	switch state {
	case StateNotInstalled:
		// the record vanished after the start request
		return state, &OpError{Op: OpStart, Service: name, Err: ErrNotInstalled}
	case StateFailed:
		return state, &OpError{Op: OpStart, Service: name, Err: fmt.Errorf("%w: service entered %s state", ErrStartFailed, state)}
	}
	return state, nil
}
