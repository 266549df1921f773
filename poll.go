package svcinstall

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// errPending signals the poller that the observed state is still transitional
var errPending = errors.New("state is transitional")

// Poller settles a service state by re-querying while it is transitional.
// The zero value performs exactly one query.
type Poller struct {
	// Attempts is the maximum number of queries (at least one)
	Attempts int
	// Interval is the first delay between queries
	Interval time.Duration
	// MaxInterval caps the delay between queries
	MaxInterval time.Duration
	// Timeout bounds the whole settle loop; zero means no extra bound
	Timeout time.Duration
}

// DefaultPoller returns the single-query poller
func DefaultPoller() Poller {
	return Poller{
		Attempts:    DefaultSettleAttempts,
		Interval:    DefaultSettleInterval,
		MaxInterval: DefaultSettleMaxInterval,
	}
}

// Settle calls query until it returns a non-transitional state or the
// attempts run out. It returns the last observed state; ErrTimeout is
// returned only when the deadline passed before any state was observed.
func (p Poller) Settle(ctx context.Context, query func(context.Context) (ServiceState, error)) (ServiceState, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	eb := backoff.NewExponentialBackOff()
	if p.Interval > 0 {
		eb.InitialInterval = p.Interval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}

	var (
		last     ServiceState
		observed bool
	)
	_, err := backoff.Retry(ctx, func() (ServiceState, error) {
		state, err := query(ctx)
		if err != nil {
			return state, backoff.Permanent(err)
		}
		last, observed = state, true
		if state.Transitional() {
			return state, errPending
		}
		return state, nil
	}, backoff.WithBackOff(eb), backoff.WithMaxTries(uint(attempts)))

	switch {
	case err == nil, errors.Is(err, errPending):
		return last, nil
	case observed && ctx.Err() != nil:
		return last, nil
	case !observed && ctx.Err() != nil:
		return StateUnknown, ErrTimeout
	default:
		return last, err
	}
}
