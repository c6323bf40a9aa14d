package guard

import (
	"context"
	"errors"
	"time"

	"github.com/Dosada05/hockey-madness/session"
)

var ErrWaitTimeout = errors.New("timed out waiting for session to settle")

// Session is the read side of a session.Manager as seen by the guard.
type Session interface {
	Snapshot() session.State
	Subscribe(fn func(session.State)) (unsubscribe func())
}

// WaitSettled blocks until the session is no longer loading, timeout elapses or ctx is done.
// It always returns the latest snapshot; the error tells whether the wait ended without settling.
// The subscription and the timer are released on every path.
func WaitSettled(ctx context.Context, s Session, timeout time.Duration) (session.State, error) {
	settled := make(chan struct{}, 1)
	unsubscribe := s.Subscribe(func(st session.State) {
		if st.Loading {
			return
		}
		select {
		case settled <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	// Settling may have happened before the subscription was in place.
	if st := s.Snapshot(); !st.Loading {
		return st, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-settled:
		return s.Snapshot(), nil
	case <-timer.C:
		return s.Snapshot(), ErrWaitTimeout
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}
