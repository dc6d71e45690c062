// Package lockout decides whether a login attempt may proceed and how a
// login outcome changes an account's auth state. It performs no I/O.
package lockout

import (
	"math"
	"time"

	"gatekeeper/internal/domain/entity"
)

const (
	DefaultThreshold = 5
	DefaultDuration  = 15 * time.Minute
)

// Policy locks an account for Duration once Threshold consecutive failures occur.
type Policy struct {
	Threshold int
	Duration  time.Duration
}

// NewPolicy returns a policy, falling back to the defaults for non-positive values.
func NewPolicy(threshold int, duration time.Duration) Policy {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if duration <= 0 {
		duration = DefaultDuration
	}

	return Policy{Threshold: threshold, Duration: duration}
}

// Decision is the outcome of Admit.
type Decision struct {
	Locked     bool
	RetryAfter time.Duration // Zero unless Locked.
}

// RetryAfterMinutes is RetryAfter rounded up to whole minutes.
func (d Decision) RetryAfterMinutes() int {
	return int(math.Ceil(d.RetryAfter.Minutes()))
}

// Admit reports whether an attempt at now is allowed. The lock expires exactly
// at LockedUntil: an attempt at that instant is allowed.
func (p Policy) Admit(state entity.AuthState, now time.Time) Decision {
	if state.LockedUntil == nil || !state.LockedUntil.After(now) {
		return Decision{}
	}

	return Decision{Locked: true, RetryAfter: state.LockedUntil.Sub(now)}
}

// OnFailure returns the state after one more failed attempt at now.
// Callers must only apply it to an admitted attempt.
func (p Policy) OnFailure(state entity.AuthState, now time.Time) entity.AuthState {
	next := entity.AuthState{FailedAttempts: state.FailedAttempts + 1}
	if next.FailedAttempts >= p.Threshold {
		lockedUntil := now.Add(p.Duration)
		next.LockedUntil = &lockedUntil
	}

	return next
}

// OnSuccess returns the state after a successful login.
func (p Policy) OnSuccess() entity.AuthState {
	return entity.AuthState{}
}

// AttemptsRemaining is how many further failures the state tolerates before locking.
func (p Policy) AttemptsRemaining(state entity.AuthState) int {
	return max(p.Threshold-state.FailedAttempts, 0)
}
