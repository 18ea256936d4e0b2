package challenge

import "time"

// AttemptLimiter is the shared lockout policy: a pure function over a
// session's attempt count and lock deadline. It holds no state of its own, so
// evaluating it never schedules anything and is safe at any time.
type AttemptLimiter struct {
	Threshold    int
	LockDuration time.Duration
}

// RecordFailure returns the attempt count and lock deadline after one more
// rejected verification. The count stops climbing at the threshold — once the
// lock is set it alone gates retries, and repeated failures while locked
// neither extend the deadline nor need tracking. A lock deadline, once set,
// is never moved earlier.
func (l AttemptLimiter) RecordFailure(attempts int, lockUntil time.Time, now time.Time) (int, time.Time) {
	if attempts < l.Threshold {
		attempts++
	}
	if attempts >= l.Threshold {
		deadline := now.Add(l.LockDuration)
		if deadline.After(lockUntil) {
			lockUntil = deadline
		}
	}
	return attempts, lockUntil
}

// RecordSuccess resets the attempt state unconditionally.
func (l AttemptLimiter) RecordSuccess() (int, time.Time) {
	return 0, time.Time{}
}

// IsLocked compares the absolute lock deadline against now. Absolute
// timestamps keep a backward clock skew from extending the lock the way a
// recomputed remaining-seconds counter would.
func (l AttemptLimiter) IsLocked(lockUntil time.Time, now time.Time) bool {
	return !lockUntil.IsZero() && now.Before(lockUntil)
}

// RemainingLock returns how much of the lock window is left, zero when
// unlocked. Used to render "try again in Ns" precisely.
func (l AttemptLimiter) RemainingLock(lockUntil time.Time, now time.Time) time.Duration {
	if !l.IsLocked(lockUntil, now) {
		return 0
	}
	return lockUntil.Sub(now)
}
