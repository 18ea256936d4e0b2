package challenge

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// SessionState is the position of a [Session] in the challenge state machine.
type SessionState uint8

const (
	// StateIdle is the initial state before a channel is selected.
	StateIdle SessionState = iota
	// StateAwaitingDispatch means a deliverable channel is selected but no
	// code has been sent yet.
	StateAwaitingDispatch
	// StateAwaitingCode means the user can enter digits.
	StateAwaitingCode
	// StateVerifying means a verification call is outstanding.
	StateVerifying
	// StateLocked is the reporting state after the attempt threshold tripped;
	// submits are rejected client-side until the lock deadline passes.
	StateLocked
	// StateVerified is terminal success.
	StateVerified
	// StateAbandoned is terminal caller-driven teardown.
	StateAbandoned
)

var sessionStateNames = map[SessionState]string{
	StateIdle:             "idle",
	StateAwaitingDispatch: "awaiting_dispatch",
	StateAwaitingCode:     "awaiting_code",
	StateVerifying:        "verifying",
	StateLocked:           "locked",
	StateVerified:         "verified",
	StateAbandoned:        "abandoned",
}

// String returns the stable name of the state.
func (s SessionState) String() string {
	if name, ok := sessionStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Session is one in-progress verification challenge for a purpose and
// identity. All methods are safe for concurrent use; transitions are
// serialized per session and at most one collaborator call is in flight at a
// time. A second Submit or Dispatch while one is outstanding returns
// [ErrRequestInFlight] instead of racing.
type Session struct {
	engine   *Engine
	id       string
	purpose  Purpose
	identity string

	mu             sync.Mutex
	state          SessionState
	channel        Channel
	channelSet     bool
	digits         codeInput
	dispatchState  DispatchState
	dispatchedAt   time.Time
	attemptCount   int
	lockUntil      time.Time
	outcome        Outcome
	cooldown       *CooldownTimer
	rememberDevice bool
	assertion      *StepUpAssertion

	// seq is the stale-response guard: bumped on every outbound call and on
	// abandon, so a result that arrives after the session moved on is
	// discarded instead of applied.
	seq      uint64
	inFlight bool
}

// ID returns the session identifier used in audit events.
func (s *Session) ID() string { return s.id }

// Purpose returns the flow this session was opened for.
func (s *Session) Purpose() Purpose { return s.purpose }

// Identity returns the identity under challenge.
func (s *Session) Identity() string { return s.identity }

// State returns the current machine state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Outcome returns the session disposition.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Channel returns the currently selected channel. The second return is false
// before any selection.
func (s *Session) Channel() (Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel, s.channelSet
}

// DispatchState reports delivery progress on the current channel.
func (s *Session) DispatchState() DispatchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchState
}

// AttemptCount returns the failed-verification count for this session's
// identity and purpose. It survives channel switches.
func (s *Session) AttemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attemptCount
}

// LockedUntil returns the absolute lock deadline, zero when never locked.
func (s *Session) LockedUntil() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockUntil
}

// RemainingLockout returns how long submits stay rejected, zero when
// unlocked. Precise enough to render "try again in Ns".
func (s *Session) RemainingLockout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.limiter.RemainingLock(s.lockUntil, s.engine.now())
}

// Digits returns a copy of the entry slots, 0 for empty.
func (s *Session) Digits() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.digits.snapshot()
}

// CooldownRemaining returns the resend wait left on the current channel.
func (s *Session) CooldownRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cooldown.Remaining()
}

// CanResend reports whether a dispatch is currently permitted on the selected
// channel.
func (s *Session) CanResend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelSet && s.channel.SupportsResend() && s.cooldown.CanSend()
}

// SetRememberDevice opts this login into trusted-device marking on success.
// Ignored for every purpose except login MFA.
func (s *Session) SetRememberDevice(remember bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rememberDevice = remember && s.purpose == PurposeLoginMFA
}

// Assertion returns the step-up assertion issued on success. Only available
// on a verified step-up session.
func (s *Session) Assertion() (StepUpAssertion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assertion == nil {
		return StepUpAssertion{}, ErrAssertionInvalid
	}
	return *s.assertion, nil
}

// SelectChannel switches the session to channel. Allowed from any
// non-terminal state while no collaborator call is outstanding. Switching
// resets the digit buffer and delivery state and discards the cooldown timer,
// but preserves the attempt count and lock deadline: lockout is per identity
// and purpose, not per channel.
func (s *Session) SelectChannel(ctx context.Context, channel Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outcome != OutcomePending {
		return ErrSessionTerminal
	}
	if s.inFlight {
		return ErrRequestInFlight
	}
	if !s.engine.catalog.Offers(s.purpose, channel) {
		return ErrChannelNotAllowed
	}
	if channel == ChannelPassword && s.purpose != PurposeStepUpReauth {
		return ErrPasswordChannelUnavailable
	}

	s.applyChannelLocked(channel)

	s.engine.emitAudit(ctx, auditEventChannelSelected, true, s.identity, s.purpose, channel, s.id, nil, nil)
	s.engine.rememberChannelPreference(ctx, s.purpose, channel)
	return nil
}

// applyChannelLocked installs channel and derives the entry state. Caller
// holds s.mu.
func (s *Session) applyChannelLocked(channel Channel) {
	s.cooldown.Stop()
	s.cooldown = NewCooldownTimer(channel)
	s.channel = channel
	s.channelSet = true
	s.digits.reset()
	s.dispatchState = DispatchNotSent
	s.dispatchedAt = time.Time{}
	if channel.RequiresDispatch() {
		s.state = StateAwaitingDispatch
	} else {
		s.state = StateAwaitingCode
	}
}

// Dispatch asks the delivery collaborator to send a code on the selected
// channel and starts the resend cooldown. Valid from AwaitingDispatch, or as
// a resend from AwaitingCode once the cooldown permits. Delivery failure is
// retryable and never consumes an attempt.
func (s *Session) Dispatch(ctx context.Context) error {
	s.mu.Lock()

	if s.outcome != OutcomePending {
		s.mu.Unlock()
		return ErrSessionTerminal
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrRequestInFlight
	}
	if !s.channelSet || !s.channel.RequiresDispatch() {
		s.mu.Unlock()
		return ErrNotResendable
	}
	if s.state != StateAwaitingDispatch && s.state != StateAwaitingCode {
		s.mu.Unlock()
		return ErrCooldownActive
	}
	if !s.cooldown.CanSend() {
		s.mu.Unlock()
		s.engine.metricInc(MetricDispatchCooldownHit)
		return ErrCooldownActive
	}

	channel := s.channel
	s.seq++
	mySeq := s.seq
	s.inFlight = true
	s.mu.Unlock()

	err := s.engine.delivery.DispatchCode(ctx, channel, s.purpose, s.identity)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if s.seq != mySeq || s.outcome == OutcomeAbandoned {
		s.engine.metricInc(MetricStaleResultDropped)
		s.engine.emitAudit(ctx, auditEventStaleResultDropped, false, s.identity, s.purpose, channel, s.id, nil, nil)
		return ErrSessionTerminal
	}

	if err != nil {
		if s.dispatchState != DispatchSent {
			s.dispatchState = DispatchFailed
		}
		s.engine.metricInc(MetricDispatchFailure)
		s.engine.emitAudit(ctx, auditEventDispatchFailure, false, s.identity, s.purpose, channel, s.id, err, nil)
		return ErrDeliveryFailed
	}

	s.dispatchState = DispatchSent
	s.dispatchedAt = s.engine.now()
	s.state = StateAwaitingCode
	_ = s.cooldown.Start(int(s.engine.config.Cooldown.ResendDelay / time.Second))

	s.engine.metricInc(MetricDispatchSuccess)
	s.engine.emitAudit(ctx, auditEventDispatchSuccess, true, s.identity, s.purpose, channel, s.id, nil, nil)
	return nil
}

// EnterDigit writes a single digit into slot index.
func (s *Session) EnterDigit(index int, value byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome != OutcomePending {
		return ErrSessionTerminal
	}
	return s.digits.set(index, value)
}

// ClearDigit empties slot index; clearing an empty slot steps back one slot,
// matching backspace behavior.
func (s *Session) ClearDigit(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome != OutcomePending {
		return ErrSessionTerminal
	}
	return s.digits.clear(index)
}

// Paste fills slots from index with the digits of value, discarding trailing
// content that does not fit.
func (s *Session) Paste(index int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome != OutcomePending {
		return ErrSessionTerminal
	}
	return s.digits.paste(index, value)
}

// Submit assembles the entered code and asks the verification collaborator to
// judge it. While locked out the call is rejected client-side without a
// backend round-trip. An incorrect or expired answer consumes one attempt;
// the attempt that reaches the threshold moves the session to [StateLocked].
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()

	if err := s.precheckSubmitLocked(); err != nil {
		s.mu.Unlock()
		if err == ErrLockedOut {
			s.engine.metricInc(MetricLockedRejected)
			s.engine.emitAudit(ctx, auditEventLockedRejected, false, s.identity, s.purpose, s.channel, s.id, err, nil)
		}
		return err
	}

	code := s.digits.assembled()
	channel := s.channel
	s.seq++
	mySeq := s.seq
	s.inFlight = true
	s.state = StateVerifying
	s.mu.Unlock()

	started := s.engine.now()
	status, err := s.engine.verifier.VerifyCode(ctx, channel, s.purpose, s.identity, code)
	s.engine.metrics.Observe(MetricVerifyLatency, s.engine.now().Sub(started))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if s.seq != mySeq || s.outcome == OutcomeAbandoned {
		s.engine.metricInc(MetricStaleResultDropped)
		s.engine.emitAudit(ctx, auditEventStaleResultDropped, false, s.identity, s.purpose, channel, s.id, nil, nil)
		return ErrSessionTerminal
	}

	if err != nil {
		// Backend trouble, not a wrong code. No attempt consumed.
		s.state = StateAwaitingCode
		s.engine.emitAudit(ctx, auditEventVerifyFailure, false, s.identity, s.purpose, channel, s.id, err, func() map[string]string {
			return map[string]string{"reason": "backend_unavailable"}
		})
		return ErrVerifyUnavailable
	}

	switch status {
	case VerifyOK:
		return s.completeVerifiedLocked(ctx, channel)
	case VerifyExpired:
		s.engine.metricInc(MetricVerifyExpired)
		return s.recordFailureLocked(ctx, channel, ErrCodeExpired)
	default:
		return s.recordFailureLocked(ctx, channel, ErrIncorrectCode)
	}
}

// precheckSubmitLocked validates everything that must hold before a backend
// call is allowed. Caller holds s.mu.
func (s *Session) precheckSubmitLocked() error {
	if s.outcome != OutcomePending {
		return ErrSessionTerminal
	}
	if s.inFlight || s.state == StateVerifying {
		return ErrRequestInFlight
	}
	if !s.channelSet {
		return ErrChannelNotAllowed
	}
	if s.channel == ChannelPassword {
		return ErrPasswordChannelUnavailable
	}
	if !s.digits.complete() {
		return ErrCodeIncomplete
	}
	if s.channel.RequiresDispatch() && s.dispatchState != DispatchSent {
		return ErrCodeNotDispatched
	}
	if s.engine.limiter.IsLocked(s.lockUntil, s.engine.now()) {
		return ErrLockedOut
	}
	return nil
}

// completeVerifiedLocked finalizes a successful verification. Caller holds
// s.mu.
func (s *Session) completeVerifiedLocked(ctx context.Context, channel Channel) error {
	s.attemptCount, s.lockUntil = s.engine.limiter.RecordSuccess()
	s.outcome = OutcomeVerified
	s.state = StateVerified
	s.digits.reset()
	s.cooldown.Stop()

	s.engine.metricInc(MetricChallengeVerified)
	s.engine.emitAudit(ctx, auditEventVerifySuccess, true, s.identity, s.purpose, channel, s.id, nil, nil)

	if s.purpose == PurposeStepUpReauth {
		assertion, err := s.engine.issueStepUpAssertion(ctx, s.identity, s.id)
		if err != nil {
			return err
		}
		s.assertion = &assertion
	}
	if s.purpose == PurposeLoginMFA && s.rememberDevice {
		// Best-effort: a trust write failure must not undo the verification.
		_ = s.engine.MarkTrusted(ctx)
	}
	return nil
}

// recordFailureLocked applies the attempt-limiter policy after a rejected
// code or password. Caller holds s.mu.
func (s *Session) recordFailureLocked(ctx context.Context, channel Channel, cause error) error {
	now := s.engine.now()
	wasLocked := s.engine.limiter.IsLocked(s.lockUntil, now)
	s.attemptCount, s.lockUntil = s.engine.limiter.RecordFailure(s.attemptCount, s.lockUntil, now)
	s.digits.reset()

	s.engine.metricInc(MetricVerifyFailure)
	if s.purpose == PurposeStepUpReauth {
		s.engine.metricInc(MetricStepUpFailure)
	}

	if s.engine.limiter.IsLocked(s.lockUntil, now) {
		s.state = StateLocked
		if !wasLocked {
			s.engine.metricInc(MetricLockout)
			s.engine.emitAudit(ctx, auditEventLockout, false, s.identity, s.purpose, channel, s.id, cause, func() map[string]string {
				return map[string]string{
					"attempts": strconv.Itoa(s.attemptCount),
				}
			})
		}
		return ErrLockedOut
	}

	s.state = StateAwaitingCode
	s.engine.emitAudit(ctx, auditEventVerifyFailure, false, s.identity, s.purpose, channel, s.id, cause, func() map[string]string {
		return map[string]string{
			"attempts": strconv.Itoa(s.attemptCount),
		}
	})
	return cause
}

// Abandon tears the session down. Safe at any time, including while a
// dispatch or verification call is outstanding: the in-flight result is
// discarded when it arrives. Idempotent on an already-terminal session.
func (s *Session) Abandon(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outcome != OutcomePending {
		return
	}
	s.outcome = OutcomeAbandoned
	s.state = StateAbandoned
	s.seq++
	s.cooldown.Stop()
	s.digits.reset()

	s.engine.metricInc(MetricChallengeAbandoned)
	s.engine.emitAudit(ctx, auditEventAbandoned, true, s.identity, s.purpose, s.channel, s.id, nil, nil)
}

// TickCooldown advances the resend countdown by one second.
func (s *Session) TickCooldown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldown.Tick()
}

// RunCooldown ticks the resend countdown once per second until it finishes or
// ctx is cancelled. The ticker is released on every exit path.
func (s *Session) RunCooldown(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		s.mu.Lock()
		active := s.cooldown.Active() && s.outcome == OutcomePending
		s.mu.Unlock()
		if !active {
			return nil
		}
		select {
		case <-ticker.C:
			s.TickCooldown()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
