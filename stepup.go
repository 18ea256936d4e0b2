package challenge

import "context"

// NewStepUp opens a step-up re-authentication session for identity. It is a
// regular [Session] with purpose [PurposeStepUpReauth]: the Password
// pseudo-channel is preselected alongside the usual MFA channels, and a
// successful completion yields a short-lived [StepUpAssertion] instead of
// touching any long-lived session or trust state. Failure semantics — attempt
// counting, lockout, reporting — are identical to every other purpose.
func (e *Engine) NewStepUp(ctx context.Context, identity string) (*Session, error) {
	if e == nil || e.passwords == nil || e.assertions == nil {
		return nil, ErrEngineNotReady
	}
	return e.NewSession(ctx, PurposeStepUpReauth, identity)
}

// SubmitPassword verifies the account password through the password
// collaborator. Only valid on a step-up session with the Password channel
// selected. An incorrect password consumes an attempt under the same limiter
// policy as code failures.
func (s *Session) SubmitPassword(ctx context.Context, password string) error {
	s.mu.Lock()

	if s.outcome != OutcomePending {
		s.mu.Unlock()
		return ErrSessionTerminal
	}
	if s.inFlight || s.state == StateVerifying {
		s.mu.Unlock()
		return ErrRequestInFlight
	}
	if s.purpose != PurposeStepUpReauth || !s.channelSet || s.channel != ChannelPassword {
		s.mu.Unlock()
		return ErrPasswordChannelUnavailable
	}
	if s.engine.passwords == nil {
		s.mu.Unlock()
		return ErrEngineNotReady
	}
	if s.engine.limiter.IsLocked(s.lockUntil, s.engine.now()) {
		s.mu.Unlock()
		s.engine.metricInc(MetricLockedRejected)
		s.engine.emitAudit(ctx, auditEventLockedRejected, false, s.identity, s.purpose, s.channel, s.id, ErrLockedOut, nil)
		return ErrLockedOut
	}

	s.seq++
	mySeq := s.seq
	s.inFlight = true
	s.state = StateVerifying
	s.mu.Unlock()

	ok, err := s.engine.passwords.VerifyPassword(ctx, s.identity, password)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if s.seq != mySeq || s.outcome == OutcomeAbandoned {
		s.engine.metricInc(MetricStaleResultDropped)
		s.engine.emitAudit(ctx, auditEventStaleResultDropped, false, s.identity, s.purpose, ChannelPassword, s.id, nil, nil)
		return ErrSessionTerminal
	}

	if err != nil {
		s.state = StateAwaitingCode
		s.engine.emitAudit(ctx, auditEventStepUpFailure, false, s.identity, s.purpose, ChannelPassword, s.id, err, func() map[string]string {
			return map[string]string{"reason": "backend_unavailable"}
		})
		return ErrVerifyUnavailable
	}
	if !ok {
		return s.recordFailureLocked(ctx, ChannelPassword, ErrPasswordIncorrect)
	}

	return s.completeVerifiedLocked(ctx, ChannelPassword)
}

// issueStepUpAssertion signs the proof of a completed step-up.
func (e *Engine) issueStepUpAssertion(ctx context.Context, identity, sessionID string) (StepUpAssertion, error) {
	if e == nil || e.assertions == nil {
		return StepUpAssertion{}, ErrEngineNotReady
	}

	now := e.now()
	token, expiresAt, err := e.assertions.Issue(identity, sessionID, now)
	if err != nil {
		return StepUpAssertion{}, err
	}

	e.metricInc(MetricStepUpIssued)
	e.emitAudit(ctx, auditEventStepUpIssued, true, identity, PurposeStepUpReauth, ChannelPassword, sessionID, nil, nil)
	return StepUpAssertion{
		Token:     token,
		Identity:  identity,
		ExpiresAt: expiresAt,
	}, nil
}

// VerifyStepUpAssertion checks that token is an unexpired assertion bound to
// identity. Action guards call this immediately before executing a sensitive
// operation.
func (e *Engine) VerifyStepUpAssertion(token, identity string) error {
	if e == nil || e.assertions == nil {
		return ErrEngineNotReady
	}
	if err := e.assertions.Verify(token, identity, e.now()); err != nil {
		return ErrAssertionInvalid
	}
	return nil
}
