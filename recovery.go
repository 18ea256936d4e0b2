package challenge

import (
	"context"
	"strconv"
)

// RedeemRecoveryCode bypasses the channel challenge with a single-use
// recovery code. Available from AwaitingCode and Locked: recovery is a
// separate secret channel with its own one-time-use invariant, so it is
// exempt from the attempt-limiter lockout, and a failed redemption never
// touches the attempt count. Local throttling of redemption attempts is
// deliberately absent; the backend is the authority there.
func (s *Session) RedeemRecoveryCode(ctx context.Context, code string) error {
	s.mu.Lock()

	if s.outcome != OutcomePending {
		s.mu.Unlock()
		return ErrSessionTerminal
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrRequestInFlight
	}
	if s.state != StateAwaitingCode && s.state != StateLocked {
		s.mu.Unlock()
		return ErrRecoveryNotAllowed
	}
	if s.engine.recovery == nil {
		s.mu.Unlock()
		return ErrEngineNotReady
	}

	channel := s.channel
	s.seq++
	mySeq := s.seq
	s.inFlight = true
	s.mu.Unlock()

	status, err := s.engine.recovery.RedeemRecoveryCode(ctx, s.identity, code)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if s.seq != mySeq || s.outcome == OutcomeAbandoned {
		s.engine.metricInc(MetricStaleResultDropped)
		s.engine.emitAudit(ctx, auditEventStaleResultDropped, false, s.identity, s.purpose, channel, s.id, nil, nil)
		return ErrSessionTerminal
	}

	if err != nil {
		s.engine.emitAudit(ctx, auditEventRecoveryFailed, false, s.identity, s.purpose, channel, s.id, err, func() map[string]string {
			return map[string]string{"reason": "backend_unavailable"}
		})
		return ErrRecoveryUnavailable
	}

	switch status {
	case RecoveryOK:
		s.engine.metricInc(MetricRecoveryRedeemed)
		s.engine.emitAudit(ctx, auditEventRecoveryRedeemed, true, s.identity, s.purpose, channel, s.id, nil, nil)
		return s.completeVerifiedLocked(ctx, channel)
	case RecoveryAlreadyUsed:
		s.engine.metricInc(MetricRecoveryFailed)
		s.engine.emitAudit(ctx, auditEventRecoveryFailed, false, s.identity, s.purpose, channel, s.id, ErrRecoveryCodeUsed, nil)
		return ErrRecoveryCodeUsed
	default:
		s.engine.metricInc(MetricRecoveryFailed)
		s.engine.emitAudit(ctx, auditEventRecoveryFailed, false, s.identity, s.purpose, channel, s.id, ErrRecoveryCodeInvalid, nil)
		return ErrRecoveryCodeInvalid
	}
}

// FetchRecoveryCodeSet returns the current recovery-code set for display in
// the management screen. Codes arrive unmasked; callers render them through
// [RecoveryCode.Masked] unless the user reveals them.
func (e *Engine) FetchRecoveryCodeSet(ctx context.Context, identity string) (RecoveryCodeSet, error) {
	if e == nil || e.recovery == nil {
		return RecoveryCodeSet{}, ErrEngineNotReady
	}

	set, err := e.recovery.FetchRecoveryCodeSet(ctx, identity)
	if err != nil {
		return RecoveryCodeSet{}, ErrRecoveryUnavailable
	}

	e.emitAuditEvent(ctx, AuditEvent{EventType: auditEventRecoveryFetched, Identity: identity, Success: true}, nil, func() map[string]string {
		return map[string]string{"remaining": strconv.Itoa(set.Remaining())}
	})
	return set, nil
}

// RegenerateRecoveryCodeSet replaces the whole recovery-code set. Every code
// from the prior set is unusable the instant the new batch is issued.
// Regeneration is a sensitive action: it requires a step-up assertion issued
// for the same identity within its validity window.
func (e *Engine) RegenerateRecoveryCodeSet(ctx context.Context, identity, assertionToken string) (RecoveryCodeSet, error) {
	if e == nil || e.recovery == nil || e.assertions == nil {
		return RecoveryCodeSet{}, ErrEngineNotReady
	}

	if err := e.assertions.Verify(assertionToken, identity, e.now()); err != nil {
		e.emitAuditEvent(ctx, AuditEvent{EventType: auditEventRecoveryRegenerate, Identity: identity}, ErrAssertionInvalid, nil)
		return RecoveryCodeSet{}, ErrAssertionInvalid
	}

	set, err := e.recovery.RegenerateRecoveryCodeSet(ctx, identity)
	if err != nil {
		e.emitAuditEvent(ctx, AuditEvent{EventType: auditEventRecoveryRegenerate, Identity: identity}, err, nil)
		return RecoveryCodeSet{}, ErrRecoveryUnavailable
	}

	e.metricInc(MetricRecoveryRegenerated)
	e.emitAuditEvent(ctx, AuditEvent{EventType: auditEventRecoveryRegenerate, Identity: identity, Success: true}, nil, func() map[string]string {
		return map[string]string{"codes": strconv.Itoa(len(set.Codes))}
	})
	return set, nil
}
