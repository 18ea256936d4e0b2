package challenge

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/myaccounts/challenge/assertion"
	"github.com/myaccounts/challenge/devicestate"
)

// Engine is the shared challenge engine. Built once through [Builder], then
// safe for concurrent use by every screen and action guard.
type Engine struct {
	config     Config
	catalog    Catalog
	limiter    AttemptLimiter
	store      devicestate.Store
	delivery   CodeDelivery
	verifier   CodeVerifier
	passwords  PasswordVerifier
	recovery   RecoveryCodeProvider
	assertions *assertion.Manager
	audit      *auditDispatcher
	metrics    *Metrics
	now        func() time.Time
}

// NewSession opens a challenge for purpose and identity. The catalog's
// default channel for the purpose is preselected; when the device has a
// stored channel preference that the catalog still offers, the preference
// wins. The session starts with a clean attempt count.
//
// Callers handling login MFA should consult [Engine.IsTrustedDevice] first
// and skip the challenge entirely on a trusted device.
func (e *Engine) NewSession(ctx context.Context, purpose Purpose, identity string) (*Session, error) {
	if e == nil || e.verifier == nil {
		return nil, ErrEngineNotReady
	}
	if purpose >= purposeCount {
		return nil, ErrChannelNotAllowed
	}

	s := &Session{
		engine:   e,
		id:       uuid.NewString(),
		purpose:  purpose,
		identity: identity,
		digits:   newCodeInput(e.config.Code.Digits),
		cooldown: NewCooldownTimer(ChannelAuthenticatorApp),
		state:    StateIdle,
	}

	if channel, ok := e.preferredChannel(ctx, purpose); ok {
		s.applyChannelLocked(channel)
	}

	e.metricInc(MetricChallengeOpened)
	e.emitAudit(ctx, auditEventChallengeOpened, true, identity, purpose, s.channel, s.id, nil, nil)
	return s, nil
}

// preferredChannel picks the stored per-device preference when present and
// still offered, the catalog default otherwise.
func (e *Engine) preferredChannel(ctx context.Context, purpose Purpose) (Channel, bool) {
	fallback, ok := e.catalog.DefaultChannel(purpose)
	if !ok {
		return 0, false
	}

	marker := deviceMarkerFromContext(ctx)
	if e.store == nil || marker == "" {
		return fallback, true
	}
	name, err := e.store.GetChannelPreference(ctx, marker, purpose.String())
	if err != nil || name == "" {
		return fallback, true
	}
	channel, known := ParseChannel(name)
	if !known || !e.catalog.Offers(purpose, channel) {
		return fallback, true
	}
	return channel, true
}

// rememberChannelPreference persists the last used channel for purpose. Pure
// UX convenience; failures are swallowed.
func (e *Engine) rememberChannelPreference(ctx context.Context, purpose Purpose, channel Channel) {
	marker := deviceMarkerFromContext(ctx)
	if e == nil || e.store == nil || marker == "" {
		return
	}
	_ = e.store.SetChannelPreference(ctx, marker, purpose.String(), channel.String())
}

// AvailableChannels exposes the catalog for rendering channel pickers.
func (e *Engine) AvailableChannels(purpose Purpose) []Channel {
	if e == nil {
		return nil
	}
	return e.catalog.AvailableChannels(purpose)
}

// Close drains the audit dispatcher. Call on teardown.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot copies the engine counters for export.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identity string,
	purpose Purpose,
	channel Channel,
	sessionID string,
	cause error,
	metaFn func() map[string]string,
) {
	event := AuditEvent{
		EventType: eventType,
		Identity:  identity,
		Purpose:   purpose.String(),
		Channel:   channel.String(),
		SessionID: sessionID,
		Success:   success,
	}
	e.emitAuditEvent(ctx, event, cause, metaFn)
}

func (e *Engine) emitAuditEvent(ctx context.Context, event AuditEvent, cause error, metaFn func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}
	event.Timestamp = e.now()
	event.DeviceMarker = deviceMarkerFromContext(ctx)
	event.IP = clientIPFromContext(ctx)
	if cause != nil {
		event.Error = cause.Error()
	}
	if metaFn != nil {
		event.Metadata = metaFn()
	}
	e.audit.Emit(ctx, event)
}
