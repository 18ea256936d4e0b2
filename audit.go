package challenge

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

const (
	auditEventChallengeOpened    = "challenge.opened"
	auditEventChannelSelected    = "challenge.channel_selected"
	auditEventDispatchSuccess    = "challenge.dispatch"
	auditEventDispatchFailure    = "challenge.dispatch_failed"
	auditEventVerifySuccess      = "challenge.verified"
	auditEventVerifyFailure      = "challenge.verify_failed"
	auditEventLockout            = "challenge.locked_out"
	auditEventLockedRejected     = "challenge.rejected_while_locked"
	auditEventAbandoned          = "challenge.abandoned"
	auditEventStaleResultDropped = "challenge.stale_result_dropped"
	auditEventRecoveryRedeemed   = "recovery.redeemed"
	auditEventRecoveryFailed     = "recovery.redeem_failed"
	auditEventRecoveryFetched    = "recovery.set_fetched"
	auditEventRecoveryRegenerate = "recovery.set_regenerated"
	auditEventTrustMarked        = "trusted_device.marked"
	auditEventTrustCleared       = "trusted_device.cleared"
	auditEventTrustSkip          = "trusted_device.challenge_skipped"
	auditEventStepUpIssued       = "step_up.assertion_issued"
	auditEventStepUpFailure      = "step_up.failed"
)

// AuditEvent is one security-relevant engine transition.
type AuditEvent struct {
	Timestamp    time.Time         `json:"timestamp"`
	EventType    string            `json:"event_type"`
	Identity     string            `json:"identity,omitempty"`
	Purpose      string            `json:"purpose,omitempty"`
	Channel      string            `json:"channel,omitempty"`
	SessionID    string            `json:"session_id,omitempty"`
	DeviceMarker string            `json:"device_marker,omitempty"`
	IP           string            `json:"ip,omitempty"`
	Success      bool              `json:"success"`
	Error        string            `json:"error,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives engine audit events. Emit must not block for long; the
// dispatcher applies backpressure policy before calling it.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards every event.
type NoOpSink struct{}

// Emit implements [AuditSink].
func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink forwards events to a buffered Go channel, for callers that
// consume the stream themselves.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink returns a sink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

// Emit implements [AuditSink].
func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the event stream.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line to an [io.Writer].
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink wraps w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit implements [AuditSink].
func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
