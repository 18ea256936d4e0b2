package challenge

import (
	"context"
	"errors"

	"github.com/myaccounts/challenge/devicestate"
)

// IsTrustedDevice reports whether the device in ctx holds an unexpired trust
// grant. Callers consult it before opening a login MFA session; a true answer
// means the challenge can be skipped for that purpose. Step-up re-auth never
// consults trust: it gates a specific sensitive action, not general login.
func (e *Engine) IsTrustedDevice(ctx context.Context) (bool, error) {
	if e == nil || e.store == nil {
		return false, ErrEngineNotReady
	}
	if !e.config.TrustedDevice.Enabled {
		return false, nil
	}
	marker := deviceMarkerFromContext(ctx)
	if marker == "" {
		return false, ErrDeviceMarkerMissing
	}

	record, err := e.store.GetTrust(ctx, marker)
	if err != nil {
		if errors.Is(err, devicestate.ErrNotFound) {
			return false, nil
		}
		return false, ErrTrustUnavailable
	}
	if !e.now().Before(record.TrustedUntil) {
		return false, nil
	}

	e.metricInc(MetricTrustSkip)
	e.emitAuditEvent(ctx, AuditEvent{
		EventType: auditEventTrustSkip,
		Purpose:   PurposeLoginMFA.String(),
		Success:   true,
	}, nil, nil)
	return true, nil
}

// MarkTrusted writes the trust grant for the device in ctx, exempting it from
// login MFA until the configured trust duration elapses. Called automatically
// on a verified login MFA session that opted in via
// [Session.SetRememberDevice], or directly by a consent toggle.
func (e *Engine) MarkTrusted(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if !e.config.TrustedDevice.Enabled {
		return nil
	}
	marker := deviceMarkerFromContext(ctx)
	if marker == "" {
		return ErrDeviceMarkerMissing
	}

	until := e.now().Add(e.config.TrustedDevice.TrustDuration)
	record := devicestate.TrustRecord{
		DeviceMarker: marker,
		TrustedUntil: until,
	}
	if err := e.store.SaveTrust(ctx, marker, record, e.config.TrustedDevice.TrustDuration); err != nil {
		return ErrTrustUnavailable
	}

	e.metricInc(MetricTrustMarked)
	e.emitAuditEvent(ctx, AuditEvent{
		EventType: auditEventTrustMarked,
		Success:   true,
	}, nil, func() map[string]string {
		return map[string]string{"trusted_until": until.UTC().Format("2006-01-02T15:04:05Z07:00")}
	})
	return nil
}

// ClearTrust removes the device's trust grant, forcing the next login to
// complete MFA again.
func (e *Engine) ClearTrust(ctx context.Context) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	marker := deviceMarkerFromContext(ctx)
	if marker == "" {
		return ErrDeviceMarkerMissing
	}

	if err := e.store.DeleteTrust(ctx, marker); err != nil && !errors.Is(err, devicestate.ErrNotFound) {
		return ErrTrustUnavailable
	}

	e.metricInc(MetricTrustCleared)
	e.emitAuditEvent(ctx, AuditEvent{
		EventType: auditEventTrustCleared,
		Success:   true,
	}, nil, nil)
	return nil
}

// TrustedDevice returns the current trust record for the device in ctx, for
// settings-screen display. The second return is false when no grant exists or
// it expired.
func (e *Engine) TrustedDevice(ctx context.Context) (TrustedDeviceRecord, bool, error) {
	if e == nil || e.store == nil {
		return TrustedDeviceRecord{}, false, ErrEngineNotReady
	}
	marker := deviceMarkerFromContext(ctx)
	if marker == "" {
		return TrustedDeviceRecord{}, false, ErrDeviceMarkerMissing
	}

	record, err := e.store.GetTrust(ctx, marker)
	if err != nil {
		if errors.Is(err, devicestate.ErrNotFound) {
			return TrustedDeviceRecord{}, false, nil
		}
		return TrustedDeviceRecord{}, false, ErrTrustUnavailable
	}
	if !e.now().Before(record.TrustedUntil) {
		return TrustedDeviceRecord{}, false, nil
	}
	return TrustedDeviceRecord{
		DeviceMarker: record.DeviceMarker,
		TrustedUntil: record.TrustedUntil,
	}, true, nil
}
