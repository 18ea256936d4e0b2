package challenge

import "context"

type deviceMarkerContextKey struct{}
type clientIPContextKey struct{}

// WithDeviceMarker attaches the stable local device identifier to ctx. The
// Engine uses it to key trusted-device records and channel preferences; trust
// operations without a marker fail with [ErrDeviceMarkerMissing].
func WithDeviceMarker(ctx context.Context, marker string) context.Context {
	return context.WithValue(ctx, deviceMarkerContextKey{}, marker)
}

// WithClientIP attaches the caller's IP address to ctx. It is carried into
// audit events only; no engine decision depends on it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func deviceMarkerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	marker, _ := ctx.Value(deviceMarkerContextKey{}).(string)
	return marker
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
