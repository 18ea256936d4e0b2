package devicestate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTrustRecordEncodeDecode(t *testing.T) {
	record := TrustRecord{
		DeviceMarker: "device-1",
		TrustedUntil: time.Date(2026, 4, 13, 9, 0, 0, 0, time.UTC),
	}

	encoded, err := encodeTrustRecord(record)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := decodeTrustRecord(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.DeviceMarker != record.DeviceMarker {
		t.Fatalf("marker mismatch: %q", decoded.DeviceMarker)
	}
	if !decoded.TrustedUntil.Equal(record.TrustedUntil) {
		t.Fatalf("deadline mismatch: %v", decoded.TrustedUntil)
	}
}

func TestDecodeUnknownVersionTreatedAsAbsent(t *testing.T) {
	record := TrustRecord{DeviceMarker: "device-1", TrustedUntil: time.Now()}
	encoded, err := encodeTrustRecord(record)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	encoded[0] = 99
	if _, err := decodeTrustRecord(encoded); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown version, got %v", err)
	}
}

func TestDecodeTruncatedRecordFails(t *testing.T) {
	record := TrustRecord{DeviceMarker: "device-1", TrustedUntil: time.Now()}
	encoded, err := encodeTrustRecord(record)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	for cut := 1; cut < len(encoded); cut++ {
		if _, err := decodeTrustRecord(encoded[:cut]); err == nil {
			t.Fatalf("expected error for record truncated to %d bytes", cut)
		}
	}
}

func TestMemoryStoreTrustRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clock := now
	store := NewMemoryStoreWithClock(func() time.Time { return clock })
	ctx := context.Background()

	record := TrustRecord{DeviceMarker: "device-1", TrustedUntil: now.Add(time.Hour)}
	if err := store.SaveTrust(ctx, "device-1", record, time.Hour); err != nil {
		t.Fatalf("SaveTrust failed: %v", err)
	}

	got, err := store.GetTrust(ctx, "device-1")
	if err != nil {
		t.Fatalf("GetTrust failed: %v", err)
	}
	if got.DeviceMarker != "device-1" || !got.TrustedUntil.Equal(record.TrustedUntil) {
		t.Fatalf("unexpected record: %+v", got)
	}

	if _, err := store.GetTrust(ctx, "other"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	clock = now.Add(2 * time.Hour)
	if _, err := store.GetTrust(ctx, "device-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL, got %v", err)
	}
}

func TestMemoryStoreDeleteTrust(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record := TrustRecord{DeviceMarker: "device-1", TrustedUntil: time.Now().Add(time.Hour)}
	if err := store.SaveTrust(ctx, "device-1", record, 0); err != nil {
		t.Fatalf("SaveTrust failed: %v", err)
	}
	if err := store.DeleteTrust(ctx, "device-1"); err != nil {
		t.Fatalf("DeleteTrust failed: %v", err)
	}
	if _, err := store.GetTrust(ctx, "device-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteTrust(ctx, "device-1"); err != nil {
		t.Fatalf("repeat delete failed: %v", err)
	}
}

func TestMemoryStoreChannelPreference(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	got, err := store.GetChannelPreference(ctx, "device-1", "login_mfa")
	if err != nil || got != "" {
		t.Fatalf("expected empty preference, got %q (%v)", got, err)
	}

	if err := store.SetChannelPreference(ctx, "device-1", "login_mfa", "sms"); err != nil {
		t.Fatalf("SetChannelPreference failed: %v", err)
	}
	if err := store.SetChannelPreference(ctx, "device-1", "phone_verification", "whatsapp"); err != nil {
		t.Fatalf("SetChannelPreference failed: %v", err)
	}

	got, err = store.GetChannelPreference(ctx, "device-1", "login_mfa")
	if err != nil || got != "sms" {
		t.Fatalf("expected sms, got %q (%v)", got, err)
	}
	got, err = store.GetChannelPreference(ctx, "device-1", "phone_verification")
	if err != nil || got != "whatsapp" {
		t.Fatalf("expected whatsapp, got %q (%v)", got, err)
	}
}
