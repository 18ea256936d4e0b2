package devicestate

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for the device marker.
	ErrNotFound = errors.New("device state not found")
	// ErrBackend wraps store transport failures.
	ErrBackend = errors.New("device state backend unavailable")
)

// TrustRecord is the persisted trusted-device grant.
type TrustRecord struct {
	DeviceMarker string
	TrustedUntil time.Time
}

// Store is the persistence boundary for device-local challenge state.
type Store interface {
	SaveTrust(ctx context.Context, marker string, record TrustRecord, ttl time.Duration) error
	GetTrust(ctx context.Context, marker string) (TrustRecord, error)
	DeleteTrust(ctx context.Context, marker string) error

	SetChannelPreference(ctx context.Context, marker, purpose, channel string) error
	GetChannelPreference(ctx context.Context, marker, purpose string) (string, error)
}

const trustRecordVersion1 = 1

func encodeTrustRecord(record TrustRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(trustRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, record.TrustedUntil.Unix()); err != nil {
		return nil, err
	}
	if len(record.DeviceMarker) > 65535 {
		return nil, errors.New("device marker length exceeded")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.DeviceMarker))); err != nil {
		return nil, err
	}
	buf.WriteString(record.DeviceMarker)

	return buf.Bytes(), nil
}

func decodeTrustRecord(data []byte) (TrustRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return TrustRecord{}, err
	}
	if version != trustRecordVersion1 {
		return TrustRecord{}, ErrNotFound
	}

	var until int64
	if err := binary.Read(reader, binary.BigEndian, &until); err != nil {
		return TrustRecord{}, err
	}

	var markerLen uint16
	if err := binary.Read(reader, binary.BigEndian, &markerLen); err != nil {
		return TrustRecord{}, err
	}
	marker := make([]byte, markerLen)
	if _, err := io.ReadFull(reader, marker); err != nil {
		return TrustRecord{}, err
	}

	return TrustRecord{
		DeviceMarker: string(marker),
		TrustedUntil: time.Unix(until, 0),
	}, nil
}
