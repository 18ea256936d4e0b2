package challenge

import (
	"errors"
	"time"
)

// Config defines every tunable of the challenge engine. Zero value is not
// usable; start from [DefaultConfig] and override.
type Config struct {
	Code          CodeConfig
	Lockout       LockoutConfig
	Cooldown      CooldownConfig
	TrustedDevice TrustedDeviceConfig
	StepUp        StepUpConfig
	Storage       StorageConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
CODE ENTRY CONFIG
====================================
*/

// CodeConfig controls the code-entry buffer.
type CodeConfig struct {
	// Digits is the fixed code length. Every purpose uses the same length.
	Digits int
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig is the attempt-limiter policy, shared by every purpose.
type LockoutConfig struct {
	// Threshold is the failed-attempt count that trips the lock.
	Threshold int
	// Duration is how long verification stays rejected once locked. The lock
	// deadline is an absolute timestamp; it is never extended by further
	// rejected submits.
	Duration time.Duration
}

/*
====================================
COOLDOWN CONFIG
====================================
*/

// CooldownConfig gates resend actions on deliverable channels.
type CooldownConfig struct {
	// ResendDelay is the wait enforced between dispatches on one channel.
	ResendDelay time.Duration
}

/*
====================================
TRUSTED DEVICE CONFIG
====================================
*/

// TrustedDeviceConfig controls the local trust grant written after login MFA.
type TrustedDeviceConfig struct {
	// Enabled gates the whole feature; when false MarkTrusted is a no-op and
	// IsTrusted always reports false.
	Enabled bool
	// TrustDuration bounds how long a device skips login MFA.
	TrustDuration time.Duration
}

/*
====================================
STEP-UP CONFIG
====================================
*/

// StepUpConfig controls step-up assertions.
type StepUpConfig struct {
	// AssertionTTL is the validity window of an issued assertion. Short by
	// design: it covers one sensitive action, not a session.
	AssertionTTL time.Duration
	// SigningKey signs assertions (HS256). Required when step-up is used.
	SigningKey []byte
	// Issuer is stamped into assertion claims.
	Issuer string
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageConfig controls the device-state store keyspace.
type StorageConfig struct {
	// KeyPrefix namespaces every device-state key.
	KeyPrefix string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events under backpressure instead of blocking the
	// caller. Dropped counts are observable via [Engine.AuditDropped].
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counter table.
type MetricsConfig struct {
	Enabled bool
	// EnableLatencyHistograms additionally records the verify-latency
	// histogram.
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults: 6 digits, 5 attempts, 30 s
// lock, 30 s resend cooldown, 30-day device trust, 5-minute assertions.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Code: CodeConfig{
			Digits: 6,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  30 * time.Second,
		},
		Cooldown: CooldownConfig{
			ResendDelay: 30 * time.Second,
		},
		TrustedDevice: TrustedDeviceConfig{
			Enabled:       true,
			TrustDuration: 30 * 24 * time.Hour,
		},
		StepUp: StepUpConfig{
			AssertionTTL: 5 * time.Minute,
			Issuer:       "myaccounts/challenge",
		},
		Storage: StorageConfig{
			KeyPrefix: "chal",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.StepUp.SigningKey = cloneBytes(cfg.StepUp.SigningKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.Code.Digits < 4 || c.Code.Digits > 10 {
		return errors.New("Code.Digits must be between 4 and 10")
	}
	if c.Lockout.Threshold <= 0 {
		return errors.New("Lockout.Threshold must be positive")
	}
	if c.Lockout.Duration <= 0 {
		return errors.New("Lockout.Duration must be positive")
	}
	if c.Cooldown.ResendDelay <= 0 {
		return errors.New("Cooldown.ResendDelay must be positive")
	}
	if c.TrustedDevice.Enabled && c.TrustedDevice.TrustDuration <= 0 {
		return errors.New("TrustedDevice.TrustDuration must be positive when trust is enabled")
	}
	if c.StepUp.AssertionTTL <= 0 {
		return errors.New("StepUp.AssertionTTL must be positive")
	}
	if c.StepUp.AssertionTTL > time.Hour {
		return errors.New("StepUp.AssertionTTL must not exceed one hour")
	}
	if c.Storage.KeyPrefix == "" {
		return errors.New("Storage.KeyPrefix must not be empty")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive when audit is enabled")
	}
	return nil
}
