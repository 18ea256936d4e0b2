package challenge

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/myaccounts/challenge/assertion"
	"github.com/myaccounts/challenge/devicestate"
)

// Builder assembles an [Engine]. Configure, supply collaborators, then call
// [Builder.Build] exactly once. Construction is allocation-only; no I/O
// happens until engine methods run.
type Builder struct {
	config Config

	redis *redis.Client
	store devicestate.Store

	delivery  CodeDelivery
	verifier  CodeVerifier
	passwords PasswordVerifier
	recovery  RecoveryCodeProvider
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New returns a Builder loaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the device-state store. Ignored
// when [Builder.WithDeviceStateStore] is also called.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithDeviceStateStore supplies a device-state store directly, e.g.
// [devicestate.NewMemoryStore] in tests.
func (b *Builder) WithDeviceStateStore(store devicestate.Store) *Builder {
	b.store = store
	return b
}

// WithCodeDelivery supplies the dispatch collaborator.
func (b *Builder) WithCodeDelivery(d CodeDelivery) *Builder {
	b.delivery = d
	return b
}

// WithCodeVerifier supplies the verification collaborator.
func (b *Builder) WithCodeVerifier(v CodeVerifier) *Builder {
	b.verifier = v
	return b
}

// WithPasswordVerifier supplies the password collaborator used by step-up
// sessions.
func (b *Builder) WithPasswordVerifier(v PasswordVerifier) *Builder {
	b.passwords = v
	return b
}

// WithRecoveryCodeProvider supplies the recovery-code collaborator.
func (b *Builder) WithRecoveryCodeProvider(p RecoveryCodeProvider) *Builder {
	b.recovery = p
	return b
}

// WithAuditSink supplies the audit event destination.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides the engine time source. Tests use it to step through
// cooldowns and lockouts without sleeping.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles the counter table.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires stores, dispatcher, metrics, and
// the assertion signer, and returns the ready engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.verifier == nil {
		return nil, errors.New("code verifier required")
	}
	if b.delivery == nil {
		return nil, errors.New("code delivery required")
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or device state store required")
		}
		store = devicestate.NewRedisStore(b.redis, cfg.Storage.KeyPrefix)
	}

	engine := &Engine{
		config:   cfg,
		catalog:  Catalog{},
		limiter:  AttemptLimiter{Threshold: cfg.Lockout.Threshold, LockDuration: cfg.Lockout.Duration},
		store:    store,
		delivery: b.delivery,
		verifier: b.verifier,
		recovery: b.recovery,
		audit:    newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:  NewMetrics(cfg.Metrics),
		now:      b.clock,
	}
	if engine.now == nil {
		engine.now = time.Now
	}

	if b.passwords != nil && len(cfg.StepUp.SigningKey) == 0 {
		return nil, errors.New("step-up requires StepUp.SigningKey")
	}
	if len(cfg.StepUp.SigningKey) > 0 {
		am, err := assertion.NewManager(assertion.Config{
			TTL:        cfg.StepUp.AssertionTTL,
			SigningKey: cloneBytes(cfg.StepUp.SigningKey),
			Issuer:     cfg.StepUp.Issuer,
		})
		if err != nil {
			return nil, err
		}
		engine.assertions = am
	}
	engine.passwords = b.passwords

	b.built = true

	return engine, nil
}
