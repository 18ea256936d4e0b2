package challenge

import (
	"sync/atomic"
	"time"
)

// MetricID names one engine counter.
type MetricID uint16

const (
	// MetricChallengeOpened counts sessions created.
	MetricChallengeOpened MetricID = iota
	// MetricChallengeVerified counts sessions completed successfully.
	MetricChallengeVerified
	// MetricChallengeAbandoned counts sessions abandoned by the caller.
	MetricChallengeAbandoned
	// MetricDispatchSuccess counts accepted code deliveries.
	MetricDispatchSuccess
	// MetricDispatchFailure counts rejected or failed deliveries.
	MetricDispatchFailure
	// MetricDispatchCooldownHit counts dispatches rejected by the cooldown.
	MetricDispatchCooldownHit
	// MetricVerifyFailure counts backend code rejections.
	MetricVerifyFailure
	// MetricVerifyExpired counts backend expired-code answers.
	MetricVerifyExpired
	// MetricLockout counts sessions transitioning into the locked state.
	MetricLockout
	// MetricLockedRejected counts submits short-circuited while locked.
	MetricLockedRejected
	// MetricStaleResultDropped counts in-flight results discarded after abandon.
	MetricStaleResultDropped
	// MetricRecoveryRedeemed counts successful recovery-code redemptions.
	MetricRecoveryRedeemed
	// MetricRecoveryFailed counts invalid or reused recovery codes.
	MetricRecoveryFailed
	// MetricRecoveryRegenerated counts recovery-set regenerations.
	MetricRecoveryRegenerated
	// MetricTrustMarked counts trusted-device grants written.
	MetricTrustMarked
	// MetricTrustCleared counts trust grants removed.
	MetricTrustCleared
	// MetricTrustSkip counts login MFA challenges skipped for a trusted device.
	MetricTrustSkip
	// MetricStepUpIssued counts step-up assertions issued.
	MetricStepUpIssued
	// MetricStepUpFailure counts failed step-up attempts.
	MetricStepUpFailure
	// MetricVerifyLatency is the verify round-trip histogram.
	MetricVerifyLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// paddedCounter keeps hot counters on separate cache lines.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the lock-free in-process counter table. All methods are safe for
// concurrent use and are no-ops on a nil or disabled receiver.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds a counter table from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counting is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a verify round-trip duration into the latency histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricVerifyLatency {
		return
	}
	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters and, when enabled, the latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricVerifyLatency].buckets[i])
		}
		s.Histograms[MetricVerifyLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
