package challenge

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsCountersIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricChallengeOpened)
	m.Inc(MetricChallengeOpened)
	m.Inc(MetricLockout)

	if got := m.Value(MetricChallengeOpened); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := m.Value(MetricLockout); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := m.Value(MetricID(9999)); got != 0 {
		t.Fatalf("out-of-range id must read zero, got %d", got)
	}
}

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricChallengeOpened)
	if got := m.Value(MetricChallengeOpened); got != 0 {
		t.Fatalf("disabled metrics must not count, got %d", got)
	}
	snapshot := m.Snapshot()
	if len(snapshot.Counters) != 0 {
		t.Fatalf("disabled snapshot must be empty, got %v", snapshot.Counters)
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricChallengeOpened)
	nilMetrics.Observe(MetricVerifyLatency, time.Millisecond)
	if nilMetrics.Enabled() {
		t.Fatal("nil metrics must report disabled")
	}
}

func TestMetricsLatencyHistogramBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricVerifyLatency, 3*time.Millisecond)   // bucket 0
	m.Observe(MetricVerifyLatency, 8*time.Millisecond)   // bucket 1
	m.Observe(MetricVerifyLatency, 80*time.Millisecond)  // bucket 4
	m.Observe(MetricVerifyLatency, 900*time.Millisecond) // bucket 7

	snapshot := m.Snapshot()
	buckets := snapshot.Histograms[MetricVerifyLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	want := []uint64{1, 1, 0, 0, 1, 0, 0, 1}
	for i := range want {
		if buckets[i] != want[i] {
			t.Fatalf("bucket %d: expected %d, got %d (all: %v)", i, want[i], buckets[i], buckets)
		}
	}
}

func TestMetricsHistogramDisabledWithoutFlag(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricVerifyLatency, time.Millisecond)
	snapshot := m.Snapshot()
	if len(snapshot.Histograms) != 0 {
		t.Fatalf("expected no histograms without the flag, got %v", snapshot.Histograms)
	}
}

func TestMetricsSnapshotCoversAllIDs(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	snapshot := m.Snapshot()
	if len(snapshot.Counters) != int(metricIDCount) {
		t.Fatalf("expected %d counters, got %d", metricIDCount, len(snapshot.Counters))
	}
}

func TestMetricsConcurrentIncrements(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	var wg sync.WaitGroup
	const workers = 8
	const perWorker = 1000
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricDispatchSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricDispatchSuccess); got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}

func TestBucketIndexBoundaries(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int
	}{
		{5 * time.Millisecond, 0},
		{6 * time.Millisecond, 1},
		{10 * time.Millisecond, 1},
		{25 * time.Millisecond, 2},
		{50 * time.Millisecond, 3},
		{100 * time.Millisecond, 4},
		{250 * time.Millisecond, 5},
		{500 * time.Millisecond, 6},
		{501 * time.Millisecond, 7},
		{10 * time.Second, 7},
	}
	for _, tc := range cases {
		if got := bucketIndex(tc.d); got != tc.want {
			t.Fatalf("%v: expected bucket %d, got %d", tc.d, tc.want, got)
		}
	}
}
