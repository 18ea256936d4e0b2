package internaldefs

import (
	challenge "github.com/myaccounts/challenge"
)

// CounterDef binds one engine counter to its exported metric name.
type CounterDef struct {
	ID   challenge.MetricID
	Name string
	Help string
}

// HistogramDef binds one engine histogram to its exported metric name.
type HistogramDef struct {
	ID   challenge.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported engine counter.
var CounterDefs = []CounterDef{
	{ID: challenge.MetricChallengeOpened, Name: "challenge_opened_total", Help: "Challenge sessions created."},
	{ID: challenge.MetricChallengeVerified, Name: "challenge_verified_total", Help: "Challenge sessions completed successfully."},
	{ID: challenge.MetricChallengeAbandoned, Name: "challenge_abandoned_total", Help: "Challenge sessions abandoned by the caller."},
	{ID: challenge.MetricDispatchSuccess, Name: "challenge_dispatch_success_total", Help: "Accepted code deliveries."},
	{ID: challenge.MetricDispatchFailure, Name: "challenge_dispatch_failure_total", Help: "Rejected or failed code deliveries."},
	{ID: challenge.MetricDispatchCooldownHit, Name: "challenge_dispatch_cooldown_hit_total", Help: "Dispatches rejected by the resend cooldown."},
	{ID: challenge.MetricVerifyFailure, Name: "challenge_verify_failure_total", Help: "Codes rejected as incorrect."},
	{ID: challenge.MetricVerifyExpired, Name: "challenge_verify_expired_total", Help: "Codes rejected as expired."},
	{ID: challenge.MetricLockout, Name: "challenge_lockout_total", Help: "Sessions locked after repeated failures."},
	{ID: challenge.MetricLockedRejected, Name: "challenge_locked_rejected_total", Help: "Submits rejected while locked."},
	{ID: challenge.MetricStaleResultDropped, Name: "challenge_stale_result_dropped_total", Help: "In-flight results discarded after abandon or channel switch."},
	{ID: challenge.MetricRecoveryRedeemed, Name: "challenge_recovery_redeemed_total", Help: "Successful recovery-code redemptions."},
	{ID: challenge.MetricRecoveryFailed, Name: "challenge_recovery_failed_total", Help: "Invalid or reused recovery codes."},
	{ID: challenge.MetricRecoveryRegenerated, Name: "challenge_recovery_regenerated_total", Help: "Recovery-code set regenerations."},
	{ID: challenge.MetricTrustMarked, Name: "challenge_trust_marked_total", Help: "Trusted-device grants written."},
	{ID: challenge.MetricTrustCleared, Name: "challenge_trust_cleared_total", Help: "Trusted-device grants removed."},
	{ID: challenge.MetricTrustSkip, Name: "challenge_trust_skip_total", Help: "Login challenges skipped for a trusted device."},
	{ID: challenge.MetricStepUpIssued, Name: "challenge_stepup_issued_total", Help: "Step-up assertions issued."},
	{ID: challenge.MetricStepUpFailure, Name: "challenge_stepup_failure_total", Help: "Failed step-up attempts."},
}

// HistogramDefs lists every exported engine histogram.
var HistogramDefs = []HistogramDef{
	{ID: challenge.MetricVerifyLatency, Name: "challenge_verify_latency_seconds", Help: "Code verification round-trip latency histogram."},
}

// HistogramBounds are the upper bounds of the engine latency buckets, in
// seconds, matching the engine's fixed bucket layout.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are metric-name-safe forms of [HistogramBounds].
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// exporters expose.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
