package challenge

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRecoveryCodeCompletesSession(t *testing.T) {
	engine, backend, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	session, err := engine.NewSession(ctx, PurposeLoginMFA, testIdentity)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if err := session.RedeemRecoveryCode(ctx, "rescue-0001"); err != nil {
		t.Fatalf("RedeemRecoveryCode failed: %v", err)
	}
	if session.State() != StateVerified || session.Outcome() != OutcomeVerified {
		t.Fatalf("expected verified, got %v / %v", session.State(), session.Outcome())
	}
	if _, _, _, redeem := backend.counts(); redeem != 1 {
		t.Fatalf("expected 1 redeem call, got %d", redeem)
	}
}

func TestRecoveryCodeIsSingleUse(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	first, err := engine.NewSession(ctx, PurposeLoginMFA, testIdentity)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if err := first.RedeemRecoveryCode(ctx, "rescue-0001"); err != nil {
		t.Fatalf("first redemption failed: %v", err)
	}

	second, err := engine.NewSession(ctx, PurposeLoginMFA, testIdentity)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if err := second.RedeemRecoveryCode(ctx, "rescue-0001"); !errors.Is(err, ErrRecoveryCodeUsed) {
		t.Fatalf("expected ErrRecoveryCodeUsed, got %v", err)
	}
	if err := second.RedeemRecoveryCode(ctx, "no-such-code"); !errors.Is(err, ErrRecoveryCodeInvalid) {
		t.Fatalf("expected ErrRecoveryCodeInvalid, got %v", err)
	}
	if second.State() == StateVerified {
		t.Fatal("failed redemption must not verify the session")
	}
}

func TestRecoveryWorksWhileLockedAndSkipsLimiter(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	session := newSMSSession(t, engine)
	if err := session.Dispatch(ctx); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		enterCode(t, session, "000000")
		_ = session.Submit(ctx)
	}
	if session.State() != StateLocked {
		t.Fatalf("expected locked, got %v", session.State())
	}

	// A bad recovery code while locked reports failure without touching the
	// attempt counter.
	if err := session.RedeemRecoveryCode(ctx, "no-such-code"); !errors.Is(err, ErrRecoveryCodeInvalid) {
		t.Fatalf("expected ErrRecoveryCodeInvalid, got %v", err)
	}
	if session.AttemptCount() != 5 {
		t.Fatalf("recovery failure must not change attempts, got %d", session.AttemptCount())
	}

	// A valid one completes the session despite the active lock.
	if err := session.RedeemRecoveryCode(ctx, "rescue-0002"); err != nil {
		t.Fatalf("RedeemRecoveryCode failed: %v", err)
	}
	if session.State() != StateVerified {
		t.Fatalf("expected verified, got %v", session.State())
	}
}

func TestRecoveryRejectedFromWrongStates(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	ctx := context.Background()
	session := newSMSSession(t, engine)

	// AwaitingDispatch offers no recovery entry point.
	if err := session.RedeemRecoveryCode(ctx, "rescue-0001"); !errors.Is(err, ErrRecoveryNotAllowed) {
		t.Fatalf("expected ErrRecoveryNotAllowed, got %v", err)
	}

	session.Abandon(ctx)
	if err := session.RedeemRecoveryCode(ctx, "rescue-0001"); !errors.Is(err, ErrSessionTerminal) {
		t.Fatalf("expected ErrSessionTerminal, got %v", err)
	}
}

func TestRecoveryBackendOutage(t *testing.T) {
	engine, backend, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	session, err := engine.NewSession(ctx, PurposeLoginMFA, testIdentity)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	backend.mu.Lock()
	backend.recoveryErr = errors.New("recovery backend down")
	backend.mu.Unlock()

	if err := session.RedeemRecoveryCode(ctx, "rescue-0001"); !errors.Is(err, ErrRecoveryUnavailable) {
		t.Fatalf("expected ErrRecoveryUnavailable, got %v", err)
	}
}

func TestFetchRecoveryCodeSet(t *testing.T) {
	engine, _, _ := newTestEngine(t, testConfig())
	set, err := engine.FetchRecoveryCodeSet(context.Background(), testIdentity)
	if err != nil {
		t.Fatalf("FetchRecoveryCodeSet failed: %v", err)
	}
	if len(set.Codes) != 2 || set.Remaining() != 2 {
		t.Fatalf("expected 2 unused codes, got %d/%d", len(set.Codes), set.Remaining())
	}
}

func TestRegenerateRequiresValidAssertion(t *testing.T) {
	engine, backend, _ := newTestEngine(t, testConfig())
	ctx := context.Background()

	if _, err := engine.RegenerateRecoveryCodeSet(ctx, testIdentity, "bogus"); !errors.Is(err, ErrAssertionInvalid) {
		t.Fatalf("expected ErrAssertionInvalid, got %v", err)
	}

	// Redeem one code, step up, regenerate: the set comes back whole.
	session, err := engine.NewSession(ctx, PurposeLoginMFA, testIdentity)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if err := session.RedeemRecoveryCode(ctx, "rescue-0001"); err != nil {
		t.Fatalf("RedeemRecoveryCode failed: %v", err)
	}

	stepUp, err := engine.NewStepUp(ctx, testIdentity)
	if err != nil {
		t.Fatalf("NewStepUp failed: %v", err)
	}
	if err := stepUp.SubmitPassword(ctx, testPassword); err != nil {
		t.Fatalf("SubmitPassword failed: %v", err)
	}
	assertion, err := stepUp.Assertion()
	if err != nil {
		t.Fatalf("Assertion failed: %v", err)
	}

	set, err := engine.RegenerateRecoveryCodeSet(ctx, testIdentity, assertion.Token)
	if err != nil {
		t.Fatalf("RegenerateRecoveryCodeSet failed: %v", err)
	}
	if set.Remaining() != len(set.Codes) {
		t.Fatal("regenerated set must be entirely unused")
	}

	backend.mu.Lock()
	generation := backend.generation
	backend.mu.Unlock()
	if generation != 1 {
		t.Fatalf("expected one regeneration, got %d", generation)
	}

	// Codes from the prior set are dead the instant the new batch exists.
	later, err := engine.NewSession(ctx, PurposeLoginMFA, testIdentity)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if err := later.RedeemRecoveryCode(ctx, "rescue-0002"); !errors.Is(err, ErrRecoveryCodeInvalid) {
		t.Fatalf("expected pre-regeneration code rejected, got %v", err)
	}
}

func TestRecoveryCodeMasking(t *testing.T) {
	code := RecoveryCode{Value: "rescue-0001"}
	masked := code.Masked()
	if !strings.HasSuffix(masked, "0001") {
		t.Fatalf("expected last four visible, got %q", masked)
	}
	if strings.Contains(masked, "rescue") {
		t.Fatalf("expected prefix hidden, got %q", masked)
	}
	if short := (RecoveryCode{Value: "abc"}).Masked(); short != "•••" {
		t.Fatalf("expected short codes fully masked, got %q", short)
	}
}
