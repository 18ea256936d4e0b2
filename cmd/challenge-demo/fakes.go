package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	challenge "github.com/myaccounts/challenge"
)

// stubBackend plays the server side of the challenge protocol: it "delivers"
// codes by printing them, accepts one fixed code per identity, and keeps a
// small recovery-code set in memory.
type stubBackend struct {
	mu       sync.Mutex
	code     string
	password string
	recovery map[string]bool // code -> used
}

func newStubBackend(code, password string, recoveryCodes []string) *stubBackend {
	set := make(map[string]bool, len(recoveryCodes))
	for _, c := range recoveryCodes {
		set[c] = false
	}
	return &stubBackend{code: code, password: password, recovery: set}
}

func (b *stubBackend) DispatchCode(_ context.Context, channel challenge.Channel, _ challenge.Purpose, identity string) error {
	fmt.Printf("    [backend] sent code %s to %s via %s\n", b.code, identity, channel.DisplayName())
	return nil
}

func (b *stubBackend) VerifyCode(_ context.Context, _ challenge.Channel, _ challenge.Purpose, _ string, code string) (challenge.VerifyStatus, error) {
	if code == b.code {
		return challenge.VerifyOK, nil
	}
	return challenge.VerifyIncorrect, nil
}

func (b *stubBackend) VerifyPassword(_ context.Context, _ string, password string) (bool, error) {
	return password == b.password, nil
}

func (b *stubBackend) RedeemRecoveryCode(_ context.Context, _ string, code string) (challenge.RecoveryStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	used, ok := b.recovery[code]
	if !ok {
		return challenge.RecoveryInvalid, nil
	}
	if used {
		return challenge.RecoveryAlreadyUsed, nil
	}
	b.recovery[code] = true
	return challenge.RecoveryOK, nil
}

func (b *stubBackend) FetchRecoveryCodeSet(_ context.Context, _ string) (challenge.RecoveryCodeSet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentSetLocked(), nil
}

func (b *stubBackend) RegenerateRecoveryCodeSet(_ context.Context, _ string) (challenge.RecoveryCodeSet, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fresh := make(map[string]bool, len(b.recovery))
	i := 0
	for range b.recovery {
		fresh[fmt.Sprintf("fresh-%04d", i)] = false
		i++
	}
	b.recovery = fresh
	return b.currentSetLocked(), nil
}

func (b *stubBackend) currentSetLocked() challenge.RecoveryCodeSet {
	set := challenge.RecoveryCodeSet{GeneratedAt: time.Now()}
	for code, used := range b.recovery {
		set.Codes = append(set.Codes, challenge.RecoveryCode{Value: code, Used: used})
	}
	return set
}
