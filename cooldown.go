package challenge

import (
	"context"
	"time"
)

// CooldownTimer gates resend actions on one channel. It is owned exclusively
// by the session that started it: a channel switch discards the timer, and a
// new one starts only when the user triggers a send.
//
// The timer advances by explicit [CooldownTimer.Tick] calls, one per second.
// [CooldownTimer.Run] is the production driver; tests call Tick directly.
type CooldownTimer struct {
	channel   Channel
	remaining int
	active    bool
}

// NewCooldownTimer returns an inactive timer for channel.
func NewCooldownTimer(channel Channel) *CooldownTimer {
	return &CooldownTimer{channel: channel}
}

// Start arms the timer for seconds. Channels without a delivery step cannot
// cool down.
func (t *CooldownTimer) Start(seconds int) error {
	if !t.channel.SupportsResend() {
		return ErrNotResendable
	}
	if seconds <= 0 {
		seconds = 1
	}
	t.remaining = seconds
	t.active = true
	return nil
}

// Tick advances the countdown by one second. Reaching zero deactivates the
// timer and permits a new dispatch.
func (t *CooldownTimer) Tick() {
	if !t.active {
		return
	}
	t.remaining--
	if t.remaining <= 0 {
		t.remaining = 0
		t.active = false
	}
}

// Stop releases the timer regardless of remaining time. Safe on an inactive
// timer; called on channel switch, abandonment, and every other exit path so
// no countdown outlives its session.
func (t *CooldownTimer) Stop() {
	t.remaining = 0
	t.active = false
}

// CanSend reports whether a dispatch is currently permitted.
func (t *CooldownTimer) CanSend() bool {
	return t != nil && !t.active
}

// Remaining returns the seconds left, for "resend in Ns" rendering.
func (t *CooldownTimer) Remaining() int {
	if t == nil {
		return 0
	}
	return t.remaining
}

// Active reports whether the countdown is running.
func (t *CooldownTimer) Active() bool {
	return t != nil && t.active
}

// Channel returns the channel this timer gates.
func (t *CooldownTimer) Channel() Channel {
	if t == nil {
		return ChannelAuthenticatorApp
	}
	return t.channel
}

// Run ticks the timer once per second until it deactivates or ctx is
// cancelled. The underlying ticker is released on both paths. Run returns the
// reason it stopped: nil when the countdown completed, ctx.Err() otherwise.
func (t *CooldownTimer) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for t.Active() {
		select {
		case <-ticker.C:
			t.Tick()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
