package challenge

import (
	"context"
	"strings"
	"time"
)

// Purpose scopes a challenge to the flow that opened it. Lockout state is
// tracked per identity and purpose, never per channel.
type Purpose uint8

const (
	// PurposeLoginMFA is the second factor during sign-in.
	PurposeLoginMFA Purpose = iota
	// PurposePhoneVerification confirms ownership of a phone number.
	PurposePhoneVerification
	// PurposeEmailVerification confirms ownership of an email address.
	PurposeEmailVerification
	// PurposeStepUpReauth re-confirms identity immediately before a sensitive
	// action. Device trust is never consulted for this purpose.
	PurposeStepUpReauth

	purposeCount
)

var purposeNames = [purposeCount]string{
	PurposeLoginMFA:          "login_mfa",
	PurposePhoneVerification: "phone_verification",
	PurposeEmailVerification: "email_verification",
	PurposeStepUpReauth:      "step_up_reauth",
}

// String returns the stable wire name of the purpose.
func (p Purpose) String() string {
	if p >= purposeCount {
		return "unknown"
	}
	return purposeNames[p]
}

// DispatchState tracks whether a code has been delivered on the current
// channel of a session.
type DispatchState uint8

const (
	// DispatchNotSent means no delivery was attempted on the current channel.
	DispatchNotSent DispatchState = iota
	// DispatchSent means the delivery collaborator accepted the dispatch.
	DispatchSent
	// DispatchFailed means the last delivery attempt was rejected. Retryable.
	DispatchFailed
)

// Outcome is the terminal disposition of a session.
type Outcome uint8

const (
	// OutcomePending means the session is still in progress.
	OutcomePending Outcome = iota
	// OutcomeVerified means the backend accepted a code, password, or
	// recovery code. Terminal.
	OutcomeVerified
	// OutcomeAbandoned means the caller navigated away. Terminal.
	OutcomeAbandoned
)

// VerifyStatus is the backend's answer to a code verification call.
type VerifyStatus uint8

const (
	// VerifyOK means the code was accepted.
	VerifyOK VerifyStatus = iota
	// VerifyIncorrect means the code did not match.
	VerifyIncorrect
	// VerifyExpired means the code matched a dispatch that has expired. The
	// engine treats it as incorrect for attempt counting.
	VerifyExpired
)

// RecoveryStatus is the backend's answer to a recovery-code redemption.
type RecoveryStatus uint8

const (
	// RecoveryOK means the code was valid and is now consumed.
	RecoveryOK RecoveryStatus = iota
	// RecoveryInvalid means the code matches nothing in the current set.
	RecoveryInvalid
	// RecoveryAlreadyUsed means the code was redeemed before.
	RecoveryAlreadyUsed
)

// CodeDelivery triggers delivery of a one-time code. Implemented by the
// backend client; the engine never generates deliverable codes itself.
type CodeDelivery interface {
	DispatchCode(ctx context.Context, channel Channel, purpose Purpose, identity string) error
}

// CodeVerifier is the backend authority on code correctness.
type CodeVerifier interface {
	VerifyCode(ctx context.Context, channel Channel, purpose Purpose, identity, code string) (VerifyStatus, error)
}

// PasswordVerifier confirms an account password. Used only by the Password
// pseudo-channel of step-up sessions.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, identity, password string) (bool, error)
}

// RecoveryCodeProvider owns the server-side recovery-code set: redemption,
// retrieval for display, and wholesale regeneration.
type RecoveryCodeProvider interface {
	RedeemRecoveryCode(ctx context.Context, identity, code string) (RecoveryStatus, error)
	FetchRecoveryCodeSet(ctx context.Context, identity string) (RecoveryCodeSet, error)
	RegenerateRecoveryCodeSet(ctx context.Context, identity string) (RecoveryCodeSet, error)
}

// RecoveryCode is one single-use bypass secret, displayed masked by default.
type RecoveryCode struct {
	Value string
	Used  bool
}

// Masked returns the code with all but the last four characters replaced by
// bullets, for at-rest display in the recovery-code management screen.
func (c RecoveryCode) Masked() string {
	const visible = 4
	runes := []rune(c.Value)
	if len(runes) <= visible {
		return strings.Repeat("•", len(runes))
	}
	return strings.Repeat("•", len(runes)-visible) + string(runes[len(runes)-visible:])
}

// RecoveryCodeSet is an ordered batch of recovery codes. Sets are generated
// and invalidated wholesale: regeneration replaces every code at once, and no
// code is ever added or removed individually.
type RecoveryCodeSet struct {
	Codes       []RecoveryCode
	GeneratedAt time.Time
}

// Remaining counts the codes not yet redeemed.
func (s RecoveryCodeSet) Remaining() int {
	n := 0
	for _, c := range s.Codes {
		if !c.Used {
			n++
		}
	}
	return n
}

// TrustedDeviceRecord is the device-local trust grant written after a
// successful login MFA when the user opts in. Never synced across devices.
type TrustedDeviceRecord struct {
	DeviceMarker string
	TrustedUntil time.Time
}

// StepUpAssertion is the short-lived proof of a completed step-up
// re-authentication. Callers attach Token to the sensitive action; it is
// worthless after ExpiresAt.
type StepUpAssertion struct {
	Token     string
	Identity  string
	ExpiresAt time.Time
}
