package challenge

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is called before the
	// required collaborators were supplied through [Builder].
	ErrEngineNotReady = errors.New("challenge engine not initialized")
	// ErrChannelNotAllowed is returned when a channel is selected that the
	// catalog does not offer for the session purpose.
	ErrChannelNotAllowed = errors.New("channel not allowed for purpose")
	// ErrNotResendable is returned when dispatch or a cooldown start is
	// requested for a channel that generates codes locally.
	ErrNotResendable = errors.New("channel does not support code delivery")
	// ErrCooldownActive is returned when a resend is requested before the
	// per-channel cooldown has elapsed.
	ErrCooldownActive = errors.New("resend cooldown active")
	// ErrDeliveryFailed is returned when the delivery collaborator rejected or
	// could not complete a dispatch. Retryable; never consumes an attempt.
	ErrDeliveryFailed = errors.New("code delivery failed")
	// ErrCodeNotDispatched is returned when submit is attempted on a
	// deliverable channel before any code was sent.
	ErrCodeNotDispatched = errors.New("no code dispatched")
	// ErrCodeIncomplete is returned when submit is attempted with fewer than
	// the required number of digits. Caller misuse; never reaches the backend.
	ErrCodeIncomplete = errors.New("code entry incomplete")
	// ErrIncorrectCode is returned when the backend rejected the submitted
	// code. Consumes one attempt.
	ErrIncorrectCode = errors.New("incorrect code")
	// ErrCodeExpired is returned when the backend reported the code as
	// expired. Counts as an incorrect attempt; distinguished for copy only.
	ErrCodeExpired = errors.New("code expired")
	// ErrLockedOut is returned when verification is rejected client-side
	// because the lockout window has not elapsed. No backend call is made.
	ErrLockedOut = errors.New("verification locked out")
	// ErrVerifyUnavailable is returned when the verification collaborator
	// failed for a reason other than code correctness.
	ErrVerifyUnavailable = errors.New("verification backend unavailable")
	// ErrRequestInFlight is returned when submit or dispatch is called while a
	// previous collaborator call on the same session is still outstanding.
	ErrRequestInFlight = errors.New("request already in flight")
	// ErrSessionTerminal is returned when any mutation is attempted on a
	// session that already reached Verified or Abandoned.
	ErrSessionTerminal = errors.New("session is terminal")
	// ErrDigitInvalid is returned when a non-digit rune is entered into a code
	// slot.
	ErrDigitInvalid = errors.New("invalid code digit")
	// ErrSlotOutOfRange is returned when a digit index is outside the code
	// length.
	ErrSlotOutOfRange = errors.New("code slot out of range")
	// ErrPasswordChannelUnavailable is returned when the Password channel is
	// used outside a step-up session.
	ErrPasswordChannelUnavailable = errors.New("password channel requires step-up session")
	// ErrPasswordIncorrect is returned when the step-up password check failed.
	// Consumes one attempt.
	ErrPasswordIncorrect = errors.New("incorrect password")
	// ErrRecoveryCodeInvalid is returned when a recovery code does not match
	// any code in the current set.
	ErrRecoveryCodeInvalid = errors.New("invalid recovery code")
	// ErrRecoveryCodeUsed is returned when a recovery code was already
	// redeemed.
	ErrRecoveryCodeUsed = errors.New("recovery code already used")
	// ErrRecoveryUnavailable is returned when the recovery collaborator failed
	// for a reason other than code validity.
	ErrRecoveryUnavailable = errors.New("recovery backend unavailable")
	// ErrRecoveryNotAllowed is returned when redemption is attempted from a
	// state that does not offer the recovery escape hatch.
	ErrRecoveryNotAllowed = errors.New("recovery redemption not available in current state")
	// ErrAssertionInvalid is returned when a step-up assertion is missing,
	// expired, or bound to a different identity.
	ErrAssertionInvalid = errors.New("step-up assertion invalid")
	// ErrDeviceMarkerMissing is returned when a trust operation runs without a
	// device marker attached to the context.
	ErrDeviceMarkerMissing = errors.New("device marker missing from context")
	// ErrTrustUnavailable is returned when the device-state store failed.
	ErrTrustUnavailable = errors.New("device state store unavailable")
)
