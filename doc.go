// Package challenge provides the multi-channel authentication-challenge engine
// behind the My Accounts surfaces: one-time-code verification over an
// authenticator app, SMS, WhatsApp, or email, resend cooldowns, attempt-based
// lockout, recovery-code fallback, trusted-device exemption, and step-up
// re-authentication for sensitive actions.
//
// Every screen that needs a verification challenge — login MFA, phone and
// email verification, the re-auth prompt — drives the same [Session] state
// machine through the same [Engine], instead of re-implementing the flow per
// surface. The engine never validates codes locally; delivery and verification
// are delegated to the collaborator interfaces ([CodeDelivery], [CodeVerifier],
// [PasswordVerifier], [RecoveryCodeProvider]) supplied at build time.
//
// # Architecture boundaries
//
// challenge is the public surface. It exposes [Engine], [Builder], [Config],
// [Session], and value types. Persistence of device-local state lives in the
// devicestate subpackage behind an injectable store; step-up assertions live
// in the assertion subpackage. Neither imports challenge back.
//
// # What this package must NOT do
//
//   - Validate one-time codes or passwords locally (backend authority only).
//   - Issue or refresh long-lived login sessions (identity-provider scope).
//   - Retry dispatch or verification on its own; resend is always a
//     deliberate caller action.
package challenge
