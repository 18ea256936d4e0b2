// Package assertion issues and verifies the short-lived signed proofs
// produced by a completed step-up re-authentication.
//
// An assertion is an HS256 JWT binding an identity and the challenge session
// that produced it, valid for minutes. It is deliberately not a login token:
// it carries no roles, no session identifier usable for access, and action
// guards verify it immediately before one sensitive operation.
//
// # What this package must NOT do
//
//   - Import the challenge root package (no upward imports).
//   - Issue tokens with a TTL beyond the configured window.
package assertion
