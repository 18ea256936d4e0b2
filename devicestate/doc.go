// Package devicestate persists the only challenge-engine state that outlives
// a single session: the trusted-device grant and the last-used-channel
// preference per purpose, both keyed by a stable local device marker.
//
// # Binary encoding
//
// Trust records are stored as a compact versioned binary format. The encoder
// is append-only: new versions add fields but never reinterpret old ones; a
// record with an unknown version is treated as absent.
//
// # Architecture boundaries
//
// This package owns persistence only. It does not decide whether a device is
// trusted — expiry comparison and policy belong to the engine. [RedisStore]
// is the durable implementation; [MemoryStore] backs tests and single-process
// demos. Both are single-writer per device marker by construction, so no
// cross-store coordination exists.
//
// # What this package must NOT do
//
//   - Import the challenge root package (no upward imports).
//   - Interpret trust expiry or channel names.
package devicestate
