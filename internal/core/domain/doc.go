// Package domain defines the core domain models for keymesh.
//
// Domain models are pure value objects without any IO dependencies
// or framework coupling. This package contains:
//
//   - Value: tagged union over string, list and stream payloads with an
//     optional absolute expiry
//   - List: double-ended sequence backing the list commands
//   - Stream and EntryID: ordered stream entries keyed by (millis, sequence)
//   - Command and Reply: the parsed request and the abstract response the
//     engine hands back to the protocol adapter
//   - Errors: domain error codes and their RESP error prefixes
package domain
