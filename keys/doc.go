// Package keys provides local key management for message signers.
//
// API stability:
//
// Stable:
//   - Role-seed derivation (DeriveRoleSeed) is deterministic and versioned by its
//     HKDF salt; changing it changes every derived identity.
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore). Seeds are stored as base58 text,
//     one file per key. This is a local-first convenience, not a protocol surface.
package keys
