// Package ident implements the fixed-length identity primitives shared by the
// message layer: BLAKE3 hashes, nonces, Ed25519 keys and signatures.
//
// Every identifier has two serialized forms. The text form (used by JSON) is
// base58 over the Bitcoin alphabet; the binary form is the raw bytes. Parsing
// never panics: a bad alphabet yields RuleDecodeBase58 and a wrong decoded
// length yields RuleSize.
package ident
