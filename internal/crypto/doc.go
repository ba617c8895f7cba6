// Package crypto provides the cryptographic primitives for xmrkeys.
//
// Key derivation is version dependent:
//   - Version 1: scrypt (N=2^14, r=8, p=1) over a fixed domain salt
//   - Version 2: Argon2id with the salt and cost parameters from the header
//
// Decryption uses a stream cipher selected by CipherKind:
//   - ChaCha8 with the Monero 64-bit nonce / 64-bit counter layout
//   - XChaCha20 with a 24-byte nonce
//
// Authenticity tags are legacy Keccak-256 digests over the plaintext, or over
// the plaintext followed by the derived key. Tags are always compared in
// constant time.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Stream.Wipe() when done with a cipher stream
package crypto
