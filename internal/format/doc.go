// Package format parses the xmrkeys wallet container.
//
// Layout shared by all versions:
//
//	magic "XMRWKEYS" (8) | version (1) | version header | ciphertext (>=1) | tag (32)
//
// Version 1 header: iv (8). Key derivation is scrypt over a fixed salt, the
// cipher is ChaCha8 and the tag covers the plaintext.
//
// Version 2 header: time (4) | memKiB (4) | threads (1) | salt (16) | nonce (24).
// Key derivation is Argon2id with the stored parameters, the cipher is
// XChaCha20 and the tag covers the plaintext followed by the key.
//
// Integers are big-endian. Parse performs structural checks only and never
// touches the password, so malformed input is rejected before any key
// derivation cost is paid.
package format
