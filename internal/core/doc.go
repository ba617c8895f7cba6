// Package core provides the wallet keys decryption operations.
//
// Core operations include:
//   - DecryptWallet: Parse, derive the key, decrypt and verify one wallet file
//   - Recover: Try candidate passwords in parallel, one full decryption each
//   - Inspect: Summarize a wallet header without a password
//
// Every call owns its derived key and intermediate plaintext and wipes them on
// all exit paths. The only secret that leaves a call is the Plaintext returned
// on success, which the caller releases with Destroy.
//
// Errors are sentinels matched with errors.Is. IsStructural separates "not a
// wallet keys file" from ErrAuthFailed ("wrong password or corrupted file"),
// which deliberately does not say which of the two happened.
package core
