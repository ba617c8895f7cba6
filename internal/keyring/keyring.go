// Package keyring stores wallet passwords in the OS keyring, keyed by the
// fingerprint of the wallet file they unlock.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "xmrkeys"

// ErrNotFound is returned when no password is stored for a wallet
var ErrNotFound = keyring.ErrNotFound

// SavePassword stores a password in the OS keyring
func SavePassword(walletID string, password []byte) error {
	return keyring.Set(serviceName, walletID, string(password))
}

// GetPassword retrieves a password from the OS keyring
func GetPassword(walletID string) ([]byte, error) {
	password, err := keyring.Get(serviceName, walletID)
	if err != nil {
		return nil, err
	}
	return []byte(password), nil
}

// DeletePassword removes the password from the OS keyring
func DeletePassword(walletID string) error {
	return keyring.Delete(serviceName, walletID)
}

// HasPassword checks if a password is stored in the keyring
func HasPassword(walletID string) bool {
	_, err := keyring.Get(serviceName, walletID)
	return err == nil
}

// IsNotFound reports whether err means nothing was stored
func IsNotFound(err error) bool {
	return errors.Is(err, keyring.ErrNotFound)
}
