package core

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"
)

// PasswordEnvVar names the environment variable checked before prompting
const PasswordEnvVar = "XMRKEYS_PASSWORD"

// ReadPassword reads a password from the terminal without echoing.
// The prompt goes to stderr so stdout stays clean for decrypted output.
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	// Read password without echo
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // New line after password

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	return password, nil
}

// GetPasswordFromEnv reads password from XMRKEYS_PASSWORD environment variable.
// An empty value counts as unset.
func GetPasswordFromEnv() []byte {
	password, ok := os.LookupEnv(PasswordEnvVar)
	if !ok || password == "" {
		return nil
	}
	// Return a copy to avoid issues when clearing the bytes
	result := make([]byte, len(password))
	copy(result, password)
	return result
}
