package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/illarion/xmrkeys/internal/core"
	"github.com/illarion/xmrkeys/internal/format"
)

// Environment variables read by the CLI
const (
	EnvMaxMemory = "XMRKEYS_MAX_MEMORY" // Argon2 memory ceiling in MiB
	EnvState     = "XMRKEYS_STATE"      // recovery session database path
)

// Limits returns the KDF limits, honoring XMRKEYS_MAX_MEMORY
func Limits() (format.Limits, error) {
	limits := format.DefaultLimits()

	if v := os.Getenv(EnvMaxMemory); v != "" {
		mib, err := strconv.ParseUint(v, 10, 32)
		if err != nil || mib == 0 {
			return limits, fmt.Errorf("invalid %s: %q", EnvMaxMemory, v)
		}
		if mib > 1<<22-1 {
			return limits, fmt.Errorf("%s too large: %d MiB", EnvMaxMemory, mib)
		}
		limits.MaxArgon2MemoryKiB = uint32(mib) * 1024
	}

	return limits, nil
}

// coreOptions builds the options passed to every core call
func coreOptions() ([]core.Option, error) {
	limits, err := Limits()
	if err != nil {
		return nil, err
	}
	return []core.Option{core.WithLimits(limits)}, nil
}

// StatePath returns the recovery session database path
func StatePath() (string, error) {
	if p := os.Getenv(EnvState); p != "" {
		return p, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	dir = filepath.Join(dir, "xmrkeys")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return filepath.Join(dir, "sessions.db"), nil
}
