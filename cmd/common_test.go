package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/illarion/xmrkeys/internal/core"
	"github.com/illarion/xmrkeys/internal/format"
)

func TestSplitCandidates(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{"empty file", "", nil},
		{"single without newline", "hunter2", []string{"hunter2"}},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"empty lines kept", "a\n\nb", []string{"a", "", "b"}},
		{"only newline", "\n", []string{""}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"inner cr kept", "a\rb\n", []string{"a\rb"}},
		{"spaces kept", " pw \n", []string{" pw "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitCandidates([]byte(tt.data))
			if len(got) != len(tt.want) {
				t.Fatalf("Got %d candidates, want %d: %q", len(got), len(tt.want), got)
			}
			for i := range got {
				if string(got[i]) != tt.want[i] {
					t.Errorf("Candidate %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitCandidatesAliasesInput(t *testing.T) {
	data := []byte("abc\ndef\n")
	got := SplitCandidates(data)
	data[4] = 'X'
	if string(got[1]) != "Xef" {
		t.Errorf("Candidate does not alias input: %q", got[1])
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{core.ErrAuthFailed, 2},
		{fmt.Errorf("wrapped: %w", core.ErrAuthFailed), 2},
		{core.ErrNoCandidateMatched, 2},
		{core.ErrBadMagic, 3},
		{core.ErrTooShort, 3},
		{core.ErrUnsupportedVersion, 3},
		{core.ErrBadKDFParams, 3},
		{context.Canceled, 130},
		{core.ErrAllocation, 1},
		{errors.New("disk on fire"), 1},
	}

	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	if got := ErrorMessage(fmt.Errorf("x: %w", core.ErrBadMagic)); got != "not a wallet keys file (bad magic)" {
		t.Errorf("Unexpected message: %q", got)
	}
	if got := ErrorMessage(errors.New("plain")); got != "plain" {
		t.Errorf("Unexpected message: %q", got)
	}
}

func TestLimits(t *testing.T) {
	t.Setenv(EnvMaxMemory, "")
	limits, err := Limits()
	if err != nil {
		t.Fatalf("Limits failed: %v", err)
	}
	if limits != format.DefaultLimits() {
		t.Errorf("Limits = %+v, want defaults", limits)
	}

	t.Setenv(EnvMaxMemory, "64")
	limits, err = Limits()
	if err != nil {
		t.Fatalf("Limits failed: %v", err)
	}
	if limits.MaxArgon2MemoryKiB != 64*1024 {
		t.Errorf("MaxArgon2MemoryKiB = %d", limits.MaxArgon2MemoryKiB)
	}

	for _, bad := range []string{"0", "-1", "lots", "99999999"} {
		t.Setenv(EnvMaxMemory, bad)
		if _, err := Limits(); err == nil {
			t.Errorf("Limits accepted %q", bad)
		}
	}
}

func TestGetPasswordOrder(t *testing.T) {
	gokeyring.MockInit()
	stubPrompt(t, "from-prompt", nil)

	t.Setenv(core.PasswordEnvVar, "from-env")
	pw, source, err := GetPassword("wallet-a", true)
	if err != nil {
		t.Fatalf("GetPassword failed: %v", err)
	}
	if source != SourceEnv || string(pw) != "from-env" {
		t.Errorf("Got %q from %s", pw, source)
	}

	t.Setenv(core.PasswordEnvVar, "")
	if err := gokeyring.Set("xmrkeys", "wallet-a", "from-keyring"); err != nil {
		t.Fatalf("Failed to seed keyring: %v", err)
	}
	pw, source, err = GetPassword("wallet-a", true)
	if err != nil {
		t.Fatalf("GetPassword failed: %v", err)
	}
	if source != SourceKeyring || string(pw) != "from-keyring" {
		t.Errorf("Got %q from %s", pw, source)
	}

	pw, source, err = GetPassword("wallet-a", false)
	if err != nil {
		t.Fatalf("GetPassword failed: %v", err)
	}
	if source != SourcePrompt || !bytes.Equal(pw, []byte("from-prompt")) {
		t.Errorf("Got %q from %s", pw, source)
	}
}

// stubPrompt replaces the terminal prompt for the duration of the test
func stubPrompt(t *testing.T, password string, err error) *int {
	t.Helper()
	calls := 0
	orig := promptPassword
	promptPassword = func(string) ([]byte, error) {
		calls++
		if err != nil {
			return nil, err
		}
		return []byte(password), nil
	}
	t.Cleanup(func() { promptPassword = orig })
	return &calls
}
