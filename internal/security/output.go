// Package security confines where decrypted key material may be written.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const FilePermSecure = 0600 // owner rw only

var (
	ErrEmptyPath    = errors.New("empty path not allowed")
	ErrInvalidName  = errors.New("output must name a file")
	ErrOutputExists = errors.New("output file already exists")
	ErrSameAsInput  = errors.New("output would overwrite the wallet file")
)

// OutputFile writes a single file inside its parent directory using the
// os.Root API, so a symlink in the final component cannot redirect the write
// outside that directory.
type OutputFile struct {
	root *os.Root
	dir  string
	name string
}

// NewOutputFile validates path and opens its parent directory as a root
func NewOutputFile(path string) (*OutputFile, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if os.IsPathSeparator(path[len(path)-1]) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidName, path)
	}
	if base := filepath.Base(path); base == "." || base == ".." {
		return nil, fmt.Errorf("%w: %s", ErrInvalidName, path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	dir, name := filepath.Split(absPath)
	if !filepath.IsLocal(name) || name == "." {
		return nil, fmt.Errorf("%w: %s", ErrInvalidName, path)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open output directory: %w", err)
	}

	return &OutputFile{root: root, dir: dir, name: name}, nil
}

// Close releases the directory handle
func (o *OutputFile) Close() error {
	if o.root != nil {
		return o.root.Close()
	}
	return nil
}

// Path returns the absolute output path
func (o *OutputFile) Path() string {
	return filepath.Join(o.dir, o.name)
}

// CheckNotSame fails if the output names the same file as inputPath
func (o *OutputFile) CheckNotSame(inputPath string) error {
	in, err := os.Stat(inputPath)
	if err != nil {
		return nil
	}
	out, err := o.root.Stat(o.name)
	if err != nil {
		return nil
	}
	if os.SameFile(in, out) {
		return ErrSameAsInput
	}
	return nil
}

// Write stores data with owner-only permissions. Without force an existing
// file is never replaced.
func (o *OutputFile) Write(data []byte, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := o.root.OpenFile(o.name, flags, FilePermSecure)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrOutputExists, o.Path())
		}
		return fmt.Errorf("failed to create output: %w", err)
	}

	if err := f.Chmod(FilePermSecure); err != nil {
		f.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	return f.Close()
}
