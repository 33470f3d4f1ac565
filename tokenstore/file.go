package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File stores one file per key under a directory, with atomic writes and
// secure permissions. Writes use temp file + rename for crash safety.
type File struct {
	dir string
}

// Compile-time check to ensure File implements Store
var _ Store = (*File)(nil)

// NewFile creates a File store rooted at dir, creating the directory with
// 0700 permissions if it doesn't exist.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &File{dir: dir}, nil
}

// Get returns the stored value, or "" if no file exists for the key.
func (f *File) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(data)), nil
}

// Set atomically saves the value using temp file + rename for crash safety.
// Sets file permissions to 0600 (owner read/write only).
func (f *File) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Secure temp file in the same directory so the rename is atomic
	tempFile, err := os.CreateTemp(f.dir, "*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	// Cleanup deferred for all exit paths
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if _, err := tempFile.Write([]byte(value + "\n")); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	target := f.path(key)
	if err := os.Rename(tempName, target); err != nil {
		return err
	}

	return os.Chmod(target, 0600)
}

// Remove deletes the file for the key. A missing file is not an error.
func (f *File) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// path maps a key to a file name, replacing separators so keys like
// "scorewire.tokens" stay within the store directory.
func (f *File) path(key string) string {
	name := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(key)
	return filepath.Join(f.dir, name)
}
