// Package store persists the settings blob. The blob is always read and
// written whole; backends differ only in where it lives.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Load when nothing has been saved yet
var ErrNotFound = errors.New("settings not found")

// Store reads and writes the settings blob
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

// Open returns the backend named by kind ("file" or "bolt") rooted at path
func Open(kind, path string) (Store, error) {
	switch kind {
	case "", "file":
		return NewFile(path), nil
	case "bolt":
		return OpenBolt(path)
	default:
		return nil, fmt.Errorf("unknown settings backend %q", kind)
	}
}

// File keeps the blob in a single file, replaced atomically on save
type File struct {
	path string
}

// NewFile returns a file store; the file need not exist yet
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file
func (f *File) Path() string {
	return f.path
}

func (f *File) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (f *File) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

func (f *File) Close() error {
	return nil
}
