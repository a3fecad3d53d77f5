package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local is a Store rooted at a directory.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute root directory.
func (l *Local) Root() string {
	return l.root
}

func (l *Local) resolve(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

// Location returns the absolute path of key.
func (l *Local) Location(key string) string {
	return l.resolve(key)
}

// Read opens the file for reading.
func (l *Local) Read(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(l.resolve(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Write writes to a temporary file next to the target and renames it into
// place on Close. Meta is ignored.
func (l *Local) Write(_ context.Context, key string, _ Meta) (io.WriteCloser, error) {
	full := l.resolve(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(filepath.Dir(full), "."+filepath.Base(full)+".*")
	if err != nil {
		return nil, err
	}
	return &localWriter{File: f, target: full}, nil
}

// Delete removes the file.
func (l *Local) Delete(_ context.Context, key string) error {
	err := os.Remove(l.resolve(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Exists reports whether the file exists.
func (l *Local) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(l.resolve(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

type localWriter struct {
	*os.File
	target string
}

func (w *localWriter) Close() error {
	if err := w.File.Close(); err != nil {
		os.Remove(w.Name())
		return err
	}
	// CreateTemp uses 0600.
	if err := os.Chmod(w.Name(), 0o644); err != nil {
		os.Remove(w.Name())
		return err
	}
	if err := os.Rename(w.Name(), w.target); err != nil {
		os.Remove(w.Name())
		return err
	}
	return nil
}

func (w *localWriter) abort(error) error {
	w.File.Close()
	return os.Remove(w.Name())
}

var _ Store = (*Local)(nil)
