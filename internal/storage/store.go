// Package storage keeps uploaded and generated files, either on local disk or
// in a Google Cloud Storage bucket. Paths are slash separated and relative to
// the store root.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	ErrNotExist    = errors.New("storage: object does not exist")
	ErrExist       = errors.New("storage: object already exists")
	ErrInvalidPath = errors.New("storage: invalid path")
)

type Store interface {
	// Save copies r into dir/name and returns the stored path.
	Save(ctx context.Context, dir, name string, r io.Reader) (string, error)
	// Create opens a new object for writing. It fails with ErrExist instead
	// of replacing an object that is already there.
	Create(ctx context.Context, p string) (io.WriteCloser, error)
	Open(ctx context.Context, p string) (io.ReadCloser, error)
	Remove(ctx context.Context, p string) error
}

// CleanPath normalises p and rejects anything that would leave the store root.
func CleanPath(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" || strings.HasPrefix(p, "/") {
		return "", ErrInvalidPath
	}
	c := path.Clean(p)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", ErrInvalidPath
	}
	return c, nil
}
