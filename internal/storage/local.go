package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
)

type LocalStore struct {
	Root string
}

func NewLocalStore(root string) *LocalStore {
	if root == "" {
		root = "."
	}
	return &LocalStore{Root: root}
}

func (s *LocalStore) abs(p string) (string, string, error) {
	c, err := CleanPath(p)
	if err != nil {
		return "", "", err
	}
	return c, filepath.Join(s.Root, filepath.FromSlash(c)), nil
}

func (s *LocalStore) Save(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	p := path.Join(dir, name)
	w, err := s.Create(ctx, p)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		_ = s.Remove(ctx, p)
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", p, err)
	}
	return path.Clean(p), nil
}

func (s *LocalStore) Create(_ context.Context, p string) (io.WriteCloser, error) {
	_, full, err := s.abs(p)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir for %s: %w", p, err)
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create %s: %w", p, ErrExist)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", p, err)
	}
	return f, nil
}

func (s *LocalStore) Open(_ context.Context, p string) (io.ReadCloser, error) {
	_, full, err := s.abs(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open %s: %w", p, ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return f, nil
}

func (s *LocalStore) Remove(_ context.Context, p string) error {
	_, full, err := s.abs(p)
	if err != nil {
		return err
	}
	err = os.Remove(full)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", p, ErrNotExist)
	}
	return err
}
