package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FS stores blobs as files below a root directory.
type FS struct {
	root string
}

func NewFS(root string) (*FS, error) {
	if root == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FS{root: root}, nil
}

func (s *FS) Put(ctx context.Context, key string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	target := filepath.Join(s.root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *FS) Get(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := cleanKey(ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return data, err
}

func (s *FS) Type() string {
	return "fs"
}
