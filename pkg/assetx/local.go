package assetx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage writes assets below a directory on disk.
type LocalStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage stores files under root. baseURL is prefixed to object ids
// to build URLs; when empty, URLs are file:// paths.
func NewLocalStorage(root, baseURL string) (*LocalStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: root directory is required", ErrInvalidConfig)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &LocalStorage{root: abs, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Upload implements Storage.
func (l *LocalStorage) Upload(_ context.Context, folder, name string, data []byte, _ string) (Object, error) {
	key, err := objectKey(folder, name)
	if err != nil {
		return Object{}, err
	}

	full := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return Object{}, fmt.Errorf("assetx: create folder: %w", err)
	}
	if err := os.WriteFile(full, data, 0o640); err != nil {
		return Object{}, fmt.Errorf("assetx: write %s: %w", key, err)
	}

	return Object{ID: key, URL: l.url(key, full)}, nil
}

// Delete implements Storage.
func (l *LocalStorage) Delete(_ context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(id)))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

func (l *LocalStorage) url(key, full string) string {
	if l.baseURL == "" {
		return "file://" + filepath.ToSlash(full)
	}
	return l.baseURL + "/" + key
}

var _ Storage = (*LocalStorage)(nil)
