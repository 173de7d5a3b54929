package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"studiodesk/internal/domain"
)

// LocalStorage writes uploads to a directory served under BaseURL.
type LocalStorage struct {
	dir     string
	baseURL string
}

var _ domain.FileStorage = (*LocalStorage)(nil)

func NewLocalStorage(dir, baseURL string) *LocalStorage {
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Dir is the directory files are written to.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// Save writes r to name and returns its public URL. name must be a plain
// file name.
func (s *LocalStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	_, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("move %s into place: %w", name, err)
	}
	return s.baseURL + "/" + name, nil
}

// LocalPath maps a URL returned by Save back to its file. It reports false
// for URLs outside BaseURL or files that no longer exist.
func (s *LocalStorage) LocalPath(url string) (string, bool) {
	name, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || name == "" || name != filepath.Base(name) {
		return "", false
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}
