package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps uploaded files on disk. It exists so development and tests
// need no cloud credentials; main serves the directory under /files/.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the storage directory if needed. baseURL is the public
// origin the files are served from, e.g. http://localhost:8080.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", root, err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory files are stored in.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return s.baseURL + "/files/" + path, nil
}

func (s *LocalStore) Download(ctx context.Context, url string) ([]byte, error) {
	if path, ok := s.objectPath(url); ok {
		data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(path)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return data, nil
	}
	return fetchHTTP(ctx, url)
}

func (s *LocalStore) Delete(ctx context.Context, url string) error {
	path, ok := s.objectPath(url)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

func (s *LocalStore) objectPath(url string) (string, bool) {
	prefix := s.baseURL + "/files/"
	if strings.HasPrefix(url, prefix) {
		return strings.TrimPrefix(url, prefix), true
	}
	return "", false
}
