package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gcstorage "cloud.google.com/go/storage"
)

const gcsPublicPrefix = "https://storage.googleapis.com/"

// GCSStore keeps uploaded files in a Google Cloud Storage bucket. Objects are
// addressed by their public URL so the database only ever stores URLs.
type GCSStore struct {
	client *gcstorage.Client
	bucket string
}

// NewGCSStore opens a GCS client for the given bucket. Credentials come from
// the environment (GOOGLE_APPLICATION_CREDENTIALS or metadata server).
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := gcstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Upload writes the object and returns its public URL.
func (s *GCSStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	writer := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to write object %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", path, err)
	}
	return gcsPublicPrefix + s.bucket + "/" + path, nil
}

// Download reads an object back. URLs inside this store's bucket are read
// through the client so private buckets work; anything else is fetched over
// plain HTTP.
func (s *GCSStore) Download(ctx context.Context, url string) ([]byte, error) {
	if path, ok := s.objectPath(url); ok {
		ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
		defer cancel()

		reader, err := s.client.Bucket(s.bucket).Object(path).NewReader(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to open object %s: %w", path, err)
		}
		defer reader.Close()
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read object %s: %w", path, err)
		}
		return data, nil
	}
	return fetchHTTP(ctx, url)
}

// Delete removes an object; a missing object is ignored.
func (s *GCSStore) Delete(ctx context.Context, url string) error {
	path, ok := s.objectPath(url)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := s.client.Bucket(s.bucket).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, gcstorage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) objectPath(url string) (string, bool) {
	prefix := gcsPublicPrefix + s.bucket + "/"
	if strings.HasPrefix(url, prefix) {
		return strings.TrimPrefix(url, prefix), true
	}
	return "", false
}

func fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid file URL %s: %w", url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
