// Package storage abstracts where uploaded report files live. Production uses
// Google Cloud Storage; development falls back to a local directory so the
// server runs with zero external configuration.
package storage

import "context"

// BlobStore stores uploaded files and serves them back by URL.
type BlobStore interface {
	// Upload writes data under the given object path and returns the public
	// URL the file will be reachable at.
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// Download fetches the bytes behind a URL previously returned by Upload.
	Download(ctx context.Context, url string) ([]byte, error)
	// Delete removes the object behind a URL. Deleting a missing object is
	// not an error.
	Delete(ctx context.Context, url string) error
}
