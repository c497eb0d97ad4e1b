// Package storage abstracts the object store that holds banner images.
package storage

import (
	"context"
	"io"
)

// Interface is the object storage contract: upload bytes under a key and get
// back a public URL, or delete a key.
type Interface interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
