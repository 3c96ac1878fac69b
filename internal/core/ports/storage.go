// internal/core/ports/storage.go
package ports

import (
	"context"
	"io"
	"time"
)

// ObjectStorage stores generated files such as ledger exports.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	GetPresignedURL(ctx context.Context, key string, duration time.Duration) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
}
