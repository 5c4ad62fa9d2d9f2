package storage

import (
	"context"
	"fmt"
	"time"
)

// ObjectStore is durable keyed blob storage. Only keys are ever persisted by
// callers; read access goes through short-lived signed URLs minted per call.
type ObjectStore interface {
	// Put stores body under key, overwriting any previous object.
	Put(ctx context.Context, key string, body []byte, contentType string) error
	// Delete removes key. Deleting a nonexistent key is a no-op success.
	Delete(ctx context.Context, key string) error
	// SignedURL returns a time-limited read URL for key, or "" for an empty
	// key. The URL is computed fresh on every call and never cached.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// PdfKey returns the object key for an honor's rendered PDF
func PdfKey(honorID uint) string {
	return fmt.Sprintf("certificates/%d.pdf", honorID)
}

// ImageKey returns the object key for an honor's rendered PNG
func ImageKey(honorID uint) string {
	return fmt.Sprintf("certificates/%d.png", honorID)
}
