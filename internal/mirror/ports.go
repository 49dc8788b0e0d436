// Package mirror defines the remote object-storage boundary the sync loop
// pushes serialized tables to and pulls them from.
package mirror

import (
	"context"
	"time"
)

// FileInfo describes one remote object.
type FileInfo struct {
	ID           string
	Name         string
	ModifiedTime time.Time
	WebViewLink  string
}

// Storage is the port a remote mirror backend implements. Content is always
// the serialized table text.
type Storage interface {
	// FindByName returns the newest remote object with the given name, or
	// nil when none exists.
	FindByName(ctx context.Context, name string) (*FileInfo, error)

	// Upload stores content under name. A non-empty existingID updates
	// that object in place; otherwise a new object is created.
	Upload(ctx context.Context, name, content, existingID string) (*FileInfo, error)

	// Download returns the content of the object with the given ID.
	Download(ctx context.Context, id string) (string, error)
}
