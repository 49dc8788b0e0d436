// Package storage persists each user's table and remote file reference in a
// per-identity key/value store backed by SQLite.
package storage

import (
	"context"

	"github.com/NikBulygin/financeTracker/internal/table"
)

// TableStore is the port every storage backend implements. All data for one
// identity hangs off two sub-keys: the serialized table and the remote
// mirror's file reference.
type TableStore interface {
	// Get returns the identity's table, lazily creating one seeded with
	// defaultHeaders and a metadata row if absent. When an existing table
	// is missing some of defaultHeaders they are unioned in and the table
	// is persisted back.
	Get(ctx context.Context, identity string, defaultHeaders []string) (table.Table, error)

	// Save replaces the identity's persisted table wholesale.
	Save(ctx context.Context, identity string, t table.Table) error

	// RemoteFileID returns the stored remote mirror reference, or "" when
	// none has been recorded.
	RemoteFileID(ctx context.Context, identity string) (string, error)

	// SetRemoteFileID records the remote mirror reference for the identity.
	SetRemoteFileID(ctx context.Context, identity, fileID string) error
}
