// Package memory provides an in-memory TableStore for tests and the default
// backend when no database path is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/NikBulygin/financeTracker/internal/storage"
	"github.com/NikBulygin/financeTracker/internal/table"
)

type Store struct {
	mu      sync.Mutex
	tables  map[string]string // identity -> serialized table
	fileIDs map[string]string // identity -> remote file reference
	version string
	agent   string

	// Now is the clock used for metadata rows; tests may override it.
	Now func() time.Time
}

var _ storage.TableStore = (*Store)(nil)

func New(version, agent string) *Store {
	return &Store{
		tables:  make(map[string]string),
		fileIDs: make(map[string]string),
		version: version,
		agent:   agent,
		Now:     time.Now,
	}
}

func (s *Store) Get(_ context.Context, identity string, defaultHeaders []string) (table.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text, ok := s.tables[identity]
	if !ok {
		t := table.New(identity, s.version, s.agent, defaultHeaders, s.Now())
		s.tables[identity] = t.Marshal()
		return t, nil
	}

	t, err := table.Unmarshal(text)
	if err != nil {
		return table.Table{}, err
	}
	if t.EnsureHeaders(defaultHeaders) {
		s.tables[identity] = t.Marshal()
	}
	return t, nil
}

func (s *Store) Save(_ context.Context, identity string, t table.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[identity] = t.Marshal()
	return nil
}

func (s *Store) RemoteFileID(_ context.Context, identity string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileIDs[identity], nil
}

func (s *Store) SetRemoteFileID(_ context.Context, identity, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fileIDs[identity] = fileID
	return nil
}
