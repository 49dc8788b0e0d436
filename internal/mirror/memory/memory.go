// Package memory provides an in-memory mirror backend for tests and for
// running without remote credentials.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/NikBulygin/financeTracker/internal/mirror"
)

type file struct {
	name     string
	content  string
	modified time.Time
}

type Storage struct {
	mu    sync.Mutex
	files map[string]*file
	seq   int

	// Now is the clock used for modification times; tests may override it.
	Now func() time.Time
}

var _ mirror.Storage = (*Storage)(nil)

func New() *Storage {
	return &Storage{
		files: make(map[string]*file),
		Now:   time.Now,
	}
}

func (s *Storage) FindByName(_ context.Context, name string) (*mirror.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, f := range s.files {
		if f.name == name {
			return s.info(id, f), nil
		}
	}
	return nil, nil
}

func (s *Storage) Upload(_ context.Context, name, content, existingID string) (*mirror.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID != "" {
		f, ok := s.files[existingID]
		if !ok {
			return nil, fmt.Errorf("upload: no file with id %s", existingID)
		}
		f.name = name
		f.content = content
		f.modified = s.Now()
		return s.info(existingID, f), nil
	}

	s.seq++
	id := fmt.Sprintf("mem:%d", s.seq)
	s.files[id] = &file{name: name, content: content, modified: s.Now()}
	return s.info(id, s.files[id]), nil
}

func (s *Storage) Download(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return "", fmt.Errorf("download: no file with id %s", id)
	}
	return f.content, nil
}

// Content returns the stored content for a file id; test helper.
func (s *Storage) Content(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return "", false
	}
	return f.content, true
}

// Len reports the number of stored files; test helper.
func (s *Storage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

func (s *Storage) info(id string, f *file) *mirror.FileInfo {
	return &mirror.FileInfo{
		ID:           id,
		Name:         f.name,
		ModifiedTime: f.modified,
		WebViewLink:  "memory://" + id,
	}
}
