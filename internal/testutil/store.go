package testutil

import (
	"context"
	"sync"
)

// Store is an in-memory storage bucket.
type Store struct {
	mu       sync.Mutex
	name     string
	Files    map[string]bool
	Removed  [][]string
	Err      error
	Recorder *Recorder
}

func NewStore(bucket string, rec *Recorder) *Store {
	return &Store{name: bucket, Files: map[string]bool{}, Recorder: rec}
}

func (s *Store) Put(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Files[path] = true
}

func (s *Store) Has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Files[path]
}

func (s *Store) Bucket() string {
	return s.name
}

func (s *Store) RemoveFiles(ctx context.Context, paths []string) error {
	s.Recorder.Record("storage." + s.name)
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		delete(s.Files, p)
	}
	s.Removed = append(s.Removed, append([]string(nil), paths...))
	return nil
}
