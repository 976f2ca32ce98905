// Package memory is a process-local KeyValueStore for tests and throwaway runs.
package memory

import (
	"context"
	"maps"
	"sync"
)

type Store struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]string
}

func NewStore() *Store {
	return &Store{namespaces: make(map[string]map[string]string)}
}

func (s *Store) Snapshot(_ context.Context, namespace string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.namespaces[namespace]))
	maps.Copy(out, s.namespaces[namespace])
	return out, nil
}

func (s *Store) Replace(_ context.Context, namespace string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.namespaces[namespace] = maps.Clone(values)
	return nil
}

func (s *Store) Clear(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, namespace)
	return nil
}
