// Package file keeps each preference namespace in its own YAML document.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"instore-payment-client/internal/core/domain"
)

// Store writes <dir>/<namespace>.yaml. A replace goes through a temp file and
// a rename, so a crash leaves either the old or the new document.
type Store struct {
	mu  sync.Mutex
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", domain.ErrStorageUnavailable, dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(namespace string) string {
	return filepath.Join(s.dir, namespace+".yaml")
}

func (s *Store) Snapshot(_ context.Context, namespace string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(namespace))
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrStorageUnavailable, namespace, err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", namespace, err)
	}
	return values, nil
}

func (s *Store) Replace(_ context.Context, namespace string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode %s: %w", namespace, err)
	}

	tmp, err := os.CreateTemp(s.dir, namespace+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write %s: %v", domain.ErrStorageUnavailable, namespace, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync %s: %v", domain.ErrStorageUnavailable, namespace, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", domain.ErrStorageUnavailable, namespace, err)
	}
	if err := os.Rename(tmp.Name(), s.path(namespace)); err != nil {
		return fmt.Errorf("%w: rename %s: %v", domain.ErrStorageUnavailable, namespace, err)
	}
	return nil
}

func (s *Store) Clear(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(namespace)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", domain.ErrStorageUnavailable, namespace, err)
	}
	return nil
}
