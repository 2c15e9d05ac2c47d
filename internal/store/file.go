package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"FlowSentinel/internal/model"
)

// FileStore keeps one JSON file per subscriber in a directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(subscriber string) string {
	return filepath.Join(s.dir, subscriber+".json")
}

// Load reads the snapshot from its JSON file. Returns nil if the file doesn't exist.
func (s *FileStore) Load(_ context.Context, subscriber string) (*model.Snapshot, error) {
	if err := checkSubscriber(subscriber); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(subscriber))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", subscriber, err)
	}
	return normalize(&snap), nil
}

// Save writes the snapshot atomically via a temp file and rename.
func (s *FileStore) Save(_ context.Context, subscriber string, snap *model.Snapshot) error {
	if err := checkSubscriber(subscriber); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path(subscriber) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(subscriber))
}

func (s *FileStore) Close() error { return nil }
