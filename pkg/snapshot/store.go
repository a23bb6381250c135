/*
Copyright 2025 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultPath is where the GPUs of the last boot are kept.
const DefaultPath = "/var/lib/ubuntu-drivers-common/last_gfx_boot"

// Store persists the boot snapshot between runs.
type Store interface {
	// Load returns nil when no previous snapshot exists.
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s Snapshot) error
}

// FileStore reads the previous boot from ReadPath and writes the current boot
// to WritePath. Both usually point to the same file.
type FileStore struct {
	ReadPath  string
	WritePath string
}

// NewFileStore creates a file-backed store.
func NewFileStore(readPath, writePath string) *FileStore {
	if readPath == "" {
		readPath = DefaultPath
	}
	if writePath == "" {
		writePath = readPath
	}
	return &FileStore{ReadPath: readPath, WritePath: writePath}
}

// Load reads the previous snapshot.
func (s *FileStore) Load(_ context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(s.ReadPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read boot snapshot: %w", err)
	}
	snap := Parse(string(data))
	return &snap, nil
}

// Save atomically replaces the snapshot file.
func (s *FileStore) Save(_ context.Context, snap Snapshot) error {
	dir := filepath.Dir(s.WritePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gpu-snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(snap.String()); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.WritePath); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// MemoryStore keeps the snapshot in memory. Saved snapshots become the
// previous boot of the next Load.
type MemoryStore struct {
	current *Snapshot
	saves   int
}

// NewMemoryStore creates a store optionally seeded with a previous boot.
func NewMemoryStore(previous *Snapshot) *MemoryStore {
	return &MemoryStore{current: previous}
}

func (s *MemoryStore) Load(_ context.Context) (*Snapshot, error) {
	if s.current == nil {
		return nil, nil
	}
	snap := *s.current
	return &snap, nil
}

func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	s.current = &snap
	s.saves++
	return nil
}

// Saves returns how many times Save was called.
func (s *MemoryStore) Saves() int {
	return s.saves
}
