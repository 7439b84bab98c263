package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Snapshot is the persisted form of the cache: translation table name to
// translatable column names.
type Snapshot map[string][]string

// Encode serializes the snapshot to YAML.
func (s Snapshot) Encode() ([]byte, error) {
	return yaml.Marshal(s)
}

// DecodeSnapshot parses a YAML snapshot.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("lingua/cache: decode snapshot: %w", err)
	}
	return s, nil
}

// ReadSnapshotFile loads a snapshot from disk. A missing file is not an
// error; it yields a nil snapshot.
func ReadSnapshotFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeSnapshot(data)
}

// WriteSnapshotFile persists a snapshot to disk, creating parent
// directories as needed.
func WriteSnapshotFile(path string, s Snapshot) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// RemoveSnapshotFile deletes a persisted snapshot. A missing file is not
// an error.
func RemoveSnapshotFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Build scans the live schema for translation tables and assembles a
// snapshot of their translatable columns. Tables with no translatable
// columns are omitted from the snapshot; a notice per omission is
// returned alongside it.
func (a *Attributes) Build(ctx context.Context) (Snapshot, []string, error) {
	if a.introspector == nil {
		return nil, nil, fmt.Errorf("lingua/cache: no introspector configured")
	}
	tables, err := a.introspector.Tables(ctx, a.suffix)
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(tables)
	var (
		snap    = make(Snapshot)
		notices []string
	)
	for _, table := range tables {
		live, err := a.introspector.Columns(ctx, table)
		if err != nil {
			return nil, nil, err
		}
		cols := a.filter(table, live)
		if len(cols) == 0 {
			notices = append(notices, fmt.Sprintf("%s: no translatable columns, omitted", table))
			continue
		}
		snap[table] = cols
	}
	return snap, notices, nil
}

// Refresh rebuilds the snapshot from the live schema, persists it to the
// given path and loads it into the cache. It is the hook installed by
// schema sync when cache regeneration after migrations is enabled.
func (a *Attributes) Refresh(ctx context.Context, path string) error {
	snap, _, err := a.Build(ctx)
	if err != nil {
		return err
	}
	if err := WriteSnapshotFile(path, snap); err != nil {
		return err
	}
	a.LoadSnapshot(snap)
	return nil
}
