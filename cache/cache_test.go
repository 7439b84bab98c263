package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeIntrospector serves canned schemas and counts column lookups.
type fakeIntrospector struct {
	tables map[string][]string
	calls  int
}

func (f *fakeIntrospector) Columns(_ context.Context, table string) ([]string, error) {
	f.calls++
	return f.tables[table], nil
}

func (f *fakeIntrospector) Tables(_ context.Context, suffix string) ([]string, error) {
	var names []string
	for name := range f.tables {
		names = append(names, name)
	}
	return names, nil
}

func TestGetFiltersAndMemoizes(t *testing.T) {
	in := &fakeIntrospector{tables: map[string][]string{
		"product_translations": {"id", "product_id", "locale", "name", "description"},
	}}
	a := New(in)
	ctx := context.Background()

	cols, err := a.Get(ctx, "product_translations")
	require.NoError(t, err)
	require.Equal(t, []string{"name", "description"}, cols)
	require.Equal(t, 1, in.calls)

	// Second lookup is served from memory.
	cols, err = a.Get(ctx, "product_translations")
	require.NoError(t, err)
	require.Equal(t, []string{"name", "description"}, cols)
	require.Equal(t, 1, in.calls)

	a.Reset()
	_, err = a.Get(ctx, "product_translations")
	require.NoError(t, err)
	require.Equal(t, 2, in.calls)
}

func TestGetMissingTableYieldsEmptySet(t *testing.T) {
	a := New(&fakeIntrospector{tables: map[string][]string{}})
	cols, err := a.Get(context.Background(), "ghost_translations")
	require.NoError(t, err)
	require.Empty(t, cols)
}

func TestCustomSystemColumns(t *testing.T) {
	in := &fakeIntrospector{tables: map[string][]string{
		"page_translations": {"id", "page_id", "locale", "tenant_id", "title"},
	}}
	a := New(in, WithSystemColumns("id", "locale", "tenant_id"))
	cols, err := a.Get(context.Background(), "page_translations")
	require.NoError(t, err)
	require.Equal(t, []string{"title"}, cols)
}

func TestLoadSnapshotBypassesIntrospection(t *testing.T) {
	in := &fakeIntrospector{tables: map[string][]string{}}
	a := New(in)
	a.LoadSnapshot(Snapshot{"product_translations": {"name"}})

	cols, err := a.Get(context.Background(), "product_translations")
	require.NoError(t, err)
	require.Equal(t, []string{"name"}, cols)
	require.Zero(t, in.calls)
	require.Equal(t, 1, a.Len())
}

func TestBuildOmitsEmptyTables(t *testing.T) {
	in := &fakeIntrospector{tables: map[string][]string{
		"product_translations": {"id", "product_id", "locale", "name"},
		"legacy_translations":  {"id", "legacy_id", "locale"},
	}}
	a := New(in)
	snap, notices, err := a.Build(context.Background())
	require.NoError(t, err)
	require.Equal(t, Snapshot{"product_translations": {"name"}}, snap)
	require.Len(t, notices, 1)
	require.Contains(t, notices[0], "legacy_translations")
}

func TestSnapshotFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.yaml")
	snap := Snapshot{
		"product_translations": {"name", "description"},
		"post_translations":    {"title"},
	}
	require.NoError(t, WriteSnapshotFile(path, snap))

	got, err := ReadSnapshotFile(path)
	require.NoError(t, err)
	require.Equal(t, snap, got)

	require.NoError(t, RemoveSnapshotFile(path))
	got, err = ReadSnapshotFile(path)
	require.NoError(t, err)
	require.Nil(t, got)

	// Clearing twice is not an error.
	require.NoError(t, RemoveSnapshotFile(path))
}

func TestRefresh(t *testing.T) {
	in := &fakeIntrospector{tables: map[string][]string{
		"product_translations": {"id", "product_id", "locale", "name"},
	}}
	a := New(in)
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, a.Refresh(context.Background(), path))

	snap, err := ReadSnapshotFile(path)
	require.NoError(t, err)
	require.Equal(t, Snapshot{"product_translations": {"name"}}, snap)

	cols, err := a.Get(context.Background(), "product_translations")
	require.NoError(t, err)
	require.Equal(t, []string{"name"}, cols)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.yaml")
	a := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Watch(ctx, path))

	data, err := Snapshot{"product_translations": {"name"}}.Encode()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	require.Eventually(t, func() bool {
		cols, err := a.Get(context.Background(), "product_translations")
		return err == nil && len(cols) == 1
	}, 3*time.Second, 10*time.Millisecond)
}
