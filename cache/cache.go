// Package cache holds the process-wide mapping from translation table name
// to its translatable column names. It is populated either by introspecting
// the live schema on first use per table, or wholesale from a persisted
// snapshot, so the query rewriter never has to touch the schema per request.
package cache

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/lingua/schema"
)

// Introspector is the live-schema reader the cache falls back to on a
// miss. *schema.Inspector implements it.
type Introspector interface {
	Columns(ctx context.Context, table string) ([]string, error)
	Tables(ctx context.Context, suffix string) ([]string, error)
}

// Attributes is the translatable-attribute cache. Reads are lock-free in
// the sense that a reader either observes a table's full entry or none of
// it; population, snapshot loads and resets swap entries atomically.
type Attributes struct {
	mu      sync.RWMutex
	entries map[string][]string

	sf           singleflight.Group
	introspector Introspector
	suffix       string
	system       map[string]bool
}

// Option configures an Attributes cache.
type Option func(*Attributes)

// WithSuffix sets the translation table suffix used for foreign key
// exclusion and snapshot building. Defaults to schema.DefaultSuffix.
func WithSuffix(suffix string) Option {
	return func(a *Attributes) {
		if suffix != "" {
			a.suffix = suffix
		}
	}
}

// WithSystemColumns sets the column names always excluded from
// translatable-column detection. Defaults to {"id", "locale"}. The foreign
// key column is excluded regardless of this list.
func WithSystemColumns(names ...string) Option {
	return func(a *Attributes) {
		a.system = make(map[string]bool, len(names))
		for _, n := range names {
			a.system[n] = true
		}
	}
}

// New returns an empty cache backed by the given introspector. The
// introspector may be nil when the cache is fed exclusively from a
// snapshot; a miss then yields an empty set.
func New(in Introspector, opts ...Option) *Attributes {
	a := &Attributes{
		entries:      make(map[string][]string),
		introspector: in,
		suffix:       schema.DefaultSuffix,
		system:       map[string]bool{"id": true, "locale": true},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Get returns the translatable column names of the given translation
// table. On a miss the live schema is introspected once (concurrent
// misses for the same table are deduplicated) and the result memoized for
// the process lifetime. A table that cannot be introspected yields an
// empty set, so a rewrite against a non-existent translation table
// degrades to a no-op instead of failing the query.
func (a *Attributes) Get(ctx context.Context, table string) ([]string, error) {
	a.mu.RLock()
	cols, ok := a.entries[table]
	a.mu.RUnlock()
	if ok {
		return append([]string(nil), cols...), nil
	}
	if a.introspector == nil {
		return nil, nil
	}
	v, err, _ := a.sf.Do(table, func() (any, error) {
		live, err := a.introspector.Columns(ctx, table)
		if err != nil {
			return nil, err
		}
		cols := a.filter(table, live)
		a.mu.Lock()
		a.entries[table] = cols
		a.mu.Unlock()
		return cols, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), v.([]string)...), nil
}

// LoadSnapshot replaces the entire cache atomically with the given
// snapshot.
func (a *Attributes) LoadSnapshot(snap Snapshot) {
	entries := make(map[string][]string, len(snap))
	for table, cols := range snap {
		entries[table] = append([]string(nil), cols...)
	}
	a.mu.Lock()
	a.entries = entries
	a.mu.Unlock()
}

// Reset clears the cache, forcing the next Get per table to re-introspect.
func (a *Attributes) Reset() {
	a.mu.Lock()
	a.entries = make(map[string][]string)
	a.mu.Unlock()
}

// Len returns the number of cached tables.
func (a *Attributes) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

// filter drops system columns and the derived foreign key from a live
// column list.
func (a *Attributes) filter(table string, live []string) []string {
	fk := schema.ForeignKeyName(strings.TrimSuffix(table, a.suffix))
	cols := make([]string, 0, len(live))
	for _, name := range live {
		if a.system[name] || name == fk {
			continue
		}
		cols = append(cols, name)
	}
	return cols
}
