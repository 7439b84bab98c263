// Package entity defines the contract a data model fulfills to opt into
// row-level translation, and the writer that persists translated values
// with upsert semantics.
package entity

import "sync"

// Translatable is implemented by models whose translatable attributes
// live in a sibling translation table. The methods describe the storage
// layout only; values are carried separately.
type Translatable interface {
	// TranslationTable returns the translation table name.
	TranslationTable() string
	// TranslationForeignKey returns the column referencing the main row.
	TranslationForeignKey() string
	// TranslatableAttributes returns the translatable column names.
	TranslatableAttributes() []string
}

// Model is an embeddable buffer of pending translated values, keyed by
// locale and attribute. Values accumulate across SetTranslation calls
// and are flushed in one transaction by a Writer.
type Model struct {
	mu      sync.Mutex
	pending map[string]map[string]any
}

// SetTranslation stages a translated value for the given locale. The
// value is not persisted until the model is flushed.
func (m *Model) SetTranslation(locale, attr string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		m.pending = make(map[string]map[string]any)
	}
	vals := m.pending[locale]
	if vals == nil {
		vals = make(map[string]any)
		m.pending[locale] = vals
	}
	vals[attr] = value
}

// Translation returns a staged value for the given locale and attribute.
func (m *Model) Translation(locale, attr string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vals, ok := m.pending[locale]
	if !ok {
		return nil, false
	}
	v, ok := vals[attr]
	return v, ok
}

// PendingTranslations returns a copy of all staged values.
func (m *Model) PendingTranslations() map[string]map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]map[string]any, len(m.pending))
	for locale, vals := range m.pending {
		cp := make(map[string]any, len(vals))
		for k, v := range vals {
			cp[k] = v
		}
		out[locale] = cp
	}
	return out
}

// ClearPending discards all staged values.
func (m *Model) ClearPending() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
}
