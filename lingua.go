// Package lingua implements transparent row-level internationalization for
// SQL-backed entities. A main table keeps an entity's locale-invariant
// columns while a shadow translation table keeps one row per (entity, locale)
// pair for the columns whose values vary by locale.
//
// The package is split the same way the runtime works:
//
//   - schema: column/table specifications and the engine that keeps the main
//     table and its translation table structurally in sync.
//   - resolve: the query rewriter that joins the translation table into an
//     entity query according to a resolution strategy.
//   - cache: the process-wide mapping of translation table -> translatable
//     column names, backed by live introspection or a persisted snapshot.
//   - entity: the capability interface translatable entities implement, and
//     the transactional writer for translation rows.
//
// # Resolution Strategies
//
// Three strategies govern how a missing translation is resolved:
//
//	lingua.Strict   // inner join; entities without the locale are excluded
//	lingua.Nullable // left join; missing translations yield NULL columns
//	lingua.Fallback // left join twice; COALESCE(current, fallback) per column
//
// The strategy is read from configuration at the request boundary and passed
// explicitly into the resolver, which is itself configuration-free.
package lingua

import (
	"fmt"
	"os"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Strategy determines how entity queries resolve missing translations.
type Strategy string

// Supported resolution strategies.
const (
	// Strict inner-joins the translation table. Entities lacking a
	// translation row for the active locale are excluded entirely.
	Strict Strategy = "strict"

	// Nullable left-joins the translation table. Entities without a
	// matching translation row appear with NULL translatable columns.
	Nullable Strategy = "nullable"

	// Fallback left-joins the translation table twice and coalesces each
	// translatable column from the active locale row to the fallback
	// locale row, column by column.
	Fallback Strategy = "fallback"
)

// Valid reports whether s is a recognized strategy.
func (s Strategy) Valid() bool {
	switch s {
	case Strict, Nullable, Fallback:
		return true
	}
	return false
}

// ParseStrategy converts a configuration string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(s)
	if !st.Valid() {
		return "", fmt.Errorf("lingua: unknown missing_translation_strategy %q", s)
	}
	return st, nil
}

// Config holds the module-level options. Engines never read it directly;
// a thin adapter at the boundary resolves it once per request and passes
// the relevant values down.
type Config struct {
	// Strategy applied when a translation row for the active locale is
	// missing. Defaults to Strict.
	Strategy Strategy `yaml:"missing_translation_strategy"`

	// FallbackLocale is consulted by the Fallback strategy. The canonical
	// source is the host application's locale configuration; this key
	// exists so deployments without one can mirror that setting here.
	FallbackLocale string `yaml:"fallback_locale"`

	// CachePath is the location of the persisted attribute snapshot,
	// relative to the application root. Absence of the file is not an
	// error; the cache falls back to per-table introspection.
	CachePath string `yaml:"cache_path"`

	// AutoCacheAfterMigrate regenerates the snapshot after every
	// successful migration-family command.
	AutoCacheAfterMigrate bool `yaml:"auto_cache_after_migrate"`

	// TableSuffix is appended to the singularized main table name to
	// derive the translation table name. Defaults to "_translations".
	TableSuffix string `yaml:"table_suffix"`

	// SystemColumns are always excluded from translatable-column
	// detection. The foreign key column is excluded regardless of name.
	// Defaults to {"id", "locale"}.
	SystemColumns []string `yaml:"system_columns"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Strategy:      Strict,
		TableSuffix:   "_translations",
		SystemColumns: []string{"id", "locale"},
	}
}

// LoadConfig reads a YAML configuration file and fills unset options with
// their defaults. A missing file yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("lingua: read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("lingua: parse config %q: %w", path, err)
	}
	if cfg.Strategy == "" {
		cfg.Strategy = Strict
	}
	if !cfg.Strategy.Valid() {
		return cfg, fmt.Errorf("lingua: unknown missing_translation_strategy %q", cfg.Strategy)
	}
	if cfg.TableSuffix == "" {
		cfg.TableSuffix = "_translations"
	}
	if cfg.SystemColumns == nil {
		cfg.SystemColumns = []string{"id", "locale"}
	}
	cfg.FallbackLocale = NormalizeLocale(cfg.FallbackLocale)
	return cfg, nil
}

// NormalizeLocale canonicalizes a locale identifier ("en_US" -> "en-US").
// Unparsable values are returned unchanged so that application-specific
// locale codes keep working.
func NormalizeLocale(locale string) string {
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return locale
	}
	return tag.String()
}
