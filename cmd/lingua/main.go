// Command lingua is the maintenance CLI: it scaffolds migrations and
// manages the translatable-attribute snapshot.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/lingua"
	"github.com/syssam/lingua/dialect/sql"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// defaultCachePath is used when the configuration leaves cache_path empty.
const defaultCachePath = ".lingua_cache.yaml"

var (
	configPath  string
	databaseURL string
	dialectName string
)

func main() {
	root := &cobra.Command{
		Use:           "lingua",
		Short:         "Row-level internationalization toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "lingua.yaml", "path to the configuration file")
	root.PersistentFlags().StringVar(&databaseURL, "database-url", "", "database connection string (or LINGUA_DATABASE_URL)")
	root.PersistentFlags().StringVar(&dialectName, "dialect", "", "database dialect: sqlite, mysql or postgres (inferred from the URL when empty)")
	root.AddCommand(newCacheCmd(), newNewCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "lingua:", err)
		os.Exit(1)
	}
}

func loadConfig() (lingua.Config, error) {
	cfg, err := lingua.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	if cfg.CachePath == "" {
		cfg.CachePath = defaultCachePath
	}
	return cfg, nil
}

// openDriver opens the configured database. The dialect is taken from the
// --dialect flag when set, otherwise inferred from the connection string.
func openDriver() (*sql.Driver, error) {
	url := databaseURL
	if url == "" {
		url = os.Getenv("LINGUA_DATABASE_URL")
	}
	if url == "" {
		return nil, fmt.Errorf("no database given, set --database-url or LINGUA_DATABASE_URL")
	}
	name := dialectName
	if name == "" {
		name = inferDialect(url)
	}
	if name == "" {
		return nil, fmt.Errorf("cannot infer dialect from %q, set --dialect", url)
	}
	return sql.Open(name, url)
}

func inferDialect(url string) string {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres"
	case strings.Contains(url, "@tcp("), strings.Contains(url, "@unix("):
		return "mysql"
	case strings.HasPrefix(url, "file:"), strings.HasSuffix(url, ".db"), strings.HasSuffix(url, ".sqlite"), url == ":memory:":
		return "sqlite"
	}
	return ""
}
