package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/lingua/cache"
	"github.com/syssam/lingua/schema"
)

func newCacheCmd() *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Build (or clear) the translatable-attribute snapshot",
		Long: `Scans the database for translation tables and persists the mapping from
translation table to translatable column names, so that applications skip
per-table schema introspection at runtime.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if clear {
				if err := cache.RemoveSnapshotFile(cfg.CachePath); err != nil {
					return err
				}
				cmd.Printf("cleared %s\n", cfg.CachePath)
				return nil
			}
			drv, err := openDriver()
			if err != nil {
				return err
			}
			defer drv.Close()
			attrs := cache.New(
				schema.NewInspector(drv),
				cache.WithSuffix(cfg.TableSuffix),
				cache.WithSystemColumns(cfg.SystemColumns...),
			)
			snap, notices, err := attrs.Build(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range notices {
				cmd.Println(n)
			}
			if len(snap) == 0 {
				cmd.Println("no translation tables with translatable columns found")
			}
			if err := cache.WriteSnapshotFile(cfg.CachePath, snap); err != nil {
				return err
			}
			cmd.Printf("wrote %s (%s)\n", cfg.CachePath, plural(len(snap), "table"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "delete the snapshot file instead of building it")
	return cmd
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
