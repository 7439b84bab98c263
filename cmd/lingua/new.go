package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/spf13/cobra"

	"github.com/syssam/lingua"
	"github.com/syssam/lingua/schema"
)

const schemaPkg = "github.com/syssam/lingua/schema"

func newNewCmd() *cobra.Command {
	var (
		table string
		dir   string
		pkg   string
	)
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Scaffold a migration from its name",
		Long: `Derives the target table and operation from the migration name
("create_products_table", "add_subtitle_to_posts_table", ...) and writes a
Go migration skeleton. Names outside the conventions need --table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			kind, target, err := schema.InferMigration(name)
			if err != nil {
				if table == "" {
					return fmt.Errorf("%w (use --table to name it explicitly)", err)
				}
				if !lingua.IsSchemaInference(err) {
					return err
				}
				target = table
				kind = schema.KindAlter
				if strings.HasPrefix(name, "create_") {
					kind = schema.KindCreate
				}
			}
			if table != "" {
				target = table
			}
			path := filepath.Join(dir, name+".go")
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			src, err := renderMigration(pkg, name, target, kind)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, src, 0o644); err != nil {
				return err
			}
			cmd.Printf("created %s (%s %s)\n", path, kind, target)
			return nil
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "target table when the name does not follow a convention")
	cmd.Flags().StringVar(&dir, "dir", "migrations", "directory the migration is written to")
	cmd.Flags().StringVar(&pkg, "package", "migrations", "package name of the generated file")
	return cmd
}

// renderMigration emits the Up/Down function pair for a migration.
func renderMigration(pkg, name, table string, kind schema.MigrationKind) ([]byte, error) {
	f := jen.NewFile(pkg)
	f.HeaderComment("Code generated by lingua new. Fill in the column list.")

	params := []jen.Code{
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("s").Op("*").Qual(schemaPkg, "Sync"),
	}
	up, down := "Up"+exportName(name), "Down"+exportName(name)

	switch kind {
	case schema.KindCreate:
		f.Func().Id(up).Params(params...).Error().Block(
			jen.Id("t").Op(":=").Qual(schemaPkg, "NewTable").Call(jen.Lit(table)),
			jen.Id("t").Dot("AddColumn").Call(
				jen.Qual(schemaPkg, "String").Call(jen.Lit("name")).Dot("Translatable").Call(),
			),
			jen.Return(jen.Id("s").Dot("Create").Call(jen.Id("ctx"), jen.Id("t"))),
		)
		f.Line()
		f.Func().Id(down).Params(params...).Error().Block(
			jen.Return(jen.Id("s").Dot("DropIfExists").Call(jen.Id("ctx"), jen.Lit(table))),
		)
	default:
		f.Func().Id(up).Params(params...).Error().Block(
			jen.Id("t").Op(":=").Qual(schemaPkg, "NewTable").Call(jen.Lit(table)),
			jen.Id("t").Dot("AddColumn").Call(
				jen.Qual(schemaPkg, "String").Call(jen.Lit("name")).Dot("Translatable").Call(),
			),
			jen.Return(jen.Id("s").Dot("Alter").Call(jen.Id("ctx"), jen.Id("t"))),
		)
		f.Line()
		f.Func().Id(down).Params(params...).Error().Block(
			jen.Id("t").Op(":=").Qual(schemaPkg, "NewTable").Call(jen.Lit(table)),
			jen.Id("t").Dot("DropTranslatable").Call(jen.Lit("name")),
			jen.Return(jen.Id("s").Dot("Alter").Call(jen.Id("ctx"), jen.Id("t"))),
		)
	}

	var buf strings.Builder
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// exportName converts a snake_case migration name into an exported Go
// identifier.
func exportName(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	return b.String()
}
