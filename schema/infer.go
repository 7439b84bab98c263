package schema

import (
	"regexp"

	"github.com/syssam/lingua"
)

// MigrationKind is the operation a migration name implies.
type MigrationKind uint8

// Migration kinds.
const (
	KindCreate MigrationKind = iota + 1
	KindAlter
)

// String returns the string representation of the kind.
func (k MigrationKind) String() string {
	if k == KindCreate {
		return "create"
	}
	return "alter"
}

var (
	createPattern = regexp.MustCompile(`^create_(\w+)_table$`)
	alterPattern  = regexp.MustCompile(`^(?:add|remove|change|rename|drop)_\w+_(?:to|from|in|on)_(\w+)_table$`)
)

// InferMigration derives the migration kind and target table from a
// migration name following the recognized conventions:
//
//	create_products_table        -> create, products
//	add_subtitle_to_posts_table  -> alter, posts
//
// Names outside the conventions yield a SchemaInferenceError; callers with
// an explicit table name should not call InferMigration at all.
func InferMigration(name string) (MigrationKind, string, error) {
	if m := createPattern.FindStringSubmatch(name); m != nil {
		return KindCreate, m[1], nil
	}
	if m := alterPattern.FindStringSubmatch(name); m != nil {
		return KindAlter, m[1], nil
	}
	return 0, "", lingua.NewSchemaInferenceError(name)
}
