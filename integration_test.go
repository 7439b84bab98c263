package lingua_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/lingua"
	"github.com/syssam/lingua/cache"
	"github.com/syssam/lingua/dialect/sql"
	"github.com/syssam/lingua/entity"
	"github.com/syssam/lingua/resolve"
	"github.com/syssam/lingua/schema"
)

func openSQLite(t *testing.T) *sql.Driver {
	name := strings.NewReplacer("/", "_", "#", "_").Replace(t.Name())
	drv, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	_, err = drv.DB().Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })
	return drv
}

// setupProducts creates the products schema and seeds three products:
// one fully translated, one translated only in the fallback locale, one
// untranslated.
func setupProducts(t *testing.T, drv *sql.Driver) {
	ctx := context.Background()
	tbl := schema.NewTable("products").
		AddColumn(schema.String("sku")).
		AddColumn(schema.String("name").Optional().Translatable()).
		AddColumn(schema.Text("description").Optional().Translatable())
	require.NoError(t, schema.NewSync(drv).Create(ctx, tbl))

	for _, sku := range []string{"SKU-1", "SKU-2", "SKU-3"} {
		query, args := sql.Insert("products").Dialect(drv.Dialect()).Set("sku", sku).Query()
		require.NoError(t, drv.Exec(ctx, query, args, nil))
	}

	w := entity.NewWriter(drv)
	require.NoError(t, w.SaveMany(ctx, product{}, 1, map[string]map[string]any{
		"de": {"name": "Stuhl", "description": "Ein Stuhl"},
		"en": {"name": "Chair", "description": "A chair"},
	}))
	require.NoError(t, w.Save(ctx, product{}, 2, "en", map[string]any{
		"name": "Desk", "description": "A desk",
	}))
}

type product struct{}

func (product) TranslationTable() string         { return "product_translations" }
func (product) TranslationForeignKey() string    { return "product_id" }
func (product) TranslatableAttributes() []string { return []string{"name", "description"} }

type productRow struct {
	ID          int64
	SKU         string
	Name        sql.NullString
	Description sql.NullString
}

func queryProducts(t *testing.T, drv *sql.Driver, strategy lingua.Strategy, locale string) []productRow {
	s := sql.Select().From(sql.Table("products")).Dialect(drv.Dialect()).OrderBy("products.id")
	resolve.Apply(s, resolve.Query{
		Strategy:         strategy,
		Locale:           locale,
		FallbackLocale:   "en",
		Columns:          product{}.TranslatableAttributes(),
		TranslationTable: product{}.TranslationTable(),
		ForeignKey:       product{}.TranslationForeignKey(),
	})
	query, args := s.Query()
	rows := &sql.Rows{}
	require.NoError(t, drv.Query(context.Background(), query, args, rows))
	defer rows.Close()
	var out []productRow
	for rows.Next() {
		var r productRow
		require.NoError(t, rows.Scan(&r.ID, &r.SKU, &r.Name, &r.Description))
		out = append(out, r)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestStrictExcludesUntranslated(t *testing.T) {
	drv := openSQLite(t)
	setupProducts(t, drv)

	rows := queryProducts(t, drv, lingua.Strict, "de")
	require.Len(t, rows, 1)
	require.Equal(t, "SKU-1", rows[0].SKU)
	require.Equal(t, "Stuhl", rows[0].Name.String)

	rows = queryProducts(t, drv, lingua.Strict, "en")
	require.Len(t, rows, 2)
}

func TestNullableKeepsUntranslated(t *testing.T) {
	drv := openSQLite(t)
	setupProducts(t, drv)

	rows := queryProducts(t, drv, lingua.Nullable, "de")
	require.Len(t, rows, 3)
	require.Equal(t, "Stuhl", rows[0].Name.String)
	require.False(t, rows[1].Name.Valid)
	require.False(t, rows[2].Name.Valid)
}

func TestFallbackCoalescesPerColumn(t *testing.T) {
	drv := openSQLite(t)
	setupProducts(t, drv)
	ctx := context.Background()

	// Product 2 gets a German name but no German description; fallback
	// must mix locales within the row.
	w := entity.NewWriter(drv)
	require.NoError(t, w.Save(ctx, product{}, 2, "de", map[string]any{"name": "Tisch"}))

	rows := queryProducts(t, drv, lingua.Fallback, "de")
	require.Len(t, rows, 3)
	require.Equal(t, "Tisch", rows[1].Name.String)
	require.Equal(t, "A desk", rows[1].Description.String)
	// Fully untranslated rows keep NULLs even under fallback.
	require.False(t, rows[2].Name.Valid)
}

func TestPredicateRewriteAgainstLiveData(t *testing.T) {
	drv := openSQLite(t)
	setupProducts(t, drv)

	s := sql.Select().From(sql.Table("products")).Dialect(drv.Dialect()).
		Where(sql.And(sql.EQ("id", 1), sql.Like("name", "St%")))
	resolve.Apply(s, resolve.Query{
		Strategy:         lingua.Strict,
		Locale:           "de",
		Columns:          []string{"name", "description"},
		TranslationTable: "product_translations",
		ForeignKey:       "product_id",
	})
	query, args := s.Query()
	rows := &sql.Rows{}
	require.NoError(t, drv.Query(context.Background(), query, args, rows))
	defer rows.Close()
	var n int
	for rows.Next() {
		n++
	}
	require.NoError(t, rows.Err())
	require.Equal(t, 1, n)
}

func TestCascadeDelete(t *testing.T) {
	drv := openSQLite(t)
	setupProducts(t, drv)
	ctx := context.Background()

	query, args := sql.Delete("products").Dialect(drv.Dialect()).Where(sql.EQ("id", 1)).Query()
	require.NoError(t, drv.Exec(ctx, query, args, nil))

	rows := &sql.Rows{}
	require.NoError(t, drv.Query(ctx, "SELECT COUNT(*) FROM product_translations WHERE product_id = ?", []any{1}, rows))
	defer rows.Close()
	require.True(t, rows.Next())
	var n int
	require.NoError(t, rows.Scan(&n))
	require.Zero(t, n)
}

func TestUniqueLocaleConstraint(t *testing.T) {
	drv := openSQLite(t)
	setupProducts(t, drv)
	ctx := context.Background()

	query, args := sql.Insert("product_translations").Dialect(drv.Dialect()).
		Set("product_id", 1).
		Set("locale", "de").
		Set("name", "Sessel").
		Set("description", "dup").
		Query()
	err := drv.Exec(ctx, query, args, nil)
	require.Error(t, err)
	require.True(t, lingua.IsUniqueViolation(err))
}

func TestAlterAddsTranslatableColumn(t *testing.T) {
	drv := openSQLite(t)
	setupProducts(t, drv)
	ctx := context.Background()

	alter := schema.NewTable("products").
		AddColumn(schema.String("tagline").Optional().Translatable())
	require.NoError(t, schema.NewSync(drv).Alter(ctx, alter))

	insp := schema.NewInspector(drv)
	cols, err := insp.Columns(ctx, "product_translations")
	require.NoError(t, err)
	require.Contains(t, cols, "tagline")

	// Re-running the same alter is a no-op.
	again := schema.NewTable("products").
		AddColumn(schema.String("tagline").Optional().Translatable())
	require.NoError(t, schema.NewSync(drv).Alter(ctx, again))
}

func TestCacheIntrospectsLiveSchema(t *testing.T) {
	drv := openSQLite(t)
	setupProducts(t, drv)

	attrs := cache.New(schema.NewInspector(drv))
	cols, err := attrs.Get(context.Background(), "product_translations")
	require.NoError(t, err)
	require.Equal(t, []string{"name", "description"}, cols)

	snap, notices, err := attrs.Build(context.Background())
	require.NoError(t, err)
	require.Empty(t, notices)
	require.Equal(t, cache.Snapshot{"product_translations": {"name", "description"}}, snap)
}

func TestAfterSyncRefreshesCache(t *testing.T) {
	drv := openSQLite(t)
	attrs := cache.New(schema.NewInspector(drv))
	path := t.TempDir() + "/cache.yaml"

	s := schema.NewSync(drv, schema.WithAfterSync(func(ctx context.Context) error {
		return attrs.Refresh(ctx, path)
	}))
	tbl := schema.NewTable("pages").
		AddColumn(schema.String("slug")).
		AddColumn(schema.String("title").Translatable())
	require.NoError(t, s.Create(context.Background(), tbl))

	snap, err := cache.ReadSnapshotFile(path)
	require.NoError(t, err)
	require.Equal(t, cache.Snapshot{"page_translations": {"title"}}, snap)
}
