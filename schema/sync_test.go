package schema

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/syssam/lingua/dialect"
	"github.com/syssam/lingua/dialect/sql"
)

var errDisk = errors.New("disk I/O error")

func mockDriver(t *testing.T, name string) (*sql.Driver, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sql.OpenDB(name, db), mock
}

func TestCreateWithTranslations(t *testing.T) {
	drv, mock := mockDriver(t, dialect.SQLite)
	mock.ExpectExec("CREATE TABLE `products` (`id` integer NOT NULL PRIMARY KEY AUTOINCREMENT, `sku` varchar(255) NOT NULL)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE `product_translations` (`id` integer NOT NULL PRIMARY KEY AUTOINCREMENT, `product_id` integer NOT NULL, `locale` varchar(16) NOT NULL, `name` varchar(255) NOT NULL, `description` text NOT NULL, CONSTRAINT `product_translations_product_id` FOREIGN KEY (`product_id`) REFERENCES `products` (`id`) ON DELETE CASCADE)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX `product_translations_product_id_locale` ON `product_translations` (`product_id`, `locale`)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX `product_translations_locale` ON `product_translations` (`locale`)").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tbl := NewTable("products").
		AddColumn(String("sku")).
		AddColumn(String("name").Translatable()).
		AddColumn(Text("description").Translatable())
	require.NoError(t, NewSync(drv).Create(context.Background(), tbl))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithoutTranslations(t *testing.T) {
	drv, mock := mockDriver(t, dialect.SQLite)
	mock.ExpectExec("CREATE TABLE `tags` (`id` integer NOT NULL PRIMARY KEY AUTOINCREMENT, `slug` varchar(255) NOT NULL)").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tbl := NewTable("tags").AddColumn(String("slug"))
	require.NoError(t, NewSync(drv).Create(context.Background(), tbl))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithUUIDColumn(t *testing.T) {
	token := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	drv, mock := mockDriver(t, dialect.Postgres)
	mock.ExpectExec(`CREATE TABLE "api_keys" ("id" bigint GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY, "public_token" uuid NOT NULL DEFAULT '6ba7b810-9dad-11d1-80b4-00c04fd430c8')`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	tbl := NewTable("api_keys").AddColumn(UUID("public_token").Default(token))
	require.NoError(t, NewSync(drv).Create(context.Background(), tbl))
	require.NoError(t, mock.ExpectationsWereMet())

	// Dialects without a native uuid type fall back to char(36).
	drv, mock = mockDriver(t, dialect.SQLite)
	mock.ExpectExec("CREATE TABLE `api_keys` (`id` integer NOT NULL PRIMARY KEY AUTOINCREMENT, `public_token` char(36) NOT NULL)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	tbl = NewTable("api_keys").AddColumn(UUID("public_token"))
	require.NoError(t, NewSync(drv).Create(context.Background(), tbl))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMainTableFailureAborts(t *testing.T) {
	drv, mock := mockDriver(t, dialect.SQLite)
	mock.ExpectExec("CREATE TABLE `products` (`id` integer NOT NULL PRIMARY KEY AUTOINCREMENT)").
		WillReturnError(errDisk)

	tbl := NewTable("products").AddColumn(String("name").Translatable())
	err := NewSync(drv).Create(context.Background(), tbl)
	require.Error(t, err)
	require.ErrorIs(t, err, errDisk)
	// The translation table was never attempted.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlterCreatesMissingTranslationTable(t *testing.T) {
	drv, mock := mockDriver(t, dialect.SQLite)
	mock.ExpectQuery("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?").
		WithArgs("post_translations").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("CREATE TABLE `post_translations` (`id` integer NOT NULL PRIMARY KEY AUTOINCREMENT, `post_id` integer NOT NULL, `locale` varchar(16) NOT NULL, `subtitle` varchar(255) NOT NULL, CONSTRAINT `post_translations_post_id` FOREIGN KEY (`post_id`) REFERENCES `posts` (`id`) ON DELETE CASCADE)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX `post_translations_post_id_locale` ON `post_translations` (`post_id`, `locale`)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX `post_translations_locale` ON `post_translations` (`locale`)").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tbl := NewTable("posts").AddColumn(String("subtitle").Translatable())
	require.NoError(t, NewSync(drv).Alter(context.Background(), tbl))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlterDiffsAgainstLiveColumns(t *testing.T) {
	drv, mock := mockDriver(t, dialect.MySQL)
	mock.ExpectQuery("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = (SELECT DATABASE()) AND table_name = ?").
		WithArgs("post_translations").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT column_name FROM information_schema.columns WHERE table_schema = (SELECT DATABASE()) AND table_name = ? ORDER BY ordinal_position").
		WithArgs("post_translations").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("id").AddRow("post_id").AddRow("locale").AddRow("body").AddRow("teaser"))
	// Drops come first, then changes, then additions. The "ghost" drop and
	// re-running additions against live columns are skipped silently.
	mock.ExpectExec("ALTER TABLE `post_translations` DROP COLUMN `teaser`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE `post_translations` MODIFY COLUMN `body` longtext NOT NULL").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE `post_translations` ADD COLUMN `subtitle` varchar(255) NOT NULL").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tbl := NewTable("posts").
		AddColumn(Text("body").Translatable().Change()).
		AddColumn(String("subtitle").Translatable()).
		DropTranslatable("teaser", "ghost")
	require.NoError(t, NewSync(drv).Alter(context.Background(), tbl))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlterMainTableColumns(t *testing.T) {
	drv, mock := mockDriver(t, dialect.MySQL)
	mock.ExpectExec("ALTER TABLE `products` ADD COLUMN `sku` varchar(64) NOT NULL").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ALTER TABLE `products` MODIFY COLUMN `stock` bigint NOT NULL").
		WillReturnResult(sqlmock.NewResult(0, 0))

	tbl := NewTable("products").
		AddColumn(String("sku").MaxLen(64)).
		AddColumn(Int64("stock").Change())
	require.NoError(t, NewSync(drv).Alter(context.Background(), tbl))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAlterModifyUnsupportedOnSQLite(t *testing.T) {
	drv, mock := mockDriver(t, dialect.SQLite)
	tbl := NewTable("products").AddColumn(String("sku").Change())
	err := NewSync(drv).Alter(context.Background(), tbl)
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not support modifying")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDropRemovesTranslationTableFirst(t *testing.T) {
	drv, mock := mockDriver(t, dialect.SQLite)
	mock.ExpectExec("DROP TABLE `product_translations`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DROP TABLE `products`").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, NewSync(drv).Drop(context.Background(), "products"))
	require.NoError(t, mock.ExpectationsWereMet())

	drv, mock = mockDriver(t, dialect.SQLite)
	mock.ExpectExec("DROP TABLE IF EXISTS `product_translations`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DROP TABLE IF EXISTS `products`").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, NewSync(drv).DropIfExists(context.Background(), "products"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAfterSyncHook(t *testing.T) {
	drv, mock := mockDriver(t, dialect.SQLite)
	mock.ExpectExec("CREATE TABLE `tags` (`id` integer NOT NULL PRIMARY KEY AUTOINCREMENT, `slug` varchar(255) NOT NULL)").
		WillReturnResult(sqlmock.NewResult(0, 0))

	var calls int
	s := NewSync(drv, WithAfterSync(func(context.Context) error {
		calls++
		return nil
	}))
	require.NoError(t, s.Create(context.Background(), NewTable("tags").AddColumn(String("slug"))))
	require.Equal(t, 1, calls)
}
