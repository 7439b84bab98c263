package entity

import (
	"context"
	"fmt"
	"sort"

	"github.com/syssam/lingua"
	"github.com/syssam/lingua/dialect"
	"github.com/syssam/lingua/dialect/sql"
)

// Writer persists translated values into translation tables. Each row is
// keyed by (foreign key, locale); Save updates the existing row or
// inserts a new one, and a lost insert race against the unique key
// degrades into a single update retry.
type Writer struct {
	drv dialect.Driver
}

// NewWriter returns a Writer over the given driver.
func NewWriter(drv dialect.Driver) *Writer {
	return &Writer{drv: drv}
}

// Save persists the given translated values for one (entity, locale) pair
// in its own transaction. An empty value set is a no-op.
func (w *Writer) Save(ctx context.Context, e Translatable, entityID any, locale string, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := w.drv.Tx(ctx)
	if err != nil {
		return err
	}
	if err := w.save(ctx, tx, e, entityID, locale, values); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w: rolling back: %v", err, rerr)
		}
		return err
	}
	return tx.Commit()
}

// SaveMany persists values for multiple locales in a single transaction.
// All locales are written or none are.
func (w *Writer) SaveMany(ctx context.Context, e Translatable, entityID any, byLocale map[string]map[string]any) error {
	locales := make([]string, 0, len(byLocale))
	for locale, values := range byLocale {
		if len(values) > 0 {
			locales = append(locales, locale)
		}
	}
	if len(locales) == 0 {
		return nil
	}
	sort.Strings(locales)
	tx, err := w.drv.Tx(ctx)
	if err != nil {
		return err
	}
	for _, locale := range locales {
		if err := w.save(ctx, tx, e, entityID, locale, byLocale[locale]); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				return fmt.Errorf("%w: rolling back: %v", err, rerr)
			}
			return err
		}
	}
	return tx.Commit()
}

// Flushable combines the storage contract with a pending-value buffer.
// *Model provides the buffer half.
type Flushable interface {
	Translatable
	PendingTranslations() map[string]map[string]any
	ClearPending()
}

// Flush writes the model's staged translations in one transaction and
// clears the buffer on success.
func (w *Writer) Flush(ctx context.Context, e Flushable, entityID any) error {
	if err := w.SaveMany(ctx, e, entityID, e.PendingTranslations()); err != nil {
		return err
	}
	e.ClearPending()
	return nil
}

// save runs the update-then-insert upsert inside an open transaction.
// The insert runs under a savepoint: postgres aborts the transaction on
// any failed statement, so without it the retry update below could never
// execute there.
func (w *Writer) save(ctx context.Context, tx dialect.ExecQuerier, e Translatable, entityID any, locale string, values map[string]any) error {
	n, err := w.update(ctx, tx, e, entityID, locale, values)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if err := tx.Exec(ctx, "SAVEPOINT lingua_save", []any{}, nil); err != nil {
		return err
	}
	ierr := w.insert(ctx, tx, e, entityID, locale, values)
	if ierr == nil {
		return tx.Exec(ctx, "RELEASE SAVEPOINT lingua_save", []any{}, nil)
	}
	if !lingua.IsUniqueViolation(ierr) {
		return ierr
	}
	// A concurrent writer inserted the row between our update and
	// insert. Roll back to the savepoint and retry the update exactly
	// once.
	if err := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT lingua_save", []any{}, nil); err != nil {
		return err
	}
	n, err = w.update(ctx, tx, e, entityID, locale, values)
	if err != nil {
		return err
	}
	if n == 0 {
		return lingua.NewConstraintError(fmt.Sprintf("%s (%s=%v, locale=%s)", e.TranslationTable(), e.TranslationForeignKey(), entityID, locale), ierr)
	}
	return nil
}

func (w *Writer) update(ctx context.Context, tx dialect.ExecQuerier, e Translatable, entityID any, locale string, values map[string]any) (int64, error) {
	u := sql.Update(e.TranslationTable()).Dialect(w.drv.Dialect())
	for _, col := range sortedKeys(values) {
		u.Set(col, values[col])
	}
	u.Where(sql.And(
		sql.EQ(e.TranslationForeignKey(), entityID),
		sql.EQ("locale", locale),
	))
	query, args := u.Query()
	var res sql.Result
	if err := tx.Exec(ctx, query, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (w *Writer) insert(ctx context.Context, tx dialect.ExecQuerier, e Translatable, entityID any, locale string, values map[string]any) error {
	i := sql.Insert(e.TranslationTable()).Dialect(w.drv.Dialect()).
		Set(e.TranslationForeignKey(), entityID).
		Set("locale", locale)
	for _, col := range sortedKeys(values) {
		i.Set(col, values[col])
	}
	query, args := i.Query()
	return tx.Exec(ctx, query, args, nil)
}

func sortedKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
