package history

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/histq/internal/lifeperiod"
	"github.com/roach88/histq/internal/rangeset"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedNames are tables and columns managed by the store itself.
var reservedNames = []string{
	"id", lifeperiod.RevMinColumn, lifeperiod.RevMaxColumn,
	"revisions", "history_tables", lifeperiod.FlexDataTable,
}

func checkIdentifier(kind, name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid %s name %q", kind, name)
	}
	if slices.Contains(reservedNames, strings.ToLower(name)) {
		return fmt.Errorf("%s name %q is reserved", kind, name)
	}
	return nil
}

// CreateTable creates a versioned table with the given user columns.
// Every versioned table additionally has id, rev_min and rev_max.
//
// This function is idempotent - creating an existing table is a no-op.
func (s *Store) CreateTable(ctx context.Context, name string, columns []string) error {
	if err := checkIdentifier("table", name); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	for _, col := range columns {
		if err := checkIdentifier("column", col); err != nil {
			return fmt.Errorf("create table %s: %w", name, err)
		}
	}

	ddl := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (id INTEGER NOT NULL, %s INTEGER NOT NULL, %s INTEGER NOT NULL",
		name, lifeperiod.RevMinColumn, lifeperiod.RevMaxColumn)
	for _, col := range columns {
		ddl += ", " + col
	}
	ddl += fmt.Sprintf(", PRIMARY KEY (id, %s))", lifeperiod.RevMinColumn)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO history_tables (name, columns) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, strings.Join(columns, ",")); err != nil {
		return fmt.Errorf("register table %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	s.logger.Debug("table created", "table", name, "columns", columns)
	return nil
}

// Tx applies the changes of one revision.
type Tx struct {
	tx  *sql.Tx
	rev int64
}

// Revision returns the revision being written.
func (t *Tx) Revision() int64 {
	return t.rev
}

// Commit writes a new revision. All changes made by fn become valid from
// the new revision on; if fn returns an error nothing is written.
// Returns the committed revision.
func (s *Store) Commit(ctx context.Context, message string, fn func(ctx context.Context, tx *Tx) error) (int64, error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin revision: %w", err)
	}
	defer sqlTx.Rollback()

	var rev int64
	if err := sqlTx.QueryRowContext(ctx, "SELECT COALESCE(MAX(rev), 0) + 1 FROM revisions").Scan(&rev); err != nil {
		return 0, fmt.Errorf("allocate revision: %w", err)
	}
	if _, err := sqlTx.ExecContext(ctx, "INSERT INTO revisions (rev, message) VALUES (?, ?)", rev, message); err != nil {
		return 0, fmt.Errorf("allocate revision: %w", err)
	}

	if err := fn(ctx, &Tx{tx: sqlTx, rev: rev}); err != nil {
		return 0, fmt.Errorf("revision %d: %w", rev, err)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit revision %d: %w", rev, err)
	}
	s.logger.Debug("revision committed", "rev", rev, "message", message)
	return rev, nil
}

// Put sets the row of object id in table. Columns not given in values are
// NULL in the new version. The previous version stays valid up to the
// preceding revision.
func (t *Tx) Put(ctx context.Context, table string, id int64, values map[string]any) error {
	columns, err := t.columns(ctx, table)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(values))
	for name := range values {
		if !slices.Contains(columns, name) {
			return fmt.Errorf("put %s/%d: unknown column %q", table, id, name)
		}
		names = append(names, name)
	}
	slices.Sort(names)

	if err := t.retire(ctx, table, lifeperiod.RevMinColumn, lifeperiod.RevMaxColumn, "id = ?", id); err != nil {
		return fmt.Errorf("put %s/%d: %w", table, id, err)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (id, %s, %s", table, lifeperiod.RevMinColumn, lifeperiod.RevMaxColumn)
	args := []any{id, t.rev, rangeset.MaxRevision}
	for _, name := range names {
		stmt += ", " + name
		args = append(args, values[name])
	}
	stmt += ") VALUES (?" + strings.Repeat(", ?", len(args)-1) + ")"

	if _, err := t.tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("put %s/%d: %w", table, id, err)
	}
	return nil
}

// Delete ends the validity of object id in table with the preceding
// revision.
func (t *Tx) Delete(ctx context.Context, table string, id int64) error {
	if _, err := t.columns(ctx, table); err != nil {
		return err
	}
	if err := t.retire(ctx, table, lifeperiod.RevMinColumn, lifeperiod.RevMaxColumn, "id = ?", id); err != nil {
		return fmt.Errorf("delete %s/%d: %w", table, id, err)
	}
	return nil
}

// SetFlex sets the dynamic attribute attr of object id. A nil value
// removes the attribute.
func (t *Tx) SetFlex(ctx context.Context, id int64, attr string, value any) error {
	if err := t.retire(ctx, lifeperiod.FlexDataTable, lifeperiod.FlexRevMinColumn, lifeperiod.FlexRevMaxColumn,
		"id = ? AND attr = ?", id, attr); err != nil {
		return fmt.Errorf("set flex %d.%s: %w", id, attr, err)
	}
	if value == nil {
		return nil
	}

	_, err := t.tx.ExecContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (id, attr, val, %s, %s) VALUES (?, ?, ?, ?, ?)",
		lifeperiod.FlexDataTable, lifeperiod.FlexRevMinColumn, lifeperiod.FlexRevMaxColumn),
		id, attr, value, t.rev, rangeset.MaxRevision)
	if err != nil {
		return fmt.Errorf("set flex %d.%s: %w", id, attr, err)
	}
	return nil
}

// retire ends the alive version of the rows matching cond. A version
// created in this same revision is dropped instead, since it was never
// visible.
func (t *Tx) retire(ctx context.Context, table, minCol, maxCol, cond string, args ...any) error {
	dropArgs := append(slices.Clone(args), t.rev)
	if _, err := t.tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s AND %s = ?", table, cond, minCol), dropArgs...); err != nil {
		return err
	}

	closeArgs := append([]any{t.rev - 1}, args...)
	closeArgs = append(closeArgs, rangeset.MaxRevision)
	_, err := t.tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s AND %s = ?", table, maxCol, cond, maxCol), closeArgs...)
	return err
}

// columns returns the user columns of a versioned table.
func (t *Tx) columns(ctx context.Context, table string) ([]string, error) {
	var list string
	err := t.tx.QueryRowContext(ctx, "SELECT columns FROM history_tables WHERE name = ?", table).Scan(&list)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup table %q: %w", table, err)
	}
	if list == "" {
		return nil, nil
	}
	return strings.Split(list, ","), nil
}
