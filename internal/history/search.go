package history

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/histq/internal/lifeperiod"
	"github.com/roach88/histq/internal/rangeset"
	"github.com/roach88/histq/internal/sqlast"
)

// Plan selects how the life period of a result row is computed.
type Plan string

const (
	// PlanWhere analyzes the join conditions and the WHERE clause, adding
	// oracle columns for disjunctions.
	PlanWhere Plan = "where"

	// PlanTables intersects the validity of every participating row.
	PlanTables Plan = "tables"
)

// ValidPlans lists the accepted Plan values.
var ValidPlans = []Plan{PlanWhere, PlanTables}

// Query describes a history query.
type Query struct {
	// Result is the alias of the table whose id identifies a result
	// object.
	Result string

	// From is the FROM clause.
	From sqlast.TableRef

	// Where filters rows (nil = no filter).
	Where sqlast.Expr

	// ForeverAlive lists aliases of tables that are not versioned.
	ForeverAlive []string

	// Plan defaults to PlanWhere.
	Plan Plan
}

// CompiledSearch is a history query prepared for execution. It is
// immutable and safe for concurrent use.
type CompiledSearch struct {
	// Select is the augmented query: object id, the validity columns of
	// every table in Tables, then the oracle columns.
	Select *sqlast.Select

	// Tables lists the versioned tables whose validity is read per row.
	Tables lifeperiod.TableInfos

	// Condition is the analyzed condition: join conditions and WHERE,
	// normalized. It is nil for PlanTables or when there is none.
	Condition sqlast.Expr

	// Computation is the life period of a result row.
	Computation lifeperiod.Computation

	// OracleColumns are the probe columns referenced by Computation.
	OracleColumns []sqlast.ColumnDef

	oracleOffset int
}

// Compile prepares q for execution.
func Compile(q Query) (*CompiledSearch, error) {
	if q.Result == "" {
		return nil, fmt.Errorf("compile search: result alias required")
	}
	if q.From == nil {
		return nil, fmt.Errorf("compile search: FROM clause required")
	}

	foreverAlive := lifeperiod.NewAliasSet(q.ForeverAlive...)
	tables, err := lifeperiod.CollectTables(q.From, foreverAlive)
	if err != nil {
		return nil, fmt.Errorf("compile search: %w", err)
	}

	var (
		condition   sqlast.Expr
		computation lifeperiod.Computation
		oracles     []sqlast.ColumnDef
	)
	switch q.Plan {
	case PlanWhere, "":
		var outer []string
		condition, outer = conditionOf(q)
		builder := lifeperiod.NewBuilder(foreverAlive)
		computation, err = builder.Build(condition)
		if err != nil {
			return nil, fmt.Errorf("compile search: %w", err)
		}
		oracles = builder.OracleColumns()
		computation = lifeperiod.Intersect(outerJoinRows(outer, foreverAlive), computation)
	case PlanTables:
		computation = lifeperiod.AllTables(tables, nil)
	default:
		return nil, fmt.Errorf("compile search: unknown plan %q", q.Plan)
	}

	columns := []sqlast.ColumnDef{{Expr: sqlast.Col(q.Result, "id"), Alias: "obj_id"}}
	for i, info := range tables {
		columns = append(columns,
			sqlast.ColumnDef{Expr: sqlast.Col(info.Alias, info.RevMinColumn), Alias: fmt.Sprintf("rev_min_%d", i)},
			sqlast.ColumnDef{Expr: sqlast.Col(info.Alias, info.RevMaxColumn), Alias: fmt.Sprintf("rev_max_%d", i)},
		)
	}
	oracleOffset := len(columns)
	columns = append(columns, oracles...)

	return &CompiledSearch{
		Select: &sqlast.Select{
			Columns: columns,
			From:    q.From,
			Where:   q.Where,
			OrderBy: []sqlast.Order{{Expr: sqlast.Col(q.Result, "id")}},
		},
		Tables:        tables,
		Condition:     condition,
		Computation:   computation,
		OracleColumns: oracles,
		oracleOffset:  oracleOffset,
	}, nil
}

// conditionOf returns the normalized conjunction of the inner join
// conditions and the WHERE clause, and the aliases of the tables taking
// part in a left outer join.
//
// A left outer join's ON is not analyzed: in a NULL-extended row every
// oracle over it reads 0 and would drop the row. Its tables contribute
// their row periods instead, which are unconstrained when NULL. Joins nested
// in the right side of an outer join are NULL-extended with it.
func conditionOf(q Query) (sqlast.Expr, []string) {
	var (
		cond  sqlast.Expr
		outer []string
	)
	and := func(e sqlast.Expr) {
		if e == nil {
			return
		}
		if cond == nil {
			cond = e
			return
		}
		cond = sqlast.And(cond, e)
	}

	var walk func(ref sqlast.TableRef, nullable bool)
	walk = func(ref sqlast.TableRef, nullable bool) {
		j, ok := ref.(*sqlast.Join)
		if !ok {
			return
		}
		if j.Kind == sqlast.JoinLeftOuter {
			outer = append(outer, tableAliases(j)...)
			walk(j.Left, nullable)
			walk(j.Right, true)
			return
		}
		walk(j.Left, nullable)
		walk(j.Right, nullable)
		if !nullable {
			and(j.On)
		}
	}
	walk(q.From, false)
	and(q.Where)

	if cond == nil {
		return nil, outer
	}
	return sqlast.Normalize(cond), outer
}

// tableAliases lists the aliases bound in ref, left to right.
func tableAliases(ref sqlast.TableRef) []string {
	switch t := ref.(type) {
	case *sqlast.Table:
		if t.Alias == "" {
			return []string{t.Name}
		}
		return []string{t.Alias}
	case *sqlast.Join:
		return append(tableAliases(t.Left), tableAliases(t.Right)...)
	default:
		return nil
	}
}

// outerJoinRows intersects the row periods of aliases, skipping
// duplicates and tables in foreverAlive.
func outerJoinRows(aliases []string, foreverAlive lifeperiod.AliasSet) lifeperiod.Computation {
	seen := make(map[string]bool, len(aliases))
	result := lifeperiod.Forever
	for _, alias := range aliases {
		if seen[alias] || foreverAlive.Contains(alias) {
			continue
		}
		seen[alias] = true
		result = lifeperiod.Intersect(result, lifeperiod.Row(alias))
	}
	return result
}

// ObjectPeriods reports the revisions in which an object matched.
type ObjectPeriods struct {
	ID     int64        `json:"id"`
	Ranges rangeset.Set `json:"ranges"`
}

// SearchOptions controls a search execution.
type SearchOptions struct {
	// Args holds values for named parameters of the query.
	Args map[string]any

	// Limit stops reading after this many rows (0 = no limit).
	Limit int

	// SearchID tags the log lines of this execution. A UUIDv7 is
	// generated when empty.
	SearchID string
}

// Search executes cs and returns, ordered by id, every object whose
// matching rows have a non-empty life period. The life periods of several
// rows for the same object are united.
func (s *Store) Search(ctx context.Context, cs *CompiledSearch, opts SearchOptions) ([]ObjectPeriods, error) {
	searchID := opts.SearchID
	if searchID == "" {
		searchID = UUIDv7Generator{}.Generate()
	}
	logger := s.logger.With("search_id", searchID)
	start := time.Now()

	query, params, err := sqlast.NewCompiler(opts.Args).Compile(cs.Select)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	logger.Debug("executing search", "sql", query, "tables", len(cs.Tables), "oracles", len(cs.OracleColumns))

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	periods := make(map[int64]rangeset.Set)
	rowCount := 0
	for rows.Next() {
		if opts.Limit > 0 && rowCount >= opts.Limit {
			break
		}
		rowCount++

		id, rc, err := cs.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("search: read row %d: %w", rowCount, err)
		}
		if !id.Valid {
			continue
		}

		ranges := cs.Computation.ComputeRanges(rc)
		if prev, ok := periods[id.Int64]; ok {
			ranges = rangeset.Union(prev, ranges)
		}
		periods[id.Int64] = ranges
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	result := make([]ObjectPeriods, 0, len(periods))
	for id, ranges := range periods {
		if ranges.IsEmpty() {
			continue
		}
		result = append(result, ObjectPeriods{ID: id, Ranges: ranges})
	}
	slices.SortFunc(result, func(a, b ObjectPeriods) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	logger.Debug("search finished", "rows", rowCount, "objects", len(result), "elapsed", time.Since(start))
	return result, nil
}

// scan reads one result row into its object id and a Context over it.
func (cs *CompiledSearch) scan(rows *sql.Rows) (sql.NullInt64, *rowContext, error) {
	var id sql.NullInt64
	validity := make([]sql.NullInt64, 2*len(cs.Tables))
	oracles := make([]sql.NullInt64, len(cs.OracleColumns))

	dest := make([]any, 0, cs.oracleOffset+len(oracles))
	dest = append(dest, &id)
	for i := range validity {
		dest = append(dest, &validity[i])
	}
	for i := range oracles {
		dest = append(dest, &oracles[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return id, nil, err
	}

	return id, newRowContext(cs.Tables, validity, oracles), nil
}
