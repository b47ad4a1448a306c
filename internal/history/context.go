package history

import (
	"database/sql"

	"github.com/roach88/histq/internal/lifeperiod"
)

// rowContext exposes one result row to a lifeperiod.Computation.
//
// validity holds the min and max column of every table in tables, in
// order; a SQL NULL pair means the table did not take part in the row.
type rowContext struct {
	tables   lifeperiod.TableInfos
	validity []sql.NullInt64
	oracles  []bool
}

func newRowContext(tables lifeperiod.TableInfos, validity []sql.NullInt64, oracles []sql.NullInt64) *rowContext {
	results := make([]bool, len(oracles))
	for i, o := range oracles {
		results[i] = o.Valid && o.Int64 != 0
	}
	return &rowContext{tables: tables, validity: validity, oracles: results}
}

func (c *rowContext) MinimumValidity(alias string) (int64, bool) {
	return c.bound(alias, 0)
}

func (c *rowContext) MaximumValidity(alias string) (int64, bool) {
	return c.bound(alias, 1)
}

func (c *rowContext) bound(alias string, offset int) (int64, bool) {
	for i, info := range c.tables {
		if info.Alias == alias {
			v := c.validity[2*i+offset]
			return v.Int64, v.Valid
		}
	}
	return 0, false
}

func (c *rowContext) OracleResult(index int) bool {
	if index < 0 || index >= len(c.oracles) {
		return false
	}
	return c.oracles[index]
}
