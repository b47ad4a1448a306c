package lifeperiod

import (
	"github.com/roach88/histq/internal/sqlast"
)

// Validity column names.
const (
	// FlexDataTable is the physical name of the table holding dynamic
	// attributes.
	FlexDataTable = "flex_data"

	RevMinColumn     = "rev_min"
	RevMaxColumn     = "rev_max"
	FlexRevMinColumn = "_rev_min"
	FlexRevMaxColumn = "_rev_max"
)

// TableInfo names the result columns carrying a table's validity bounds.
type TableInfo struct {
	Alias        string `json:"alias"`
	RevMinColumn string `json:"rev_min_column"`
	RevMaxColumn string `json:"rev_max_column"`
}

// NewTableInfo returns the TableInfo for an occurrence of table name under
// alias.
func NewTableInfo(name, alias string) TableInfo {
	if name == FlexDataTable {
		return TableInfo{Alias: alias, RevMinColumn: FlexRevMinColumn, RevMaxColumn: FlexRevMaxColumn}
	}
	return TableInfo{Alias: alias, RevMinColumn: RevMinColumn, RevMaxColumn: RevMaxColumn}
}

// TableInfos is an ordered map from alias to TableInfo, in the order the
// tables were first encountered.
type TableInfos []TableInfo

// Get returns the TableInfo for alias.
func (t TableInfos) Get(alias string) (TableInfo, bool) {
	for _, info := range t {
		if info.Alias == alias {
			return info, true
		}
	}
	return TableInfo{}, false
}

// Aliases returns the recorded aliases in order.
func (t TableInfos) Aliases() []string {
	aliases := make([]string, len(t))
	for i, info := range t {
		aliases[i] = info.Alias
	}
	return aliases
}

// AliasSet is a set of table aliases.
type AliasSet map[string]struct{}

// NewAliasSet builds a set from the given aliases.
func NewAliasSet(aliases ...string) AliasSet {
	s := make(AliasSet, len(aliases))
	for _, a := range aliases {
		s[a] = struct{}{}
	}
	return s
}

// Contains reports whether alias is in s. A nil set is empty.
func (s AliasSet) Contains(alias string) bool {
	_, ok := s[alias]
	return ok
}

// CollectTables walks the FROM clause and records a TableInfo for every
// table occurrence not in ignore. Join conditions are not inspected.
func CollectTables(from sqlast.TableRef, ignore AliasSet) (TableInfos, error) {
	c := &tableCollector{ignore: ignore}
	if err := c.visit(from); err != nil {
		return nil, err
	}
	return c.infos, nil
}

// tableCollector accumulates table infos during traversal.
type tableCollector struct {
	ignore AliasSet
	infos  TableInfos
}

func (c *tableCollector) visit(ref sqlast.TableRef) error {
	switch t := ref.(type) {
	case *sqlast.Table:
		alias := t.Alias
		if alias == "" {
			alias = t.Name
		}
		if c.ignore.Contains(alias) {
			return nil
		}
		if _, seen := c.infos.Get(alias); seen {
			return nil
		}
		c.infos = append(c.infos, NewTableInfo(t.Name, alias))
		return nil
	case *sqlast.Join:
		if err := c.visit(t.Left); err != nil {
			return err
		}
		return c.visit(t.Right)
	default:
		return &BuildError{
			Code:    ErrCodeInvalidTable,
			Message: "unsupported table reference",
			Expr:    typeName(ref),
		}
	}
}

// AllTables returns the intersection of the row life periods of all tables
// in infos except those in ignore. This is the life period of a query whose
// WHERE clause is not analyzed: every participating row must be alive.
func AllTables(infos TableInfos, ignore AliasSet) Computation {
	result := Forever
	for _, info := range infos {
		if ignore.Contains(info.Alias) {
			continue
		}
		result = Intersect(result, Row(info.Alias))
	}
	return result
}
