package sqlast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemTable() *Table {
	return &Table{Name: "item", Alias: "a"}
}

func TestCompile_SimpleSelect(t *testing.T) {
	compiler := NewCompiler(nil)

	sel := &Select{
		Columns: []ColumnDef{{Expr: Col("a", "id")}},
		From:    itemTable(),
		Where:   Eq(Col("a", "name"), Lit("widget")),
		OrderBy: []Order{{Expr: Col("a", "id")}},
	}

	sql, params, err := compiler.Compile(sel)
	require.NoError(t, err)

	assert.Equal(t, "SELECT a.id FROM item AS a WHERE (a.name = ?) ORDER BY a.id ASC", sql)
	// Value NOT in SQL
	assert.NotContains(t, sql, "widget")
	assert.Equal(t, []any{"widget"}, params)
}

func TestCompile_DistinctAndAliases(t *testing.T) {
	sel := &Select{
		Distinct: true,
		Columns: []ColumnDef{
			{Expr: Col("a", "id"), Alias: "obj"},
			{Expr: &IsTrue{Expr: Eq(Col("a", "qty"), Lit(int64(3)))}, Alias: "oracle_0"},
		},
		From:    itemTable(),
		OrderBy: []Order{{Expr: Col("a", "id"), Descending: true}},
	}

	sql, params, err := NewCompiler(nil).Compile(sel)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT DISTINCT a.id AS obj, CASE WHEN (a.qty = ?) THEN 1 ELSE 0 END AS oracle_0 FROM item AS a ORDER BY a.id DESC",
		sql)
	assert.Equal(t, []any{int64(3)}, params)
}

func TestCompile_NestedJoin(t *testing.T) {
	from := &Join{
		Kind: JoinLeftOuter,
		Left: itemTable(),
		Right: &Join{
			Left:  &Table{Name: "ref", Alias: "b"},
			Right: &Table{Name: "other", Alias: "c"},
			On:    Eq(Col("b", "x"), Col("c", "x")),
		},
		On: Eq(Col("a", "id"), Col("b", "ref")),
	}
	sel := &Select{Columns: []ColumnDef{{Expr: Col("a", "id")}}, From: from}

	sql, params, err := NewCompiler(nil).Compile(sel)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT a.id FROM item AS a LEFT OUTER JOIN (ref AS b INNER JOIN other AS c ON (b.x = c.x)) ON (a.id = b.ref)",
		sql)
	assert.Empty(t, params)
}

func TestCompile_Parameters(t *testing.T) {
	compiler := NewCompiler(map[string]any{
		"name": "bolt",
		"ids":  []int64{1, 2, 3},
	})

	sel := &Select{
		Columns: []ColumnDef{{Expr: Col("a", "id")}},
		From:    itemTable(),
		Where: And(
			Eq(Col("a", "name"), &Parameter{Name: "name"}),
			&InSet{Expr: Col("a", "id"), Values: &SetParameter{Name: "ids"}},
		),
	}

	sql, params, err := compiler.Compile(sel)
	require.NoError(t, err)

	assert.Equal(t, "SELECT a.id FROM item AS a WHERE ((a.name = ?) AND (a.id IN (?, ?, ?)))", sql)
	assert.Equal(t, []any{"bolt", int64(1), int64(2), int64(3)}, params)
}

func TestCompile_LeavesAndFunctions(t *testing.T) {
	where := Or(
		&Not{Expr: &IsNull{Expr: Col("a", "name")}},
		And(
			Eq(&Func{Name: "LOWER", Args: []Expr{Col("a", "name")}}, Lit("x")),
			&InSet{Expr: Col("a", "kind"), Values: &SetLiteral{Values: []any{"p", "q"}}},
		),
	)
	sel := &Select{
		Columns: []ColumnDef{{Expr: Col("a", "id")}},
		From:    itemTable(),
		Where:   where,
	}

	sql, params, err := NewCompiler(nil).Compile(sel)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT a.id FROM item AS a WHERE (NOT (a.name IS NULL) OR ((LOWER(a.name) = ?) AND (a.kind IN (?, ?))))",
		sql)
	assert.Equal(t, []any{"x", "p", "q"}, params)
}

func TestCompile_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		sel    *Select
		errMsg string
	}{
		{
			name:   "nil select",
			sel:    nil,
			errMsg: "nil select",
		},
		{
			name:   "no columns",
			sel:    &Select{From: itemTable()},
			errMsg: "without columns",
		},
		{
			name:   "no from",
			sel:    &Select{Columns: []ColumnDef{{Expr: Col("a", "id")}}},
			errMsg: "without FROM",
		},
		{
			name: "missing argument",
			sel: &Select{
				Columns: []ColumnDef{{Expr: Col("a", "id")}},
				From:    itemTable(),
				Where:   Eq(Col("a", "id"), &Parameter{Name: "id"}),
			},
			errMsg: `missing argument "id"`,
		},
		{
			name: "join without on",
			sel: &Select{
				Columns: []ColumnDef{{Expr: Col("a", "id")}},
				From:    &Join{Left: itemTable(), Right: &Table{Name: "b"}},
			},
			errMsg: "join without ON",
		},
		{
			name: "unsupported value",
			sel: &Select{
				Columns: []ColumnDef{{Expr: Col("a", "id")}},
				From:    itemTable(),
				Where:   Eq(Col("a", "id"), Lit(struct{}{})),
			},
			errMsg: "unsupported value type",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := NewCompiler(nil).Compile(tc.sel)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestFormat_InlinesLiterals(t *testing.T) {
	expr := Or(
		Eq(Col("a", "name"), Lit("it's")),
		And(&Not{Expr: &IsNull{Expr: Col("b", "x")}}, &BoolLiteral{Value: true}),
	)

	assert.Equal(t, "((a.name = 'it''s') OR (NOT (b.x IS NULL) AND TRUE))", Format(expr))
	assert.Equal(t, "(a.id IN (:ids))", Format(&InSet{Expr: Col("a", "id"), Values: &SetParameter{Name: "ids"}}))
	assert.Equal(t, "<nil expression>", Format(nil))
}

func TestFormatTable(t *testing.T) {
	ref := &Join{
		Kind:  JoinInner,
		Left:  &Table{Name: "item", Alias: "item"},
		Right: &Table{Name: "ref", Alias: "r"},
		On:    Eq(Col("item", "id"), Col("r", "item")),
	}

	assert.Equal(t, "item INNER JOIN ref AS r ON (item.id = r.item)", FormatTable(ref))
}
