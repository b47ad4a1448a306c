package sqlast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	x := Eq(Col("a", "x"), Lit(int64(1)))
	y := Eq(Col("b", "y"), Lit(int64(2)))
	z := Eq(Col("c", "z"), Lit(int64(3)))

	testCases := []struct {
		name   string
		input  Expr
		expect Expr
	}{
		{
			name:   "leaf unchanged",
			input:  x,
			expect: x,
		},
		{
			name:   "negated leaf kept",
			input:  &Not{Expr: x},
			expect: &Not{Expr: x},
		},
		{
			name:   "double negation",
			input:  &Not{Expr: &Not{Expr: x}},
			expect: x,
		},
		{
			name:   "not and",
			input:  &Not{Expr: And(x, y)},
			expect: Or(&Not{Expr: x}, &Not{Expr: y}),
		},
		{
			name:   "not or",
			input:  &Not{Expr: Or(x, y)},
			expect: And(&Not{Expr: x}, &Not{Expr: y}),
		},
		{
			name:   "nested",
			input:  &Not{Expr: Or(And(x, &Not{Expr: y}), z)},
			expect: And(Or(&Not{Expr: x}, y), &Not{Expr: z}),
		},
		{
			name:   "not true",
			input:  &Not{Expr: &BoolLiteral{Value: true}},
			expect: &BoolLiteral{Value: false},
		},
		{
			name:   "connective without negation",
			input:  And(x, Or(y, z)),
			expect: And(x, Or(y, z)),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, Normalize(tc.input))
		})
	}
}

func TestNormalize_DoesNotModifyInput(t *testing.T) {
	x := Eq(Col("a", "x"), Lit(int64(1)))
	y := Eq(Col("b", "y"), Lit(int64(2)))
	input := &Not{Expr: And(x, y)}

	Normalize(input)

	assert.Equal(t, &Not{Expr: And(x, y)}, input)
}

func TestCopy(t *testing.T) {
	original := Or(
		And(Eq(Col("a", "x"), Lit("v")), &IsNull{Expr: Col("b", "y")}),
		&InSet{Expr: &Func{Name: "UPPER", Args: []Expr{Col("c", "z")}}, Values: &SetLiteral{Values: []any{"A"}}},
	)

	copied := Copy(original)

	assert.Equal(t, original, copied)
	assert.NotSame(t, original, copied)

	// Mutating the copy leaves the original intact.
	copied.(*Binary).Left.(*Binary).Left.(*Binary).Left.(*Column).Name = "changed"
	assert.Equal(t, "x", original.Left.(*Binary).Left.(*Binary).Left.(*Column).Name)
}

func TestCopy_Case(t *testing.T) {
	original := &Case{
		Whens: []When{{Cond: Eq(Col("a", "x"), Lit(int64(1))), Result: Lit("one")}},
		Else:  Lit("other"),
	}

	assert.Equal(t, Expr(original), Copy(original))
	assert.Nil(t, Copy(nil))
}
