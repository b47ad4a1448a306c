package lifeperiod

import (
	"fmt"

	"github.com/roach88/histq/internal/sqlast"
)

// OracleColumnPrefix prefixes the aliases of oracle probe columns.
const OracleColumnPrefix = "oracle_"

// Builder translates WHERE clauses into Computations.
//
// The WHERE clause must be normalized (sqlast.Normalize) so that no AND or
// OR appears below a NOT. Oracle probe columns are accumulated across Build
// calls; their positions in OracleColumns are the indexes referenced by
// Oracle nodes.
//
// A Builder is not safe for concurrent use. The Computations it returns
// are.
type Builder struct {
	foreverAlive AliasSet
	oracles      []sqlast.ColumnDef
}

// NewBuilder creates a Builder. Tables bound to an alias in foreverAlive
// are not time-sliced and never constrain a life period.
func NewBuilder(foreverAlive AliasSet) *Builder {
	return &Builder{foreverAlive: foreverAlive}
}

// Build translates where. A nil where yields Forever. On error no oracle
// column is recorded.
func (b *Builder) Build(where sqlast.Expr) (Computation, error) {
	if where == nil {
		return Forever, nil
	}

	t := &translator{
		foreverAlive: b.foreverAlive,
		oracles:      b.oracles,
	}
	result, err := t.visit(where, false)
	if err != nil {
		return nil, err
	}
	b.oracles = t.oracles
	return result, nil
}

// OracleColumns returns the probe columns the caller must append to the
// query's projection, in index order. Each evaluates to 1 or 0.
func (b *Builder) OracleColumns() []sqlast.ColumnDef {
	return append([]sqlast.ColumnDef(nil), b.oracles...)
}

// translator carries the oracle column accumulator through one traversal.
type translator struct {
	foreverAlive AliasSet
	oracles      []sqlast.ColumnDef
}

// visit translates expr. inverted tracks whether an enclosing NOT negated
// expr.
func (t *translator) visit(expr sqlast.Expr, inverted bool) (Computation, error) {
	switch e := expr.(type) {
	case *sqlast.Binary:
		return t.visitBinary(e, inverted)
	case *sqlast.Not:
		return t.visit(e.Expr, !inverted)
	case *sqlast.Column:
		if t.foreverAlive.Contains(e.Table) {
			return Forever, nil
		}
		return Row(e.Table), nil
	case *sqlast.Func:
		return t.visitFunc(e, inverted)
	case *sqlast.IsNull:
		return t.visit(e.Expr, inverted)
	case *sqlast.BoolLiteral, *sqlast.Literal, *sqlast.Parameter, *sqlast.SetLiteral, *sqlast.SetParameter:
		return Forever, nil
	case *sqlast.InSet:
		left, err := t.visit(e.Expr, inverted)
		if err != nil {
			return nil, err
		}
		right, err := t.visit(e.Values, inverted)
		if err != nil {
			return nil, err
		}
		return Intersect(left, right), nil
	case *sqlast.Case:
		return nil, &BuildError{
			Code:    ErrCodeUnimplemented,
			Message: "CASE expressions are not supported in history queries",
			Expr:    sqlast.Format(e),
		}
	default:
		return nil, &BuildError{
			Code:    ErrCodeUnsupported,
			Message: "unsupported expression",
			Expr:    typeName(expr),
		}
	}
}

func (t *translator) visitBinary(e *sqlast.Binary, inverted bool) (Computation, error) {
	if inverted && e.Op.IsConnective() {
		return nil, &BuildError{
			Code:    ErrCodeNegatedConnective,
			Message: fmt.Sprintf("%s below NOT, expression is not normalized", e.Op),
			Expr:    sqlast.Format(e),
		}
	}

	left, err := t.visit(e.Left, inverted)
	if err != nil {
		return nil, err
	}
	right, err := t.visit(e.Right, inverted)
	if err != nil {
		return nil, err
	}

	// Both sides bound to the same row: its validity already covers the
	// whole expression.
	if l, ok := left.(RowPeriod); ok {
		if r, ok := right.(RowPeriod); ok && l.Alias == r.Alias {
			return left, nil
		}
	}

	if e.Op != sqlast.OpOr {
		return Intersect(left, right), nil
	}

	if left == Forever || right == Forever {
		return Forever, nil
	}
	return Unite(t.addOracle(e.Left, left), t.addOracle(e.Right, right)), nil
}

func (t *translator) visitFunc(e *sqlast.Func, inverted bool) (Computation, error) {
	switch len(e.Args) {
	case 0:
		return Forever, nil
	case 1:
		return t.visit(e.Args[0], inverted)
	}

	result := Forever
	for _, arg := range e.Args {
		c, err := t.visit(arg, inverted)
		if err != nil {
			return nil, err
		}
		result = Intersect(result, c)
	}
	return result, nil
}

// addOracle guards comp by a probe column reporting the truth of expr, if
// expr is a binary expression other than OR. Nested OR chains attach their
// own oracles and leaves need none.
func (t *translator) addOracle(expr sqlast.Expr, comp Computation) Computation {
	bin, ok := expr.(*sqlast.Binary)
	if !ok || bin.Op == sqlast.OpOr {
		return comp
	}

	index := len(t.oracles)
	t.oracles = append(t.oracles, sqlast.ColumnDef{
		Expr:  &sqlast.IsTrue{Expr: sqlast.Copy(bin)},
		Alias: fmt.Sprintf("%s%d", OracleColumnPrefix, index),
	})
	return Guard(index, comp)
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
