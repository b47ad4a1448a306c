package lifeperiod

import (
	"fmt"

	"github.com/roach88/histq/internal/rangeset"
)

// Context supplies the per-row facts a Computation is evaluated against.
//
// For a given alias, MinimumValidity and MaximumValidity either both report
// a value or both report none (the table did not take part in the row, e.g.
// an unmatched outer join).
type Context interface {
	MinimumValidity(alias string) (int64, bool)
	MaximumValidity(alias string) (int64, bool)
	OracleResult(index int) bool
}

// Computation is the life period of a boolean condition over a joined row.
//
// This is a sealed interface - only types in this package implement it.
// All implementations are comparable values, so a == b is structural
// equality.
type Computation interface {
	// ComputeRanges evaluates the life period against a row.
	ComputeRanges(ctx Context) rangeset.Set

	fmt.Stringer

	computation() // Marker method - seals interface to this package
}

type forever struct{}

type never struct{}

var (
	// Forever is valid in every revision.
	Forever Computation = forever{}

	// Never is valid in no revision.
	Never Computation = never{}
)

func (forever) ComputeRanges(Context) rangeset.Set { return rangeset.Full() }
func (forever) String() string                     { return "forever" }
func (forever) computation()                       {}

func (never) ComputeRanges(Context) rangeset.Set { return rangeset.Empty() }
func (never) String() string                     { return "never" }
func (never) computation()                       {}

// RowPeriod is the validity range of the row bound to Alias.
type RowPeriod struct {
	Alias string
}

// Row returns the life period of the row bound to alias.
func Row(alias string) Computation {
	return RowPeriod{Alias: alias}
}

// ComputeRanges returns [min, max] of the row. A table that did not take
// part in the row (both bounds absent) does not constrain the result.
func (r RowPeriod) ComputeRanges(ctx Context) rangeset.Set {
	minRev, hasMin := ctx.MinimumValidity(r.Alias)
	maxRev, hasMax := ctx.MaximumValidity(r.Alias)
	if hasMin != hasMax {
		panic(fmt.Sprintf("lifeperiod: table %q reports only one validity bound (min=%v, max=%v)",
			r.Alias, hasMin, hasMax))
	}
	if !hasMin {
		return rangeset.Full()
	}
	return rangeset.Single(minRev, maxRev)
}

func (r RowPeriod) String() string { return "row(" + r.Alias + ")" }
func (RowPeriod) computation()     {}

// Intersection is valid where both operands are valid. Build it with
// Intersect.
type Intersection struct {
	left, right Computation
}

// Intersect returns the life period valid where both a and b are valid.
// Forever and Never operands and identical operands are eliminated.
func Intersect(a, b Computation) Computation {
	switch {
	case a == Forever:
		return b
	case b == Forever:
		return a
	case a == Never || b == Never:
		return Never
	case a == b:
		return a
	default:
		return Intersection{left: a, right: b}
	}
}

func (i Intersection) Left() Computation  { return i.left }
func (i Intersection) Right() Computation { return i.right }

// ComputeRanges evaluates the left operand first and skips the right one
// when the left is already empty.
func (i Intersection) ComputeRanges(ctx Context) rangeset.Set {
	left := i.left.ComputeRanges(ctx)
	if left.IsEmpty() {
		return rangeset.Empty()
	}
	right := i.right.ComputeRanges(ctx)
	if right.IsEmpty() {
		return rangeset.Empty()
	}
	return rangeset.Intersect(left, right)
}

func (i Intersection) String() string {
	return "intersect(" + i.left.String() + ", " + i.right.String() + ")"
}

func (Intersection) computation() {}

// Union is valid where either operand is valid. Build it with Unite.
type Union struct {
	left, right Computation
}

// Unite returns the life period valid where a or b is valid. Never is the
// identity, Forever is absorbing and identical operands collapse.
func Unite(a, b Computation) Computation {
	switch {
	case a == Never:
		return b
	case b == Never:
		return a
	case a == Forever || b == Forever:
		return Forever
	case a == b:
		return a
	default:
		return Union{left: a, right: b}
	}
}

func (u Union) Left() Computation  { return u.left }
func (u Union) Right() Computation { return u.right }

// ComputeRanges always evaluates both operands.
func (u Union) ComputeRanges(ctx Context) rangeset.Set {
	return rangeset.Union(u.left.ComputeRanges(ctx), u.right.ComputeRanges(ctx))
}

func (u Union) String() string {
	return "union(" + u.left.String() + ", " + u.right.String() + ")"
}

func (Union) computation() {}

// Inverse is valid where its operand is not. Build it with Invert.
type Inverse struct {
	inner Computation
}

// Invert returns the complement of x. Double inversions cancel and
// Forever and Never swap.
func Invert(x Computation) Computation {
	switch c := x.(type) {
	case Inverse:
		return c.inner
	case forever:
		return Never
	case never:
		return Forever
	default:
		return Inverse{inner: x}
	}
}

func (i Inverse) Inner() Computation { return i.inner }

func (i Inverse) ComputeRanges(ctx Context) rangeset.Set {
	return rangeset.Invert(i.inner.ComputeRanges(ctx))
}

func (i Inverse) String() string { return "invert(" + i.inner.String() + ")" }
func (Inverse) computation()     {}

// Oracle contributes Inner only for rows where the oracle column Index
// reported true.
type Oracle struct {
	Index int
	Inner Computation
}

// Guard returns inner guarded by oracle column index.
func Guard(index int, inner Computation) Computation {
	return Oracle{Index: index, Inner: inner}
}

func (o Oracle) ComputeRanges(ctx Context) rangeset.Set {
	if !ctx.OracleResult(o.Index) {
		return rangeset.Empty()
	}
	return o.Inner.ComputeRanges(ctx)
}

func (o Oracle) String() string {
	return fmt.Sprintf("oracle(%d, %s)", o.Index, o.Inner)
}

func (Oracle) computation() {}

// Equal reports whether a and b are structurally equal.
func Equal(a, b Computation) bool {
	return a == b
}
