package lifeperiod

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/histq/internal/rangeset"
)

// testContext is a map-backed Context.
type testContext struct {
	periods map[string]rangeset.LongRange
	oracles map[int]bool

	// minOnly lists aliases that report a minimum but no maximum.
	minOnly map[string]int64
}

func (c *testContext) MinimumValidity(alias string) (int64, bool) {
	if v, ok := c.minOnly[alias]; ok {
		return v, true
	}
	r, ok := c.periods[alias]
	return r.Min, ok
}

func (c *testContext) MaximumValidity(alias string) (int64, bool) {
	r, ok := c.periods[alias]
	return r.Max, ok
}

func (c *testContext) OracleResult(index int) bool {
	return c.oracles[index]
}

func sampleComputations() []Computation {
	return []Computation{
		Forever,
		Never,
		Row("A"),
		Intersect(Row("A"), Row("B")),
		Unite(Row("A"), Row("B")),
		Invert(Row("A")),
		Guard(0, Row("A")),
		Unite(Guard(0, Row("A")), Invert(Intersect(Row("B"), Row("C")))),
	}
}

func TestSmartConstructors_Identities(t *testing.T) {
	for _, a := range sampleComputations() {
		t.Run(a.String(), func(t *testing.T) {
			assert.Equal(t, a, Intersect(a, Forever))
			assert.Equal(t, a, Intersect(Forever, a))
			assert.Equal(t, a, Unite(a, Never))
			assert.Equal(t, a, Unite(Never, a))
			assert.Equal(t, Never, Intersect(a, Never))
			assert.Equal(t, Never, Intersect(Never, a))
			assert.Equal(t, Forever, Unite(a, Forever))
			assert.Equal(t, Forever, Unite(Forever, a))
			assert.Equal(t, a, Intersect(a, a))
			assert.Equal(t, a, Unite(a, a))
			assert.Equal(t, a, Invert(Invert(a)))
		})
	}
}

func TestInvert_Constants(t *testing.T) {
	assert.Equal(t, Never, Invert(Forever))
	assert.Equal(t, Forever, Invert(Never))

	inv := Invert(Row("A"))
	assert.IsType(t, Inverse{}, inv)
	assert.Equal(t, Row("A"), inv.(Inverse).Inner())
}

func TestSmartConstructors_BuildNodes(t *testing.T) {
	i := Intersect(Row("A"), Row("B"))
	assert.IsType(t, Intersection{}, i)
	assert.Equal(t, Row("A"), i.(Intersection).Left())
	assert.Equal(t, Row("B"), i.(Intersection).Right())

	u := Unite(Row("A"), Row("B"))
	assert.IsType(t, Union{}, u)
	assert.Equal(t, Row("A"), u.(Union).Left())
	assert.Equal(t, Row("B"), u.(Union).Right())
}

func TestRowPeriod_ComputeRanges(t *testing.T) {
	ctx := &testContext{periods: map[string]rangeset.LongRange{"t": {Min: 10, Max: 20}}}

	assert.Equal(t, rangeset.Set{{Min: 10, Max: 20}}, Row("t").ComputeRanges(ctx))

	// Absent table (outer join non-match) does not constrain.
	assert.Equal(t, rangeset.Full(), Row("missing").ComputeRanges(ctx))
}

func TestRowPeriod_HalfPresentPanics(t *testing.T) {
	ctx := &testContext{minOnly: map[string]int64{"t": 3}}

	assert.PanicsWithValue(t,
		`lifeperiod: table "t" reports only one validity bound (min=true, max=false)`,
		func() { Row("t").ComputeRanges(ctx) })
}

func TestConstants_ComputeRanges(t *testing.T) {
	ctx := &testContext{}

	assert.Equal(t, rangeset.Full(), Forever.ComputeRanges(ctx))
	assert.Equal(t, rangeset.Empty(), Never.ComputeRanges(ctx))
}

func TestIntersection_ComputeRanges(t *testing.T) {
	ctx := &testContext{periods: map[string]rangeset.LongRange{
		"A": {Min: 1, Max: 10},
		"B": {Min: 5, Max: 15},
		"C": {Min: 20, Max: 30},
	}}

	assert.Equal(t, rangeset.Set{{Min: 5, Max: 10}}, Intersect(Row("A"), Row("B")).ComputeRanges(ctx))
	assert.Equal(t, rangeset.Empty(), Intersect(Row("A"), Row("C")).ComputeRanges(ctx))
}

func TestIntersection_SkipsRightWhenLeftEmpty(t *testing.T) {
	// Evaluating row(broken) would panic; the empty left side must
	// prevent that.
	ctx := &testContext{minOnly: map[string]int64{"broken": 1}}

	c := Intersect(Guard(0, Row("A")), Row("broken"))

	assert.NotPanics(t, func() {
		assert.Equal(t, rangeset.Empty(), c.ComputeRanges(ctx))
	})
}

func TestUnion_ComputeRanges(t *testing.T) {
	ctx := &testContext{periods: map[string]rangeset.LongRange{
		"A": {Min: 1, Max: 5},
		"B": {Min: 10, Max: 15},
		"C": {Min: 6, Max: 9},
	}}

	assert.Equal(t, rangeset.Set{{Min: 1, Max: 5}, {Min: 10, Max: 15}}, Unite(Row("A"), Row("B")).ComputeRanges(ctx))
	assert.Equal(t, rangeset.Set{{Min: 1, Max: 9}}, Unite(Row("A"), Row("C")).ComputeRanges(ctx))
}

func TestInverse_ComputeRanges(t *testing.T) {
	ctx := &testContext{periods: map[string]rangeset.LongRange{"A": {Min: 1, Max: 5}}}

	assert.Equal(t,
		rangeset.Set{{Min: rangeset.MinRevision, Max: 0}, {Min: 6, Max: rangeset.MaxRevision}},
		Invert(Row("A")).ComputeRanges(ctx))
}

func TestOracle_ComputeRanges(t *testing.T) {
	ctx := &testContext{
		periods: map[string]rangeset.LongRange{"A": {Min: 1, Max: 5}},
		oracles: map[int]bool{1: true},
	}

	assert.Equal(t, rangeset.Empty(), Guard(0, Row("A")).ComputeRanges(ctx))
	assert.Equal(t, Row("A").ComputeRanges(ctx), Guard(1, Row("A")).ComputeRanges(ctx))
	assert.Equal(t, rangeset.Empty(), Guard(0, Forever).ComputeRanges(ctx))
}

func TestOracle_FalseSkipsInner(t *testing.T) {
	ctx := &testContext{minOnly: map[string]int64{"broken": 1}}

	assert.NotPanics(t, func() {
		assert.Equal(t, rangeset.Empty(), Guard(0, Row("broken")).ComputeRanges(ctx))
	})
}

func TestEqualityAndHash(t *testing.T) {
	a := Intersect(Row("A"), Unite(Guard(0, Row("B")), Guard(1, Row("C"))))
	b := Intersect(Row("A"), Unite(Guard(0, Row("B")), Guard(1, Row("C"))))

	assert.True(t, Equal(a, b))
	assert.Equal(t, Hash(a), Hash(b))

	swapped := Intersect(Unite(Guard(0, Row("B")), Guard(1, Row("C"))), Row("A"))
	assert.False(t, Equal(a, swapped))
	assert.NotEqual(t, Hash(a), Hash(swapped))

	otherIndex := Intersect(Row("A"), Unite(Guard(1, Row("B")), Guard(1, Row("C"))))
	assert.False(t, Equal(a, otherIndex))
	assert.NotEqual(t, Hash(a), Hash(otherIndex))

	// Comparable values work as map keys.
	seen := map[Computation]int{a: 1}
	assert.Equal(t, 1, seen[b])
}

func TestHash_Distinct(t *testing.T) {
	hashes := map[string]Computation{}
	for _, c := range sampleComputations() {
		h := Hash(c)
		assert.Len(t, h, 64)
		if prev, ok := hashes[h]; ok {
			t.Fatalf("hash collision between %s and %s", prev, c)
		}
		hashes[h] = c
	}

	// Quoting keeps alias boundaries unambiguous.
	assert.NotEqual(t, Hash(Intersect(Row("a,b"), Row("c"))), Hash(Intersect(Row("a"), Row("b,c"))))
}

func TestHash_NormalizesAliases(t *testing.T) {
	// Precomposed vs. "e" + combining acute accent.
	assert.Equal(t, Hash(Row("caf\u00e9")), Hash(Row("cafe\u0301")))
}

func TestString(t *testing.T) {
	c := Intersect(Row("A"), Unite(Guard(0, Row("B")), Invert(Row("C"))))

	assert.Equal(t, "intersect(row(A), union(oracle(0, row(B)), invert(row(C))))", c.String())
	assert.Equal(t, "forever", Forever.String())
	assert.Equal(t, "never", Never.String())
}
