// Package rangeset implements sets of revision numbers as canonical lists
// of closed int64 ranges.
//
// A Set is always kept in canonical form: ranges are strictly ascending,
// pairwise disjoint and never adjacent (adjacent ranges are merged). All
// operations return fresh slices and never modify their arguments, so a Set
// can be shared freely once built.
package rangeset

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
)

// MinRevision and MaxRevision bound the representable revision space.
const (
	MinRevision int64 = math.MinInt64
	MaxRevision int64 = math.MaxInt64
)

// LongRange is the closed interval [Min, Max] of revisions. Min <= Max.
//
// In JSON an unbounded side is null, so no value exceeds the integer
// precision of a float64 reader.
type LongRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

type jsonRange struct {
	Min *int64 `json:"min"`
	Max *int64 `json:"max"`
}

// MarshalJSON encodes MinRevision and MaxRevision as null.
func (r LongRange) MarshalJSON() ([]byte, error) {
	var out jsonRange
	if r.Min != MinRevision {
		out.Min = &r.Min
	}
	if r.Max != MaxRevision {
		out.Max = &r.Max
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a null or missing bound as unbounded.
func (r *LongRange) UnmarshalJSON(data []byte) error {
	var in jsonRange
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("rangeset: decode range: %w", err)
	}
	r.Min, r.Max = MinRevision, MaxRevision
	if in.Min != nil {
		r.Min = *in.Min
	}
	if in.Max != nil {
		r.Max = *in.Max
	}
	return nil
}

// WellFormed reports whether r denotes a non-empty interval.
func (r LongRange) WellFormed() bool {
	return r.Min <= r.Max
}

// Contains reports whether rev lies within r.
func (r LongRange) Contains(rev int64) bool {
	return r.Min <= rev && rev <= r.Max
}

// String renders r as "[min,max]".
func (r LongRange) String() string {
	return "[" + bound(r.Min) + "," + bound(r.Max) + "]"
}

func bound(v int64) string {
	switch v {
	case MinRevision:
		return "-inf"
	case MaxRevision:
		return "inf"
	default:
		return fmt.Sprintf("%d", v)
	}
}

// Set is a canonical list of revision ranges.
type Set []LongRange

// Full returns the set spanning the whole revision space.
func Full() Set {
	return Set{{Min: MinRevision, Max: MaxRevision}}
}

// Empty returns the empty set.
func Empty() Set {
	return Set{}
}

// Single returns the set consisting of the closed range [min, max].
// Panics if min > max.
func Single(min, max int64) Set {
	if min > max {
		panic(fmt.Sprintf("rangeset: invalid range [%d,%d]", min, max))
	}
	return Set{{Min: min, Max: max}}
}

// StartSection returns all revisions up to and including rev.
func StartSection(rev int64) Set {
	return Set{{Min: MinRevision, Max: rev}}
}

// EndSection returns all revisions from rev on.
func EndSection(rev int64) Set {
	return Set{{Min: rev, Max: MaxRevision}}
}

// Of builds a canonical set from arbitrary ranges. Ranges may overlap,
// touch or come in any order. Panics on a range with Min > Max.
func Of(ranges ...LongRange) Set {
	if len(ranges) == 0 {
		return Empty()
	}
	sorted := slices.Clone(ranges)
	for _, r := range sorted {
		if !r.WellFormed() {
			panic(fmt.Sprintf("rangeset: invalid range %s", r))
		}
	}
	slices.SortFunc(sorted, func(a, b LongRange) int {
		switch {
		case a.Min < b.Min:
			return -1
		case a.Min > b.Min:
			return 1
		default:
			return 0
		}
	})

	result := make(Set, 0, len(sorted))
	for _, r := range sorted {
		result = appendMerged(result, r)
	}
	return result
}

// appendMerged adds r to a canonical prefix whose last range starts at or
// before r.Min, merging overlapping and adjacent ranges.
func appendMerged(s Set, r LongRange) Set {
	if n := len(s); n > 0 {
		last := &s[n-1]
		if last.Max == MaxRevision || r.Min <= last.Max+1 {
			if r.Max > last.Max {
				last.Max = r.Max
			}
			return s
		}
	}
	return append(s, r)
}

// IsEmpty reports whether s contains no revision.
func (s Set) IsEmpty() bool {
	return len(s) == 0
}

// IsFull reports whether s spans the whole revision space.
func (s Set) IsFull() bool {
	return len(s) == 1 && s[0].Min == MinRevision && s[0].Max == MaxRevision
}

// Contains reports whether rev is a member of s.
func (s Set) Contains(rev int64) bool {
	_, found := slices.BinarySearchFunc(s, rev, func(r LongRange, rev int64) int {
		switch {
		case r.Max < rev:
			return -1
		case r.Min > rev:
			return 1
		default:
			return 0
		}
	})
	return found
}

// Equal reports whether s and other contain the same revisions.
func (s Set) Equal(other Set) bool {
	return slices.Equal(s, other)
}

// String renders s as "[[a,b],[c,d]]".
func (s Set) String() string {
	parts := make([]string, len(s))
	for i, r := range s {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Intersect returns the revisions contained in both a and b.
func Intersect(a, b Set) Set {
	if a.IsEmpty() || b.IsEmpty() {
		return Empty()
	}
	if a.IsFull() {
		return slices.Clone(b)
	}
	if b.IsFull() {
		return slices.Clone(a)
	}

	result := make(Set, 0, max(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := max(a[i].Min, b[j].Min)
		hi := min(a[i].Max, b[j].Max)
		if lo <= hi {
			result = append(result, LongRange{Min: lo, Max: hi})
		}
		// Advance the range that ends first; the other may still overlap
		// the next one.
		if a[i].Max < b[j].Max {
			i++
		} else {
			j++
		}
	}
	return result
}

// Union returns the revisions contained in a or b.
func Union(a, b Set) Set {
	if a.IsEmpty() {
		return slices.Clone(b)
	}
	if b.IsEmpty() {
		return slices.Clone(a)
	}

	result := make(Set, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var next LongRange
		if j >= len(b) || (i < len(a) && a[i].Min <= b[j].Min) {
			next = a[i]
			i++
		} else {
			next = b[j]
			j++
		}
		result = appendMerged(result, next)
	}
	return result
}

// Invert returns the complement of s within the revision space.
func Invert(s Set) Set {
	if s.IsEmpty() {
		return Full()
	}

	result := make(Set, 0, len(s)+1)
	if s[0].Min > MinRevision {
		result = append(result, LongRange{Min: MinRevision, Max: s[0].Min - 1})
	}
	for i := 1; i < len(s); i++ {
		result = append(result, LongRange{Min: s[i-1].Max + 1, Max: s[i].Min - 1})
	}
	if last := s[len(s)-1]; last.Max < MaxRevision {
		result = append(result, LongRange{Min: last.Max + 1, Max: MaxRevision})
	}
	return result
}

// Subtract returns the revisions in a that are not in b.
func Subtract(a, b Set) Set {
	if len(b) == 0 {
		return slices.Clone(a)
	}
	return Intersect(a, Invert(b))
}
