// Package lifeperiod computes, for a row of a joined history query, the set
// of revisions during which that combination of rows satisfied the query's
// WHERE clause.
//
// The WHERE clause is translated once, at query compile time, into a
// Computation: a small algebra over revision range sets.
//
//	[WHERE expr] → Normalize → Builder → Computation + oracle columns
//	                                         ↓
//	          [row] → Context ────────→ ComputeRanges → rangeset.Set
//
// Variants:
//   - Forever / Never: the full and the empty revision set
//   - RowPeriod: the validity of the row bound to one table alias
//   - Intersection / Union / Inverse: set algebra
//   - Oracle: guards a disjunct of an OR by a boolean column the database
//     computes per row
//
// ORACLES:
//
// A joined row matching T1.x = 1 OR T2.y = 2 does not reveal by its mere
// presence which disjunct held. The Builder therefore adds one boolean
// probe column per disjunct to the query's projection; at evaluation time
// an Oracle node contributes its inner life period only if its probe column
// reported true for the row.
//
// Computations are immutable, comparable with == (structural equality) and
// safe for concurrent use. Context values are created per row by the caller.
package lifeperiod
