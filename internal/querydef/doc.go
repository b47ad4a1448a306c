// Package querydef loads history query definitions and store fixtures
// from YAML or CUE files.
//
// A query file names the result alias, the FROM clause and an optional
// WHERE clause. Expressions are single-key objects:
//
//	name: renamed-items
//	result: a
//	from:
//	  join: left
//	  left: {table: item, as: a}
//	  right: {table: ref, as: r}
//	  on: {eq: [{col: r.item}, {col: a.id}]}
//	where:
//	  or:
//	    - eq: [{col: a.name}, {param: name}]
//	    - eq: [{col: r.label}, {lit: x}]
//	args:
//	  name: bolt
//
// Supported expression keys are and, or (two or more operands, folded to
// the left), eq, ne, lt, le, gt, ge (exactly two operands), not, is_null,
// col ("alias.column" or "column"), lit, param, bool, func ({name, args}),
// in ({expr, values} or {expr, param}) and case ({when: [{if, then}],
// else}).
//
// Identifiers are NFC normalized so that aliases typed with different
// Unicode compositions compare equal.
package querydef
