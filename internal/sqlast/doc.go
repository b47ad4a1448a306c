// Package sqlast provides the SQL syntax tree that history queries are
// compiled into, together with a printer for SQLite and a normalizer that
// pushes negations down to the leaves of boolean expressions.
//
// SEALED INTERFACES:
//
// Expr and TableRef are sealed interfaces using the marker method pattern.
// Only pointer types in this package implement them, so consumers can
// switch exhaustively over the node kinds:
//
//	switch e := expr.(type) {
//	case *Binary:
//	    // AND, OR and comparisons
//	case *Column:
//	    // alias.column
//	default:
//	    // unsupported node kind
//	}
//
// PRINTING:
//
// Compile renders a Select to SQLite text. Literal values are never
// interpolated into the statement; they are bound through ? placeholders in
// the order they appear. Format renders an expression with literals inline
// for diagnostics only.
package sqlast
