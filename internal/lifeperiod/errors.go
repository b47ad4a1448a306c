package lifeperiod

import (
	"errors"
	"fmt"
)

// BuildError reports a WHERE clause the Builder cannot translate. It
// indicates a defect in the query or in the normalization that ran before
// the Builder, never a data condition. There is no partial result.
type BuildError struct {
	// Code identifies the error category.
	Code BuildErrorCode

	// Message is a human-readable description.
	Message string

	// Expr is the offending expression, rendered for diagnostics.
	Expr string
}

// BuildErrorCode categorizes build errors.
type BuildErrorCode string

const (
	// ErrCodeUnimplemented indicates a known expression kind without a
	// translation (CASE).
	ErrCodeUnimplemented BuildErrorCode = "UNIMPLEMENTED"

	// ErrCodeUnsupported indicates an expression kind the Builder does not
	// know.
	ErrCodeUnsupported BuildErrorCode = "UNSUPPORTED_EXPRESSION"

	// ErrCodeNegatedConnective indicates an AND or OR below a NOT, i.e. the
	// expression was not normalized.
	ErrCodeNegatedConnective BuildErrorCode = "NEGATED_CONNECTIVE"

	// ErrCodeInvalidTable indicates a malformed FROM clause.
	ErrCodeInvalidTable BuildErrorCode = "INVALID_TABLE"
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Expr)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnimplemented returns true if err is a build error for an expression
// kind without translation. Uses errors.As to handle wrapped errors.
func IsUnimplemented(err error) bool {
	return hasCode(err, ErrCodeUnimplemented)
}

// IsUnsupported returns true if err is a build error for an unknown
// expression kind.
func IsUnsupported(err error) bool {
	return hasCode(err, ErrCodeUnsupported)
}

// IsNegatedConnective returns true if err reports an unnormalized NOT.
func IsNegatedConnective(err error) bool {
	return hasCode(err, ErrCodeNegatedConnective)
}

func hasCode(err error, code BuildErrorCode) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}
