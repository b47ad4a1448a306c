package cli

import (
	"errors"
	"fmt"
	"io/fs"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/histq/internal/history"
	"github.com/roach88/histq/internal/lifeperiod"
	"github.com/roach88/histq/internal/querydef"
)

// LoadError represents an error that occurred while loading a query or
// fixture file, or while compiling a query.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// loadQuery reads a query file and compiles it for the given plan
// override (empty keeps the plan of the file).
func loadQuery(path string, plan history.Plan) (*querydef.Definition, *history.CompiledSearch, *LoadError) {
	def, err := querydef.Load(path)
	if err != nil {
		return nil, nil, convertLoadError(err)
	}
	if plan != "" {
		def.Query.Plan = plan
	}

	cs, err := history.Compile(def.Query)
	if err != nil {
		return def, nil, &LoadError{Code: MapBuildErrorCode(err), Message: err.Error()}
	}
	return def, cs, nil
}

// loadFixture reads a fixture file.
func loadFixture(path string) (*querydef.Fixture, *LoadError) {
	fx, err := querydef.LoadFixture(path)
	if err != nil {
		return nil, convertLoadError(err)
	}
	return fx, nil
}

// convertLoadError converts a file loading error to a LoadError with
// position info when the error comes from CUE.
func convertLoadError(err error) *LoadError {
	if errors.Is(err, fs.ErrNotExist) {
		return &LoadError{Code: ErrCodeNotFound, Message: err.Error()}
	}
	loadErr := &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	if positions := cueerrors.Positions(err); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E002" // Path not found
	ErrCodeLoadFailed   = "E003" // Query or fixture file could not be decoded
	ErrCodeDatabase     = "E004" // Database could not be opened
	ErrCodeSearchFailed = "E005" // Search execution failed
	ErrCodeApplyFailed  = "E006" // Fixture could not be applied

	// Query compilation errors
	ErrCodeUnimplemented     = "E101" // Expression kind without translation (CASE)
	ErrCodeUnsupported       = "E102" // Unknown expression kind
	ErrCodeNegatedConnective = "E103" // AND/OR below NOT
	ErrCodeInvalidTable      = "E104" // Malformed FROM clause
	ErrCodeInvalidQuery      = "E105" // Other query compilation error
)

// MapBuildErrorCode maps a query compilation error to an error code.
func MapBuildErrorCode(err error) string {
	var be *lifeperiod.BuildError
	if !errors.As(err, &be) {
		return ErrCodeInvalidQuery
	}
	switch be.Code {
	case lifeperiod.ErrCodeUnimplemented:
		return ErrCodeUnimplemented
	case lifeperiod.ErrCodeUnsupported:
		return ErrCodeUnsupported
	case lifeperiod.ErrCodeNegatedConnective:
		return ErrCodeNegatedConnective
	case lifeperiod.ErrCodeInvalidTable:
		return ErrCodeInvalidTable
	default:
		return ErrCodeInvalidQuery
	}
}

// exitCodeFor returns the exit code for a load error: file problems are
// command errors, query problems are failures.
func exitCodeFor(err *LoadError) int {
	switch err.Code {
	case ErrCodeNotFound, ErrCodeLoadFailed:
		return ExitCommandError
	default:
		return ExitFailure
	}
}
