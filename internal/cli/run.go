package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/histq/internal/history"
)

// newLogger configures logging based on the verbose flag. Logs go to the
// command's stderr so that JSON output on stdout stays parseable.
func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

// newFormatter returns the output formatter for a command.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// openStore opens the database named by --db. The caller closes it.
func openStore(path string, logger *slog.Logger, formatter *OutputFormatter) (*history.Store, error) {
	logger.Debug("opening database", "path", path)
	st, err := history.Open(path, logger)
	if err != nil {
		formatter.Error(ErrCodeDatabase, "failed to open database", err.Error())
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// closeStore closes st, logging a failure.
func closeStore(st *history.Store, logger *slog.Logger) {
	if closeErr := st.Close(); closeErr != nil {
		logger.Error("error closing database", "error", closeErr)
	}
}

// reportLoadError outputs err and returns the matching ExitError.
func reportLoadError(formatter *OutputFormatter, message string, err *LoadError) error {
	var details interface{}
	if err.Pos.IsValid() {
		details = map[string]interface{}{
			"file":   err.Pos.Filename(),
			"line":   err.Pos.Line(),
			"column": err.Pos.Column(),
		}
	}
	formatter.Error(err.Code, err.Message, details)
	return WrapExitError(exitCodeFor(err), message, err)
}
