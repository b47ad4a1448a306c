package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/histq/internal/querydef"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Database string
}

// LoadResult reports the revisions written by the load command.
type LoadResult struct {
	Tables          int     `json:"tables"`
	Revisions       []int64 `json:"revisions"`
	CurrentRevision int64   `json:"current_revision"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <fixture-file>",
		Short: "Apply a YAML fixture to a history database",
		Long: `Create the tables declared by a fixture and commit its revisions in
order. The database is created if it does not exist. Each revision is
atomic; loading stops at the first revision that fails.

Example:
  histq load --db ./history.db ./fixtures/catalog.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runLoad(opts *LoadOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd)

	fx, loadErr := loadFixture(path)
	if loadErr != nil {
		return reportLoadError(formatter, "failed to load fixture", loadErr)
	}

	st, err := openStore(opts.Database, logger, formatter)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	ctx := cmd.Context()
	revs, err := querydef.ApplyFixture(ctx, st, fx)
	if err != nil {
		formatter.Error(ErrCodeApplyFailed, err.Error(), map[string]interface{}{"committed": revs})
		return WrapExitError(ExitFailure, "failed to apply fixture", err)
	}
	logger.Info("fixture applied", "path", path, "revisions", len(revs))

	current, err := st.CurrentRevision(ctx)
	if err != nil {
		formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read current revision", err)
	}

	return formatter.Success(&LoadResult{
		Tables:          len(fx.Tables),
		Revisions:       revs,
		CurrentRevision: current,
	})
}

// RenderText writes a one-line summary.
func (r *LoadResult) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "applied %d revision(s) to %d table(s), current revision %d\n",
		len(r.Revisions), r.Tables, r.CurrentRevision)
	return err
}
