package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/histq/internal/history"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Database string
	Limit    int
	Plan     string

	// IDGenerator allows overriding the search id generator (for testing).
	// If nil, defaults to history.UUIDv7Generator.
	IDGenerator history.SearchIDGenerator
}

// SearchResult is the output of the search command.
type SearchResult struct {
	Query   string                  `json:"query"`
	Objects []history.ObjectPeriods `json:"objects"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <query-file>",
		Short: "Find objects and the revisions in which they matched",
		Long: `Execute a history query and report, for each matching object, the
revision ranges in which it satisfied the query.

Arguments for named parameters are taken from the args section of the
query file.

Example:
  histq search --db ./history.db ./queries/renamed.yaml
  histq search --db ./history.db --limit 100 --format json ./queries/renamed.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "stop after reading this many rows (0 = no limit)")
	cmd.Flags().StringVar(&opts.Plan, "plan", "", "override the plan of the query file (where|tables)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSearch(opts *SearchOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd)

	if opts.Limit < 0 {
		formatter.Error(ErrCodeGeneric, "--limit must not be negative", nil)
		return NewExitError(ExitCommandError, "invalid flag: --limit must not be negative")
	}
	plan, err := parsePlan(opts.Plan)
	if err != nil {
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid flag", err)
	}

	def, cs, loadErr := loadQuery(path, plan)
	if loadErr != nil {
		return reportLoadError(formatter, "failed to load query", loadErr)
	}

	st, err := openStore(opts.Database, logger, formatter)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	idGen := opts.IDGenerator
	if idGen == nil {
		idGen = history.UUIDv7Generator{}
	}
	searchID := idGen.Generate()
	logger.Info("searching", "query", def.Name, "search_id", searchID)

	objects, err := st.Search(cmd.Context(), cs, history.SearchOptions{
		Args:     def.Args,
		Limit:    opts.Limit,
		SearchID: searchID,
	})
	if err != nil {
		formatter.Error(ErrCodeSearchFailed, err.Error(), map[string]string{"search_id": searchID})
		return WrapExitError(ExitFailure, "search failed", err)
	}
	formatter.VerboseLog("Found %d object(s)", len(objects))

	if objects == nil {
		objects = []history.ObjectPeriods{}
	}
	return formatter.SuccessWithID(&SearchResult{Query: def.Name, Objects: objects}, searchID)
}

// RenderText writes one line per object: the id and its revision ranges.
func (r *SearchResult) RenderText(w io.Writer) error {
	if len(r.Objects) == 0 {
		_, err := fmt.Fprintln(w, "no matching objects")
		return err
	}
	for _, obj := range r.Objects {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", obj.ID, obj.Ranges); err != nil {
			return err
		}
	}
	return nil
}
