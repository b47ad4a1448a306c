package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/histq/internal/history"
	"github.com/roach88/histq/internal/lifeperiod"
	"github.com/roach88/histq/internal/sqlast"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	Plan string
}

// OracleColumn is an oracle probe as shown by explain.
type OracleColumn struct {
	Alias string `json:"alias"`
	Expr  string `json:"expr"`
}

// ExplainResult describes how a query is executed.
type ExplainResult struct {
	Name        string                `json:"name"`
	Plan        history.Plan          `json:"plan"`
	Condition   string                `json:"condition,omitempty"`
	Computation string                `json:"computation"`
	Hash        string                `json:"hash"`
	Tables      lifeperiod.TableInfos `json:"tables"`
	Oracles     []OracleColumn        `json:"oracles"`
	SQL         string                `json:"sql"`
	Params      []any                 `json:"params"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <query-file>",
		Short: "Show the life period computation of a query",
		Long: `Show how a history query is executed: the analyzed condition, the
life period computation derived from it, the oracle columns and the SQL
sent to the database.

Example:
  histq explain ./queries/renamed.yaml
  histq explain --plan tables --format json ./queries/renamed.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Plan, "plan", "", "override the plan of the query file (where|tables)")

	return cmd
}

func runExplain(opts *ExplainOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	plan, err := parsePlan(opts.Plan)
	if err != nil {
		formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid flag", err)
	}

	def, cs, loadErr := loadQuery(path, plan)
	if loadErr != nil {
		return reportLoadError(formatter, "failed to load query", loadErr)
	}
	formatter.VerboseLog("Loaded query %s from %s", def.Name, path)

	sql, params, err := sqlast.NewCompiler(def.Args).Compile(cs.Select)
	if err != nil {
		formatter.Error(ErrCodeInvalidQuery, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to compile SQL", err)
	}

	result := &ExplainResult{
		Name:        def.Name,
		Plan:        def.Query.Plan,
		Computation: cs.Computation.String(),
		Hash:        lifeperiod.Hash(cs.Computation),
		Tables:      cs.Tables,
		Oracles:     make([]OracleColumn, 0, len(cs.OracleColumns)),
		SQL:         sql,
		Params:      params,
	}
	if result.Plan == "" {
		result.Plan = history.PlanWhere
	}
	if cs.Condition != nil {
		result.Condition = sqlast.Format(cs.Condition)
	}
	for _, col := range cs.OracleColumns {
		result.Oracles = append(result.Oracles, OracleColumn{Alias: col.Alias, Expr: sqlast.Format(col.Expr)})
	}

	return formatter.Success(result)
}

// RenderText writes the human-readable explain layout.
func (r *ExplainResult) RenderText(w io.Writer) error {
	condition := r.Condition
	if condition == "" {
		condition = "(none)"
	}
	fmt.Fprintf(w, "query:       %s\n", r.Name)
	fmt.Fprintf(w, "plan:        %s\n", r.Plan)
	fmt.Fprintf(w, "condition:   %s\n", condition)
	fmt.Fprintf(w, "computation: %s\n", r.Computation)
	fmt.Fprintf(w, "hash:        %s\n", r.Hash)

	fmt.Fprintln(w, "tables:")
	for _, t := range r.Tables {
		fmt.Fprintf(w, "  %s  %s..%s\n", t.Alias, t.RevMinColumn, t.RevMaxColumn)
	}

	if len(r.Oracles) == 0 {
		fmt.Fprintln(w, "oracles:     (none)")
	} else {
		fmt.Fprintln(w, "oracles:")
		for _, o := range r.Oracles {
			fmt.Fprintf(w, "  %s  %s\n", o.Alias, o.Expr)
		}
	}

	fmt.Fprintln(w, "sql:")
	fmt.Fprintf(w, "  %s\n", r.SQL)
	_, err := fmt.Fprintf(w, "params:      %v\n", r.Params)
	return err
}

// parsePlan validates a --plan flag value.
func parsePlan(s string) (history.Plan, error) {
	if s == "" {
		return "", nil
	}
	for _, p := range history.ValidPlans {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid plan %q: must be one of %v", s, history.ValidPlans)
}
