package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/arloliu/bayesfit/errs"
	"github.com/arloliu/bayesfit/ledger"
)

func newRunsCommand(a *app) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run ledger",
		Long:  `List and show runs recorded with --ledger.`,
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.openLedger()
			if err != nil {
				return err
			}
			defer l.Close()

			runs, err := l.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			renderRuns(cmd.OutOrStdout(), runs)

			return nil
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs (0: all)")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.openLedger()
			if err != nil {
				return err
			}
			defer l.Close()

			run, err := l.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			renderRun(cmd.OutOrStdout(), run)

			return nil
		},
	}

	runsCmd.AddCommand(listCmd, showCmd)

	return runsCmd
}

func (a *app) openLedger() (*ledger.Ledger, error) {
	path := a.loaded.Ledger.Path
	if path == "" {
		return nil, fmt.Errorf("%w: ledger path is not set (use --ledger or ledger.path)", errs.ErrInvalidArgument)
	}

	return ledger.Open(path)
}

func renderRuns(w io.Writer, runs []ledger.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Created", "Model", "N", "Iter", "Chains", "Elapsed", "Divergent"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID,
			r.CreatedAt.Local().Format(time.DateTime),
			r.Model,
			r.Nobs,
			r.Iterations,
			r.Chains,
			r.Elapsed.Round(time.Millisecond),
			r.Divergences,
		})
	}
	t.Render()
}

func renderRun(w io.Writer, r ledger.Run) {
	_, _ = fmt.Fprintf(w, "Run %s\n", r.ID)
	_, _ = fmt.Fprintf(w, "  created:     %s\n", r.CreatedAt.Local().Format(time.DateTime))
	_, _ = fmt.Fprintf(w, "  model:       %s\n", r.Model)
	_, _ = fmt.Fprintf(w, "  nobs:        %d\n", r.Nobs)
	_, _ = fmt.Fprintf(w, "  seed:        %d\n", r.Seed)
	_, _ = fmt.Fprintf(w, "  iterations:  %d (warmup %d)\n", r.Iterations, r.Warmup)
	_, _ = fmt.Fprintf(w, "  chains:      %d\n", r.Chains)
	_, _ = fmt.Fprintf(w, "  elapsed:     %s\n", r.Elapsed)
	_, _ = fmt.Fprintf(w, "  divergences: %d\n", r.Divergences)
	if r.ArchivePath != "" {
		_, _ = fmt.Fprintf(w, "  archive:     %s\n", r.ArchivePath)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Param", "Mean", "SD", "n_eff", "Rhat"})
	for _, p := range r.Params {
		t.AppendRow(table.Row{
			p.Name,
			fmt.Sprintf("%.3f", p.Mean),
			fmt.Sprintf("%.3f", p.SD),
			fmt.Sprintf("%.0f", p.NEff),
			fmt.Sprintf("%.3f", p.Rhat),
		})
	}
	t.Render()
}
