package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/arloliu/bayesfit/archive"
	"github.com/arloliu/bayesfit/summary"
)

func newDrawsCommand(_ *app) *cobra.Command {
	var chain, draw int

	cmd := &cobra.Command{
		Use:   "draws <file>",
		Short: "Summarize a draws archive",
		Long: `Decode an archive written with --archive and print its layout and posterior summary table.
With --draw, print every column of a single draw instead of the table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			f, err := os.Open(path) //nolint:gosec // G304: path is the user's argument
			if err != nil {
				return fmt.Errorf("failed to open archive: %w", err)
			}
			defer f.Close()

			a, err := archive.Open(f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			h := a.Header
			order := "little endian"
			if h.BigEndian {
				order = "big endian"
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Archive %s (%s encoding, %s compression, %s).\n",
				filepath.Base(path), h.Encoding, h.Compression, order)

			if cmd.Flags().Changed("draw") {
				_, _ = fmt.Fprintf(out, "%d chains, %d draws per chain, %d parameters.\n\n",
					h.Chains, h.DrawsPerChain, h.Params)

				return renderDraw(out, a, chain, draw)
			}

			d, err := a.Draws()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			_, _ = fmt.Fprintf(out, "%d chains, %d draws per chain, %d parameters, %d divergent transitions.\n\n",
				h.Chains, h.DrawsPerChain, h.Params, d.Divergences())
			_, _ = fmt.Fprintln(out, summary.Summarize(d, summary.Meta{}).Table())

			return nil
		},
	}
	cmd.Flags().IntVar(&draw, "draw", 0, "print a single post-warmup draw (0-based)")
	cmd.Flags().IntVar(&chain, "chain", 0, "chain of the --draw (0-based)")

	return cmd
}

func renderDraw(w io.Writer, a *archive.Archive, chain, draw int) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("chain %d, draw %d", chain, draw))
	t.AppendHeader(table.Row{"column", "value"})

	for _, name := range a.Names {
		v, err := a.At(chain, name, draw)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{name, strconv.FormatFloat(v, 'g', -1, 64)})
	}
	t.Render()

	return nil
}
