// Package summary reduces posterior draws to per-parameter statistics and
// renders them in the familiar Stan fit layout.
package summary

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gonum.org/v1/gonum/stat"

	"github.com/arloliu/bayesfit/internal/pool"
	"github.com/arloliu/bayesfit/sampler"
)

// Probabilities reported as quantile columns.
var Probabilities = []float64{0.025, 0.25, 0.5, 0.75, 0.975}

var quantileHeaders = []string{"2.5%", "25%", "50%", "75%", "97.5%"}

// Meta describes the run a summary belongs to.
type Meta struct {
	ModelName  string
	Algorithm  string
	Iterations int
	Warmup     int
	Thin       int
	DrawnAt    time.Time
}

// ParamStats holds the statistics of one column over all chains.
type ParamStats struct {
	Name      string
	Mean      float64
	SEMean    float64
	SD        float64
	Quantiles []float64
	NEff      float64
	Rhat      float64
}

// Quantile returns the quantile for probability p if it is one of Probabilities.
func (p ParamStats) Quantile(prob float64) (float64, bool) {
	i := slices.Index(Probabilities, prob)
	if i < 0 || i >= len(p.Quantiles) {
		return 0, false
	}

	return p.Quantiles[i], true
}

// Summary is the reduced view of a fit.
type Summary struct {
	Meta          Meta
	Chains        int
	DrawsPerChain int
	Params        []ParamStats
}

// Summarize computes statistics for every parameter and lp__.
func Summarize(d *sampler.Draws, meta Meta) *Summary {
	if meta.Algorithm == "" {
		meta.Algorithm = "NUTS"
	}

	s := &Summary{
		Meta:          meta,
		Chains:        d.NumChains(),
		DrawsPerChain: d.DrawsPerChain(),
	}

	names := append(slices.Clone(d.Params), sampler.ColumnLP)
	for _, name := range names {
		chains := make([][]float64, d.NumChains())
		for c := range chains {
			chains[c], _ = d.Series(c, name)
		}
		s.Params = append(s.Params, computeStats(name, chains))
	}

	return s
}

func computeStats(name string, chains [][]float64) ParamStats {
	total := 0
	for _, x := range chains {
		total += len(x)
	}

	ps := ParamStats{Name: name, Quantiles: make([]float64, len(Probabilities))}
	if total == 0 {
		ps.Mean, ps.SEMean, ps.SD = math.NaN(), math.NaN(), math.NaN()
		ps.NEff, ps.Rhat = math.NaN(), math.NaN()
		for i := range ps.Quantiles {
			ps.Quantiles[i] = math.NaN()
		}

		return ps
	}

	sorted, cleanup := pool.GetFloat64Slice(total)
	defer cleanup()

	off := 0
	for _, x := range chains {
		off += copy(sorted[off:], x)
	}

	ps.Mean, ps.SD = stat.MeanStdDev(sorted, nil)
	slices.Sort(sorted)
	for i, p := range Probabilities {
		ps.Quantiles[i] = stat.Quantile(p, stat.LinInterp, sorted, nil)
	}

	ps.NEff = EffectiveSampleSize(chains)
	ps.SEMean = ps.SD / math.Sqrt(ps.NEff)
	ps.Rhat = SplitRhat(chains)

	return ps
}

// Stat looks up the statistics of a parameter by name.
func (s *Summary) Stat(name string) (ParamStats, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}

	return ParamStats{}, false
}

// String renders the summary as text, one line per parameter after a
// three-line header and a column header row.
func (s *Summary) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Inference for model %s.\n", s.Meta.ModelName)
	fmt.Fprintf(&sb, "%d chains, each with iter=%d; warmup=%d; thin=%d;\n",
		s.Chains, s.Meta.Iterations, s.Meta.Warmup, s.Meta.Thin)
	fmt.Fprintf(&sb, "post-warmup draws per chain=%d, total post-warmup draws=%d.\n",
		s.DrawsPerChain, s.Chains*s.DrawsPerChain)
	sb.WriteString("\n")
	sb.WriteString(s.Table())
	sb.WriteString("\n\n")

	drawnAt := s.Meta.DrawnAt
	if drawnAt.IsZero() {
		drawnAt = time.Now()
	}
	fmt.Fprintf(&sb, "Samples were drawn using %s at %s.\n", s.Meta.Algorithm, drawnAt.Format(time.ANSIC))
	sb.WriteString("For each parameter, n_eff is a crude measure of effective sample size,\n")
	sb.WriteString("and Rhat is the potential scale reduction factor on split chains (at\n")
	sb.WriteString("convergence, Rhat=1).\n")

	return sb.String()
}

// Table renders the per-parameter statistics without the run header.
func (s *Summary) Table() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleDefault)
	t.Style().Options = table.OptionsNoBordersAndSeparators
	t.Style().Format.Header = text.FormatDefault
	t.Style().Box.PaddingLeft = ""

	header := table.Row{"", "mean", "se_mean", "sd"}
	for _, h := range quantileHeaders {
		header = append(header, h)
	}
	header = append(header, "n_eff", "Rhat")
	t.AppendHeader(header)

	for _, p := range s.Params {
		row := table.Row{p.Name, formatFixed(p.Mean), formatSE(p.SEMean), formatFixed(p.SD)}
		for _, q := range p.Quantiles {
			row = append(row, formatFixed(q))
		}
		row = append(row, formatCount(p.NEff), formatFixed(p.Rhat))
		t.AppendRow(row)
	}

	configs := make([]table.ColumnConfig, len(header))
	for i := range configs {
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignRight, AlignHeader: text.AlignRight}
	}
	configs[0].Align, configs[0].AlignHeader = text.AlignLeft, text.AlignLeft
	t.SetColumnConfigs(configs)

	// go-pretty pads the last cell of every row
	lines := strings.Split(t.Render(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}

	return strings.Join(lines, "\n")
}

func formatFixed(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}

	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatSE keeps two significant digits for small standard errors, e.g. 7.6e-4.
func formatSE(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	if v != 0 && math.Abs(v) < 0.01 {
		mant, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', 1, 64), "e")
		n, _ := strconv.Atoi(exp)

		return mant + "e" + strconv.Itoa(n)
	}

	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatCount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "nan"
	}

	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}
