package sampler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bayesfit/errs"
)

func sampleDraws() *Draws {
	d := NewDraws([]string{"beta0", "sigma"}, 2, 3)
	for c := range d.Chains {
		for i := range d.Chains[c] {
			tr := &d.Chains[c][i]
			tr.Values[0] = float64(10*c + i)
			tr.Values[1] = 1 + float64(i)/10
			tr.LP = -float64(i)
			tr.AcceptStat = 0.9
			tr.StepSize = 0.5 + float64(c)
			tr.TreeDepth = 2
			tr.Divergent = c == 1 && i == 2
		}
	}

	return d
}

func TestDrawsAccessors(t *testing.T) {
	d := sampleDraws()

	require.Equal(t, 2, d.NumChains())
	require.Equal(t, 3, d.DrawsPerChain())
	require.Equal(t, 1, d.ParamIndex("sigma"))
	require.Equal(t, -1, d.ParamIndex("lp__"))
	require.Equal(t, []float64{10, 11, 12}, d.Column(1, 0))
	require.Equal(t, []float64{0, -1, -2}, d.LP(0))
	require.Equal(t, 1, d.Divergences())
	require.Equal(t, []float64{0.5, 1.5}, d.StepSizes())
	require.Equal(t, []string{"beta0", "sigma", "lp__", "accept_stat__", "stepsize__", "treedepth__", "divergent__"}, d.ColumnNames())

	require.Zero(t, (&Draws{}).DrawsPerChain())
}

func TestDrawsSeriesRoundTrip(t *testing.T) {
	src := sampleDraws()
	dst := NewDraws(src.Params, 2, 3)

	for c := range src.NumChains() {
		for _, name := range src.ColumnNames() {
			values, ok := src.Series(c, name)
			require.True(t, ok, name)
			require.NoError(t, dst.SetSeries(c, name, values))
		}
	}

	require.Equal(t, src, dst)

	div, ok := src.Series(1, ColumnDivergent)
	require.True(t, ok)
	require.Equal(t, []float64{0, 0, 1}, div)

	_, ok = src.Series(0, "unknown")
	require.False(t, ok)
}

func TestDrawsSetSeriesErrors(t *testing.T) {
	d := NewDraws([]string{"beta0"}, 1, 2)

	require.ErrorIs(t, d.SetSeries(1, "beta0", []float64{1, 2}), errs.ErrInvalidArgument)
	require.ErrorIs(t, d.SetSeries(0, "beta0", []float64{1}), errs.ErrInvalidArgument)
	require.ErrorIs(t, d.SetSeries(0, "nope", []float64{1, 2}), errs.ErrInvalidArgument)
}
