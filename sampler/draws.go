package sampler

import (
	"fmt"
	"slices"

	"github.com/arloliu/bayesfit/errs"
)

// Names of the per-transition columns stored next to the parameters.
const (
	ColumnLP         = "lp__"
	ColumnAcceptStat = "accept_stat__"
	ColumnStepSize   = "stepsize__"
	ColumnTreeDepth  = "treedepth__"
	ColumnDivergent  = "divergent__"
)

// DiagnosticColumns lists the non-parameter columns in storage order.
var DiagnosticColumns = []string{ColumnLP, ColumnAcceptStat, ColumnStepSize, ColumnTreeDepth, ColumnDivergent}

// Transition is one kept MCMC draw.
type Transition struct {
	// Values holds the parameters on the constrained scale.
	Values     []float64
	LP         float64
	AcceptStat float64
	StepSize   float64
	TreeDepth  int
	Divergent  bool
}

// Draws holds the post-warmup transitions of every chain.
type Draws struct {
	Params []string
	Chains [][]Transition
}

// NewDraws allocates zeroed draws for chains × perChain transitions.
func NewDraws(params []string, chains, perChain int) *Draws {
	d := &Draws{
		Params: slices.Clone(params),
		Chains: make([][]Transition, chains),
	}
	for c := range d.Chains {
		d.Chains[c] = make([]Transition, perChain)
		for i := range d.Chains[c] {
			d.Chains[c][i].Values = make([]float64, len(params))
		}
	}

	return d
}

// NumChains returns the number of chains.
func (d *Draws) NumChains() int { return len(d.Chains) }

// DrawsPerChain returns the number of transitions in the first chain.
func (d *Draws) DrawsPerChain() int {
	if len(d.Chains) == 0 {
		return 0
	}

	return len(d.Chains[0])
}

// ParamIndex returns the position of name in Params, or -1.
func (d *Draws) ParamIndex(name string) int {
	return slices.Index(d.Params, name)
}

// Column returns the draws of parameter param in chain.
func (d *Draws) Column(chain, param int) []float64 {
	ts := d.Chains[chain]
	out := make([]float64, len(ts))
	for i := range ts {
		out[i] = ts[i].Values[param]
	}

	return out
}

// LP returns the log density of every draw in chain.
func (d *Draws) LP(chain int) []float64 {
	ts := d.Chains[chain]
	out := make([]float64, len(ts))
	for i := range ts {
		out[i] = ts[i].LP
	}

	return out
}

// Divergences counts divergent transitions over all chains.
func (d *Draws) Divergences() int {
	n := 0
	for _, ts := range d.Chains {
		for i := range ts {
			if ts[i].Divergent {
				n++
			}
		}
	}

	return n
}

// StepSizes returns the adapted step size of every chain.
func (d *Draws) StepSizes() []float64 {
	out := make([]float64, len(d.Chains))
	for c, ts := range d.Chains {
		if len(ts) > 0 {
			out[c] = ts[len(ts)-1].StepSize
		}
	}

	return out
}

// ColumnNames returns the parameter names followed by DiagnosticColumns.
func (d *Draws) ColumnNames() []string {
	return append(slices.Clone(d.Params), DiagnosticColumns...)
}

// Series returns column name of chain as float64 values. Booleans map to 0/1.
func (d *Draws) Series(chain int, name string) ([]float64, bool) {
	if p := d.ParamIndex(name); p >= 0 {
		return d.Column(chain, p), true
	}

	var get func(*Transition) float64
	switch name {
	case ColumnLP:
		get = func(t *Transition) float64 { return t.LP }
	case ColumnAcceptStat:
		get = func(t *Transition) float64 { return t.AcceptStat }
	case ColumnStepSize:
		get = func(t *Transition) float64 { return t.StepSize }
	case ColumnTreeDepth:
		get = func(t *Transition) float64 { return float64(t.TreeDepth) }
	case ColumnDivergent:
		get = func(t *Transition) float64 {
			if t.Divergent {
				return 1
			}
			return 0
		}
	default:
		return nil, false
	}

	ts := d.Chains[chain]
	out := make([]float64, len(ts))
	for i := range ts {
		out[i] = get(&ts[i])
	}

	return out, true
}

// SetSeries is the inverse of Series. len(values) must match the chain length.
func (d *Draws) SetSeries(chain int, name string, values []float64) error {
	if chain < 0 || chain >= len(d.Chains) {
		return fmt.Errorf("%w: chain %d out of range", errs.ErrInvalidArgument, chain)
	}
	ts := d.Chains[chain]
	if len(values) != len(ts) {
		return fmt.Errorf("%w: column %q has %d values, chain %d has %d draws",
			errs.ErrInvalidArgument, name, len(values), chain, len(ts))
	}

	if p := d.ParamIndex(name); p >= 0 {
		for i, v := range values {
			ts[i].Values[p] = v
		}

		return nil
	}
	if !slices.Contains(DiagnosticColumns, name) {
		return fmt.Errorf("%w: unknown column %q", errs.ErrInvalidArgument, name)
	}

	for i, v := range values {
		t := &ts[i]
		switch name {
		case ColumnLP:
			t.LP = v
		case ColumnAcceptStat:
			t.AcceptStat = v
		case ColumnStepSize:
			t.StepSize = v
		case ColumnTreeDepth:
			t.TreeDepth = int(v)
		case ColumnDivergent:
			t.Divergent = v != 0
		}
	}

	return nil
}
