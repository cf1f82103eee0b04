package sampler

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/bayesfit/internal/options"
	"github.com/arloliu/bayesfit/model"
)

const (
	// deltaMax is the energy error beyond which a trajectory counts as divergent.
	deltaMax = 1000.0
	// maxInitAttempts bounds the search for a finite initial point.
	maxInitAttempts = 100
	maxStepSize     = 1e7
)

var (
	errInitRejected = errors.New("rejecting initial value")
	errStepSize     = errors.New("no acceptable step size")
)

// NUTS is the No-U-Turn sampler with diagonal metric adaptation.
// The zero value is ready to use and logs nothing.
type NUTS struct {
	logger *zap.Logger
}

// Option configures a NUTS engine.
type Option = options.Option[*NUTS]

// WithLogger sets the logger used for per-chain progress messages.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(n *NUTS) {
		n.logger = logger
	})
}

// NewNUTS creates an engine with the given options.
func NewNUTS(opts ...Option) (*NUTS, error) {
	n := &NUTS{}
	if err := options.Apply(n, opts...); err != nil {
		return nil, err
	}

	return n, nil
}

// Sample runs cfg.Chains independent chains on m and returns their
// post-warmup draws. Chain c is seeded with cfg.Seed+c, so the result does
// not depend on scheduling.
func (n *NUTS) Sample(ctx context.Context, m model.Model, cfg Config) (*Draws, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if n != nil && n.logger != nil {
		logger = n.logger
	}

	draws := &Draws{
		Params: model.ParamNames(m),
		Chains: make([][]Transition, cfg.Chains),
	}

	run := func(ctx context.Context, c int) error {
		ts, err := runChain(ctx, m, cfg, c, logger)
		if err != nil {
			return fmt.Errorf("chain %d: %w", c, err)
		}
		draws.Chains[c] = ts

		return nil
	}

	if !cfg.Parallel {
		for c := range cfg.Chains {
			if err := run(ctx, c); err != nil {
				return nil, err
			}
		}

		return draws, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for c := range cfg.Chains {
		g.Go(func() error { return run(gctx, c) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return draws, nil
}

// point is a position in phase space with its cached density and gradient.
type point struct {
	theta []float64
	r     []float64
	grad  []float64
	lp    float64
}

// chain is the state owned by a single chain goroutine.
type chain struct {
	m         model.Model
	rng       *rand.Rand
	invMetric []float64
	eps       float64
	maxDepth  int
	dim       int
}

func runChain(ctx context.Context, m model.Model, cfg Config, id int, logger *zap.Logger) ([]Transition, error) {
	start := time.Now()
	dim := m.Dim()

	c := &chain{
		m:         m,
		rng:       rand.New(rand.NewSource(cfg.Seed + uint64(id))), //nolint:gosec // id < cfg.Chains
		invMetric: make([]float64, dim),
		eps:       1,
		maxDepth:  cfg.MaxTreeDepth,
		dim:       dim,
	}
	for i := range c.invMetric {
		c.invMetric[i] = 1
	}

	cur, err := c.initialize(cfg.InitRadius)
	if err != nil {
		return nil, err
	}
	if err := c.initStepSize(cur); err != nil {
		return nil, err
	}

	da := newDualAveraging(cfg.TargetAccept, c.eps)
	wa := newWindowedAdaptation(cfg.Warmup, dim)

	out := make([]Transition, 0, cfg.DrawsPerChain())
	for it := range cfg.Iterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		eps := c.eps
		next, st := c.transition(cur)
		cur = next

		if it < cfg.Warmup {
			c.eps = da.learn(st.acceptStat)
			if wa.learn(cur.theta, c.invMetric) {
				if err := c.initStepSize(cur); err != nil {
					return nil, err
				}
				da.restart(c.eps)
			}
			if it == cfg.Warmup-1 {
				c.eps = da.final()
				if !(c.eps > 0) || math.IsInf(c.eps, 0) {
					return nil, fmt.Errorf("%w: adapted step size is %v", errStepSize, c.eps)
				}
				logger.Debug("warmup complete",
					zap.Int("chain", id),
					zap.Float64("step_size", c.eps),
					zap.Float64s("inv_metric", c.invMetric))
			}

			continue
		}

		if (it-cfg.Warmup)%cfg.Thin != 0 {
			continue
		}

		values := make([]float64, dim)
		m.Constrain(cur.theta, values)
		out = append(out, Transition{
			Values:     values,
			LP:         cur.lp,
			AcceptStat: st.acceptStat,
			StepSize:   eps,
			TreeDepth:  st.depth,
			Divergent:  st.divergent,
		})
	}

	logger.Debug("chain finished",
		zap.Int("chain", id),
		zap.Int("draws", len(out)),
		zap.Duration("elapsed", time.Since(start)))

	return out, nil
}

// initialize draws uniform initial values until density and gradient are finite.
func (c *chain) initialize(radius float64) (*point, error) {
	p := &point{
		theta: make([]float64, c.dim),
		r:     make([]float64, c.dim),
		grad:  make([]float64, c.dim),
	}

	for range maxInitAttempts {
		for i := range p.theta {
			p.theta[i] = radius * (2*c.rng.Float64() - 1)
		}
		p.lp = c.m.LogDensity(p.theta, p.grad)
		if isFinite(p.lp) && allFinite(p.grad) {
			return p, nil
		}
	}

	return nil, fmt.Errorf("%w: log density or gradient not finite after %d attempts", errInitRejected, maxInitAttempts)
}

// initStepSize doubles or halves eps until a single leapfrog step crosses an
// acceptance probability of 0.8 (Hoffman & Gelman, algorithm 4).
func (c *chain) initStepSize(cur *point) error {
	logTarget := math.Log(0.8)

	deltaH := func() float64 {
		p := &point{theta: cur.theta, grad: cur.grad, lp: cur.lp, r: c.sampleMomentum()}
		h0 := c.hamiltonian(p)
		q := c.leapfrog(p, c.eps)

		return c.hamiltonian(q) - h0
	}

	direction := -1.0
	if deltaH() > logTarget {
		direction = 1
	}

	for {
		d := deltaH()
		if direction > 0 && !(d > logTarget) {
			return nil
		}
		if direction < 0 && !(d < logTarget) {
			return nil
		}

		if direction > 0 {
			c.eps *= 2
		} else {
			c.eps /= 2
		}

		if c.eps > maxStepSize {
			return fmt.Errorf("%w: step size exceeded %g, posterior may be improper", errStepSize, maxStepSize)
		}
		if c.eps == 0 {
			return fmt.Errorf("%w: step size collapsed to zero", errStepSize)
		}
	}
}

type transitionStats struct {
	acceptStat float64
	depth      int
	divergent  bool
}

// transition performs one NUTS iteration with multinomial-free slice
// sampling (Hoffman & Gelman, algorithm 3).
func (c *chain) transition(cur *point) (*point, transitionStats) {
	start := &point{theta: cur.theta, grad: cur.grad, lp: cur.lp, r: c.sampleMomentum()}
	h0 := c.hamiltonian(start)
	logu := h0 - c.rng.ExpFloat64()

	minus, plus := start, start
	prop := cur
	n := 1
	ok := true

	var st transitionStats
	var alpha float64
	var nAlpha int

	for ok && st.depth < c.maxDepth {
		var t tree
		if c.rng.Float64() < 0.5 {
			t = c.buildTree(minus, logu, -1, st.depth, h0)
			minus = t.minus
		} else {
			t = c.buildTree(plus, logu, 1, st.depth, h0)
			plus = t.plus
		}

		alpha += t.alpha
		nAlpha += t.nAlpha
		st.divergent = st.divergent || t.divergent

		if t.ok && t.n > 0 && c.rng.Float64() < float64(t.n)/float64(n) {
			prop = t.prop
		}
		n += t.n
		ok = t.ok && c.noUTurn(minus, plus)
		st.depth++
	}

	if nAlpha > 0 {
		st.acceptStat = alpha / float64(nAlpha)
	}

	return prop, st
}

// tree summarizes a subtree built by buildTree.
type tree struct {
	minus, plus *point
	prop        *point
	n           int
	ok          bool
	alpha       float64
	nAlpha      int
	divergent   bool
}

func (c *chain) buildTree(p *point, logu float64, dir int, depth int, h0 float64) tree {
	if depth == 0 {
		q := c.leapfrog(p, float64(dir)*c.eps)
		h := c.hamiltonian(q)

		t := tree{minus: q, plus: q, prop: q, nAlpha: 1}
		if logu <= h {
			t.n = 1
		}
		t.ok = logu < deltaMax+h
		t.divergent = !t.ok
		if h > math.Inf(-1) {
			t.alpha = math.Min(1, math.Exp(h-h0))
		}

		return t
	}

	t := c.buildTree(p, logu, dir, depth-1, h0)
	if !t.ok {
		return t
	}

	var t2 tree
	if dir < 0 {
		t2 = c.buildTree(t.minus, logu, dir, depth-1, h0)
		t.minus = t2.minus
	} else {
		t2 = c.buildTree(t.plus, logu, dir, depth-1, h0)
		t.plus = t2.plus
	}

	if total := t.n + t2.n; total > 0 && c.rng.Float64() < float64(t2.n)/float64(total) {
		t.prop = t2.prop
	}

	t.alpha += t2.alpha
	t.nAlpha += t2.nAlpha
	t.divergent = t.divergent || t2.divergent
	t.ok = t2.ok && c.noUTurn(t.minus, t.plus)
	t.n += t2.n

	return t
}

// leapfrog integrates one step of size eps from p into a new point.
func (c *chain) leapfrog(p *point, eps float64) *point {
	q := &point{
		theta: make([]float64, c.dim),
		r:     make([]float64, c.dim),
		grad:  make([]float64, c.dim),
	}

	for i := range q.r {
		q.r[i] = p.r[i] + 0.5*eps*p.grad[i]
		q.theta[i] = p.theta[i] + eps*c.invMetric[i]*q.r[i]
	}

	q.lp = c.m.LogDensity(q.theta, q.grad)

	for i := range q.r {
		q.r[i] += 0.5 * eps * q.grad[i]
	}

	return q
}

// hamiltonian returns the negative energy lp - K(r); NaN maps to -Inf.
func (c *chain) hamiltonian(p *point) float64 {
	var k float64
	for i, r := range p.r {
		k += c.invMetric[i] * r * r
	}

	h := p.lp - 0.5*k
	if math.IsNaN(h) {
		return math.Inf(-1)
	}

	return h
}

func (c *chain) sampleMomentum() []float64 {
	r := make([]float64, c.dim)
	for i := range r {
		r[i] = c.rng.NormFloat64() / math.Sqrt(c.invMetric[i])
	}

	return r
}

// noUTurn reports whether the trajectory between minus and plus still extends in both directions.
func (c *chain) noUTurn(minus, plus *point) bool {
	var dMinus, dPlus float64
	for i := range minus.theta {
		d := plus.theta[i] - minus.theta[i]
		dMinus += d * c.invMetric[i] * minus.r[i]
		dPlus += d * c.invMetric[i] * plus.r[i]
	}

	return dMinus >= 0 && dPlus >= 0
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(vs []float64) bool {
	for _, v := range vs {
		if !isFinite(v) {
			return false
		}
	}

	return true
}
