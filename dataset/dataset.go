// Package dataset synthesizes and holds the observations of a simple linear
// regression: y = intercept + slope*x + noise, with x ~ Uniform(0, 1) and
// Gaussian noise.
package dataset

import (
	"fmt"
	"slices"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/arloliu/bayesfit/errs"
)

// Truth is the parameter vector the synthetic observations are drawn from.
type Truth struct {
	Intercept float64 `koanf:"intercept" yaml:"intercept"`
	Slope     float64 `koanf:"slope" yaml:"slope"`
	Sigma     float64 `koanf:"sigma" yaml:"sigma"`
}

// DefaultTruth returns intercept 2, slope 3 and noise scale 1.
func DefaultTruth() Truth {
	return Truth{Intercept: 2.0, Slope: 3.0, Sigma: 1.0}
}

// Validate reports whether t can generate observations.
func (t Truth) Validate() error {
	if !(t.Sigma > 0) {
		return fmt.Errorf("%w: truth sigma must be positive, got %v", errs.ErrInvalidArgument, t.Sigma)
	}

	return nil
}

// Dataset holds N paired observations. It is immutable after construction.
type Dataset struct {
	N int
	X []float64
	Y []float64
}

// New builds a dataset from copies of x and y.
func New(x, y []float64) (*Dataset, error) {
	ds := &Dataset{N: len(x), X: slices.Clone(x), Y: slices.Clone(y)}
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	return ds, nil
}

// Synthesize draws n observations from truth using a generator seeded with seed.
//
// All x values are drawn first, then all y values, so a given (n, seed, truth)
// always produces bit-identical data. No global random state is touched.
func Synthesize(n int, seed uint64, truth Truth) (*Dataset, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: number of observations must be positive, got %d", errs.ErrInvalidArgument, n)
	}
	if err := truth.Validate(); err != nil {
		return nil, err
	}

	src := rand.NewSource(seed)

	x := make([]float64, n)
	unif := distuv.Uniform{Min: 0, Max: 1, Src: src}
	for i := range x {
		x[i] = unif.Rand()
	}

	y := make([]float64, n)
	for i := range y {
		y[i] = distuv.Normal{Mu: truth.Intercept + truth.Slope*x[i], Sigma: truth.Sigma, Src: src}.Rand()
	}

	return &Dataset{N: n, X: x, Y: y}, nil
}

// Validate checks N > 0 and len(X) == len(Y) == N.
func (d *Dataset) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: dataset is nil", errs.ErrInvalidArgument)
	}
	if d.N <= 0 {
		return fmt.Errorf("%w: dataset is empty", errs.ErrInvalidArgument)
	}
	if len(d.X) != d.N || len(d.Y) != d.N {
		return fmt.Errorf("%w: dataset declares %d observations but has len(x)=%d, len(y)=%d",
			errs.ErrInvalidArgument, d.N, len(d.X), len(d.Y))
	}

	return nil
}

// Map returns the data record handed to the model: {"nobs", "x", "y"}.
func (d *Dataset) Map() map[string]any {
	return map[string]any{
		"nobs": d.N,
		"x":    slices.Clone(d.X),
		"y":    slices.Clone(d.Y),
	}
}

// DesignMatrix returns the N×2 matrix [1 x].
func (d *Dataset) DesignMatrix() *mat.Dense {
	m := mat.NewDense(d.N, 2, nil)
	for i, x := range d.X {
		m.Set(i, 0, 1)
		m.Set(i, 1, x)
	}

	return m
}

// OLS returns the ordinary least squares intercept and slope.
func (d *Dataset) OLS() (intercept, slope float64) {
	return stat.LinearRegression(d.X, d.Y, nil, false)
}
