package model

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/arloliu/bayesfit/dataset"
	"github.com/arloliu/bayesfit/errs"
)

func newModel(t *testing.T, n int) *LinearGaussian {
	t.Helper()

	ds, err := dataset.Synthesize(n, 1056, dataset.DefaultTruth())
	require.NoError(t, err)

	m, err := NewLinearGaussian(ds)
	require.NoError(t, err)

	return m
}

func TestLogLikelihoodTerm_MatchesNormal(t *testing.T) {
	cases := []struct{ y, mu, sigma float64 }{
		{0, 0, 1},
		{2.5, 2, 1},
		{-3, 4, 0.5},
		{10, 1, 7.25},
		{1e-3, 0, 1e-2},
	}

	for _, c := range cases {
		want := distuv.Normal{Mu: c.mu, Sigma: c.sigma}.LogProb(c.y)
		require.InDelta(t, want, LogLikelihoodTerm(c.y, c.mu, c.sigma), 1e-10)
	}
}

func TestLinearGaussian_Params(t *testing.T) {
	m := newModel(t, 10)

	require.Equal(t, 3, m.Dim())
	require.Equal(t, []string{"beta0", "beta1", "sigma"}, ParamNames(m))
	require.Equal(t, KindLowerBound, m.Params()[2].Constraint.Kind)
	require.True(t, strings.HasPrefix(m.Name(), "linear_gaussian_"))
	require.Len(t, m.Name(), len("linear_gaussian_")+8)
	require.Equal(t, 10, m.Nobs())

	// copies, not internal state
	m.Params()[0].Name = "changed"
	require.Equal(t, "beta0", m.Params()[0].Name)
}

func TestLinearGaussian_SingleObservation(t *testing.T) {
	m := newModel(t, 1)

	terms := m.LogLikelihoodTerms(2, 3, 1)
	require.Len(t, terms, 1)

	sum, err := m.LogLikelihood(2, 3, 1)
	require.NoError(t, err)
	require.Equal(t, terms[0], sum)
}

func TestLinearGaussian_LogLikelihoodInvalidSigma(t *testing.T) {
	m := newModel(t, 3)

	_, err := m.LogLikelihood(0, 0, 0)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestLinearGaussian_LogDensityIncludesJacobian(t *testing.T) {
	m := newModel(t, 50)
	theta := []float64{1.8, 3.1, math.Log(1.2)}

	ll, err := m.LogLikelihood(1.8, 3.1, 1.2)
	require.NoError(t, err)
	require.InDelta(t, ll+math.Log(1.2), m.LogDensity(theta, nil), 1e-9)
}

func TestLinearGaussian_GradientMatchesFiniteDifference(t *testing.T) {
	m := newModel(t, 200)

	f := func(x []float64) float64 { return m.LogDensity(x, nil) }
	for _, theta := range [][]float64{
		{2, 3, 0},
		{-1, 0.5, math.Log(3)},
		{5, -2, math.Log(0.4)},
	} {
		grad := make([]float64, 3)
		m.LogDensity(theta, grad)

		want := fd.Gradient(nil, f, theta, &fd.Settings{Formula: fd.Central})
		for i := range grad {
			require.InDelta(t, want[i], grad[i], 1e-4*math.Max(1, math.Abs(want[i])), "component %d at %v", i, theta)
		}
	}
}

func TestConstraint(t *testing.T) {
	lb := LowerBound(0)
	require.InDelta(t, 2.5, lb.Constrain(lb.Unconstrain(2.5)), 1e-12)
	require.Equal(t, 0.7, lb.LogJacobian(0.7))
	require.Equal(t, "<lower=0>", lb.String())

	id := Unconstrained()
	require.Equal(t, -4.0, id.Constrain(-4))
	require.Equal(t, -4.0, id.Unconstrain(-4))
	require.Zero(t, id.LogJacobian(3))
	require.Empty(t, id.String())

	m := newModel(t, 2)
	out := make([]float64, 3)
	m.Constrain([]float64{1, 2, 0}, out)
	require.Equal(t, []float64{1, 2, 1}, out)
}

func TestDescribe(t *testing.T) {
	m := newModel(t, 2)
	desc := m.Describe()

	require.Contains(t, desc, "real beta0;")
	require.Contains(t, desc, "real<lower=0> sigma;")
	require.Contains(t, desc, "target += sum(loglike);")
	require.Equal(t, newModel(t, 5).Name(), m.Name(), "name depends on the declaration only")
}

func TestNewLinearGaussian_InvalidDataset(t *testing.T) {
	_, err := NewLinearGaussian(nil)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = NewLinearGaussian(&dataset.Dataset{})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}
