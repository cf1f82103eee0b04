package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/arloliu/bayesfit/dataset"
	"github.com/arloliu/bayesfit/errs"
	"github.com/arloliu/bayesfit/internal/hash"
)

const (
	ParamBeta0 = "beta0"
	ParamBeta1 = "beta1"
	ParamSigma = "sigma"
)

// logInvSqrt2Pi is log(1/sqrt(2*pi)).
var logInvSqrt2Pi = -0.5 * math.Log(2*math.Pi)

// LogLikelihoodTerm is the Gaussian log-likelihood of a single observation,
// written out explicitly: log(1/(sigma*sqrt(2*pi))) - (y-mu)^2 / (2*sigma^2).
func LogLikelihoodTerm(y, mu, sigma float64) float64 {
	r := y - mu
	return logInvSqrt2Pi - math.Log(sigma) - r*r/(2*sigma*sigma)
}

// LinearGaussian is the linear regression y ~ Normal(beta0 + beta1*x, sigma)
// with an explicitly summed log-likelihood and flat priors.
//
// The unconstrained vector is (beta0, beta1, log sigma).
type LinearGaussian struct {
	x      []float64
	y      []float64
	params []Parameter
	name   string
}

var _ Model = (*LinearGaussian)(nil)

// NewLinearGaussian binds the model to ds.
func NewLinearGaussian(ds *dataset.Dataset) (*LinearGaussian, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	m := &LinearGaussian{
		x: ds.X,
		y: ds.Y,
		params: []Parameter{
			{Name: ParamBeta0, Constraint: Unconstrained()},
			{Name: ParamBeta1, Constraint: Unconstrained()},
			{Name: ParamSigma, Constraint: LowerBound(0)},
		},
	}
	m.name = "linear_gaussian_" + hash.Short(m.Describe())

	return m, nil
}

// Name returns "linear_gaussian_" followed by a short hash of the declaration.
func (m *LinearGaussian) Name() string { return m.name }

func (m *LinearGaussian) Params() []Parameter {
	out := make([]Parameter, len(m.params))
	copy(out, m.params)

	return out
}

func (m *LinearGaussian) Dim() int { return len(m.params) }

// Nobs returns the number of observations the model is bound to.
func (m *LinearGaussian) Nobs() int { return len(m.x) }

// Constrain maps (beta0, beta1, log sigma) to (beta0, beta1, sigma).
func (m *LinearGaussian) Constrain(theta []float64, out []float64) {
	ConstrainAll(m.params, theta, out)
}

// LogDensity evaluates sum_i loglike[i] + log sigma at theta = (beta0, beta1, log sigma).
//
// With r_i = y_i - mu_i the gradient is
//
//	d/d beta0  = sum r_i / sigma^2
//	d/d beta1  = sum r_i x_i / sigma^2
//	d/d log s  = -n + sum r_i^2 / sigma^2 + 1
func (m *LinearGaussian) LogDensity(theta []float64, grad []float64) float64 {
	b0, b1, u := theta[0], theta[1], theta[2]
	sigma := math.Exp(u)
	inv2 := 1 / (sigma * sigma)

	var sumR, sumRX, sumR2 float64
	for i, x := range m.x {
		r := m.y[i] - (b0 + b1*x)
		sumR += r
		sumRX += r * x
		sumR2 += r * r
	}

	n := float64(len(m.x))
	lp := n*(logInvSqrt2Pi-u) - 0.5*sumR2*inv2 + u

	if grad != nil {
		grad[0] = sumR * inv2
		grad[1] = sumRX * inv2
		grad[2] = -n + sumR2*inv2 + 1
	}

	return lp
}

// LogLikelihoodTerms returns loglike[i] for every observation.
func (m *LinearGaussian) LogLikelihoodTerms(beta0, beta1, sigma float64) []float64 {
	terms := make([]float64, len(m.x))
	for i, x := range m.x {
		terms[i] = LogLikelihoodTerm(m.y[i], beta0+beta1*x, sigma)
	}

	return terms
}

// LogLikelihood returns the sum of LogLikelihoodTerms.
func (m *LinearGaussian) LogLikelihood(beta0, beta1, sigma float64) (float64, error) {
	if !(sigma > 0) {
		return 0, fmt.Errorf("%w: sigma must be positive, got %v", errs.ErrInvalidArgument, sigma)
	}

	var sum float64
	for _, t := range m.LogLikelihoodTerms(beta0, beta1, sigma) {
		sum += t
	}

	return sum, nil
}

// Describe renders the model declaration: data, parameters and likelihood.
func (m *LinearGaussian) Describe() string {
	var sb strings.Builder

	sb.WriteString("data {\n")
	sb.WriteString("  int<lower=0> nobs;\n")
	sb.WriteString("  vector[nobs] x;\n")
	sb.WriteString("  vector[nobs] y;\n")
	sb.WriteString("}\n")
	sb.WriteString("parameters {\n")
	for _, p := range m.params {
		fmt.Fprintf(&sb, "  real%s %s;\n", p.Constraint, p.Name)
	}
	sb.WriteString("}\n")
	sb.WriteString("model {\n")
	sb.WriteString("  vector[nobs] mu = beta0 + beta1 * x;\n")
	sb.WriteString("  for (i in 1:nobs)\n")
	sb.WriteString("    loglike[i] = log(1 / (sigma * sqrt(2 * pi()))) - (y[i] - mu[i])^2 / (2 * sigma^2);\n")
	sb.WriteString("  target += sum(loglike);\n")
	sb.WriteString("}\n")

	return sb.String()
}
