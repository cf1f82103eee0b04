// Package checks evaluates CEL assertions against a posterior summary.
//
// Every summarized column is exposed as a map variable named after it
// (lp__ as lp) with the keys mean, se_mean, sd, q2_5, q25, q50, q75, q97_5,
// n_eff and rhat:
//
//	beta0.mean > 1.9 && beta0.mean < 2.1
//	sigma.rhat < 1.01 && sigma.n_eff > 400
package checks

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/arloliu/bayesfit/dataset"
	"github.com/arloliu/bayesfit/errs"
	"github.com/arloliu/bayesfit/model"
	"github.com/arloliu/bayesfit/summary"
)

// costLimit bounds the evaluation cost of a single expression.
const costLimit = 1000000

// DefaultVariables are the variables available to Compile when none are given.
var DefaultVariables = []string{model.ParamBeta0, model.ParamBeta1, model.ParamSigma, "lp"}

var quantileKeys = []string{"q2_5", "q25", "q50", "q75", "q97_5"}

// Outcome is the result of one check.
type Outcome struct {
	Expr   string
	Passed bool
	Err    error
}

// Suite is a set of compiled checks. It is safe for concurrent use.
type Suite struct {
	exprs    []string
	programs []cel.Program
}

// Compile type-checks exprs against the given variable names, or
// DefaultVariables when vars is empty.
func Compile(exprs []string, vars ...string) (*Suite, error) {
	if len(vars) == 0 {
		vars = DefaultVariables
	}

	envOpts := make([]cel.EnvOption, 0, len(vars))
	for _, v := range vars {
		envOpts = append(envOpts, cel.Variable(v, cel.DynType))
	}

	env, err := cel.NewEnv(envOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	s := &Suite{}
	for _, expr := range exprs {
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("%w: check %q: %w", errs.ErrInvalidArgument, expr, issues.Err())
		}

		prog, err := env.Program(ast, cel.CostLimit(costLimit))
		if err != nil {
			return nil, fmt.Errorf("%w: check %q: %w", errs.ErrInvalidArgument, expr, err)
		}

		s.exprs = append(s.exprs, expr)
		s.programs = append(s.programs, prog)
	}

	return s, nil
}

// Len returns the number of checks.
func (s *Suite) Len() int { return len(s.programs) }

// Evaluate runs every check against sum. Non-boolean results and evaluation
// errors count as failures. The error wraps errs.ErrCheckFailed when at
// least one check failed; the outcomes are returned either way.
func (s *Suite) Evaluate(sum *summary.Summary) ([]Outcome, error) {
	activation := Variables(sum)

	outcomes := make([]Outcome, len(s.programs))
	var failed []string
	for i, prog := range s.programs {
		outcomes[i].Expr = s.exprs[i]

		out, _, err := prog.Eval(activation)
		if err != nil {
			outcomes[i].Err = err
		} else if passed, ok := out.Value().(bool); ok {
			outcomes[i].Passed = passed
		} else {
			outcomes[i].Err = fmt.Errorf("check returned %s, want bool", out.Type().TypeName())
		}

		if !outcomes[i].Passed {
			failed = append(failed, s.exprs[i])
		}
	}

	if len(failed) > 0 {
		return outcomes, fmt.Errorf("%w: %d of %d: %s", errs.ErrCheckFailed, len(failed), len(outcomes), strings.Join(failed, "; "))
	}

	return outcomes, nil
}

// Variables builds the CEL activation for sum.
func Variables(sum *summary.Summary) map[string]any {
	vars := make(map[string]any, len(sum.Params))
	for _, p := range sum.Params {
		m := map[string]any{
			"mean":    p.Mean,
			"se_mean": p.SEMean,
			"sd":      p.SD,
			"n_eff":   p.NEff,
			"rhat":    p.Rhat,
		}
		for i, k := range quantileKeys {
			if i < len(p.Quantiles) {
				m[k] = p.Quantiles[i]
			}
		}
		vars[VariableName(p.Name)] = m
	}

	return vars
}

// VariableName maps a column name to its CEL identifier: trailing
// underscores are dropped, so lp__ becomes lp.
func VariableName(column string) string {
	return strings.TrimRight(column, "_")
}

// RecoveryExpressions returns checks that each posterior mean lies within
// tol of the generating value.
func RecoveryExpressions(truth dataset.Truth, tol float64) []string {
	within := func(name string, v float64) string {
		return fmt.Sprintf("%s.mean > %g && %s.mean < %g", name, v-tol, name, v+tol)
	}

	return []string{
		within(model.ParamBeta0, truth.Intercept),
		within(model.ParamBeta1, truth.Slope),
		within(model.ParamSigma, truth.Sigma),
	}
}
