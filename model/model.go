// Package model describes a posterior to sample: named parameters with
// constraints and a log density evaluated on the unconstrained scale.
package model

import (
	"fmt"
	"math"
)

// ConstraintKind identifies the support of a parameter.
type ConstraintKind uint8

const (
	KindUnconstrained ConstraintKind = iota
	KindLowerBound
)

// Constraint maps a parameter between its constrained support and the real line.
type Constraint struct {
	Kind  ConstraintKind
	Lower float64
}

// Unconstrained is the identity transform.
func Unconstrained() Constraint {
	return Constraint{Kind: KindUnconstrained}
}

// LowerBound constrains a parameter to (lower, +inf) through lower + exp(u).
func LowerBound(lower float64) Constraint {
	return Constraint{Kind: KindLowerBound, Lower: lower}
}

// Constrain maps u from the real line onto the support.
func (c Constraint) Constrain(u float64) float64 {
	if c.Kind == KindLowerBound {
		return c.Lower + math.Exp(u)
	}

	return u
}

// Unconstrain is the inverse of Constrain.
func (c Constraint) Unconstrain(v float64) float64 {
	if c.Kind == KindLowerBound {
		return math.Log(v - c.Lower)
	}

	return v
}

// LogJacobian returns log |d Constrain / du| at u.
func (c Constraint) LogJacobian(u float64) float64 {
	if c.Kind == KindLowerBound {
		return u
	}

	return 0
}

func (c Constraint) String() string {
	if c.Kind == KindLowerBound {
		return fmt.Sprintf("<lower=%g>", c.Lower)
	}

	return ""
}

// Parameter is a named model parameter.
type Parameter struct {
	Name       string
	Constraint Constraint
}

// Model is a differentiable log density over Dim unconstrained parameters.
//
// Implementations must be safe for concurrent LogDensity calls; every chain
// evaluates the same model from its own goroutine.
type Model interface {
	Name() string
	Params() []Parameter
	Dim() int

	// LogDensity returns the log posterior density at theta (unconstrained,
	// Jacobian included) up to a constant and writes its gradient into grad
	// when grad is non-nil.
	LogDensity(theta []float64, grad []float64) float64

	// Constrain writes the constrained values of theta into out.
	Constrain(theta []float64, out []float64)
}

// ConstrainAll applies each parameter's constraint to theta.
func ConstrainAll(params []Parameter, theta []float64, out []float64) {
	for i, p := range params {
		out[i] = p.Constraint.Constrain(theta[i])
	}
}

// ParamNames returns the names of m's parameters in order.
func ParamNames(m Model) []string {
	params := m.Params()
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}

	return names
}
