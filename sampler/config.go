package sampler

import (
	"fmt"

	"github.com/arloliu/bayesfit/errs"
)

// Config controls a sampling run.
type Config struct {
	// Iterations per chain, warmup included.
	Iterations int
	// Warmup iterations per chain. They adapt the step size and metric and are discarded.
	Warmup int
	Chains int
	// Thin keeps every Thin-th post-warmup draw.
	Thin int
	// Seed of chain c is Seed+c.
	Seed         uint64
	MaxTreeDepth int
	// TargetAccept is the mean acceptance statistic dual averaging aims for.
	TargetAccept float64
	// InitRadius draws initial values uniformly from (-InitRadius, InitRadius)
	// on the unconstrained scale.
	InitRadius float64
	// Parallel runs chains concurrently.
	Parallel bool
}

// DefaultConfig returns 5000 iterations (2500 warmup) on 3 parallel chains with seed 1056.
func DefaultConfig() Config {
	return Config{
		Iterations:   5000,
		Warmup:       2500,
		Chains:       3,
		Thin:         1,
		Seed:         1056,
		MaxTreeDepth: 10,
		TargetAccept: 0.8,
		InitRadius:   2,
		Parallel:     true,
	}
}

// Validate reports the first invalid field as errs.ErrInvalidArgument.
func (c Config) Validate() error {
	switch {
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive, got %d", errs.ErrInvalidArgument, c.Iterations)
	case c.Warmup < 0:
		return fmt.Errorf("%w: warmup must not be negative, got %d", errs.ErrInvalidArgument, c.Warmup)
	case c.Iterations <= c.Warmup:
		return fmt.Errorf("%w: iterations (%d) must exceed warmup (%d)", errs.ErrInvalidArgument, c.Iterations, c.Warmup)
	case c.Chains <= 0:
		return fmt.Errorf("%w: chains must be positive, got %d", errs.ErrInvalidArgument, c.Chains)
	case c.Thin <= 0:
		return fmt.Errorf("%w: thin must be positive, got %d", errs.ErrInvalidArgument, c.Thin)
	case c.MaxTreeDepth <= 0 || c.MaxTreeDepth > 30:
		return fmt.Errorf("%w: max tree depth must be in [1, 30], got %d", errs.ErrInvalidArgument, c.MaxTreeDepth)
	case !(c.TargetAccept > 0 && c.TargetAccept < 1):
		return fmt.Errorf("%w: target accept must be in (0, 1), got %v", errs.ErrInvalidArgument, c.TargetAccept)
	case !(c.InitRadius >= 0):
		return fmt.Errorf("%w: init radius must not be negative, got %v", errs.ErrInvalidArgument, c.InitRadius)
	}

	return nil
}

// DrawsPerChain returns the number of post-warmup draws kept per chain.
func (c Config) DrawsPerChain() int {
	if c.Thin <= 0 {
		return 0
	}

	return (c.Iterations - c.Warmup + c.Thin - 1) / c.Thin
}
