// Package fit runs a sampling engine on a model bound to a dataset and
// packages the draws with their summary.
package fit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arloliu/bayesfit/dataset"
	"github.com/arloliu/bayesfit/errs"
	"github.com/arloliu/bayesfit/internal/options"
	"github.com/arloliu/bayesfit/model"
	"github.com/arloliu/bayesfit/sampler"
	"github.com/arloliu/bayesfit/summary"
)

// Engine draws posterior samples for a model. *sampler.NUTS is the default.
type Engine interface {
	Sample(ctx context.Context, m model.Model, cfg sampler.Config) (*sampler.Draws, error)
}

var _ Engine = (*sampler.NUTS)(nil)

// Result is a completed fit.
type Result struct {
	Draws   *sampler.Draws
	Summary *summary.Summary
	Config  sampler.Config
	Elapsed time.Duration
}

// String returns the textual summary of the fit.
func (r *Result) String() string {
	return r.Summary.String()
}

// Invoke validates its inputs, runs the engine once and summarizes the draws.
//
// Invalid inputs fail with errs.ErrInvalidArgument before the engine is
// called. Engine errors are returned as errs.ErrSamplingFailure with the
// engine's message preserved; there is no retry.
func Invoke(ctx context.Context, ds *dataset.Dataset, m model.Model, opts ...Option) (*Result, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if !cfg.warmupSet {
		cfg.Sampler.Warmup = cfg.Sampler.Iterations / 2
	}
	if cfg.Engine == nil {
		nuts, err := sampler.NewNUTS(sampler.WithLogger(cfg.Logger.Named("sampler")))
		if err != nil {
			return nil, err
		}
		cfg.Engine = nuts
	}

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: model is nil", errs.ErrInvalidArgument)
	}
	if bound, ok := m.(interface{ Nobs() int }); ok && bound.Nobs() != ds.N {
		return nil, fmt.Errorf("%w: model is bound to %d observations, dataset has %d",
			errs.ErrInvalidArgument, bound.Nobs(), ds.N)
	}
	if err := cfg.Sampler.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	logger.Info("sampling started",
		zap.String("model", m.Name()),
		zap.Int("nobs", ds.N),
		zap.Int("iterations", cfg.Sampler.Iterations),
		zap.Int("warmup", cfg.Sampler.Warmup),
		zap.Int("chains", cfg.Sampler.Chains),
		zap.Uint64("seed", cfg.Sampler.Seed))

	start := cfg.Clock()
	draws, err := cfg.Engine.Sample(ctx, m, cfg.Sampler)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrSamplingFailure, err)
	}
	if draws == nil || draws.NumChains() != cfg.Sampler.Chains {
		return nil, fmt.Errorf("%w: engine returned no draws", errs.ErrSamplingFailure)
	}
	finished := cfg.Clock()
	elapsed := finished.Sub(start)

	if n := draws.Divergences(); n > 0 {
		logger.Warn("divergent transitions after warmup", zap.Int("count", n))
	}
	logger.Info("sampling finished",
		zap.Duration("elapsed", elapsed),
		zap.Float64s("step_sizes", draws.StepSizes()))

	return &Result{
		Draws: draws,
		Summary: summary.Summarize(draws, summary.Meta{
			ModelName:  m.Name(),
			Algorithm:  "NUTS",
			Iterations: cfg.Sampler.Iterations,
			Warmup:     cfg.Sampler.Warmup,
			Thin:       cfg.Sampler.Thin,
			DrawnAt:    finished,
		}),
		Config:  cfg.Sampler,
		Elapsed: elapsed,
	}, nil
}
