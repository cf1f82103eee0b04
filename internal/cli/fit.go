package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/bayesfit"
	"github.com/arloliu/bayesfit/archive"
	"github.com/arloliu/bayesfit/checks"
	"github.com/arloliu/bayesfit/compress"
	"github.com/arloliu/bayesfit/fit"
	"github.com/arloliu/bayesfit/internal/config"
	"github.com/arloliu/bayesfit/ledger"
)

// runFit performs the configured run: fit, print, then archive, ledger and
// checks when configured. Checks run last so failing runs are still recorded.
func (a *app) runFit(cmd *cobra.Command) error {
	if describe, _ := cmd.Flags().GetBool("describe"); describe {
		return a.describe(cmd)
	}

	cfg := &a.loaded.Config
	ctx := cmd.Context()

	// compile first so a typo fails before sampling
	suite, err := compileChecks(cfg)
	if err != nil {
		return err
	}

	res, err := bayesfit.Run(ctx, cmd.OutOrStdout(),
		bayesfit.WithObservations(cfg.Data.Nobs),
		bayesfit.WithDataSeed(cfg.Data.Seed),
		bayesfit.WithTruth(cfg.Data.Truth),
		bayesfit.WithLines(cfg.Report.Lines),
		bayesfit.WithLogger(a.logger),
		bayesfit.WithFitOptions(fit.WithSamplerConfig(cfg.SamplerSettings())),
	)
	if err != nil {
		return err
	}

	if cfg.Archive.Path != "" {
		if err := a.writeArchive(cfg, res); err != nil {
			return err
		}
	}

	if cfg.Ledger.Path != "" {
		if err := a.record(ctx, cfg, res); err != nil {
			return err
		}
	}

	if suite != nil {
		return a.evaluateChecks(suite, res)
	}

	return nil
}

func compileChecks(cfg *config.Config) (*checks.Suite, error) {
	exprs := append([]string(nil), cfg.Checks.Exprs...)
	if cfg.Checks.RecoveryTolerance > 0 {
		exprs = append(exprs, checks.RecoveryExpressions(cfg.Data.Truth, cfg.Checks.RecoveryTolerance)...)
	}
	if len(exprs) == 0 {
		return nil, nil
	}

	return checks.Compile(exprs)
}

func (a *app) writeArchive(cfg *config.Config, res *fit.Result) error {
	ct, err := cfg.Compression()
	if err != nil {
		return err
	}
	et, err := cfg.Encoding()
	if err != nil {
		return err
	}

	f, err := os.Create(cfg.Archive.Path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	err = archive.Write(f, res.Draws,
		archive.WithCompression(ct),
		archive.WithEncoding(et),
		archive.WithStatsHook(func(s compress.CompressionStats) {
			a.logger.Info("draws archived",
				zap.String("path", cfg.Archive.Path),
				zap.Stringer("compression", s.Algorithm),
				zap.Int64("encoded_bytes", s.OriginalSize),
				zap.Int64("stored_bytes", s.CompressedSize),
				zap.Float64("space_savings_pct", s.SpaceSavings()))
		}),
	)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close archive: %w", closeErr)
	}

	return err
}

func (a *app) record(ctx context.Context, cfg *config.Config, res *fit.Result) error {
	l, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer l.Close()

	archivePath := cfg.Archive.Path
	if archivePath != "" {
		if abs, err := filepath.Abs(archivePath); err == nil {
			archivePath = abs
		}
	}

	id, err := l.Record(ctx, ledger.Run{
		CreatedAt:   res.Summary.Meta.DrawnAt,
		Model:       res.Summary.Meta.ModelName,
		Nobs:        cfg.Data.Nobs,
		Seed:        res.Config.Seed,
		Iterations:  res.Config.Iterations,
		Warmup:      res.Config.Warmup,
		Chains:      res.Config.Chains,
		Elapsed:     res.Elapsed,
		Divergences: res.Draws.Divergences(),
		ArchivePath: archivePath,
		Params:      ledger.ParamsFromSummary(res.Summary),
	})
	if err != nil {
		return err
	}

	a.logger.Info("run recorded", zap.String("id", id), zap.String("ledger", cfg.Ledger.Path))

	return nil
}

func (a *app) evaluateChecks(suite *checks.Suite, res *fit.Result) error {
	outcomes, err := suite.Evaluate(res.Summary)
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			a.logger.Warn("check errored", zap.String("check", o.Expr), zap.Error(o.Err))
		case o.Passed:
			a.logger.Info("check passed", zap.String("check", o.Expr))
		default:
			a.logger.Warn("check failed", zap.String("check", o.Expr))
		}
	}

	return err
}
