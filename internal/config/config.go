// Package config loads the bayesfit configuration.
//
// Sources are layered, later ones winning:
//
//  1. built-in defaults (the textbook run)
//  2. a YAML file: --config, or bayesfit.yaml in the working directory
//  3. environment variables with the BAYESFIT_ prefix; "__" separates
//     nesting levels, e.g. BAYESFIT_SAMPLER__CHAINS=4
//  4. command-line flags that were explicitly set
package config

import (
	"fmt"
	"slices"

	"go.uber.org/zap/zapcore"

	"github.com/arloliu/bayesfit/dataset"
	"github.com/arloliu/bayesfit/errs"
	"github.com/arloliu/bayesfit/format"
	"github.com/arloliu/bayesfit/sampler"
)

// Config holds every setting of a bayesfit run.
type Config struct {
	Data    DataConfig    `koanf:"data" yaml:"data"`
	Sampler SamplerConfig `koanf:"sampler" yaml:"sampler"`
	Report  ReportConfig  `koanf:"report" yaml:"report"`
	Archive ArchiveConfig `koanf:"archive" yaml:"archive"`
	Ledger  LedgerConfig  `koanf:"ledger" yaml:"ledger"`
	Checks  ChecksConfig  `koanf:"checks" yaml:"checks"`
	Log     LogConfig     `koanf:"log" yaml:"log"`
}

// DataConfig controls the synthetic observations.
type DataConfig struct {
	Nobs  int           `koanf:"nobs" yaml:"nobs"`
	Seed  uint64        `koanf:"seed" yaml:"seed"`
	Truth dataset.Truth `koanf:"truth" yaml:"truth"`
}

// SamplerConfig controls the sampling run.
type SamplerConfig struct {
	Iterations int `koanf:"iterations" yaml:"iterations"`
	// Warmup < 0 selects half of Iterations.
	Warmup       int     `koanf:"warmup" yaml:"warmup"`
	Chains       int     `koanf:"chains" yaml:"chains"`
	Thin         int     `koanf:"thin" yaml:"thin"`
	Seed         uint64  `koanf:"seed" yaml:"seed"`
	MaxTreeDepth int     `koanf:"max_tree_depth" yaml:"max_tree_depth"`
	TargetAccept float64 `koanf:"target_accept" yaml:"target_accept"`
	Sequential   bool    `koanf:"sequential" yaml:"sequential"`
}

// ReportConfig controls stdout output.
type ReportConfig struct {
	Lines int `koanf:"lines" yaml:"lines"`
}

// ArchiveConfig controls the optional draws archive. An empty Path disables it.
type ArchiveConfig struct {
	Path        string `koanf:"path" yaml:"path"`
	Compression string `koanf:"compression" yaml:"compression"`
	Encoding    string `koanf:"encoding" yaml:"encoding"`
}

// LedgerConfig controls the optional run ledger. An empty Path disables it.
type LedgerConfig struct {
	Path string `koanf:"path" yaml:"path"`
}

// ChecksConfig lists posterior checks. RecoveryTolerance > 0 adds checks
// that every posterior mean is within the tolerance of data.truth.
type ChecksConfig struct {
	Exprs             []string `koanf:"exprs" yaml:"exprs"`
	RecoveryTolerance float64  `koanf:"recovery_tolerance" yaml:"recovery_tolerance"`
}

// LogConfig controls the stderr logger.
type LogConfig struct {
	Level   string `koanf:"level" yaml:"level"`
	Format  string `koanf:"format" yaml:"format"`
	Verbose bool   `koanf:"verbose" yaml:"verbose"`
}

// Default returns the textbook run: 5000 observations with seed 1056,
// 5000 iterations on 3 chains, 8 summary lines.
func Default() Config {
	sc := sampler.DefaultConfig()

	return Config{
		Data: DataConfig{
			Nobs:  5000,
			Seed:  1056,
			Truth: dataset.DefaultTruth(),
		},
		Sampler: SamplerConfig{
			Iterations:   sc.Iterations,
			Warmup:       -1,
			Chains:       sc.Chains,
			Thin:         sc.Thin,
			Seed:         sc.Seed,
			MaxTreeDepth: sc.MaxTreeDepth,
			TargetAccept: sc.TargetAccept,
		},
		Report:  ReportConfig{Lines: 8},
		Archive: ArchiveConfig{Compression: "zstd", Encoding: "gorilla"},
		Log:     LogConfig{Level: "info", Format: "console"},
	}
}

// SamplerSettings resolves the sampler section into a sampler.Config.
func (c *Config) SamplerSettings() sampler.Config {
	sc := sampler.DefaultConfig()
	sc.Iterations = c.Sampler.Iterations
	sc.Warmup = c.Sampler.Warmup
	if sc.Warmup < 0 {
		sc.Warmup = sc.Iterations / 2
	}
	sc.Chains = c.Sampler.Chains
	sc.Thin = c.Sampler.Thin
	sc.Seed = c.Sampler.Seed
	sc.MaxTreeDepth = c.Sampler.MaxTreeDepth
	sc.TargetAccept = c.Sampler.TargetAccept
	sc.Parallel = !c.Sampler.Sequential

	return sc
}

// Compression returns the archive codec.
func (c *Config) Compression() (format.CompressionType, error) {
	ct, ok := format.ParseCompression(c.Archive.Compression)
	if !ok {
		return 0, fmt.Errorf("%w: unknown archive compression %q", errs.ErrInvalidArgument, c.Archive.Compression)
	}

	return ct, nil
}

// Encoding returns the archive column encoding.
func (c *Config) Encoding() (format.EncodingType, error) {
	et, ok := format.ParseEncoding(c.Archive.Encoding)
	if !ok {
		return 0, fmt.Errorf("%w: unknown archive encoding %q", errs.ErrInvalidArgument, c.Archive.Encoding)
	}

	return et, nil
}

// Validate reports the first invalid setting as errs.ErrInvalidArgument.
func (c *Config) Validate() error {
	if c.Data.Nobs <= 0 {
		return fmt.Errorf("%w: data.nobs must be positive, got %d", errs.ErrInvalidArgument, c.Data.Nobs)
	}
	if err := c.Data.Truth.Validate(); err != nil {
		return fmt.Errorf("data.truth: %w", err)
	}
	if err := c.SamplerSettings().Validate(); err != nil {
		return fmt.Errorf("sampler: %w", err)
	}
	if c.Report.Lines < 0 {
		return fmt.Errorf("%w: report.lines must not be negative, got %d", errs.ErrInvalidArgument, c.Report.Lines)
	}
	if _, err := c.Compression(); err != nil {
		return err
	}
	if _, err := c.Encoding(); err != nil {
		return err
	}
	if c.Checks.RecoveryTolerance < 0 {
		return fmt.Errorf("%w: checks.recovery_tolerance must not be negative", errs.ErrInvalidArgument)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", errs.ErrInvalidArgument, err)
	}
	if !slices.Contains([]string{"console", "json"}, c.Log.Format) {
		return fmt.Errorf("%w: log.format must be console or json, got %q", errs.ErrInvalidArgument, c.Log.Format)
	}

	return nil
}
