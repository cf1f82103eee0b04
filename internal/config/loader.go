package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// DefaultFile is loaded from the working directory when no --config is given.
	DefaultFile = "bayesfit.yaml"
	// EnvPrefix prefixes every configuration environment variable.
	EnvPrefix = "BAYESFIT_"
)

// FlagKeys maps command-line flag names to configuration keys. Flags not
// listed here are not configuration.
var FlagKeys = map[string]string{
	"nobs":               "data.nobs",
	"data-seed":          "data.seed",
	"iter":               "sampler.iterations",
	"warmup":             "sampler.warmup",
	"chains":             "sampler.chains",
	"thin":               "sampler.thin",
	"seed":               "sampler.seed",
	"max-tree-depth":     "sampler.max_tree_depth",
	"target-accept":      "sampler.target_accept",
	"sequential":         "sampler.sequential",
	"lines":              "report.lines",
	"archive":            "archive.path",
	"compression":        "archive.compression",
	"encoding":           "archive.encoding",
	"ledger":             "ledger.path",
	"check":              "checks.exprs",
	"recovery-tolerance": "checks.recovery_tolerance",
	"log-level":          "log.level",
	"log-format":         "log.format",
	"verbose":            "log.verbose",
}

// Loaded is a validated configuration together with the file and the
// environment variables that contributed to it.
type Loaded struct {
	Config
	File string
	Env  []string
}

// Load layers defaults, the YAML file at path (or DefaultFile when path is
// empty and the file exists), BAYESFIT_ environment variables and the
// explicitly set flags, then validates the result. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Loaded, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used, err := findFile(path)
	if err != nil {
		return nil, err
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// BAYESFIT_SAMPLER__TARGET_ACCEPT -> sampler.target_accept
	var envVars []string
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		envVars = append(envVars, s)
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := FlagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	slices.Sort(envVars)
	loaded := &Loaded{File: used, Env: envVars}
	if err := k.Unmarshal("", &loaded.Config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := loaded.Validate(); err != nil {
		return nil, err
	}

	return loaded, nil
}

// findFile returns path, or DefaultFile if it exists. An explicit path must exist.
func findFile(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file %s: %w", path, err)
		}

		return path, nil
	}

	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("config file %s: %w", DefaultFile, err)
	}

	return "", nil
}

func defaultMap() map[string]any {
	d := Default()

	return map[string]any{
		"data.nobs":                 d.Data.Nobs,
		"data.seed":                 d.Data.Seed,
		"data.truth.intercept":      d.Data.Truth.Intercept,
		"data.truth.slope":          d.Data.Truth.Slope,
		"data.truth.sigma":          d.Data.Truth.Sigma,
		"sampler.iterations":        d.Sampler.Iterations,
		"sampler.warmup":            d.Sampler.Warmup,
		"sampler.chains":            d.Sampler.Chains,
		"sampler.thin":              d.Sampler.Thin,
		"sampler.seed":              d.Sampler.Seed,
		"sampler.max_tree_depth":    d.Sampler.MaxTreeDepth,
		"sampler.target_accept":     d.Sampler.TargetAccept,
		"sampler.sequential":        d.Sampler.Sequential,
		"report.lines":              d.Report.Lines,
		"archive.path":              d.Archive.Path,
		"archive.compression":       d.Archive.Compression,
		"archive.encoding":          d.Archive.Encoding,
		"ledger.path":               d.Ledger.Path,
		"checks.recovery_tolerance": d.Checks.RecoveryTolerance,
		"log.level":                 d.Log.Level,
		"log.format":                d.Log.Format,
		"log.verbose":               d.Log.Verbose,
	}
}
