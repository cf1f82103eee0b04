// Package cli provides the bayesfit command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arloliu/bayesfit/internal/config"
	"github.com/arloliu/bayesfit/internal/logging"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// app carries the state shared by the commands of one invocation.
type app struct {
	cfgFile string
	loaded  *config.Loaded
	logger  *zap.Logger
}

// NewRootCmd creates the root command. Without a subcommand it runs the fit.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "bayesfit",
		Short: "Bayesian linear regression with an explicit Gaussian likelihood",
		Long: `bayesfit synthesizes observations y = beta0 + beta1*x + noise, samples the
posterior of (beta0, beta1, sigma) with the No-U-Turn sampler and prints the
first lines of a Stan-style summary.

Without flags it performs the textbook run: 5000 observations from seed 1056,
3 chains of 5000 iterations, 8 summary lines.`,
		Version: Version,
		Args:    cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}

			return a.load(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runFit(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./bayesfit.yaml)")
	pf.BoolP("verbose", "v", false, "debug logging")
	pf.String("log-level", "info", "log level (debug|info|warn|error)")
	pf.String("log-format", "console", "log format (console|json)")

	pf.Int("nobs", 5000, "number of synthesized observations")
	pf.Uint64("data-seed", 1056, "seed of the data generator")
	pf.Int("iter", 5000, "iterations per chain, warmup included")
	pf.Int("warmup", -1, "warmup iterations per chain (-1: half of --iter)")
	pf.Int("chains", 3, "number of chains")
	pf.Int("thin", 1, "keep every n-th post-warmup draw")
	pf.Uint64("seed", 1056, "sampler seed; chain c uses seed+c")
	pf.Int("max-tree-depth", 10, "maximum NUTS tree depth")
	pf.Float64("target-accept", 0.8, "target acceptance statistic during warmup")
	pf.Bool("sequential", false, "run chains one after another")
	pf.Int("lines", 8, "number of summary lines to print")
	pf.String("archive", "", "write the posterior draws to this file")
	pf.String("compression", "zstd", "archive compression (none|zstd|s2|lz4)")
	pf.String("encoding", "gorilla", "archive column encoding (raw|gorilla)")
	pf.String("ledger", "", "record the run in this SQLite database")
	pf.StringArray("check", nil, "CEL posterior check, e.g. 'sigma.rhat < 1.01' (repeatable)")
	pf.Float64("recovery-tolerance", 0, "check that posterior means lie within this distance of the truth")

	rootCmd.Flags().Bool("describe", false, "print the model declaration and exit")

	_ = rootCmd.RegisterFlagCompletionFunc("compression", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"none", "zstd", "s2", "lz4"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("encoding", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"raw", "gorilla"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newDescribeCommand(a),
		newConfigCommand(a),
		newDrawsCommand(a),
		newRunsCommand(a),
		newVersionCommand(),
	)

	return rootCmd
}

// load reads the layered configuration and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	loaded, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(loaded.Log.Level, loaded.Log.Format, loaded.Log.Verbose)
	if err != nil {
		return err
	}

	a.loaded = loaded
	a.logger = logger
	if loaded.File != "" {
		logger.Info("using config file", zap.String("path", loaded.File))
	}
	if len(loaded.Env) > 0 {
		logger.Info("using environment overrides", zap.Strings("vars", loaded.Env))
	}

	return nil
}

// Execute runs the root command with the process arguments. Errors are
// printed to stderr as "Error: <msg>"; the caller exits non-zero.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	return nil
}
