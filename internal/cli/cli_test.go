package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bayesfit/errs"
	"github.com/arloliu/bayesfit/ledger"
)

// smallRun keeps fits fast; the textbook run is covered by the root package.
var smallRun = []string{"--nobs", "100", "--iter", "300", "--chains", "2", "--log-level", "error"}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestRoot_PrintsSummaryHead(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, smallRun...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 8)
	require.True(t, strings.HasPrefix(lines[0], "Inference for model linear_gaussian_"))
	require.Equal(t, "2 chains, each with iter=300; warmup=150; thin=1;", lines[1])
	require.True(t, strings.HasPrefix(lines[7], "sigma"))
}

func TestRoot_ArchiveLedgerChecks(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	archivePath := filepath.Join(dir, "draws.bfd")
	ledgerPath := filepath.Join(dir, "runs.db")

	args := append([]string{
		"--archive", archivePath,
		"--compression", "lz4",
		"--ledger", ledgerPath,
		"--check", "sigma.mean > 0",
		"--lines", "3",
	}, smallRun...)
	out, err := execute(t, args...)
	require.NoError(t, err)
	require.Equal(t, 3, strings.Count(out, "\n"))

	// draws
	out, err = execute(t, "draws", archivePath, "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, out, "Archive draws.bfd (Gorilla encoding, LZ4 compression, little endian).")
	require.Contains(t, out, "2 chains, 150 draws per chain, 3 parameters")
	for _, name := range []string{"beta0", "beta1", "sigma", "lp__"} {
		require.Contains(t, out, name)
	}

	out, err = execute(t, "draws", archivePath, "--draw", "149", "--chain", "1", "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, out, "chain 1, draw 149")
	for _, name := range []string{"beta0", "lp__", "divergent__"} {
		require.Contains(t, out, name)
	}

	_, err = execute(t, "draws", archivePath, "--draw", "150", "--log-level", "error")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	// runs list / show
	out, err = execute(t, "runs", "list", "--ledger", ledgerPath, "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, out, "linear_gaussian_")

	l, err := ledger.Open(ledgerPath)
	require.NoError(t, err)
	runs, err := l.List(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, l.Close())
	require.Len(t, runs, 1)
	require.Equal(t, archivePath, runs[0].ArchivePath)

	out, err = execute(t, "runs", "show", runs[0].ID, "--ledger", ledgerPath, "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, out, "Run "+runs[0].ID)
	require.Contains(t, out, "nobs:        100")
	require.Contains(t, out, "beta1")

	_, err = execute(t, "runs", "show", "missing", "--ledger", ledgerPath, "--log-level", "error")
	require.ErrorIs(t, err, errs.ErrRunNotFound)
}

func TestRoot_FailingCheck(t *testing.T) {
	t.Chdir(t.TempDir())

	args := append([]string{"--check", "beta0.mean > 100"}, smallRun...)
	_, err := execute(t, args...)
	require.ErrorIs(t, err, errs.ErrCheckFailed)

	args = append([]string{"--check", "beta0.mean >"}, smallRun...)
	out, err := execute(t, args...)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
	require.Empty(t, out, "invalid checks fail before sampling")
}

func TestRoot_InvalidArguments(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := execute(t, "--nobs", "0")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = execute(t, "--iter", "100", "--warmup", "100")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = execute(t, "--compression", "brotli")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = execute(t, "runs", "list")
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = execute(t, "draws", filepath.Join(t.TempDir(), "missing.bfd"))
	require.Error(t, err)

	_, err = execute(t, "unexpected")
	require.Error(t, err)
}

func TestDescribe(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "describe", "--nobs", "10")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "// linear_gaussian_"))
	require.Contains(t, out, "real<lower=0> sigma;")

	flagOut, err := execute(t, "--describe", "--nobs", "10")
	require.NoError(t, err)
	require.Equal(t, out, flagOut)
}

func TestConfigCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BAYESFIT_SAMPLER__CHAINS", "4")

	out, err := execute(t, "config", "--iter", "300")
	require.NoError(t, err)
	require.Contains(t, out, "iterations: 300")
	require.Contains(t, out, "chains: 4")
	require.Contains(t, out, "nobs: 5000")
	require.Contains(t, out, "# environment BAYESFIT_SAMPLER__CHAINS\n")
	require.NotContains(t, out, "# loaded from")
	require.NotContains(t, out, `"nobs"`)
	require.Contains(t, out, "compression: zstd")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, "bayesfit v"+Version+" ("+GitCommit+")\n", out)
}
