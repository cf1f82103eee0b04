package bayesfit

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/arloliu/bayesfit/dataset"
	"github.com/arloliu/bayesfit/errs"
	"github.com/arloliu/bayesfit/fit"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRun_Small(t *testing.T) {
	var out bytes.Buffer
	res, err := Run(context.Background(), &out,
		WithObservations(200),
		WithDataSeed(7),
		WithFitOptions(fit.WithIterations(400), fit.WithChains(2)),
	)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 8)
	require.True(t, strings.HasPrefix(lines[0], "Inference for model linear_gaussian_"))
	require.Equal(t, "2 chains, each with iter=400; warmup=200; thin=1;", lines[1])
	require.Equal(t, "post-warmup draws per chain=200, total post-warmup draws=400.", lines[2])
	require.Empty(t, lines[3])
	require.True(t, strings.HasPrefix(lines[5], "beta0"))
	require.True(t, strings.HasPrefix(lines[6], "beta1"))
	require.True(t, strings.HasPrefix(lines[7], "sigma"))

	require.Equal(t, 2, res.Draws.NumChains())
	require.Equal(t, 200, res.Draws.DrawsPerChain())
}

func TestRun_Lines(t *testing.T) {
	var out bytes.Buffer
	_, err := Run(context.Background(), &out,
		WithObservations(50),
		WithLines(3),
		WithFitOptions(fit.WithIterations(200), fit.WithChains(1)),
	)
	require.NoError(t, err)
	require.Equal(t, 3, strings.Count(out.String(), "\n"))

	res, err := Run(context.Background(), nil,
		WithObservations(50),
		WithFitOptions(fit.WithIterations(200), fit.WithChains(1)),
	)
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
}

func TestRun_InvalidOptions(t *testing.T) {
	ctx := context.Background()

	_, err := Run(ctx, nil, WithObservations(0))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = Run(ctx, nil, WithTruth(dataset.Truth{Intercept: 2, Slope: 3, Sigma: 0}))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = Run(ctx, nil, WithLines(-1))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = Run(ctx, nil, WithFitOptions(fit.WithChains(0)))
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, nil, WithObservations(50), WithFitOptions(fit.WithIterations(200)))
	require.ErrorIs(t, err, errs.ErrSamplingFailure)
}

func TestRun_Textbook(t *testing.T) {
	if testing.Short() {
		t.Skip("textbook run takes several seconds")
	}

	var out bytes.Buffer
	res, err := Run(context.Background(), &out)
	require.NoError(t, err)
	require.Equal(t, 8, strings.Count(out.String(), "\n"))

	truth := dataset.DefaultTruth()
	for name, want := range map[string]float64{"beta0": truth.Intercept, "beta1": truth.Slope, "sigma": truth.Sigma} {
		s, ok := res.Summary.Stat(name)
		require.True(t, ok)
		require.InDelta(t, want, s.Mean, 0.1, name)
	}
}
