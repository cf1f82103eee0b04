package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"

	"github.com/arloliu/bayesfit/errs"
)

func TestSynthesize_Deterministic(t *testing.T) {
	a, err := Synthesize(5000, 1056, DefaultTruth())
	require.NoError(t, err)
	b, err := Synthesize(5000, 1056, DefaultTruth())
	require.NoError(t, err)

	require.Equal(t, 5000, a.N)
	require.Len(t, a.X, 5000)
	require.Len(t, a.Y, 5000)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different data (-a +b):\n%s", diff)
	}

	c, err := Synthesize(5000, 1057, DefaultTruth())
	require.NoError(t, err)
	require.NotEqual(t, a.X, c.X)
}

func TestSynthesize_Ranges(t *testing.T) {
	ds, err := Synthesize(5000, 1056, DefaultTruth())
	require.NoError(t, err)

	for _, x := range ds.X {
		require.GreaterOrEqual(t, x, 0.0)
		require.Less(t, x, 1.0)
	}

	intercept, slope := ds.OLS()
	require.InDelta(t, 2.0, intercept, 0.1)
	require.InDelta(t, 3.0, slope, 0.15)
}

func TestSynthesize_SingleObservation(t *testing.T) {
	ds, err := Synthesize(1, 7, DefaultTruth())
	require.NoError(t, err)
	require.Equal(t, 1, ds.N)
	require.Len(t, ds.X, 1)
	require.Len(t, ds.Y, 1)
}

func TestSynthesize_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		truth Truth
	}{
		{"zero observations", 0, DefaultTruth()},
		{"negative observations", -3, DefaultTruth()},
		{"zero sigma", 10, Truth{Intercept: 2, Slope: 3}},
		{"negative sigma", 10, Truth{Intercept: 2, Slope: 3, Sigma: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Synthesize(tt.n, 1, tt.truth)
			require.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}
}

func TestNew(t *testing.T) {
	x := []float64{0.1, 0.5}
	ds, err := New(x, []float64{2.3, 3.4})
	require.NoError(t, err)
	require.Equal(t, 2, ds.N)

	x[0] = 99
	require.Equal(t, 0.1, ds.X[0], "dataset must not alias the caller's slice")

	_, err = New([]float64{1}, []float64{1, 2})
	require.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = New(nil, nil)
	require.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestValidate(t *testing.T) {
	var nilDS *Dataset
	require.ErrorIs(t, nilDS.Validate(), errs.ErrInvalidArgument)
	require.ErrorIs(t, (&Dataset{N: 2, X: []float64{1}, Y: []float64{1}}).Validate(), errs.ErrInvalidArgument)
}

func TestMap(t *testing.T) {
	ds, err := New([]float64{0.25}, []float64{2.75})
	require.NoError(t, err)

	rec := ds.Map()
	require.Equal(t, 1, rec["nobs"])
	require.Equal(t, []float64{0.25}, rec["x"])
	require.Equal(t, []float64{2.75}, rec["y"])
}

func TestDesignMatrix(t *testing.T) {
	ds, err := New([]float64{0.5, 0.75}, []float64{3.5, 4.25})
	require.NoError(t, err)

	want := mat.NewDense(2, 2, []float64{1, 0.5, 1, 0.75})
	require.True(t, mat.Equal(want, ds.DesignMatrix()))

	// exact data on the line recovers it
	intercept, slope := ds.OLS()
	require.True(t, scalar.EqualWithinAbs(2, intercept, 1e-12))
	require.True(t, scalar.EqualWithinAbs(3, slope, 1e-12))
}
