package summary

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// centered returns x minus its mean, and the mean.
func centered(x []float64) ([]float64, float64) {
	mean := stat.Mean(x, nil)
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v - mean
	}

	return out, mean
}

// autocovariance returns the biased autocovariance of the centered series d at lag.
func autocovariance(d []float64, lag int) float64 {
	n := len(d)
	if lag >= n {
		return 0
	}

	var s float64
	for i := 0; i+lag < n; i++ {
		s += d[i] * d[i+lag]
	}

	return s / float64(n)
}

// EffectiveSampleSize estimates the number of independent draws across chains
// with Geyer's initial monotone sequence on the multi-chain autocorrelation.
// All chains must have the same length; otherwise, and for fewer than 4
// draws per chain or constant chains, it returns NaN.
func EffectiveSampleSize(chains [][]float64) float64 {
	m := len(chains)
	if m == 0 {
		return math.NaN()
	}
	n := len(chains[0])
	if n < 4 {
		return math.NaN()
	}

	dev := make([][]float64, m)
	chainMean := make([]float64, m)
	chainVar := make([]float64, m)
	for c, x := range chains {
		if len(x) != n {
			return math.NaN()
		}
		dev[c], chainMean[c] = centered(x)
		chainVar[c] = autocovariance(dev[c], 0) * float64(n) / float64(n-1)
	}

	meanVar := stat.Mean(chainVar, nil)
	varPlus := meanVar * float64(n-1) / float64(n)
	if m > 1 {
		varPlus += stat.Variance(chainMean, nil)
	}
	if !(varPlus > 0) {
		return math.NaN()
	}

	// lags are computed on demand; the sequence usually stops after a few pairs
	meanAcov := func(lag int) float64 {
		var s float64
		for _, d := range dev {
			s += autocovariance(d, lag)
		}

		return s / float64(m)
	}

	rho := make([]float64, n+1)
	t := 0
	rhoEven := 1.0
	rho[0] = rhoEven
	rhoOdd := 1 - (meanVar-meanAcov(1))/varPlus
	rho[1] = rhoOdd

	// initial positive sequence; the last pair is kept as a bias term
	for t < n-5 && !math.IsNaN(rhoEven+rhoOdd) && rhoEven+rhoOdd > 0 {
		t += 2
		rhoEven = 1 - (meanVar-meanAcov(t))/varPlus
		rhoOdd = 1 - (meanVar-meanAcov(t+1))/varPlus
		if rhoEven+rhoOdd >= 0 {
			rho[t] = rhoEven
			rho[t+1] = rhoOdd
		}
	}
	maxT := t
	total := float64(m * n)

	// too few draws for a single pair of lags: truncate after lag 1
	if maxT == 0 {
		tau := 1 + 2*math.Max(rhoOdd, 0)
		return total / tau
	}

	if rhoEven > 0 {
		rho[maxT] = rhoEven
	}

	// initial monotone sequence
	for t := 1; t <= maxT-3; t += 2 {
		if rho[t+1]+rho[t+2] > rho[t-1]+rho[t] {
			rho[t+1] = (rho[t-1] + rho[t]) / 2
			rho[t+2] = rho[t+1]
		}
	}

	var sum float64
	for _, r := range rho[:maxT] {
		sum += r
	}
	tau := -1 + 2*sum + rho[maxT]

	return math.Min(total/tau, total*math.Log10(total))
}

// SplitRhat computes the potential scale reduction factor after splitting
// every chain into two halves. An odd trailing draw is dropped.
func SplitRhat(chains [][]float64) float64 {
	if len(chains) == 0 {
		return math.NaN()
	}

	n := len(chains[0])
	for _, x := range chains[1:] {
		n = min(n, len(x))
	}
	half := n / 2
	if half < 2 {
		return math.NaN()
	}

	split := make([][]float64, 0, 2*len(chains))
	for _, x := range chains {
		split = append(split, x[:half], x[half:2*half])
	}

	means := make([]float64, len(split))
	vars := make([]float64, len(split))
	for i, x := range split {
		means[i], vars[i] = stat.MeanVariance(x, nil)
	}

	within := stat.Mean(vars, nil)
	if !(within > 0) {
		return math.NaN()
	}
	between := float64(half) * stat.Variance(means, nil)

	return math.Sqrt((between/within + float64(half) - 1) / float64(half))
}
