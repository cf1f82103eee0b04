package sampler

import "math"

// Dual averaging constants (Hoffman & Gelman 2014, section 3.2).
const (
	daGamma = 0.05
	daT0    = 10.0
	daKappa = 0.75
)

// dualAveraging tunes the step size so the mean acceptance statistic approaches delta.
type dualAveraging struct {
	delta   float64
	mu      float64
	sBar    float64
	xBar    float64
	counter float64
}

func newDualAveraging(delta, eps float64) *dualAveraging {
	da := &dualAveraging{delta: delta}
	da.restart(eps)

	return da
}

// restart centres the search on 10*eps and forgets the history.
func (da *dualAveraging) restart(eps float64) {
	da.mu = math.Log(10 * eps)
	da.sBar = 0
	da.xBar = 0
	da.counter = 0
}

// learn folds in one acceptance statistic and returns the next step size.
func (da *dualAveraging) learn(acceptStat float64) float64 {
	da.counter++
	acceptStat = math.Min(1, acceptStat)

	eta := 1 / (da.counter + daT0)
	da.sBar = (1-eta)*da.sBar + eta*(da.delta-acceptStat)

	x := da.mu - da.sBar*math.Sqrt(da.counter)/daGamma
	xEta := math.Pow(da.counter, -daKappa)
	da.xBar = (1-xEta)*da.xBar + xEta*x

	return math.Exp(x)
}

// final returns the averaged step size used after warmup.
func (da *dualAveraging) final() float64 {
	return math.Exp(da.xBar)
}

// Windowed metric adaptation in the layout Stan uses: a fast initial buffer
// for the step size, doubling slow windows that estimate the variance of
// the unconstrained draws, and a terminal fast buffer.
const (
	initBuffer   = 75
	termBuffer   = 50
	baseWindow   = 25
	minAdaptIter = 20
)

type windowedAdaptation struct {
	numWarmup  int
	initBuffer int
	termBuffer int
	windowSize int
	nextWindow int
	counter    int
	enabled    bool

	est      *welford
	variance []float64
}

func newWindowedAdaptation(numWarmup, dim int) *windowedAdaptation {
	w := &windowedAdaptation{
		numWarmup:  numWarmup,
		initBuffer: initBuffer,
		termBuffer: termBuffer,
		windowSize: baseWindow,
		enabled:    numWarmup >= minAdaptIter,
		est:        newWelford(dim),
		variance:   make([]float64, dim),
	}

	if initBuffer+baseWindow+termBuffer > numWarmup {
		w.initBuffer = int(0.15 * float64(numWarmup))
		w.termBuffer = int(0.1 * float64(numWarmup))
		w.windowSize = numWarmup - (w.initBuffer + w.termBuffer)
	}
	w.nextWindow = w.initBuffer + w.windowSize - 1

	return w
}

func (w *windowedAdaptation) inWindow() bool {
	return w.counter >= w.initBuffer && w.counter < w.numWarmup-w.termBuffer && w.counter != w.numWarmup
}

func (w *windowedAdaptation) endOfWindow() bool {
	return w.counter == w.nextWindow && w.counter != w.numWarmup
}

func (w *windowedAdaptation) computeNextWindow() {
	last := w.numWarmup - w.termBuffer - 1
	if w.nextWindow == last {
		return
	}

	w.windowSize *= 2
	w.nextWindow = w.counter + w.windowSize
	if w.nextWindow == last {
		return
	}

	// stretch the window when the one after it would not fit
	if w.nextWindow+2*w.windowSize >= w.numWarmup-w.termBuffer {
		w.nextWindow = last
	}
}

// learn records q and, at the end of a slow window, writes the regularized
// variance estimate into invMetric and reports true.
func (w *windowedAdaptation) learn(q []float64, invMetric []float64) bool {
	if !w.enabled {
		w.counter++
		return false
	}

	if w.inWindow() {
		w.est.add(q)
	}

	if !w.endOfWindow() {
		w.counter++
		return false
	}

	w.computeNextWindow()

	w.est.sampleVariance(w.variance)
	n := float64(w.est.n)
	for i, v := range w.variance {
		invMetric[i] = (n/(n+5))*v + 1e-3*(5/(n+5))
	}
	w.est.restart()
	w.counter++

	return true
}

// welford accumulates a running mean and variance per dimension.
type welford struct {
	n    int
	mean []float64
	m2   []float64
}

func newWelford(dim int) *welford {
	return &welford{mean: make([]float64, dim), m2: make([]float64, dim)}
}

func (w *welford) add(x []float64) {
	w.n++
	for i, v := range x {
		delta := v - w.mean[i]
		w.mean[i] += delta / float64(w.n)
		w.m2[i] += delta * (v - w.mean[i])
	}
}

func (w *welford) sampleVariance(out []float64) {
	for i := range out {
		if w.n > 1 {
			out[i] = w.m2[i] / float64(w.n-1)
		} else {
			out[i] = 0
		}
	}
}

func (w *welford) restart() {
	w.n = 0
	clear(w.mean)
	clear(w.m2)
}
