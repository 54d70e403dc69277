// Package dsp implements the concrete numeric kernels behind the
// representative DSP/classification filter nodes enumerated in
// SPEC_FULL.md §5: simple, real implementations (not optimized DSP
// libraries - spec.md explicitly scopes kernel optimization out), each
// operating on plain []float64 so they can be wired behind any node.
package dsp

import "math"

// Preemphasis applies y[n] = x[n] - alpha*x[n-1], with x[-1] taken to
// be prev (the last sample of the previous frame, 0 for the first
// frame), so consecutive frames preemphasize correctly across the
// frame boundary.
func Preemphasis(x []float64, alpha, prev float64) (y []float64, last float64) {
	y = make([]float64, len(x))
	p := prev
	for i, v := range x {
		y[i] = v - alpha*p
		p = v
	}
	if len(x) > 0 {
		last = x[len(x)-1]
	} else {
		last = prev
	}
	return y, last
}

// RealDFTMagnitude is a direct (O(n^2)) real discrete Fourier transform
// magnitude spectrum - a contract-level stand-in for a real FFT, real
// FFT optimization being explicitly out of scope (spec.md §1). Returns
// n/2+1 magnitude bins.
func RealDFTMagnitude(x []float64) []float64 {
	n := len(x)
	nBins := n/2 + 1
	mag := make([]float64, nBins)
	for k := 0; k < nBins; k++ {
		var re, im float64
		for t := 0; t < n; t++ {
			theta := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			re += x[t] * math.Cos(theta)
			im += x[t] * math.Sin(theta)
		}
		mag[k] = math.Hypot(re, im)
	}
	return mag
}

// CosineTransformII computes the DCT-II of x (used both as the FFT's
// inverse path and as the classifier feature front end's decorrelation
// step, per SPEC_FULL.md §5).
func CosineTransformII(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i, v := range x {
			sum += v * math.Cos(math.Pi/float64(n)*(float64(i)+0.5)*float64(k))
		}
		out[k] = sum
	}
	return out
}

// Filterbank applies a triangular mel-scale filterbank to a magnitude
// spectrum, returning one energy value per filter.
type Filterbank struct {
	// Edges[i], Edges[i+1], Edges[i+2] are the (low, center, high) bin
	// indices of filter i's triangle, for i in [0, len(Edges)-2).
	Edges []int
}

// NewMelFilterbank builds a Filterbank of nFilters triangular filters
// spanning bins [0, nBins) on the mel scale.
func NewMelFilterbank(nFilters, nBins int, sampleRate float64) *Filterbank {
	melLow, melHigh := hzToMel(0), hzToMel(sampleRate/2)
	edges := make([]int, nFilters+2)
	for i := range edges {
		mel := melLow + (melHigh-melLow)*float64(i)/float64(nFilters+1)
		hz := melToHz(mel)
		edges[i] = int(math.Round(hz / (sampleRate / 2) * float64(nBins-1)))
	}
	return &Filterbank{Edges: edges}
}

func hzToMel(hz float64) float64 { return 2595 * math.Log10(1+hz/700) }
func melToHz(mel float64) float64 { return 700 * (math.Pow(10, mel/2595) - 1) }

func (fb *Filterbank) NFilters() int { return len(fb.Edges) - 2 }

// Apply returns one energy value per filter, triangularly weighting the
// magnitude spectrum mag between each filter's low and high edges.
func (fb *Filterbank) Apply(mag []float64) []float64 {
	out := make([]float64, fb.NFilters())
	for i := 0; i < fb.NFilters(); i++ {
		lo, center, hi := fb.Edges[i], fb.Edges[i+1], fb.Edges[i+2]
		var energy float64
		for b := lo; b <= hi && b < len(mag); b++ {
			if b < 0 {
				continue
			}
			var weight float64
			switch {
			case b <= center && center > lo:
				weight = float64(b-lo) / float64(center-lo)
			case b > center && hi > center:
				weight = float64(hi-b) / float64(hi-center)
			}
			energy += mag[b] * weight
		}
		out[i] = energy
	}
	return out
}

// RunningNormalizer tracks running mean/variance over every feature
// vector observed so far (spec.md §9's normalization node) and normalizes a
// new vector against the accumulated statistics.
type RunningNormalizer struct {
	dim   int
	count int
	mean  []float64
	m2    []float64 // sum of squared deviations, Welford's algorithm
}

func NewRunningNormalizer(dim int) *RunningNormalizer {
	return &RunningNormalizer{dim: dim, mean: make([]float64, dim), m2: make([]float64, dim)}
}

// Observe folds x into the running statistics (Welford's online
// algorithm, numerically stable across long streams).
func (n *RunningNormalizer) Observe(x []float64) {
	n.count++
	for i, v := range x {
		delta := v - n.mean[i]
		n.mean[i] += delta / float64(n.count)
		delta2 := v - n.mean[i]
		n.m2[i] += delta * delta2
	}
}

// Normalize returns (x-mean)/stddev elementwise, using the statistics
// accumulated so far. A dimension with zero variance is left
// unnormalized (subtract mean only) to avoid a divide-by-zero.
func (n *RunningNormalizer) Normalize(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		variance := 0.0
		if n.count > 1 {
			variance = n.m2[i] / float64(n.count-1)
		}
		if variance <= 0 {
			out[i] = v - n.mean[i]
			continue
		}
		out[i] = (v - n.mean[i]) / math.Sqrt(variance)
	}
	return out
}

// Finalize returns Normalize applied to the running mean, which is a
// zero vector (each element is the mean minus itself); the most recently
// observed vector is not kept and does not enter the result. When
// nothing has been observed, Finalize returns a zero vector of the
// configured dimension rather than erroring (spec.md §9 Open Question
// (b); see DESIGN.md).
func (n *RunningNormalizer) Finalize() []float64 {
	if n.count == 0 {
		return make([]float64, n.dim)
	}
	return n.Normalize(n.mean)
}

// PolynomialRegression fits delta/delta-delta style features: given a
// sliding window of vectors at integer offsets -w..+w, it returns the
// least-squares slope (first derivative) of each dimension across the
// window, the elementary building block both "regression" and the delta
// features derived from it share (SPEC_FULL.md §5).
func PolynomialRegression(window [][]float64) []float64 {
	n := len(window)
	if n == 0 {
		return nil
	}
	dim := len(window[0])
	out := make([]float64, dim)
	// center the offsets around zero: -(n-1)/2 .. +(n-1)/2
	offsets := make([]float64, n)
	var sumT, sumT2 float64
	for i := range offsets {
		t := float64(i) - float64(n-1)/2
		offsets[i] = t
		sumT += t
		sumT2 += t * t
	}
	denom := float64(n)*sumT2 - sumT*sumT
	for d := 0; d < dim; d++ {
		var sumY, sumTY float64
		for i, t := range offsets {
			y := window[i][d]
			sumY += y
			sumTY += t * y
		}
		if denom == 0 {
			out[d] = 0
			continue
		}
		out[d] = (float64(n)*sumTY - sumT*sumY) / denom
	}
	return out
}

// VectorOp names an elementwise binary operation.
type VectorOp int

const (
	OpAdd VectorOp = iota
	OpSub
	OpMul
	OpDiv
	OpScale
)

// ApplyVectorOp performs op elementwise between a and b (b is ignored
// for OpScale, which instead scales a by scalar).
func ApplyVectorOp(op VectorOp, a, b []float64, scalar float64) []float64 {
	out := make([]float64, len(a))
	switch op {
	case OpScale:
		for i, v := range a {
			out[i] = v * scalar
		}
		return out
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		switch op {
		case OpAdd:
			out[i] = a[i] + b[i]
		case OpSub:
			out[i] = a[i] - b[i]
		case OpMul:
			out[i] = a[i] * b[i]
		case OpDiv:
			out[i] = a[i] / b[i]
		}
	}
	return out
}

// Matrix is a dense row-major matrix.
type Matrix struct {
	Rows, Cols int
	Data       []float64 // len == Rows*Cols
}

func NewMatrix(rows, cols int, data []float64) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: data}
}

func (m *Matrix) At(r, c int) float64 { return m.Data[r*m.Cols+c] }

// MultiplyVector computes m*v (m is Rows x Cols, v has length Cols),
// returning a vector of length Rows - e.g. applying a trained
// projection matrix to a feature vector (SPEC_FULL.md §5).
func (m *Matrix) MultiplyVector(v []float64) []float64 {
	if len(v) != m.Cols {
		panic("dsp: matrix/vector dimension mismatch")
	}
	out := make([]float64, m.Rows)
	for r := 0; r < m.Rows; r++ {
		var sum float64
		for c := 0; c < m.Cols; c++ {
			sum += m.At(r, c) * v[c]
		}
		out[r] = sum
	}
	return out
}
