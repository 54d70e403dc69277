package dsp_test

import (
	"math"
	"testing"

	"github.com/rwthflow/flow/dsp"
)

func TestPreemphasisCarriesLastSampleAcrossFrames(t *testing.T) {
	y1, last := dsp.Preemphasis([]float64{1, 2, 3}, 0.97, 0)
	if y1[0] != 1 {
		t.Fatalf("first sample should be unaffected by prev=0, got %v", y1[0])
	}
	if last != 3 {
		t.Fatalf("expected last=3, got %v", last)
	}
	y2, _ := dsp.Preemphasis([]float64{4, 5}, 0.97, last)
	want := 4 - 0.97*3
	if math.Abs(y2[0]-want) > 1e-9 {
		t.Fatalf("expected continuity across frame boundary: want %v got %v", want, y2[0])
	}
}

func TestRealDFTMagnitudeOfConstantSignalIsDC(t *testing.T) {
	x := []float64{1, 1, 1, 1}
	mag := dsp.RealDFTMagnitude(x)
	if math.Abs(mag[0]-4) > 1e-9 {
		t.Fatalf("expected DC bin == sum of samples (4), got %v", mag[0])
	}
	for _, m := range mag[1:] {
		if m > 1e-9 {
			t.Fatalf("expected zero energy at non-DC bins for a constant signal, got %v", m)
		}
	}
}

func TestCosineTransformDCComponent(t *testing.T) {
	x := []float64{2, 2, 2, 2}
	c := dsp.CosineTransformII(x)
	want := 8.0 // sum of inputs
	if math.Abs(c[0]-want) > 1e-9 {
		t.Fatalf("expected DCT DC term == sum of inputs (%v), got %v", want, c[0])
	}
}

func TestRunningNormalizerZeroesOutConstantStream(t *testing.T) {
	n := dsp.NewRunningNormalizer(2)
	for i := 0; i < 10; i++ {
		n.Observe([]float64{5, 5})
	}
	got := n.Normalize([]float64{5, 5})
	for _, v := range got {
		if v != 0 {
			t.Fatalf("expected zero-variance dims to subtract mean only, got %v", got)
		}
	}
}

func TestRunningNormalizerFinalizeOnEmptyWindowReturnsZeroVector(t *testing.T) {
	n := dsp.NewRunningNormalizer(3)
	got := n.Finalize()
	for _, v := range got {
		if v != 0 {
			t.Fatalf("expected zero vector on empty-window finalize, got %v", got)
		}
	}
}

func TestPolynomialRegressionOfLinearRampIsConstantSlope(t *testing.T) {
	window := [][]float64{{0}, {1}, {2}, {3}, {4}}
	slope := dsp.PolynomialRegression(window)
	if math.Abs(slope[0]-1) > 1e-9 {
		t.Fatalf("expected slope 1 for a unit ramp, got %v", slope[0])
	}
}

func TestApplyVectorOpAdd(t *testing.T) {
	got := dsp.ApplyVectorOp(dsp.OpAdd, []float64{1, 2, 3}, []float64{10, 20, 30}, 0)
	want := []float64{11, 22, 33}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: want %v got %v", i, want[i], got[i])
		}
	}
}

func TestApplyVectorOpScale(t *testing.T) {
	got := dsp.ApplyVectorOp(dsp.OpScale, []float64{1, 2, 3}, nil, 2.0)
	want := []float64{2, 4, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: want %v got %v", i, want[i], got[i])
		}
	}
}

func TestMatrixMultiplyVectorIdentity(t *testing.T) {
	m := dsp.NewMatrix(2, 2, []float64{1, 0, 0, 1})
	got := m.MultiplyVector([]float64{3, 4})
	if got[0] != 3 || got[1] != 4 {
		t.Fatalf("expected identity matrix to preserve vector, got %v", got)
	}
}

func TestMelFilterbankProducesExpectedBandCount(t *testing.T) {
	fb := dsp.NewMelFilterbank(26, 257, 16000)
	if fb.NFilters() != 26 {
		t.Fatalf("expected 26 filters, got %d", fb.NFilters())
	}
	mag := make([]float64, 257)
	for i := range mag {
		mag[i] = 1
	}
	out := fb.Apply(mag)
	if len(out) != 26 {
		t.Fatalf("expected 26 output energies, got %d", len(out))
	}
}
