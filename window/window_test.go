package window_test

import (
	"testing"

	"github.com/rwthflow/flow/window"
)

func TestAddThenGetPresentReturnsJustAdded(t *testing.T) {
	w := window.New[int](4, 1) // max_past=2, max_future=1
	for i, x := range []int{10, 20, 30, 40, 50} {
		w.Add(x)
		got := w.Get(1, window.Zero, window.NotEmpty) // relative index f == max_future
		if got != x {
			t.Fatalf("iteration %d: expected get(max_future) == %d, got %d", i, x, got)
		}
		wantSize := w.Size()
		if w.PastSize()+w.FutureSize()+1 != wantSize {
			t.Fatalf("iteration %d: pastSize+futureSize+1 = %d, want %d",
				i, w.PastSize()+w.FutureSize()+1, wantSize)
		}
	}
}

func TestSizeClampsToCapacity(t *testing.T) {
	w := window.New[int](4, 1)
	for _, x := range []int{1, 2, 3, 4, 5, 6} {
		w.Add(x)
	}
	maxPast, maxFuture := w.MaxPast(), w.MaxFuture()
	if w.PastSize()+w.FutureSize()+1 != maxPast+maxFuture+1 {
		t.Fatalf("expected window at capacity %d, got size %d", maxPast+maxFuture+1, w.PastSize()+w.FutureSize()+1)
	}
}

func TestCopyMarginPolicyClampsToNearest(t *testing.T) {
	w := window.New[int](4, 1)
	w.Add(7)
	got := w.Get(5, window.Copy, window.NotEmpty) // far into the future, clamps to nearest existing
	if got != 7 {
		t.Fatalf("expected Copy margin to clamp to nearest existing element 7, got %d", got)
	}
}

func TestZeroMarginPolicyOnEmptyWindow(t *testing.T) {
	w := window.New[int](4, 1)
	got := w.Get(1, window.Zero, window.NotEmpty)
	if got != 0 {
		t.Fatalf("expected zero value on empty window, got %d", got)
	}
}

func TestFlushOutGuaranteesValidOrEmpty(t *testing.T) {
	w := window.New[int](4, 1)
	w.Add(1)
	w.Add(2)
	w.FlushOut()
	// After FlushOut the window must not panic on GetClosest.
	_ = w.GetClosest(0)
}
