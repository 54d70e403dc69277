package bayes_test

import (
	"testing"

	"github.com/rwthflow/flow/bayes"
)

// fixedScorer returns a pre-determined -log p(x|k) per call, cycling
// through a fixed table - enough to drive the seed scenario's literal
// per-frame per-class negative-log-likelihoods without needing a real
// feature model.
type fixedScorer struct {
	table [][2]float64 // [frame][class]
	frame int
	calls int
}

func (s *fixedScorer) NegLogLikelihood(_ []float64, class int) float64 {
	v := s.table[s.frame][class]
	s.calls++
	if s.calls%2 == 0 {
		s.frame++
	}
	return v
}

func TestDelayedDecisionUniformPriorSeedScenario(t *testing.T) {
	scorer := &fixedScorer{table: [][2]float64{{1, 2}, {1, 2}, {1, 3}}}
	lf := bayes.NewIndependentSequence(scorer)
	lf.SetClasses([]string{"c0", "c1"})

	for i := 0; i < 3; i++ {
		lf.Feed(nil, 1.0, nil)
	}
	if lf.Get(0) != 3 {
		t.Fatalf("expected class 0 sum 3, got %v", lf.Get(0))
	}
	if lf.Get(1) != 7 {
		t.Fatalf("expected class 1 sum 7, got %v", lf.Get(1))
	}

	class, _ := bayes.Decide(lf, bayes.Uniform{}, 2)
	if class != 0 {
		t.Fatalf("expected argmin class 0, got %d", class)
	}
}

func TestUniformPriorIsSymmetricAcrossClasses(t *testing.T) {
	p := bayes.Uniform{}
	if p.NegLogPrior(0, 4) != p.NegLogPrior(3, 4) {
		t.Fatal("expected uniform prior to be identical across classes")
	}
}

// feedAt feeds one frame through c at timestamp [start,start+1) with
// score table row scores for class 0/1.
func feedAt(c *bayes.Classifier, scorer *fixedScorer, row [2]float64, start float64) bool {
	scorer.table = append(scorer.table, row)
	return c.Feed(nil, 1.0, bayes.Timestamp{Start: start, End: start + 1})
}

// TestSlidingWindowDecisionOverlapsAcrossEmissions drives a window of
// size 3 with a delay of 1: every new frame beyond the first full
// window should be able to trigger a fresh decision over the last 3
// frames, rather than only resetting every WindowSize frames.
func TestSlidingWindowDecisionOverlapsAcrossEmissions(t *testing.T) {
	scorer := &fixedScorer{}
	lf := bayes.NewIndependentSequence(scorer)
	lf.SetClasses([]string{"c0", "c1"})
	c := bayes.NewClassifier(lf, bayes.Uniform{}, 2)
	c.Mode = bayes.SlidingWindow
	c.WindowSize = 3
	c.Delay = 1

	// Frames 0,1: window not yet full.
	if ready := feedAt(c, scorer, [2]float64{1, 5}, 0); ready {
		t.Fatal("expected not ready before the window is full")
	}
	if ready := feedAt(c, scorer, [2]float64{1, 5}, 1); ready {
		t.Fatal("expected not ready before the window is full")
	}
	// Frame 2: window first becomes full, class 0 favored (sum 3 vs 15).
	if ready := feedAt(c, scorer, [2]float64{1, 5}, 2); !ready {
		t.Fatal("expected ready once the window first fills")
	}
	class, _, ts := c.Decide()
	if class != 0 {
		t.Fatalf("expected class 0 over frames [0,1,2], got %d", class)
	}
	if ts.Start != 0 || ts.End != 3 {
		t.Fatalf("expected span [0,3) over the first 3 frames, got [%v,%v)", ts.Start, ts.End)
	}

	// Frame 3: with Delay=1 a single new frame re-triggers a decision,
	// now over the overlapping window [1,2,3] - not a fresh [3,4,5]
	// tumbling block. Frame 3 favors class 1 heavily enough to flip it.
	if ready := feedAt(c, scorer, [2]float64{20, 1}, 3); !ready {
		t.Fatal("expected ready after a single new frame (Delay=1)")
	}
	class, _, ts = c.Decide()
	if class != 1 {
		t.Fatalf("expected class 1 once frame 3 enters the window [1,2,3], got %d", class)
	}
	if ts.Start != 1 || ts.End != 4 {
		t.Fatalf("expected span [1,4) over the overlapping window, got [%v,%v)", ts.Start, ts.End)
	}
}

// TestSlidingWindowDelayDistinctFromWindowSize verifies Delay gates
// emission independently of WindowSize: with WindowSize=2 and Delay=3,
// the window is full after 2 frames but no decision is ready until a
// third frame has arrived; after that decision, a lone further frame
// (only 1 new frame since the last decision) is not enough to re-fire.
func TestSlidingWindowDelayDistinctFromWindowSize(t *testing.T) {
	scorer := &fixedScorer{}
	lf := bayes.NewIndependentSequence(scorer)
	lf.SetClasses([]string{"c0", "c1"})
	c := bayes.NewClassifier(lf, bayes.Uniform{}, 2)
	c.Mode = bayes.SlidingWindow
	c.WindowSize = 2
	c.Delay = 3

	if ready := feedAt(c, scorer, [2]float64{1, 5}, 0); ready {
		t.Fatal("expected not ready: window not yet full")
	}
	if ready := feedAt(c, scorer, [2]float64{1, 5}, 1); ready {
		t.Fatal("expected not ready: window full but Delay (3) not yet reached")
	}
	if ready := feedAt(c, scorer, [2]float64{1, 5}, 2); !ready {
		t.Fatal("expected ready once 3 new frames have arrived, satisfying Delay")
	}
	c.Decide()

	if ready := feedAt(c, scorer, [2]float64{1, 5}, 3); ready {
		t.Fatal("expected not ready: only 1 new frame since the last decision, Delay requires 3")
	}
}

// TestSlidingWindowDefaultDelayMatchesWindowSize preserves the simple
// tumbling-block behavior when Delay is left unset (<= 0): a decision
// becomes ready again only once WindowSize further frames have arrived.
func TestSlidingWindowDefaultDelayMatchesWindowSize(t *testing.T) {
	scorer := &fixedScorer{}
	lf := bayes.NewIndependentSequence(scorer)
	lf.SetClasses([]string{"c0", "c1"})
	c := bayes.NewClassifier(lf, bayes.Uniform{}, 2)
	c.Mode = bayes.SlidingWindow
	c.WindowSize = 2

	feedAt(c, scorer, [2]float64{1, 5}, 0)
	ready := feedAt(c, scorer, [2]float64{1, 5}, 1)
	if !ready {
		t.Fatal("expected ready once the window first fills")
	}
	class1, _, _ := c.Decide()
	if class1 != 0 {
		t.Fatalf("expected first window to decide class 0, got %d", class1)
	}

	if ready := feedAt(c, scorer, [2]float64{5, 1}, 2); ready {
		t.Fatal("expected not ready: only 1 new frame since last decision, default delay is WindowSize (2)")
	}
	ready = feedAt(c, scorer, [2]float64{5, 1}, 3)
	if !ready {
		t.Fatal("expected ready once WindowSize new frames have arrived")
	}
	class2, _, _ := c.Decide()
	if class2 != 1 {
		t.Fatalf("expected second window to decide class 1, got %d", class2)
	}
}
