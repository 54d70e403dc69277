// Package bayes implements the Bayes-classification accumulator of
// spec.md §4.10: a class-conditional log-score accumulator fed by an
// externally supplied FeatureScorer, with uniform-prior decision by
// argmin, in both delayed (whole-stream) and sliding-window decision
// modes.
package bayes

import (
	"math"

	"github.com/rwthflow/flow/window"
)

// FeatureScorer is the opaque, externally-supplied scoring model
// (spec.md §1 lists the concrete scoring models as out of scope): given
// a feature vector and a class index, it returns -log p(x|class).
type FeatureScorer interface {
	NegLogLikelihood(feature []float64, class int) float64
}

// LikelihoodFunction accumulates class-conditional scores over a
// variable-length stream of feature vectors.
type LikelihoodFunction interface {
	SetClasses(labels []string)
	SetDimension(d int)
	Feed(feature []float64, weight float64, perClassScores []float64)
	Get(class int) float64
	Reset()
}

// IndependentSequence sums weight * (-log p(x|k)) over time, assuming
// feature vectors are conditionally independent given the class.
type IndependentSequence struct {
	scorer FeatureScorer
	labels []string
	dim    int
	sums   []float64
}

func NewIndependentSequence(scorer FeatureScorer) *IndependentSequence {
	return &IndependentSequence{scorer: scorer}
}

func (s *IndependentSequence) SetClasses(labels []string) {
	s.labels = labels
	s.sums = make([]float64, len(labels))
}

func (s *IndependentSequence) SetDimension(d int) { s.dim = d }

// Feed accumulates weight*(-log p(feature|k)) for every class k into
// s.sums, and additionally reports the per-class increment for this
// call into perClassScores (if non-nil and long enough).
func (s *IndependentSequence) Feed(feature []float64, weight float64, perClassScores []float64) {
	for k := range s.labels {
		score := weight * s.scorer.NegLogLikelihood(feature, k)
		s.sums[k] += score
		if perClassScores != nil && k < len(perClassScores) {
			perClassScores[k] = score
		}
	}
}

func (s *IndependentSequence) Get(class int) float64 { return s.sums[class] }

func (s *IndependentSequence) Reset() {
	for i := range s.sums {
		s.sums[i] = 0
	}
}

// AprioriProbability supplies -log(prior[k]).
type AprioriProbability interface {
	NegLogPrior(class int, nClasses int) float64
}

// Uniform is the -log(1/K) prior.
type Uniform struct{}

func (Uniform) NegLogPrior(_ int, nClasses int) float64 {
	return -math.Log(1.0 / float64(nClasses))
}

// Decide returns argmin_k (prior[k] + likelihood[k]).
func Decide(likelihood LikelihoodFunction, prior AprioriProbability, nClasses int) (class int, score float64) {
	best := math.Inf(1)
	bestClass := -1
	for k := 0; k < nClasses; k++ {
		total := prior.NegLogPrior(k, nClasses) + likelihood.Get(k)
		if total < best {
			best = total
			bestClass = k
		}
	}
	return bestClass, best
}

// decideSums is Decide's argmin, applied to a plain score slice rather
// than a LikelihoodFunction - the sliding window sums its own frames'
// scores rather than reading them out of a LikelihoodFunction.
func decideSums(sums []float64, prior AprioriProbability, nClasses int) (class int, score float64) {
	best := math.Inf(1)
	bestClass := -1
	for k := 0; k < nClasses; k++ {
		total := prior.NegLogPrior(k, nClasses) + sums[k]
		if total < best {
			best = total
			bestClass = k
		}
	}
	return bestClass, best
}

// DecisionMode selects when Decide fires.
type DecisionMode int

const (
	// Delayed decides once at end-of-stream, over the whole
	// accumulated likelihood.
	Delayed DecisionMode = iota
	// SlidingWindow maintains a window of the last WindowSize frames'
	// score vectors and timestamps and decides over their live sum
	// every time the window is full and at least Delay new frames have
	// arrived since the previous decision (spec.md §4.10).
	SlidingWindow
)

// Timestamp is the [Start,End) span a sliding-window decision reports,
// spanning the oldest frame entering the window to the newest frame
// still in it.
type Timestamp struct {
	Start, End float64
}

// frameScore is one fed frame's per-class score vector and timestamp,
// held in the sliding window's history.
type frameScore struct {
	scores []float64
	ts     Timestamp
}

// Classifier drives LikelihoodFunction/AprioriProbability/Decide
// across a stream of feature vectors, supporting both decision modes.
type Classifier struct {
	Likelihood LikelihoodFunction
	Prior      AprioriProbability
	NClasses   int
	Mode       DecisionMode
	WindowSize int // frames held in the SlidingWindow, SlidingWindow mode only
	Delay      int // minimum new frames between SlidingWindow decisions; defaults to WindowSize when <= 0

	framesSinceDecision int
	scoreWindow         *window.Window[frameScore]
	windowSize          int // WindowSize the scoreWindow was last built with
}

func NewClassifier(likelihood LikelihoodFunction, prior AprioriProbability, nClasses int) *Classifier {
	return &Classifier{Likelihood: likelihood, Prior: prior, NClasses: nClasses, Mode: Delayed}
}

func (c *Classifier) delay() int {
	if c.Delay > 0 {
		return c.Delay
	}
	return c.WindowSize
}

// ensureWindow (re)builds the scoreWindow once WindowSize is known, or
// if it has since changed; a pure-past window (right=0) is exactly the
// FIFO of the last WindowSize fed frames that BayesClassification's
// scoreWindow_/timeWindow_ keep.
func (c *Classifier) ensureWindow() {
	if c.scoreWindow != nil && c.windowSize == c.WindowSize {
		return
	}
	c.scoreWindow = window.New[frameScore](c.WindowSize, 0)
	c.windowSize = c.WindowSize
}

// Feed accumulates one feature vector's contribution at timestamp ts.
// ready reports whether a decision should now be taken: always false in
// Delayed mode until the caller calls Decide at end-of-stream; in
// SlidingWindow mode, true once the window holds WindowSize frames and
// at least Delay new frames have arrived since the last decision.
func (c *Classifier) Feed(feature []float64, weight float64, ts Timestamp) (ready bool) {
	if c.Mode == SlidingWindow {
		c.ensureWindow()
		scores := make([]float64, c.NClasses)
		c.Likelihood.Feed(feature, weight, scores)
		c.Likelihood.Reset() // scoreWindow, not Likelihood, holds the live window's state
		c.scoreWindow.Add(frameScore{scores: scores, ts: ts})
		c.framesSinceDecision++
		return c.scoreWindow.Size() >= c.WindowSize && c.framesSinceDecision >= c.delay()
	}
	c.Likelihood.Feed(feature, weight, nil)
	c.framesSinceDecision++
	return false
}

// Decide takes a decision now. In SlidingWindow mode it sums the live
// window's per-frame score vectors (oldest through newest still held)
// and reports a timestamp spanning the window's oldest frame's start to
// its newest frame's end, then resets the since-last-decision counter;
// in Delayed mode it decides over the whole accumulated likelihood and
// returns the zero Timestamp (the caller supplies its own end-of-stream
// timestamp).
func (c *Classifier) Decide() (class int, score float64, ts Timestamp) {
	if c.Mode == SlidingWindow {
		sums := make([]float64, c.NClasses)
		for i := 0; i < c.WindowSize; i++ {
			f := c.scoreWindow.Get(-i, window.Zero, window.Full)
			for k := 0; k < c.NClasses && k < len(f.scores); k++ {
				sums[k] += f.scores[k]
			}
		}
		class, score = decideSums(sums, c.Prior, c.NClasses)
		oldest := c.scoreWindow.Get(-(c.WindowSize - 1), window.Zero, window.Full)
		newest := c.scoreWindow.Get(0, window.Zero, window.Full)
		ts = Timestamp{Start: oldest.ts.Start, End: newest.ts.End}
		c.framesSinceDecision = 0
		return class, score, ts
	}
	class, score = Decide(c.Likelihood, c.Prior, c.NClasses)
	return class, score, Timestamp{}
}
