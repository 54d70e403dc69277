package filters

import "github.com/rwthflow/flow/registry"

// Register installs every built-in filter name from SPEC_FULL.md §5 into
// the process-wide filter registry. It must be called once, before a
// network's first .flow file is parsed (spec.md §5's registries are
// built once at start-up); calling it twice is a fatal duplicate
// registration, by design (registry.RegisterFilter).
//
// signal-cache and signal-bayes-classification are deliberately not
// registered here: both need a constructor argument a bare filter name
// cannot supply (a *cache.Cache backing store, and a bayes.FeatureScorer
// respectively) - see cache.NewNode and NewBayesClassificationNode,
// which a network assembler calls directly instead of going through the
// name-keyed registry.
func Register() {
	registry.RegisterFilter("signal-preemphasis", func() any { return newPreemphasisNode("signal-preemphasis") })
	registry.RegisterFilter("signal-window", func() any { return newWindowNode("signal-window") })
	registry.RegisterFilter("signal-real-fast-fourier-transform", func() any { return newRealDFTNode("signal-real-fast-fourier-transform") })
	registry.RegisterFilter("signal-cosine-transform", func() any { return newCosineTransformNode("signal-cosine-transform") })
	registry.RegisterFilter("signal-filterbank", func() any { return newFilterbankNode("signal-filterbank") })
	registry.RegisterFilter("signal-normalization", func() any { return newNormalizationNode("signal-normalization") })
	registry.RegisterFilter("signal-regression", func() any { return newRegressionNode("signal-regression") })
	registry.RegisterFilter("signal-vector-operation", func() any { return newVectorOpNode("signal-vector-operation") })
	registry.RegisterFilter("signal-matrix-multiplication", func() any { return newMatrixMultiplyNode("signal-matrix-multiplication") })
	registry.RegisterFilter("signal-repeating-frame-prediction", func() any { return newFramePredictionNode("signal-repeating-frame-prediction") })
	registry.RegisterFilter("signal-synchronization", func() any { return newSynchronizationNode("signal-synchronization") })
	registry.RegisterFilter("signal-timestamp-copy", func() any { return newTimestampCopyNode("signal-timestamp-copy") })
}
