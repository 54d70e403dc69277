// Package filters wires the pure kernels in dsp/streamsync/bayes/winbuf
// into concrete node.Node implementations and registers them by filter
// name in the process-wide registry (spec.md §5's filter catalogue); it
// registers no packet datatypes of its own. This is the one package in the tree every
// built-in filter name resolves through.
package filters

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rwthflow/flow/bayes"
	"github.com/rwthflow/flow/dsp"
	"github.com/rwthflow/flow/metrics"
	"github.com/rwthflow/flow/node"
	"github.com/rwthflow/flow/packet"
	"github.com/rwthflow/flow/port"
	"github.com/rwthflow/flow/streamsync"
	"github.com/rwthflow/flow/winbuf"
)

// classifierMetrics is the optional sink bayesNode reports each
// decided label to; nil (the default) disables reporting, not
// decisions - every *metrics.Registry method tolerates a nil receiver.
var classifierMetrics *metrics.Registry

// UseMetrics installs the registry every signal-bayes-classification
// node reports its decisions to.
func UseMetrics(r *metrics.Registry) { classifierMetrics = r }

// unaryVectorNode is the common shape of a single-input/single-output
// filter over Vector[float64] packets: pull one vector, run transform,
// push the result, forwarding EOS/OOD verbatim. Most of SPEC_FULL.md
// §5's per-frame DSP filters are exactly this shape and differ only in
// transform and parameters.
type unaryVectorNode struct {
	*node.Base
	in, out   *port.Port
	transform func(ts packet.Timestamp, values []float64) (packet.Timestamp, []float64)
}

func newUnaryVectorNode(name string, transform func(packet.Timestamp, []float64) (packet.Timestamp, []float64)) *unaryVectorNode {
	n := &unaryVectorNode{Base: node.NewBase(name), transform: transform}
	n.in, _ = n.AddInput("in", packet.Float64VectorDT)
	n.out, _ = n.AddOutput("out", packet.Float64VectorDT)
	return n
}

func (n *unaryVectorNode) SetParameter(string, string) bool { return false }

func (n *unaryVectorNode) Configure() bool {
	a := n.GetInputAttributes(n.in, nil)
	n.PutOutputAttributes(n.out, a.Clone())
	return true
}

func (n *unaryVectorNode) Work(out *port.Port) bool {
	r, ok := node.GetData(n.in, nil)
	if !ok {
		return false
	}
	d := r.Get()
	if packet.IsEOS(d) || packet.IsOOD(d) {
		return n.PutData(out, r) == nil
	}
	v, r2 := packet.Downcast[*packet.Vector[float64]](r)
	if r2.IsSentinel() {
		n.RecordErr(fmt.Errorf("node %q: expected a float64 vector packet", n.Name()))
		return false
	}
	n.ResolveParams()
	ts, values := n.transform(v.Timestamp, v.Values)
	r2.Release()
	return n.PutData(out, packet.New(packet.NewFloat64Vector(ts, values...))) == nil
}

// --- signal-preemphasis -----------------------------------------------

type preemphasisNode struct {
	*unaryVectorNode
	alpha float64
	prev  float64
}

func newPreemphasisNode(name string) node.Node {
	n := &preemphasisNode{alpha: 0.97}
	n.unaryVectorNode = newUnaryVectorNode(name, n.apply)
	return n
}

func (n *preemphasisNode) apply(ts packet.Timestamp, values []float64) (packet.Timestamp, []float64) {
	y, last := dsp.Preemphasis(values, n.alpha, n.prev)
	n.prev = last
	return ts, y
}

func (n *preemphasisNode) SetParameter(name, value string) bool {
	if name != "alpha" {
		return false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	n.alpha = f
	return true
}

// --- signal-real-fast-fourier-transform --------------------------------

func newRealDFTNode(name string) node.Node {
	return newUnaryVectorNode(name, func(ts packet.Timestamp, values []float64) (packet.Timestamp, []float64) {
		return ts, dsp.RealDFTMagnitude(values)
	})
}

// --- signal-cosine-transform --------------------------------------------

func newCosineTransformNode(name string) node.Node {
	return newUnaryVectorNode(name, func(ts packet.Timestamp, values []float64) (packet.Timestamp, []float64) {
		return ts, dsp.CosineTransformII(values)
	})
}

// --- signal-filterbank ---------------------------------------------------

type filterbankNode struct {
	*unaryVectorNode
	nFilters   int
	sampleRate float64
	fb         *dsp.Filterbank
}

func newFilterbankNode(name string) node.Node {
	n := &filterbankNode{nFilters: 26, sampleRate: 16000}
	n.unaryVectorNode = newUnaryVectorNode(name, n.apply)
	return n
}

func (n *filterbankNode) apply(ts packet.Timestamp, values []float64) (packet.Timestamp, []float64) {
	if n.fb == nil || n.fb.NFilters() != n.nFilters {
		n.fb = dsp.NewMelFilterbank(n.nFilters, len(values), n.sampleRate)
	}
	return ts, n.fb.Apply(values)
}

func (n *filterbankNode) SetParameter(name, value string) bool {
	switch name {
	case "n-filters":
		v, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		n.nFilters = v
		n.fb = nil
	case "sample-rate":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false
		}
		n.sampleRate = v
		n.fb = nil
	default:
		return false
	}
	return true
}

// --- signal-normalization --------------------------------------------------

type normalizationNode struct {
	*unaryVectorNode
	norm *dsp.RunningNormalizer
}

func newNormalizationNode(name string) node.Node {
	n := &normalizationNode{}
	n.unaryVectorNode = newUnaryVectorNode(name, n.apply)
	return n
}

func (n *normalizationNode) apply(ts packet.Timestamp, values []float64) (packet.Timestamp, []float64) {
	if n.norm == nil {
		n.norm = dsp.NewRunningNormalizer(len(values))
	}
	n.norm.Observe(values)
	return ts, n.norm.Normalize(values)
}

// --- signal-regression -----------------------------------------------------

// regressionNode accumulates the last WindowSize frames and emits the
// least-squares slope (delta feature) centered on the middle of those
// frames, stamped with the most recent frame's timestamp.
type regressionNode struct {
	*unaryVectorNode
	windowSize int
	history    [][]float64
}

func newRegressionNode(name string) node.Node {
	n := &regressionNode{windowSize: 5}
	n.unaryVectorNode = newUnaryVectorNode(name, n.apply)
	return n
}

func (n *regressionNode) apply(ts packet.Timestamp, values []float64) (packet.Timestamp, []float64) {
	n.history = append(n.history, values)
	if len(n.history) > n.windowSize {
		n.history = n.history[len(n.history)-n.windowSize:]
	}
	return ts, dsp.PolynomialRegression(n.history)
}

func (n *regressionNode) SetParameter(name, value string) bool {
	if name != "window-size" {
		return false
	}
	v, err := strconv.Atoi(value)
	if err != nil || v < 2 {
		return false
	}
	n.windowSize = v
	return true
}

// --- signal-vector-operation -------------------------------------------

type vectorOpNode struct {
	*node.Base
	a, b, out *port.Port
	op        dsp.VectorOp
	scalar    float64
}

func newVectorOpNode(name string) node.Node {
	n := &vectorOpNode{Base: node.NewBase(name), op: dsp.OpAdd}
	n.a, _ = n.AddInput("a", packet.Float64VectorDT)
	n.b, _ = n.AddInput("b", packet.Float64VectorDT)
	n.out, _ = n.AddOutput("out", packet.Float64VectorDT)
	return n
}

func (n *vectorOpNode) SetParameter(name, value string) bool {
	switch name {
	case "op":
		switch strings.ToLower(value) {
		case "add":
			n.op = dsp.OpAdd
		case "sub":
			n.op = dsp.OpSub
		case "mul":
			n.op = dsp.OpMul
		case "div":
			n.op = dsp.OpDiv
		case "scale":
			n.op = dsp.OpScale
		default:
			return false
		}
		return true
	case "scalar":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false
		}
		n.scalar = f
		return true
	}
	return false
}

func (n *vectorOpNode) Configure() bool {
	a := n.GetInputAttributes(n.a, nil)
	n.PutOutputAttributes(n.out, a.Clone())
	return true
}

func (n *vectorOpNode) Work(out *port.Port) bool {
	ra, ok := node.GetData(n.a, nil)
	if !ok {
		return false
	}
	da := ra.Get()
	if packet.IsEOS(da) || packet.IsOOD(da) {
		return n.PutData(out, ra) == nil
	}
	va, ra2 := packet.Downcast[*packet.Vector[float64]](ra)
	if ra2.IsSentinel() {
		n.RecordErr(fmt.Errorf("node %q: expected a float64 vector on input %q", n.Name(), "a"))
		return false
	}
	var bValues []float64
	if n.op != dsp.OpScale {
		rb, ok := node.GetData(n.b, nil)
		if !ok {
			ra2.Release()
			return false
		}
		db := rb.Get()
		if packet.IsEOS(db) || packet.IsOOD(db) {
			ra2.Release()
			return n.PutData(out, rb) == nil
		}
		vb, rb2 := packet.Downcast[*packet.Vector[float64]](rb)
		if rb2.IsSentinel() {
			ra2.Release()
			n.RecordErr(fmt.Errorf("node %q: expected a float64 vector on input %q", n.Name(), "b"))
			return false
		}
		bValues = vb.Values
		rb2.Release()
	}
	result := dsp.ApplyVectorOp(n.op, va.Values, bValues, n.scalar)
	ts := va.Timestamp
	ra2.Release()
	return n.PutData(out, packet.New(packet.NewFloat64Vector(ts, result...))) == nil
}

// --- signal-matrix-multiplication ---------------------------------------

type matrixMultiplyNode struct {
	*unaryVectorNode
	m *dsp.Matrix
}

func newMatrixMultiplyNode(name string) node.Node {
	n := &matrixMultiplyNode{}
	n.unaryVectorNode = newUnaryVectorNode(name, n.apply)
	return n
}

func (n *matrixMultiplyNode) apply(ts packet.Timestamp, values []float64) (packet.Timestamp, []float64) {
	if n.m == nil {
		return ts, values
	}
	return ts, n.m.MultiplyVector(values)
}

// SetParameter recognizes "matrix" (a comma-separated, row-major
// flattening of the matrix given literally) and "file" (a path to a
// file holding that same comma-separated flattening, re-read every time
// the parameter is set - the shape spec.md §8 seed scenario 6 drives
// through a $input(warp) placeholder so the matrix changes out from
// under a running network as the warp-factor stream advances).
func (n *matrixMultiplyNode) SetParameter(name, value string) bool {
	switch name {
	case "matrix":
		return n.setFlatMatrixCSV(value)
	case "file":
		data, err := os.ReadFile(value)
		if err != nil {
			n.RecordErr(fmt.Errorf("node %q: reading matrix file %q: %w", n.Name(), value, err))
			return false
		}
		return n.setFlatMatrixCSV(strings.TrimSpace(string(data)))
	}
	return false
}

func (n *matrixMultiplyNode) setFlatMatrixCSV(csv string) bool {
	fields := strings.Split(csv, ",")
	data := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return false
		}
		data = append(data, v)
	}
	return n.setFlatMatrix(data)
}

// setFlatMatrix rebuilds m as a square matrix when len(data) is a
// perfect square and rejects any other length; this package has no
// other way to supply a non-square matrix (a flat list of string values
// cannot express a non-square shape unambiguously).
func (n *matrixMultiplyNode) setFlatMatrix(data []float64) bool {
	size := 1
	for size*size < len(data) {
		size++
	}
	if size*size != len(data) {
		return false
	}
	n.m = dsp.NewMatrix(size, size, data)
	return true
}

// --- signal-synchronization ------------------------------------------------

type synchronizationNode struct {
	*node.Base
	target, in, out *port.Port
	sync            *streamsync.Synchronizer
}

func newSynchronizationNode(name string) node.Node {
	n := &synchronizationNode{Base: node.NewBase(name), sync: &streamsync.Synchronizer{}}
	n.target, _ = n.AddInput("target", packet.Float64VectorDT)
	n.in, _ = n.AddInput("in", packet.Float64VectorDT)
	n.out, _ = n.AddOutput("out", packet.Float64VectorDT)
	return n
}

func (n *synchronizationNode) SetParameter(name, value string) bool {
	if name != "ignore-errors" {
		return false
	}
	n.sync.IgnoreErrors = value == "true" || value == "1"
	return true
}

func (n *synchronizationNode) Configure() bool {
	a := n.GetInputAttributes(n.target, nil)
	n.PutOutputAttributes(n.out, a.Clone())
	return true
}

func (n *synchronizationNode) Work(out *port.Port) bool {
	rt, ok := node.GetData(n.target, nil)
	if !ok {
		return false
	}
	dt := rt.Get()
	if packet.IsEOS(dt) || packet.IsOOD(dt) {
		return n.PutData(out, rt) == nil
	}
	vt, rt2 := packet.Downcast[*packet.Vector[float64]](rt)
	if rt2.IsSentinel() {
		n.RecordErr(fmt.Errorf("node %q: expected a float64 vector on input %q", n.Name(), "target"))
		return false
	}
	targetStart := vt.Start
	rt2.Release()

	data, ok, err := n.sync.Next(targetStart, func() (packet.Timestamp, packet.Data, bool) {
		r, ok := node.GetData(n.in, nil)
		if !ok {
			return packet.Timestamp{}, nil, false
		}
		d := r.Get()
		v, ok := d.(*packet.Vector[float64])
		if !ok {
			return packet.Timestamp{}, nil, false
		}
		return v.Timestamp, v, true
	})
	if err != nil {
		n.RecordErr(err)
		return false
	}
	if !ok {
		return n.PutEOS(out) == nil
	}
	return n.PutData(out, packet.New(data)) == nil
}

// --- signal-timestamp-copy -------------------------------------------------

type timestampCopyNode struct {
	*node.Base
	target, in, out *port.Port
}

func newTimestampCopyNode(name string) node.Node {
	n := &timestampCopyNode{Base: node.NewBase(name)}
	n.target, _ = n.AddInput("target", packet.Float64VectorDT)
	n.in, _ = n.AddInput("in", packet.Float64VectorDT)
	n.out, _ = n.AddOutput("out", packet.Float64VectorDT)
	return n
}

func (n *timestampCopyNode) SetParameter(string, string) bool { return false }

func (n *timestampCopyNode) Configure() bool {
	a := n.GetInputAttributes(n.in, nil)
	n.PutOutputAttributes(n.out, a.Clone())
	return true
}

func (n *timestampCopyNode) Work(out *port.Port) bool {
	rt, ok := node.GetData(n.target, nil)
	if !ok {
		return false
	}
	dt := rt.Get()
	if packet.IsEOS(dt) || packet.IsOOD(dt) {
		ri, _ := node.GetData(n.in, nil)
		ri.Release()
		return n.PutData(out, rt) == nil
	}
	vt, rt2 := packet.Downcast[*packet.Vector[float64]](rt)
	if rt2.IsSentinel() {
		n.RecordErr(fmt.Errorf("node %q: expected a float64 vector on input %q", n.Name(), "target"))
		return false
	}
	target := streamsync.TimestampCopy(vt.Timestamp)
	rt2.Release()

	ri, ok := node.GetData(n.in, nil)
	if !ok {
		return false
	}
	di := ri.Get()
	if packet.IsEOS(di) || packet.IsOOD(di) {
		return n.PutData(out, ri) == nil
	}
	vi, ri2 := packet.Downcast[*packet.Vector[float64]](ri)
	if ri2.IsSentinel() {
		n.RecordErr(fmt.Errorf("node %q: expected a float64 vector on input %q", n.Name(), "in"))
		return false
	}
	values := vi.Values
	ri2.Release()
	return n.PutData(out, packet.New(packet.NewFloat64Vector(target, values...))) == nil
}

// --- signal-repeating-frame-prediction --------------------------------

type framePredictionNode struct {
	*node.Base
	target, in, out *port.Port
	predictor       *streamsync.FramePredictor
}

func newFramePredictionNode(name string) node.Node {
	n := &framePredictionNode{Base: node.NewBase(name), predictor: &streamsync.FramePredictor{}}
	n.target, _ = n.AddInput("target", packet.Float64VectorDT)
	n.in, _ = n.AddInput("in", packet.Float64VectorDT)
	n.out, _ = n.AddOutput("out", packet.Float64VectorDT)
	return n
}

func (n *framePredictionNode) SetParameter(name, value string) bool {
	switch name {
	case "predict-only-missing":
		n.predictor.PredictOnlyMissing = value == "true" || value == "1"
	case "sync-end-times":
		n.predictor.SyncEndTimes = value == "true" || value == "1"
	default:
		return false
	}
	return true
}

func (n *framePredictionNode) Configure() bool {
	a := n.GetInputAttributes(n.in, nil)
	n.PutOutputAttributes(n.out, a.Clone())
	return true
}

func (n *framePredictionNode) Work(out *port.Port) bool {
	if n.in.IsDataAvailable() {
		r, err := n.in.Get()
		if err == nil {
			d := r.Get()
			if v, ok := d.(*packet.Vector[float64]); ok {
				n.predictor.Observe(v.Timestamp, v)
			}
			r.Release()
		}
	}

	rt, ok := node.GetData(n.target, nil)
	if !ok {
		return false
	}
	dt := rt.Get()
	if packet.IsEOS(dt) || packet.IsOOD(dt) {
		return n.PutData(out, rt) == nil
	}
	vt, rt2 := packet.Downcast[*packet.Vector[float64]](rt)
	if rt2.IsSentinel() {
		n.RecordErr(fmt.Errorf("node %q: expected a float64 vector on input %q", n.Name(), "target"))
		return false
	}
	targetStart, targetEnd := vt.Start, vt.End
	rt2.Release()

	data, ts, err := n.predictor.Predict(targetStart, targetEnd)
	if err != nil {
		n.RecordErr(err)
		return false
	}
	v := data.(*packet.Vector[float64])
	return n.PutData(out, packet.New(packet.NewFloat64Vector(ts, v.Values...))) == nil
}

// --- signal-window -------------------------------------------------------

type windowNode struct {
	*node.Base
	in, out *port.Port
	win     *winbuf.Window
	length  int
	shift   int
	rate    float64
}

func newWindowNode(name string) node.Node {
	n := &windowNode{length: 400, shift: 160, rate: 16000}
	n.Base = node.NewBase(name)
	n.in, _ = n.AddInput("in", packet.Float64VectorDT)
	n.out, _ = n.AddOutput("out", packet.Float64VectorDT)
	n.rebuild()
	return n
}

func (n *windowNode) rebuild() {
	buf := winbuf.New(n.length, n.shift, n.rate)
	n.win = winbuf.NewWindow(buf, winbuf.Hamming)
}

func (n *windowNode) SetParameter(name, value string) bool {
	switch name {
	case "length":
		v, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		n.length = v
	case "shift":
		v, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		n.shift = v
	case "sample-rate":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false
		}
		n.rate = v
	case "function":
		fn, ok := windowFunctionByName(value)
		if !ok {
			return false
		}
		n.win.Fn = fn
		return true
	default:
		return false
	}
	n.rebuild()
	return true
}

func windowFunctionByName(name string) (winbuf.Function, bool) {
	switch strings.ToLower(name) {
	case "rectangular":
		return winbuf.Rectangular, true
	case "hamming":
		return winbuf.Hamming, true
	case "hanning":
		return winbuf.Hanning, true
	case "bartlett":
		return winbuf.Bartlett, true
	case "blackman":
		return winbuf.Blackman, true
	default:
		return nil, false
	}
}

func (n *windowNode) Configure() bool {
	a := n.GetInputAttributes(n.in, nil)
	n.PutOutputAttributes(n.out, a.Clone())
	return true
}

// Work pulls one input packet. For a vector it folds the samples into
// the window buffer and puts every frame Extract returns on out in this
// one call, or OOD when none is ready. For EOS it puts every flushed
// tail frame and then EOS; an OOD input is forwarded unchanged.
func (n *windowNode) Work(out *port.Port) bool {
	r, ok := node.GetData(n.in, nil)
	if !ok {
		return false
	}
	d := r.Get()
	if packet.IsEOS(d) {
		for _, f := range n.win.Flush() {
			n.PutData(out, packet.New(packet.NewFloat64Vector(f.Timestamp, f.Values...)))
		}
		return n.PutEOS(out) == nil
	}
	if packet.IsOOD(d) {
		return n.PutData(out, r) == nil
	}
	v, r2 := packet.Downcast[*packet.Vector[float64]](r)
	if r2.IsSentinel() {
		n.RecordErr(fmt.Errorf("node %q: expected a float64 vector packet", n.Name()))
		return false
	}
	n.win.Put(v)
	r2.Release()
	frames := n.win.Extract()
	if len(frames) == 0 {
		return n.PutOOD(out) == nil
	}
	for _, f := range frames[:len(frames)-1] {
		n.PutData(out, packet.New(packet.NewFloat64Vector(f.Timestamp, f.Values...)))
	}
	last := frames[len(frames)-1]
	return n.PutData(out, packet.New(packet.NewFloat64Vector(last.Timestamp, last.Values...))) == nil
}

// --- signal-bayes-classification --------------------------------------

type bayesNode struct {
	*node.Base
	in, out    *port.Port
	classifier *bayes.Classifier
	labels     []string
}

// NewBayesClassificationNode builds a bayes classification node around a
// caller-supplied FeatureScorer and class labels - the construction path
// a real deployment uses, bypassing the registry's string-only
// SetParameter surface for the one filter whose scoring model spec.md
// §1 leaves opaque.
func NewBayesClassificationNode(name string, scorer bayes.FeatureScorer, labels []string) *bayesNode {
	seq := bayes.NewIndependentSequence(scorer)
	seq.SetClasses(labels)
	n := &bayesNode{
		Base:       node.NewBase(name),
		classifier: bayes.NewClassifier(seq, bayes.Uniform{}, len(labels)),
		labels:     labels,
	}
	n.in, _ = n.AddInput("in", packet.Float64VectorDT)
	n.out, _ = n.AddOutput("out", packet.StringDT)
	return n
}

func (n *bayesNode) SetParameter(name, value string) bool {
	switch name {
	case "mode":
		switch strings.ToLower(value) {
		case "delayed":
			n.classifier.Mode = bayes.Delayed
		case "sliding-window":
			n.classifier.Mode = bayes.SlidingWindow
		default:
			return false
		}
	case "window-size":
		v, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		n.classifier.WindowSize = v
	case "delay":
		v, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		n.classifier.Delay = v
	default:
		return false
	}
	return true
}

func (n *bayesNode) Configure() bool {
	a := n.GetInputAttributes(n.in, nil)
	n.PutOutputAttributes(n.out, a.Clone())
	return true
}

func (n *bayesNode) Work(out *port.Port) bool {
	r, ok := node.GetData(n.in, nil)
	if !ok {
		return false
	}
	d := r.Get()
	if packet.IsEOS(d) {
		if n.classifier.Mode == bayes.Delayed {
			class, _, _ := n.classifier.Decide()
			n.emitDecision(out, class)
		}
		return n.PutEOS(out) == nil
	}
	if packet.IsOOD(d) {
		return n.PutData(out, r) == nil
	}
	v, r2 := packet.Downcast[*packet.Vector[float64]](r)
	if r2.IsSentinel() {
		n.RecordErr(fmt.Errorf("node %q: expected a float64 vector packet", n.Name()))
		return false
	}
	ts := v.Timestamp
	ready := n.classifier.Feed(v.Values, 1.0, bayes.Timestamp{Start: ts.Start, End: ts.End})
	r2.Release()
	if ready {
		class, _, span := n.classifier.Decide()
		classifierMetrics.Decision(n.labels[class])
		decisionTS := packet.Timestamp{Start: span.Start, End: span.End}
		return n.PutData(out, packet.New(packet.NewStringPacket(decisionTS, n.labels[class]))) == nil
	}
	return n.PutOOD(out) == nil
}

func (n *bayesNode) emitDecision(out *port.Port, class int) {
	classifierMetrics.Decision(n.labels[class])
	n.PutData(out, packet.New(packet.NewStringPacket(packet.InvalidTimestamp(), n.labels[class])))
}
