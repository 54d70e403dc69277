// Package winbuf implements WindowBuffer (a contiguous sample
// accumulator that emits fixed-length overlapping frames) and Window
// (WindowBuffer composed with a pluggable window function), spec.md §4.7.
package winbuf

import (
	"math"

	"github.com/rwthflow/flow/packet"
)

// WindowBuffer accumulates a contiguous time-domain float64 sample
// stream and emits fixed-length overlapping frames of `Length` samples
// shifted by `Shift` samples, at sample rate `SampleRate`.
type WindowBuffer struct {
	Length          int
	Shift           int
	SampleRate      float64
	FlushBeforeGap  bool
	FlushAll        bool

	samples    []float64
	streamTime float64 // timestamp (seconds) of samples[0]
	haveStart  bool
	emitted    int // count of frames already emitted, for start-time math
}

func New(length, shift int, sampleRate float64) *WindowBuffer {
	return &WindowBuffer{Length: length, Shift: shift, SampleRate: sampleRate}
}

const gapTolerance = 1e-9

// Put appends vec's samples if its start time equals the current
// buffer-end time (within tolerance). If FlushBeforeGap is set, a
// non-contiguous input makes Put return false so the caller can flush
// first; otherwise the gap is filled with zeros.
func (wb *WindowBuffer) Put(vec *packet.Vector[float64]) bool {
	if !wb.haveStart {
		wb.streamTime = vec.Start
		wb.haveStart = true
	}
	bufEnd := wb.streamTime + float64(len(wb.samples))/wb.SampleRate
	gap := vec.Start - bufEnd
	if gap > gapTolerance {
		if wb.FlushBeforeGap {
			return false
		}
		nZeros := int(math.Round(gap * wb.SampleRate))
		for i := 0; i < nZeros; i++ {
			wb.samples = append(wb.samples, 0)
		}
	}
	wb.samples = append(wb.samples, vec.Values...)
	return true
}

// Frame is one emitted fixed-length window with its timestamp.
type Frame struct {
	Timestamp packet.Timestamp
	Values    []float64
}

// frameStart returns the start time of the k'th frame emitted so far
// counting across this WindowBuffer's lifetime (spec.md §8's "frame k's
// start time equals stream_start + k*shift/sample_rate").
func (wb *WindowBuffer) frameStart(k int) float64 {
	return wb.streamTime + float64(k)*float64(wb.Shift)/wb.SampleRate
}

// readyThreshold is the minimum buffer occupancy extractReady requires
// before it will emit a frame: the original rwth-asr WindowBuffer::get()
// withholds emission until the buffer holds at least 2*max(shift, length)
// samples, so a frame is never emitted from a buffer that might still
// need to absorb a short, non-contiguous Put (spec.md §4.7).
func (wb *WindowBuffer) readyThreshold() int {
	m := wb.Shift
	if wb.Length > m {
		m = wb.Length
	}
	return 2 * m
}

// extractReady emits full-length frames, dropping Shift samples after
// each, only while the buffer holds at least readyThreshold samples; it
// stops as soon as fewer remain, so full-length frames may be left for a
// later call or for Flush, which has its own loop without this gate.
func (wb *WindowBuffer) extractReady() []Frame {
	var out []Frame
	for len(wb.samples) >= wb.Length && len(wb.samples) >= wb.readyThreshold() {
		start := wb.frameStart(wb.emitted)
		end := start + float64(wb.Length)/wb.SampleRate
		vals := make([]float64, wb.Length)
		copy(vals, wb.samples[:wb.Length])
		out = append(out, Frame{Timestamp: packet.Timestamp{Start: start, End: end}, Values: vals})
		wb.emitted++
		if wb.Shift >= len(wb.samples) {
			wb.samples = wb.samples[:0]
			break
		}
		wb.samples = wb.samples[wb.Shift:]
	}
	return out
}

// Extract is the non-flush emission path: it returns frames only while
// the buffer holds at least 2*max(Shift,Length) samples (spec.md §4.7).
// For a contiguous run of N samples, Extract followed by Flush yields
// ⌊(N-L)/S⌋+1 frames in all; Extract alone yields fewer whenever a frame
// would start less than 2*max(Shift,Length) samples from the end.
func (wb *WindowBuffer) Extract() []Frame { return wb.extractReady() }

// Flush drains the tail, ignoring the 2*max(Shift,Length) readiness
// gate that Extract enforces: at end of stream no further samples are
// coming to fill the buffer out, so every remaining full-length frame
// is emitted regardless of occupancy. If FlushAll is set, shorter-than-
// Length frames are then emitted shift-by-shift until the buffer is
// empty; otherwise the residue (fewer than Length samples) is
// discarded.
func (wb *WindowBuffer) Flush() []Frame {
	var out []Frame
	for len(wb.samples) >= wb.Length {
		start := wb.frameStart(wb.emitted)
		end := start + float64(wb.Length)/wb.SampleRate
		vals := make([]float64, wb.Length)
		copy(vals, wb.samples[:wb.Length])
		out = append(out, Frame{Timestamp: packet.Timestamp{Start: start, End: end}, Values: vals})
		wb.emitted++
		if wb.Shift >= len(wb.samples) {
			wb.samples = wb.samples[:0]
			break
		}
		wb.samples = wb.samples[wb.Shift:]
	}
	if !wb.FlushAll {
		wb.samples = nil
		return out
	}
	for len(wb.samples) > 0 {
		start := wb.frameStart(wb.emitted)
		n := len(wb.samples)
		if n > wb.Length {
			n = wb.Length
		}
		vals := make([]float64, n)
		copy(vals, wb.samples[:n])
		end := start + float64(n)/wb.SampleRate
		out = append(out, Frame{Timestamp: packet.Timestamp{Start: start, End: end}, Values: vals})
		wb.emitted++
		if wb.Shift >= len(wb.samples) {
			wb.samples = wb.samples[:0]
			break
		}
		wb.samples = wb.samples[wb.Shift:]
	}
	return out
}

// Function is a pluggable window function; Weights returns n
// coefficients to multiply elementwise against a frame of length n.
type Function interface {
	Weights(n int) []float64
}

type rectangular struct{}

func (rectangular) Weights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

type hamming struct{}

func (hamming) Weights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

type hanning struct{}

func (hanning) Weights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

type bartlett struct{}

func (bartlett) Weights(n int) []float64 {
	w := make([]float64, n)
	m := float64(n-1) / 2
	for i := range w {
		w[i] = 1 - math.Abs((float64(i)-m)/m)
	}
	return w
}

type blackman struct{}

func (blackman) Weights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		x := 2 * math.Pi * float64(i) / float64(n-1)
		w[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	}
	return w
}

var (
	Rectangular Function = rectangular{}
	Hamming     Function = hamming{}
	Hanning     Function = hanning{}
	Bartlett    Function = bartlett{}
	Blackman    Function = blackman{}
)

// Window composes a WindowBuffer with a pluggable Function; weights are
// recomputed whenever Length changes.
type Window struct {
	Buf        *WindowBuffer
	Fn         Function
	weights    []float64
	weightsLen int
}

func NewWindow(buf *WindowBuffer, fn Function) *Window {
	return &Window{Buf: buf, Fn: fn}
}

func (w *Window) weightsFor(n int) []float64 {
	if w.weightsLen != n {
		w.weights = w.Fn.Weights(n)
		w.weightsLen = n
	}
	return w.weights
}

// apply multiplies a frame elementwise by the window function's weights.
func (w *Window) apply(f Frame) Frame {
	weights := w.weightsFor(len(f.Values))
	out := make([]float64, len(f.Values))
	for i, v := range f.Values {
		out[i] = v * weights[i]
	}
	return Frame{Timestamp: f.Timestamp, Values: out}
}

func (w *Window) Put(vec *packet.Vector[float64]) bool { return w.Buf.Put(vec) }

func (w *Window) Extract() []Frame {
	frames := w.Buf.Extract()
	for i, f := range frames {
		frames[i] = w.apply(f)
	}
	return frames
}

func (w *Window) Flush() []Frame {
	frames := w.Buf.Flush()
	for i, f := range frames {
		frames[i] = w.apply(f)
	}
	return frames
}
