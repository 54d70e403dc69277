package winbuf_test

import (
	"testing"

	"github.com/rwthflow/flow/packet"
	"github.com/rwthflow/flow/winbuf"
)

// Frame counts follow the documented ⌊(N-L)/S⌋+1 formula; N=12400 is the
// smallest sample count yielding exactly 76 frames at length=400 (0.025s
// @16kHz) shift=160 (0.010s @16kHz), matching the frame-0/frame-1
// timestamps of the window seed scenario. Extract stops once fewer than
// 2*max(shift,length)=800 samples remain (73 frames here) and Flush emits
// the remaining full-length frames (3 more), so both are counted.
func TestWindowBufferEmitsExpectedFrameCountAndTimestamps(t *testing.T) {
	const sampleRate = 16000.0
	const length = 400 // 0.025s
	const shift = 160  // 0.010s
	const n = 12400

	wb := winbuf.New(length, shift, sampleRate)
	values := make([]float64, n)
	for i := range values {
		values[i] = 1.0
	}
	vec := packet.NewFloat64Vector(packet.Timestamp{Start: 0, End: float64(n) / sampleRate}, values...)
	wb.Put(vec)
	frames := append(wb.Extract(), wb.Flush()...)

	wantFrames := (n-length)/shift + 1
	if len(frames) != wantFrames {
		t.Fatalf("expected %d frames, got %d", wantFrames, len(frames))
	}
	if frames[0].Timestamp.Start != 0 || frames[0].Timestamp.End != 0.025 {
		t.Fatalf("frame 0: expected [0.000,0.025), got [%v,%v)", frames[0].Timestamp.Start, frames[0].Timestamp.End)
	}
	if frames[1].Timestamp.Start != 0.010 || frames[1].Timestamp.End != 0.035 {
		t.Fatalf("frame 1: expected [0.010,0.035), got [%v,%v)", frames[1].Timestamp.Start, frames[1].Timestamp.End)
	}
	for _, f := range frames {
		if len(f.Values) != length {
			t.Fatalf("expected frame length %d, got %d", length, len(f.Values))
		}
		for _, v := range f.Values {
			if v != 1.0 {
				t.Fatalf("expected all-ones frame, got %v", f.Values)
			}
		}
	}
}

func TestFlushAllEmitsShorterTailFrames(t *testing.T) {
	wb := winbuf.New(4, 2, 1.0)
	wb.FlushAll = true
	vec := packet.NewFloat64Vector(packet.Timestamp{Start: 0, End: 5}, 1, 2, 3, 4, 5)
	wb.Put(vec)
	frames := wb.Flush()
	if len(frames) == 0 {
		t.Fatal("expected at least one frame")
	}
	last := frames[len(frames)-1]
	if len(last.Values) == 0 || len(last.Values) > 4 {
		t.Fatalf("unexpected tail frame length %d", len(last.Values))
	}
}

func TestFlushWithoutFlushAllDiscardsResidue(t *testing.T) {
	wb := winbuf.New(4, 2, 1.0)
	vec := packet.NewFloat64Vector(packet.Timestamp{Start: 0, End: 5}, 1, 2, 3, 4, 5)
	wb.Put(vec)
	frames := wb.Flush()
	for _, f := range frames {
		if len(f.Values) != 4 {
			t.Fatalf("expected only full-length frames, got length %d", len(f.Values))
		}
	}
}

func TestWindowFunctionsApplyWeights(t *testing.T) {
	wb := winbuf.New(4, 4, 1.0)
	w := winbuf.NewWindow(wb, winbuf.Hamming)
	vec := packet.NewFloat64Vector(packet.Timestamp{Start: 0, End: 4}, 1, 1, 1, 1)
	w.Put(vec)
	// A single length=4 frame never reaches the 2*max(shift,length)=8
	// readiness gate Extract enforces; Flush bypasses it to drain the tail.
	frames := w.Flush()
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if frames[0].Values[0] == 1.0 {
		t.Fatalf("expected Hamming window to taper the first sample, got unchanged %v", frames[0].Values[0])
	}
}

// TestExtractWithholdsFramesBelowReadyThreshold exercises the
// 2*max(Shift,Length) gate when samples arrive incrementally in small
// Puts, the path filters/filters.go's windowNode.Work actually drives:
// no frame should be emitted until the buffer has accumulated enough
// samples to guarantee a later, possibly non-contiguous Put could still
// be absorbed without invalidating an already-emitted frame.
func TestExtractWithholdsFramesBelowReadyThreshold(t *testing.T) {
	const sampleRate = 1.0
	const length = 4
	const shift = 2
	// threshold = 2*max(shift,length) = 8
	wb := winbuf.New(length, shift, sampleRate)

	put := func(start float64, vals ...float64) []winbuf.Frame {
		vec := packet.NewFloat64Vector(packet.Timestamp{Start: start, End: start + float64(len(vals))}, vals...)
		wb.Put(vec)
		return wb.Extract()
	}

	if frames := put(0, 1, 2); len(frames) != 0 {
		t.Fatalf("expected no frames below readyThreshold (2 samples), got %d", len(frames))
	}
	if frames := put(2, 3, 4); len(frames) != 0 {
		t.Fatalf("expected no frames below readyThreshold (4 samples), got %d", len(frames))
	}
	if frames := put(4, 5, 6); len(frames) != 0 {
		t.Fatalf("expected no frames below readyThreshold (6 samples), got %d", len(frames))
	}
	// 8th sample crosses the threshold: exactly one length=4 frame is
	// now safe to emit (after the shift 6 samples remain, so a second
	// frame waits for two more samples, 10 in all).
	frames := put(6, 7, 8)
	if len(frames) != 1 {
		t.Fatalf("expected exactly 1 frame once readyThreshold (8 samples) is reached, got %d", len(frames))
	}
	if frames[0].Values[0] != 1 || frames[0].Values[3] != 4 {
		t.Fatalf("expected first frame [1,2,3,4], got %v", frames[0].Values)
	}

	// Flush drains the remainder regardless of the gate.
	rest := wb.Flush()
	if len(rest) == 0 {
		t.Fatal("expected Flush to drain the remaining full-length frame(s)")
	}
}
