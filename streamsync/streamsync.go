// Package streamsync implements the three stream-alignment algorithms
// of spec.md §4.8: Synchronization (align an input stream to a target
// stream by timestamp), TimestampCopy, and RepeatingFramePrediction.
package streamsync

import (
	"fmt"

	"github.com/rwthflow/flow/packet"
)

const tolerance = 1e-6

// Synchronizer aligns an input stream to a target stream by start time.
// Input start-times must be strictly monotonically increasing (checked
// on every Next call); a mismatch between available input and target
// start-times fails unless IgnoreErrors is set, in which case the
// caller should emit EOS.
type Synchronizer struct {
	IgnoreErrors bool

	lastInputStart float64
	haveLast       bool
}

// Next consumes from nextInput (a pull function returning the next
// input packet's timestamp and payload in stream order) until it finds
// one whose start time matches targetStart within tolerance, discarding
// earlier packets. ok is false either on an unrecoverable mismatch (err
// set, "no element with start-time s") or, under IgnoreErrors, to
// signal the caller should emit EOS (err nil in that case).
func (s *Synchronizer) Next(targetStart float64, nextInput func() (packet.Timestamp, packet.Data, bool)) (packet.Data, bool, error) {
	for {
		ts, in, ok := nextInput()
		if !ok {
			if s.IgnoreErrors {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("streamsync: no element with start-time %v", targetStart)
		}
		start := ts.Start
		if s.haveLast && start <= s.lastInputStart+tolerance {
			return nil, false, fmt.Errorf("streamsync: input start-times must be strictly monotonically increasing, got %v after %v", start, s.lastInputStart)
		}
		s.lastInputStart = start
		s.haveLast = true

		if start < targetStart-tolerance {
			continue // discard packets whose start is significantly less than target
		}
		if start <= targetStart+tolerance {
			return in, true, nil
		}
		// start > targetStart: no matching input exists for this target.
		if s.IgnoreErrors {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("streamsync: no element with start-time %v", targetStart)
	}
}

// TimestampCopy returns target, the timestamp in's payload should be
// re-emitted under ("emits the next input packet with its timestamp
// overwritten by the target's").
func TimestampCopy(target packet.Timestamp) packet.Timestamp { return target }

// FramePredictor keeps the most recently observed input packet and, for
// each target time, either emits the exact input (when
// PredictOnlyMissing and the latest input's start equals the target) or
// repeats the most recent prior input with a patched timestamp.
type FramePredictor struct {
	PredictOnlyMissing bool
	SyncEndTimes       bool

	have       bool
	latest     packet.Timestamp
	latestData packet.Data
}

// Observe records the most recently seen input packet.
func (f *FramePredictor) Observe(ts packet.Timestamp, data packet.Data) {
	f.latest = ts
	f.latestData = data
	f.have = true
}

// Predict returns the packet to emit for targetStart/targetEnd: either
// the exact just-observed input (PredictOnlyMissing with matching
// start), or the most recent prior input's payload with a patched
// timestamp.
func (f *FramePredictor) Predict(targetStart, targetEnd float64) (packet.Data, packet.Timestamp, error) {
	if !f.have {
		return nil, packet.Timestamp{}, fmt.Errorf("streamsync: RepeatingFramePrediction has no prior input to repeat")
	}
	if f.PredictOnlyMissing && ulpClose(f.latest.Start, targetStart) {
		return f.latestData, f.latest, nil
	}
	end := targetStart
	if f.SyncEndTimes {
		end = targetEnd
	}
	return f.latestData, packet.Timestamp{Start: targetStart, End: end}, nil
}

func ulpClose(a, b float64) bool {
	t := packet.Timestamp{Start: a, End: a}
	o := packet.Timestamp{Start: b, End: b}
	return t.Equal(o)
}
