package streamsync_test

import (
	"testing"

	"github.com/rwthflow/flow/packet"
	"github.com/rwthflow/flow/streamsync"
)

func TestSynchronizationSeedScenario(t *testing.T) {
	inputStarts := []float64{0.00, 0.01, 0.02, 0.03}
	targets := []float64{0.01, 0.03}

	idx := 0
	nextInput := func() (packet.Timestamp, packet.Data, bool) {
		if idx >= len(inputStarts) {
			return packet.Timestamp{}, nil, false
		}
		s := inputStarts[idx]
		d := packet.NewFloat64Vector(packet.Timestamp{Start: s, End: s + 0.01}, float64(idx))
		idx++
		return d.Timestamp, d, true
	}

	sync := &streamsync.Synchronizer{}
	var gotStarts []float64
	var gotIndices []float64
	for _, target := range targets {
		d, ok, err := sync.Next(target, nextInput)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("expected match for target %v", target)
		}
		v := d.(*packet.Vector[float64])
		gotStarts = append(gotStarts, v.Start)
		gotIndices = append(gotIndices, v.Values[0])
	}
	want := []float64{0.01, 0.03}
	for i, w := range want {
		if gotStarts[i] != w {
			t.Fatalf("output start %d: want %v, got %v", i, w, gotStarts[i])
		}
	}
	wantIdx := []float64{1, 3}
	for i, w := range wantIdx {
		if gotIndices[i] != w {
			t.Fatalf("output value %d: want index %v, got %v", i, w, gotIndices[i])
		}
	}
}

func TestRepeatingFramePredictionSeedScenario(t *testing.T) {
	fp := &streamsync.FramePredictor{PredictOnlyMissing: true, SyncEndTimes: false}
	inputs := map[float64]string{0.00: "A", 0.02: "B"}
	targets := []float64{0.00, 0.01, 0.02, 0.03}
	want := []string{"A", "A", "B", "B"}

	var got []string
	for _, target := range targets {
		if v, ok := inputs[target]; ok {
			fp.Observe(packet.Timestamp{Start: target, End: target + 0.02}, packet.NewStringPacket(packet.Timestamp{Start: target, End: target + 0.02}, v))
		}
		d, _, err := fp.Predict(target, target+0.01)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, d.(*packet.StringPacket).Value)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("target %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSynchronizationRejectsNonMonotonicInput(t *testing.T) {
	calls := 0
	starts := []float64{0.02, 0.01}
	nextInput := func() (packet.Timestamp, packet.Data, bool) {
		if calls >= len(starts) {
			return packet.Timestamp{}, nil, false
		}
		s := starts[calls]
		calls++
		d := packet.NewFloat64Vector(packet.Timestamp{Start: s, End: s + 0.01})
		return d.Timestamp, d, true
	}
	sync := &streamsync.Synchronizer{}
	_, _, err := sync.Next(0.02, nextInput)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = sync.Next(0.01, nextInput)
	if err == nil {
		t.Fatal("expected non-monotonic input to be rejected")
	}
}

func TestSynchronizationIgnoreErrorsDegradesToEOS(t *testing.T) {
	nextInput := func() (packet.Timestamp, packet.Data, bool) {
		return packet.Timestamp{}, nil, false
	}
	sync := &streamsync.Synchronizer{IgnoreErrors: true}
	_, ok, err := sync.Next(0.5, nextInput)
	if err != nil {
		t.Fatalf("expected no error under IgnoreErrors, got %v", err)
	}
	if ok {
		t.Fatal("expected ok=false under IgnoreErrors")
	}
}
