package packet_test

import (
	"bytes"
	"testing"

	"github.com/rwthflow/flow/packet"
)

func TestTimestampContainsAndOverlaps(t *testing.T) {
	ts := packet.Timestamp{Start: 0.01, End: 0.035}
	if !ts.Contains(0.02) {
		t.Fatalf("expected 0.02 to be contained in %v", ts)
	}
	if ts.Contains(0.035) {
		t.Fatalf("end bound is exclusive, 0.035 should not be contained in %v", ts)
	}
	other := packet.Timestamp{Start: 0.03, End: 0.05}
	if !ts.Overlaps(other) {
		t.Fatalf("expected overlap between %v and %v", ts, other)
	}
}

func TestTimestampULPEquality(t *testing.T) {
	a := packet.Timestamp{Start: 0.01, End: 0.035}
	b := packet.Timestamp{Start: 0.01 + 1e-17, End: 0.035}
	if !a.Equal(b) {
		t.Fatalf("expected %v to ULP-equal %v", a, b)
	}
	c := packet.Timestamp{Start: 0.02, End: 0.035}
	if a.Equal(c) {
		t.Fatalf("did not expect %v to ULP-equal %v", a, c)
	}
}

func TestInvalidTimestamp(t *testing.T) {
	inv := packet.InvalidTimestamp()
	if inv.IsValid() {
		t.Fatalf("expected invalid timestamp to report invalid")
	}
}

func TestVectorBinaryRoundTrip(t *testing.T) {
	v := packet.NewFloat32Vector(packet.Timestamp{Start: 0, End: 0.025}, 1, 2, 3, 4.5)
	var buf bytes.Buffer
	if err := v.Write(&buf); err != nil {
		t.Fatal(err)
	}
	got := &packet.Vector[float32]{}
	// Read doesn't need dt set for decoding values; set it to compare equality.
	if err := got.Read(&buf); err != nil {
		t.Fatal(err)
	}
	got2 := packet.NewFloat32Vector(v.Timestamp, got.Values...)
	if !v.Equals(got2) {
		t.Fatalf("round trip mismatch: %v != %v", v.Values, got2.Values)
	}
}

func TestGatheredRoundTrip(t *testing.T) {
	items := []packet.Data{
		packet.NewFloat64Vector(packet.Timestamp{Start: 0, End: 1}, 1, 2),
		packet.NewFloat64Vector(packet.Timestamp{Start: 1, End: 2}, 3, 4),
	}
	var buf bytes.Buffer
	if err := packet.WriteGathered(&buf, packet.Float64VectorDT, items); err != nil {
		t.Fatal(err)
	}
	out, err := packet.ReadGathered(&buf, packet.Float64VectorDT)
	if err != nil {
		t.Fatal(err)
	}
	if !packet.EqualGathered(items, out) {
		t.Fatalf("gathered round trip mismatch")
	}
}

func TestAggregateHomogeneousRoundTrip(t *testing.T) {
	agg := packet.NewAggregate(packet.Timestamp{Start: 0, End: 2},
		packet.NewFloat32Vector(packet.Timestamp{Start: 0, End: 1}, 1),
		packet.NewFloat32Vector(packet.Timestamp{Start: 1, End: 2}, 2),
	)
	var buf bytes.Buffer
	if err := agg.Write(&buf); err != nil {
		t.Fatal(err)
	}
	got := &packet.Aggregate{}
	if err := got.Read(&buf); err != nil {
		t.Fatal(err)
	}
	if !agg.Equals(got) {
		t.Fatalf("aggregate round trip mismatch")
	}
}

func TestAggregatePolymorphicRoundTrip(t *testing.T) {
	agg := packet.NewAggregate(packet.Timestamp{Start: 0, End: 2},
		packet.NewFloat32Vector(packet.Timestamp{Start: 0, End: 1}, 1),
		packet.NewStringPacket(packet.Timestamp{Start: 1, End: 2}, "warp=0.9"),
	)
	var buf bytes.Buffer
	if err := agg.Write(&buf); err != nil {
		t.Fatal(err)
	}
	got := &packet.Aggregate{}
	if err := got.Read(&buf); err != nil {
		t.Fatal(err)
	}
	if !agg.Equals(got) {
		t.Fatalf("polymorphic aggregate round trip mismatch")
	}
}

func TestSentinelsAreImmortalAndPointerUnique(t *testing.T) {
	if packet.Sentinel == packet.EOS || packet.EOS == packet.OOD || packet.Sentinel == packet.OOD {
		t.Fatalf("sentinels must be pointer-distinct")
	}
	r := packet.New(packet.EOS)
	for i := 0; i < 5; i++ {
		r = r.Retain()
	}
	if r.RefCount() != 0 {
		t.Fatalf("sentinel refcount must stay 0, got %d", r.RefCount())
	}
}

func TestRefMakePrivateCopiesOnShare(t *testing.T) {
	v := packet.NewFloat32Vector(packet.Timestamp{Start: 0, End: 1}, 1, 2, 3)
	r1 := packet.New(v)
	r2 := r1.Retain()
	if r1.RefCount() != 2 {
		t.Fatalf("expected refcount 2, got %d", r1.RefCount())
	}
	priv := r1.MakePrivate()
	got, _ := packet.Downcast[*packet.Vector[float32]](priv)
	if got == v {
		t.Fatalf("MakePrivate should have cloned while shared")
	}
	_ = r2
}

func TestRefTakeSoleRequiresExclusiveOwnership(t *testing.T) {
	v := packet.NewFloat32Vector(packet.Timestamp{Start: 0, End: 1}, 1)
	r := packet.New(v)
	if _, ok := r.TakeSole(); !ok {
		t.Fatalf("expected sole ownership to succeed")
	}
	r2 := packet.New(v)
	shared := r2.Retain()
	if _, ok := r2.TakeSole(); ok {
		t.Fatalf("did not expect TakeSole to succeed while shared")
	}
	_ = shared
}

func TestDowncastFallsBackToSentinel(t *testing.T) {
	r := packet.New(packet.NewStringPacket(packet.Timestamp{}, "x"))
	_, got := packet.Downcast[*packet.Vector[float32]](r)
	if !got.IsSentinel() {
		t.Fatalf("expected downcast mismatch to fall back to sentinel")
	}
}
