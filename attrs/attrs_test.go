package attrs_test

import (
	"bytes"
	"testing"

	"github.com/rwthflow/flow/attrs"
)

func TestLexicalOrderIndependentOfInsertion(t *testing.T) {
	a := attrs.New()
	a.Set(attrs.SampleRate, "16000")
	a.Set(attrs.Datatype, "flow-vector-f32")

	b := attrs.New()
	b.Set(attrs.Datatype, "flow-vector-f32")
	b.Set(attrs.SampleRate, "16000")

	if a.Names()[0] != b.Names()[0] {
		t.Fatalf("expected matching lexical name order, got %v vs %v", a.Names(), b.Names())
	}
	if a.Names()[0] != attrs.Datatype {
		t.Fatalf("expected %q first lexically, got %q", attrs.Datatype, a.Names()[0])
	}
}

func TestXMLRoundTrip(t *testing.T) {
	a := attrs.New()
	a.Set(attrs.SampleRate, "16000")
	a.Set(attrs.FrameShift, "0.010")

	var buf bytes.Buffer
	if err := a.WriteXML(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := attrs.ReadXML(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equals(got) {
		t.Fatalf("round trip mismatch: %v != %v", a.Names(), got.Names())
	}
}

func TestMergeOverridesOnCollision(t *testing.T) {
	a := attrs.New()
	a.Set(attrs.SampleRate, "8000")
	over := attrs.New()
	over.Set(attrs.SampleRate, "16000")
	a.Merge(over)
	v, _ := a.Get(attrs.SampleRate)
	if v != "16000" {
		t.Fatalf("expected merge to override sample-rate, got %q", v)
	}
}

func TestEraseRemovesKey(t *testing.T) {
	a := attrs.New()
	a.Set(attrs.Datatype, "flow-string")
	a.Erase(attrs.Datatype)
	if a.Has(attrs.Datatype) {
		t.Fatalf("expected datatype to be erased")
	}
}
