package node_test

import (
	"testing"

	"github.com/rwthflow/flow/attrs"
	"github.com/rwthflow/flow/link"
	"github.com/rwthflow/flow/node"
	"github.com/rwthflow/flow/packet"
)

func TestAddPortsAndLookup(t *testing.T) {
	b := node.NewBase("preemph")
	in, err := b.AddInput("samples", packet.Float32VectorDT)
	if err != nil {
		t.Fatal(err)
	}
	out, err := b.AddOutput("out", packet.Float32VectorDT)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := b.InputPort("samples"); !ok || got != in {
		t.Fatalf("expected InputPort to find %v", in)
	}
	if got, ok := b.OutputPort("out"); !ok || got != out {
		t.Fatalf("expected OutputPort to find %v", out)
	}
	if b.NInputs() != 1 || b.NOutputs() != 1 {
		t.Fatalf("expected 1 input and 1 output, got %d/%d", b.NInputs(), b.NOutputs())
	}
}

func TestConfigureDatatypeMismatchRecordsError(t *testing.T) {
	b := node.NewBase("n")
	a := attrs.New()
	a.Set(attrs.Datatype, packet.Float64VectorDT.Name)
	_, ok := b.ConfigureDatatype(a, packet.Float32VectorDT)
	if ok {
		t.Fatal("expected datatype mismatch to fail")
	}
	if b.Errs() == nil {
		t.Fatal("expected recorded configuration error")
	}
}

func TestConfigureDatatypeMatch(t *testing.T) {
	b := node.NewBase("n")
	a := attrs.New()
	a.Set(attrs.Datatype, packet.Float32VectorDT.Name)
	dt, ok := b.ConfigureDatatype(a, packet.Float32VectorDT)
	if !ok || dt != packet.Float32VectorDT {
		t.Fatalf("expected successful datatype match, got %v/%v", dt, ok)
	}
}

func TestGetDataPullsThroughUpstreamWork(t *testing.T) {
	b := node.NewBase("n")
	in, _ := b.AddInput("in", packet.Float32VectorDT)
	l := link.New(packet.Float32VectorDT, link.Fast)
	if err := in.Attach(l); err != nil {
		t.Fatal(err)
	}
	calledUpstream := false
	upstreamWork := func() bool {
		calledUpstream = true
		_ = l.Put(packet.New(packet.NewFloat32Vector(packet.Timestamp{Start: 0, End: 1}, 1)))
		return true
	}
	r, ok := node.GetData(in, upstreamWork)
	if !ok {
		t.Fatal("expected GetData to succeed")
	}
	if !calledUpstream {
		t.Fatal("expected upstream work to be invoked when no data cached")
	}
	v, _ := packet.Downcast[*packet.Vector[float32]](r)
	if v.Values[0] != 1 {
		t.Fatalf("unexpected payload %v", v)
	}
}

func TestPutDataSealsPorts(t *testing.T) {
	b := node.NewBase("n")
	out, _ := b.AddOutput("out", packet.Float32VectorDT)
	if err := b.PutData(out, packet.New(packet.NewFloat32Vector(packet.Timestamp{Start: 0, End: 1}, 1))); err != nil {
		t.Fatal(err)
	}
	if _, err := b.AddInput("late", packet.Float32VectorDT); err == nil {
		t.Fatal("expected AddInput to fail after ports are sealed")
	}
}
