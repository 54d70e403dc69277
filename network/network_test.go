package network

import (
	"strings"
	"sync"
	"testing"

	"github.com/rwthflow/flow/filters"
	"github.com/rwthflow/flow/link"
	"github.com/rwthflow/flow/packet"
	"github.com/rwthflow/flow/port"
)

var registerOnce sync.Once

func ensureFiltersRegistered() {
	registerOnce.Do(filters.Register)
}

// wire attaches a Fast link between an output and input port, as Build
// would for an internal link, so a network's aliased external ports can
// be driven directly in a test.
func wire(t *testing.T, out, in *port.Port) {
	t.Helper()
	l := link.New(out.Datatype, link.Fast)
	if err := out.Attach(l); err != nil {
		t.Fatalf("attach output: %v", err)
	}
	if err := in.Attach(l); err != nil {
		t.Fatalf("attach input: %v", err)
	}
}

// flowDoc mirrors spec.md §6's literal example, with window length/shift
// expressed in samples (this codebase's windowNode SetParameter contract)
// rather than the seconds the illustrative spec text uses.
const flowDoc = `<network name="front-end" threaded="false">
  <param name="alpha"/>
  <in name="samples"/>
  <out name="features"/>
  <node name="preemph" filter="signal-preemphasis" alpha="$(alpha)"/>
  <node name="win" filter="signal-window" length="400" shift="160"/>
  <node name="fft" filter="signal-real-fast-fourier-transform"/>
  <link from="network:samples" to="preemph"/>
  <link from="preemph" to="win"/>
  <link from="win" to="fft"/>
  <link from="fft" to="network:features"/>
</network>`

func TestParseFlowProducesExpectedTemplateShape(t *testing.T) {
	tpl, err := ParseFlow(strings.NewReader(flowDoc))
	if err != nil {
		t.Fatalf("ParseFlow: %v", err)
	}
	if tpl.Name != "front-end" {
		t.Fatalf("name = %q", tpl.Name)
	}
	if len(tpl.Ins) != 1 || tpl.Ins[0].Name != "samples" {
		t.Fatalf("ins = %+v", tpl.Ins)
	}
	if len(tpl.Outs) != 1 || tpl.Outs[0].Name != "features" {
		t.Fatalf("outs = %+v", tpl.Outs)
	}
	if len(tpl.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(tpl.Nodes))
	}
	if len(tpl.Links) != 4 {
		t.Fatalf("expected 4 links, got %d", len(tpl.Links))
	}
	pre := tpl.Nodes[0]
	if pre.Filter != "signal-preemphasis" || pre.Params["alpha"] != "$(alpha)" {
		t.Fatalf("unexpected preemph decl: %+v", pre)
	}
}

func TestBuildAssemblesAndDrivesATrivialNetwork(t *testing.T) {
	ensureFiltersRegistered()
	tpl, err := ParseFlow(strings.NewReader(flowDoc))
	if err != nil {
		t.Fatalf("ParseFlow: %v", err)
	}
	resolver := NewResolver(nil, ".flow")
	net, err := Build(tpl, resolver, "", false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	inPort, ok := net.InputPort("samples")
	if !ok {
		t.Fatal("expected an aliased samples input port")
	}
	outPort, ok := net.OutputPort("features")
	if !ok {
		t.Fatal("expected an aliased features output port")
	}

	srcOut := port.NewOutput("src", 0, packet.Float64VectorDT)
	sinkIn := port.NewInput("sink", 0, packet.Float64VectorDT)
	wire(t, srcOut, inPort)
	wire(t, outPort, sinkIn)

	srcOut.Put(packet.New(packet.NewFloat64Vector(packet.Timestamp{Start: 0, End: 1}, 1)))
	if !net.Work(outPort) {
		t.Fatalf("Work failed: %v", net.Errs())
	}
	r, err := sinkIn.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// A single sample cannot fill the 400-sample window yet, so the
	// window node reports a transient stall that propagates through fft
	// unchanged - this still proves the whole chain pulled correctly.
	if !r.IsOOD() {
		t.Fatalf("expected a transient-stall sentinel through the not-yet-full window, got %v", r.Get())
	}
}

func TestNetworkSetParameterWalksDependents(t *testing.T) {
	ensureFiltersRegistered()
	tpl, err := ParseFlow(strings.NewReader(flowDoc))
	if err != nil {
		t.Fatalf("ParseFlow: %v", err)
	}
	net, err := Build(tpl, NewResolver(nil, ".flow"), "", false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !net.SetParameter("alpha", "0.5") {
		t.Fatal("expected alpha to have a registered dependent")
	}
	if net.SetParameter("not-a-real-param", "1") {
		t.Fatal("expected an unknown parameter name to be rejected")
	}
}
