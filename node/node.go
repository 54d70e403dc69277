// Package node defines the contract every filter implements: named
// ports, demand-driven work(), dynamic parameter updates, attribute
// propagation and the parameter-expression subsystem ($(name),
// $input(port)).
package node

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/rwthflow/flow/attrs"
	"github.com/rwthflow/flow/cmn/cos"
	"github.com/rwthflow/flow/cmn/nlog"
	"github.com/rwthflow/flow/metrics"
	"github.com/rwthflow/flow/packet"
	"github.com/rwthflow/flow/port"
	"github.com/rwthflow/flow/registry"
)

// recorder is the process-wide metrics sink every node's produced
// packets are reported to; nil until a driver calls UseMetrics, and
// every *metrics.Registry method is nil-receiver safe, so PutData never
// needs its own guard.
var recorder *metrics.Registry

// UseMetrics installs the metrics.Registry every Base.PutData call
// reports to. Call once, before the engine starts pulling packets.
func UseMetrics(r *metrics.Registry) { recorder = r }

// Node is the contract every concrete filter and the Network composite
// implement (spec.md §4.3/§4.4).
type Node interface {
	Name() string
	NInputs() int
	NOutputs() int
	InputPort(name string) (*port.Port, bool)
	OutputPort(name string) (*port.Port, bool)
	NameToInputPort(index int) (*port.Port, bool)
	NameToOutputPort(index int) (*port.Port, bool)

	// Configure evaluates upstream attributes and publishes per-output
	// attributes; it returns false on a configuration error (recorded via
	// Base.RecordErr).
	Configure() bool

	// Work must produce exactly one packet on out (via PutData) and may
	// emit additional packets on other ports. Returns false on
	// end-of-stream/error, having emitted EOS.
	Work(out *port.Port) bool

	// SetParameter applies a dynamic parameter update; returns true iff
	// name is recognized.
	SetParameter(name, value string) bool
}

// Base is embedded by every concrete filter; it implements the port
// bookkeeping and the get_data/put_data/configure_datatype/attribute
// propagation machinery common to all nodes (spec.md §4.3/§4.4), leaving
// Work/SetParameter/Configure's filter-specific body to the embedder.
type Base struct {
	name    string
	inputs  []*port.Port
	outputs []*port.Port
	errs    cos.Errs
	sealed  bool // true once Work has been called on any output

	paramPorts    map[string]*port.Port // $input(name) placeholder -> its extra input port
	paramBindings []*paramBinding
}

// paramBinding is one parameter expression a node has registered that
// references at least one $input(port) placeholder (spec.md §4.4).
type paramBinding struct {
	key          string
	expr         *Expression
	refs         []string
	current      map[string]string // $input(port) name -> most recently observed value
	configLookup func(string) (string, bool)
	apply        func(string) error
}

// OpenInputParam lazily adds (and returns) the extra input port a
// $input(name) placeholder requires, supplying a timestamped string
// packet (spec.md §4.4: "opens an extra input port per $input(name)
// placeholder"). Idempotent, so two parameters referencing the same
// port name share one.
func (b *Base) OpenInputParam(name string) *port.Port {
	if b.paramPorts == nil {
		b.paramPorts = make(map[string]*port.Port)
	}
	if p, ok := b.paramPorts[name]; ok {
		return p
	}
	p, err := b.AddInput(name, packet.StringDT)
	if err != nil {
		b.RecordErr(err)
		return nil
	}
	b.paramPorts[name] = p
	return p
}

// BindParam registers a parameter expression that references at least
// one $input(port) placeholder, opening the port(s) it needs and
// recording apply for ResolveParams to call once a covering value has
// arrived on every referenced port. No-op for an expression with no
// $input() references.
func (b *Base) BindParam(key string, expr *Expression, configLookup func(string) (string, bool), apply func(string) error) {
	refs := expr.InputRefs()
	if len(refs) == 0 {
		return
	}
	for _, ref := range refs {
		b.OpenInputParam(ref)
	}
	b.paramBindings = append(b.paramBindings, &paramBinding{
		key:          key,
		expr:         expr,
		refs:         refs,
		current:      make(map[string]string),
		configLookup: configLookup,
		apply:        apply,
	})
}

// ResolveParams drains whatever is currently pending on every
// $input(port) this node has bound a parameter to, and re-applies any
// binding whose substituted string can be recomputed as a result
// (spec.md §4.4's "resolves and returns the substituted string", seed
// scenario 6: a feature packet re-resolves `file="$input(warp).matrix"`
// against whichever warp-factor string most recently arrived). Filters
// built on a $input-capable parameter call this once per Work, before
// consuming the parameter's current value.
func (b *Base) ResolveParams() {
	for _, pb := range b.paramBindings {
		changed := false
		for _, ref := range pb.refs {
			p := b.paramPorts[ref]
			for p.IsDataAvailable() {
				r, ok := GetData(p, nil)
				if !ok {
					break
				}
				sp, r2 := packet.Downcast[*packet.StringPacket](r)
				if r2.IsSentinel() {
					break
				}
				pb.current[ref] = sp.Value
				r2.Release()
				changed = true
			}
		}
		if !changed {
			continue
		}
		lookup := func(name string) (string, bool) {
			v, ok := pb.current[name]
			return v, ok
		}
		configResolved, err := pb.expr.ResolveConfig(pb.configLookup)
		if err != nil {
			b.RecordErr(errors.Wrapf(err, "parameter %q", pb.key))
			continue
		}
		resolved, err := ResolveInput(configResolved, lookup)
		if err != nil {
			continue // not every $input(port) has a value yet
		}
		if err := pb.apply(resolved); err != nil {
			b.RecordErr(errors.Wrapf(err, "parameter %q", pb.key))
		}
	}
}

// ParamBinder is satisfied by any node.Node embedding *Base, letting
// Network wire a $input(port)-referencing parameter expression into
// that node's per-packet resolution without a Network needing to know
// the node's concrete type.
type ParamBinder interface {
	BindParam(key string, expr *Expression, configLookup func(string) (string, bool), apply func(string) error)
}

func NewBase(name string) *Base {
	return &Base{name: name}
}

func (b *Base) Name() string { return b.name }

// AddInput appends a new input port; dynamic port creation is only
// legal before the node is sealed (spec.md §9's "once work has been
// called on any output, ports are sealed").
func (b *Base) AddInput(name string, dt *registry.Datatype) (*port.Port, error) {
	if b.sealed {
		return nil, fmt.Errorf("node %q: cannot add input %q after work() has sealed ports", b.name, name)
	}
	p := port.NewInput(name, len(b.inputs), dt)
	b.inputs = append(b.inputs, p)
	return p, nil
}

func (b *Base) AddOutput(name string, dt *registry.Datatype) (*port.Port, error) {
	if b.sealed {
		return nil, fmt.Errorf("node %q: cannot add output %q after work() has sealed ports", b.name, name)
	}
	p := port.NewOutput(name, len(b.outputs), dt)
	b.outputs = append(b.outputs, p)
	return p, nil
}

func (b *Base) NInputs() int  { return len(b.inputs) }
func (b *Base) NOutputs() int { return len(b.outputs) }

func (b *Base) InputPort(name string) (*port.Port, bool) {
	for _, p := range b.inputs {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func (b *Base) OutputPort(name string) (*port.Port, bool) {
	for _, p := range b.outputs {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func (b *Base) NameToInputPort(index int) (*port.Port, bool) {
	if index < 0 || index >= len(b.inputs) {
		return nil, false
	}
	return b.inputs[index], true
}

func (b *Base) NameToOutputPort(index int) (*port.Port, bool) {
	if index < 0 || index >= len(b.outputs) {
		return nil, false
	}
	return b.outputs[index], true
}

// RecordErr appends a configuration error to the node's delayed-error
// channel (spec.md §7: "collected in a per-component delayed-error
// channel and reported at end of configuration").
func (b *Base) RecordErr(err error) {
	if err == nil {
		return
	}
	b.errs.Add(err)
	nlog.Errorf("node %q: %v", b.name, err)
}

func (b *Base) Errs() error {
	_, err := b.errs.JoinErr()
	return err
}

// ConfigureDatatype reads attrs["datatype"], resolves it in the
// datatype registry, and records a configuration error if it does not
// match expected.
func (b *Base) ConfigureDatatype(a *attrs.Attributes, expected *registry.Datatype) (*registry.Datatype, bool) {
	name, ok := a.Get(attrs.Datatype)
	if !ok {
		b.RecordErr(fmt.Errorf("missing %q attribute", attrs.Datatype))
		return nil, false
	}
	dt, ok := registry.GetDatatype(name)
	if !ok {
		b.RecordErr(fmt.Errorf("unknown datatype %q", name))
		return nil, false
	}
	if expected != nil && dt != expected {
		b.RecordErr(fmt.Errorf("datatype mismatch: got %q, want %q", dt.Name, expected.Name))
		return dt, false
	}
	return dt, true
}

// GetInputAttributes lazily triggers the upstream node's Configure if
// the input link has no attributes cached yet; on upstream failure it
// fabricates an empty attribute bag and logs, per spec.md §4.4.
func (b *Base) GetInputAttributes(in *port.Port, upstreamConfigure func() bool) *attrs.Attributes {
	a := in.Attributes()
	if a != nil && a.Len() > 0 {
		return a
	}
	if upstreamConfigure != nil && !upstreamConfigure() {
		nlog.Warningf("node %q: upstream configure failed for input %q, using empty attributes", b.name, in.Name)
	}
	a = in.Attributes()
	if a == nil {
		a = attrs.New()
		in.SetAttributes(a)
	}
	return a
}

// PutOutputAttributes sets a on out. Packets already buffered on out's
// attached links are left in place; they are not cleared.
func (b *Base) PutOutputAttributes(out *port.Port, a *attrs.Attributes) {
	out.SetAttributes(a)
}

// EraseOutputAttributes recursively wipes attributes on every
// downstream link reachable from out, signalling a needed reconfigure;
// walk is supplied by the caller (Network owns the link graph).
func (b *Base) EraseOutputAttributes(out *port.Port, walk func(*port.Port)) {
	if walk != nil {
		walk(out)
	}
}

// GetData pulls from an input link (spec.md §4.3): if data is cached it
// is handed off directly; otherwise upstreamWork is invoked (the driver
// calling Work on the upstream node) and the pull retried once.
func GetData(in *port.Port, upstreamWork func() bool) (packet.Ref, bool) {
	if in.IsDataAvailable() {
		r, err := in.Get()
		if err != nil {
			return packet.Empty(), false
		}
		return r, true
	}
	if upstreamWork == nil || !upstreamWork() {
		return packet.Empty(), false
	}
	r, err := in.Get()
	if err != nil {
		return packet.Empty(), false
	}
	return r, true
}

// PutData fans r out to every link attached to out, sealing the node's
// ports against further AddInput/AddOutput calls.
func (b *Base) PutData(out *port.Port, r packet.Ref) error {
	b.sealed = true
	recorder.PacketProduced(b.name)
	return out.Put(r)
}

// PutEOS/PutOOD forward the corresponding sentinel to out.
func (b *Base) PutEOS(out *port.Port) error { return b.PutData(out, packet.New(packet.EOS)) }
func (b *Base) PutOOD(out *port.Port) error { return b.PutData(out, packet.New(packet.OOD)) }

// Linker re-exports port.Linker, the subset of *link.Link a port talks
// to; Base itself does not call it.
type Linker = port.Linker
