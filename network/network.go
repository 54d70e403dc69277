package network

import (
	"fmt"
	"strings"

	"github.com/rwthflow/flow/attrs"
	"github.com/rwthflow/flow/cmn/cos"
	"github.com/rwthflow/flow/cmn/nlog"
	"github.com/rwthflow/flow/node"
	"github.com/rwthflow/flow/packet"
	"github.com/rwthflow/flow/port"
)

// Network is the composite node assembled from one `.flow` document or
// one <network-node> template (spec.md §4.5): it owns a graph of
// internal nodes (built-in filters, nested templates, or further
// sub-networks) and exposes a subset of their ports as its own named
// external inputs/outputs, so a Network is itself a node.Node and
// nests inside a parent Network exactly as any built-in filter would.
//
// Every built-in filter node written so far calls node.GetData with a
// nil upstreamWork callback - they expect the packet already sitting
// on their input link. Network is therefore the single place that
// drives the pull recursion spec.md §4.3 describes in the abstract:
// Work(out) walks the internal graph upstream of out's owning node and
// calls Work, once per node, in dependency order, before calling
// Work on the node that owns out itself.
type Network struct {
	name     string
	threaded bool

	repeaters    map[string]*repeaterNode // external input name -> hidden backing repeater
	inputs       map[string]*port.Port    // external input name -> aliased repeater.in
	inputIndex   []string
	outputs      map[string]*port.Port // external output name -> aliased internal producer out
	outputIndex  []string

	nodeOutputs    map[*port.Port]node.Node // output port -> owning node (internal + repeaters)
	upstreamOutput map[*port.Port]*port.Port // consumer input port -> producer output port, one entry per internal Link

	// forward is the adjacency EraseOutputAttributes walks: an output
	// port's downstream input ports, so erase_output_attributes can
	// propagate a reconfiguration signal across the owned link graph
	// (spec.md §4.4's attribute-erasure contract; Base.EraseOutputAttributes
	// leaves the walk to whichever type owns the link adjacency, which for
	// any internal node is this Network, not the node itself).
	forward map[*port.Port][]*port.Port

	deps         *node.DependencyTracker
	configParams map[string]string

	errs cos.Errs
}

func newNetwork(name string, threaded bool) *Network {
	return &Network{
		name:           name,
		threaded:       threaded,
		inputs:         make(map[string]*port.Port),
		outputs:        make(map[string]*port.Port),
		nodeOutputs:    make(map[*port.Port]node.Node),
		upstreamOutput: make(map[*port.Port]*port.Port),
		forward:        make(map[*port.Port][]*port.Port),
		deps:           node.NewDependencyTracker(),
		configParams:   make(map[string]string),
	}
}

func (net *Network) Name() string { return net.name }
func (net *Network) NInputs() int { return len(net.inputIndex) }
func (net *Network) NOutputs() int { return len(net.outputIndex) }

func (net *Network) InputPort(name string) (*port.Port, bool) {
	p, ok := net.inputs[name]
	return p, ok
}

func (net *Network) OutputPort(name string) (*port.Port, bool) {
	p, ok := net.outputs[name]
	return p, ok
}

func (net *Network) NameToInputPort(index int) (*port.Port, bool) {
	if index < 0 || index >= len(net.inputIndex) {
		return nil, false
	}
	return net.inputs[net.inputIndex[index]], true
}

func (net *Network) NameToOutputPort(index int) (*port.Port, bool) {
	if index < 0 || index >= len(net.outputIndex) {
		return nil, false
	}
	return net.outputs[net.outputIndex[index]], true
}

func (net *Network) RecordErr(err error) {
	if err == nil {
		return
	}
	net.errs.Add(err)
	nlog.Errorf("network %q: %v", net.name, err)
}

func (net *Network) Errs() error {
	_, err := net.errs.JoinErr()
	return err
}

// Configure recursively configures every internal node reachable from
// an external output, in upstream-first order, mirroring Work's
// recursion; a Network has no attributes of its own to publish beyond
// those its internal producers already set on the aliased output ports.
func (net *Network) Configure() bool {
	configured := make(map[node.Node]bool)
	var walk func(n node.Node)
	walk = func(n node.Node) {
		if configured[n] {
			return
		}
		configured[n] = true
		for i := 0; i < n.NInputs(); i++ {
			inPort, _ := n.NameToInputPort(i)
			if outPort, ok := net.upstreamOutput[inPort]; ok {
				walk(net.nodeOutputs[outPort])
			}
		}
		if !n.Configure() {
			net.RecordErr(fmt.Errorf("internal node %q failed to configure", n.Name()))
		}
	}
	for _, name := range net.outputIndex {
		if n, ok := net.nodeOutputs[net.outputs[name]]; ok {
			walk(n)
		}
	}
	return net.Errs() == nil
}

// driveUpstream runs n's transitive upstream producers exactly once
// each (guarded by driven), then calls Work on every one of n's
// outputs that currently has at least one consumer attached - which
// for an embedded sub-network's externally inactive outputs is false
// until ActivateOutput or a real downstream link makes it true.
func (net *Network) driveUpstream(n node.Node, driven map[node.Node]bool) bool {
	if driven[n] {
		return true
	}
	driven[n] = true
	ok := true
	for i := 0; i < n.NInputs(); i++ {
		inPort, _ := n.NameToInputPort(i)
		if outPort, has := net.upstreamOutput[inPort]; has {
			if !net.driveUpstream(net.nodeOutputs[outPort], driven) {
				ok = false
			}
		}
	}
	for i := 0; i < n.NOutputs(); i++ {
		outPort, _ := n.NameToOutputPort(i)
		if !outPort.IsConnected() {
			continue
		}
		if !n.Work(outPort) {
			ok = false
		}
	}
	return ok
}

// Work implements the pull-recursion described above for one external
// output port. out must be one of the literal port objects returned by
// OutputPort/NameToOutputPort.
func (net *Network) Work(out *port.Port) bool {
	n, ok := net.nodeOutputs[out]
	if !ok {
		net.RecordErr(fmt.Errorf("Work called on an output port this network does not own"))
		return false
	}
	return net.driveUpstream(n, make(map[node.Node]bool))
}

// ActivateOutput makes an embedded sub-network's external output
// participate in the pull recursion even when the parent scope never
// wires a real consumer to it, by attaching a discarding sink
// (spec.md §4.5's activate_output). Top-level outputs are already
// wired to a real consumer by the caller and never need this.
func (net *Network) ActivateOutput(name string) bool {
	p, ok := net.outputs[name]
	if !ok {
		return false
	}
	return p.Attach(discardLinker{}) == nil
}

type discardLinker struct{}

func (discardLinker) Put(r packet.Ref) error   { r.Release(); return nil }
func (discardLinker) Get() (packet.Ref, error) { return packet.Empty(), fmt.Errorf("network: discard sink has no data") }
func (discardLinker) IsDataAvailable() bool    { return false }
func (discardLinker) Clear()                   {}

// SetParameter implements Network.set_parameter's dependent-walk
// contract (spec.md §4.5): name must have at least one node parameter
// registered against it (a declared <param> with no dependent is
// rejected); applying
// it re-evaluates every parameter expression registered against name
// and clears the output attributes of every node whose configuration
// changed as a result, so the next Configure recomputes them.
func (net *Network) SetParameter(name, value string) bool {
	if !net.deps.HasDependents(name) {
		return false
	}
	net.configParams[name] = value
	for _, err := range net.deps.Notify(name, value) {
		net.RecordErr(err)
	}
	net.eraseDownstreamOf(name)
	return true
}

// eraseDownstreamOf clears attributes on every output port reachable
// from a node whose parameter just changed, so stale attributes are
// never read by a downstream node before the graph reconfigures
// (Base.EraseOutputAttributes's walk, owned here since Network is the
// only type that holds the full link adjacency).
func (net *Network) eraseDownstreamOf(paramName string) {
	// Conservative: a parameter change on any node is rare enough, and
	// correctness-critical enough, that walking from every internal
	// output touched by this network's own forward adjacency is cheap
	// compared to reasoning about which single node's parameter this
	// particular dependency belongs to.
	visited := make(map[*port.Port]bool)
	var walk func(p *port.Port)
	walk = func(p *port.Port) {
		if visited[p] {
			return
		}
		visited[p] = true
		p.SetAttributes(attrs.New())
		for _, next := range net.forward[p] {
			walk(next)
		}
	}
	for p := range net.nodeOutputs {
		walk(p)
	}
}

// refSpec splits a `.flow` from/to endpoint of the form "node",
// "node:port", or "network:port" into its node and port components.
func refSpec(s string) (nodeName, portName string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}
