package network

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/rwthflow/flow/link"
	"github.com/rwthflow/flow/node"
	"github.com/rwthflow/flow/port"
	"github.com/rwthflow/flow/registry"
)

// Build assembles a Network from a parsed template (spec.md §4.5's
// NodeBuilder): it instantiates every declared node (built-in filter,
// previously declared <network-node> template, or externally resolved
// sub-network file, tried in that order), applies each node's
// parameter expressions, wires every declared link, and aliases the
// network's own external ports onto the nodes that actually produce
// or consume them.
//
// baseDir is the directory `filter="..."` names not otherwise
// resolved are looked up relative to (the directory the including
// `.flow` file itself lives in). embedded marks a sub-network built
// because a parent <node filter="..."> named it, rather than the
// top-level network a caller is assembling directly; an embedded
// network's external outputs start unconnected (spec.md's
// activate_output contract) until the parent's own links reach them
// or ActivateOutput is called explicitly.
func Build(tpl *NetworkTemplate, resolver *Resolver, baseDir string, embedded bool) (*Network, error) {
	net := newNetwork(tpl.Name, tpl.Threaded)
	_ = embedded // documented above; no additional bookkeeping needed; see repeater.go/network.go

	net.repeaters = make(map[string]*repeaterNode, len(tpl.Ins))
	for _, pd := range tpl.Ins {
		rep := newRepeaterNode(tpl.Name+":"+pd.Name, nil)
		net.repeaters[pd.Name] = rep
		net.nodeOutputs[rep.out] = rep
		net.inputs[pd.Name] = rep.in
		net.inputIndex = append(net.inputIndex, pd.Name)
	}
	for _, pd := range tpl.Outs {
		net.outputIndex = append(net.outputIndex, pd.Name)
	}

	for _, pd := range tpl.Params {
		_ = pd // declares the configuration-scope name; dependents register themselves as nodes' parameters are applied below
	}

	nodesByName := make(map[string]node.Node, len(tpl.Nodes))
	for _, nd := range tpl.Nodes {
		n, err := net.buildNode(tpl, nd, resolver, baseDir)
		if err != nil {
			net.RecordErr(errors.Wrapf(err, "building node %q", nd.Name))
			continue
		}
		nodesByName[nd.Name] = n
		for i := 0; i < n.NOutputs(); i++ {
			p, _ := n.NameToOutputPort(i)
			net.nodeOutputs[p] = n
		}
	}

	for _, ld := range tpl.Links {
		if err := net.wireLink(nodesByName, ld); err != nil {
			net.RecordErr(errors.Wrapf(err, "wiring link %q -> %q", ld.From, ld.To))
		}
	}

	return net, net.Errs()
}

// buildNode resolves nd.Filter in the order built-in registry, a
// sibling <network-node> template declared earlier in this same
// document, then an external `.flow` file on the search path, and
// applies nd's literal/expression parameters to the resulting node.
func (net *Network) buildNode(tpl *NetworkTemplate, nd NodeDecl, resolver *Resolver, baseDir string) (node.Node, error) {
	var n node.Node
	if factory, ok := registry.GetFilter(nd.Filter); ok {
		inst, ok := factory().(node.Node)
		if !ok {
			return nil, fmt.Errorf("filter %q did not produce a node.Node", nd.Filter)
		}
		n = inst
	} else if subtpl, ok := tpl.NetworkNodes[nd.Filter]; ok {
		sub, err := Build(subtpl, resolver, baseDir, true)
		if err != nil {
			return nil, err
		}
		n = sub
	} else {
		subtpl, subdir, err := resolver.Load(baseDir, nd.Filter)
		if err != nil {
			return nil, errors.Wrapf(err, "filter %q is neither a built-in nor a declared network-node", nd.Filter)
		}
		sub, err := Build(subtpl, resolver, subdir, true)
		if err != nil {
			return nil, err
		}
		n = sub
	}

	for key, val := range nd.Params {
		net.applyNodeParam(nd.Name, n, key, val)
	}
	return n, nil
}

// applyNodeParam parses one XML attribute value as a parameter
// expression (spec.md §4.4): a constant is applied immediately; a
// $(name) reference registers a dependency against this network's
// configuration scope and is applied now if that configuration
// parameter already has a value; a $input(port) reference hands the
// expression to the node's own node.ParamBinder.BindParam, so the node
// opens the extra input port and re-resolves the value itself, once per
// Work, against whatever has actually arrived on that port (seed
// scenario 6).
func (net *Network) applyNodeParam(nodeName string, n node.Node, key, val string) {
	expr := node.ParseExpression(val)
	apply := func(resolved string) error {
		if !n.SetParameter(key, resolved) {
			return fmt.Errorf("node %q: parameter %q rejected value %q", nodeName, key, resolved)
		}
		return nil
	}
	if expr.IsConstant() {
		if err := apply(val); err != nil {
			net.RecordErr(err)
		}
		return
	}
	lookup := func(name string) (string, bool) {
		v, ok := net.configParams[name]
		return v, ok
	}
	for _, cref := range expr.ConfigRefs() {
		cref, expr := cref, expr
		net.deps.Register(cref, nodeName, func(string) error {
			if len(expr.InputRefs()) > 0 {
				return nil // re-resolved per packet by the node's own ResolveParams instead
			}
			resolved, err := expr.ResolveConfig(lookup)
			if err != nil {
				return err
			}
			return apply(resolved)
		})
	}
	if len(expr.InputRefs()) > 0 {
		binder, ok := n.(node.ParamBinder)
		if !ok {
			net.RecordErr(fmt.Errorf("node %q: parameter %q references $input(), but %T cannot bind input parameters", nodeName, key, n))
			return
		}
		binder.BindParam(key, expr, lookup, apply)
		return
	}
	if resolved, err := expr.ResolveConfig(lookup); err == nil {
		if err := apply(resolved); err != nil {
			net.RecordErr(err)
		}
	}
}

// wireLink resolves one <link> declaration's endpoints and either
// attaches a real link.Link between two internal ports, or - when the
// consumer endpoint is one of this network's own declared <out> ports
// - aliases that external output directly onto the producer's own
// output port (no Link object is created for an external output; the
// parent network, or the ultimate caller, reads it exactly as it would
// any internal node's output, per spec.md §4.5).
func (net *Network) wireLink(nodesByName map[string]node.Node, ld LinkDecl) error {
	fromNode, fromPortName := refSpec(ld.From)
	toNode, toPortName := refSpec(ld.To)

	fromPort, err := net.resolveProducerPort(nodesByName, fromNode, fromPortName)
	if err != nil {
		return err
	}

	if toNode == "network" {
		if toPortName == "" {
			return fmt.Errorf("link to network output needs a port name")
		}
		net.outputs[toPortName] = fromPort
		return nil
	}

	consumer, ok := nodesByName[toNode]
	if !ok {
		return fmt.Errorf("unknown node %q", toNode)
	}
	toPort, err := resolvePort(consumer, toPortName, port.Input)
	if err != nil {
		return err
	}

	mode := link.Fast
	if ld.Buffer > 0 {
		mode = link.Queued
	}
	l := link.New(fromPort.Datatype, mode)
	if err := fromPort.Attach(l); err != nil {
		return err
	}
	if err := toPort.Attach(l); err != nil {
		return err
	}
	net.upstreamOutput[toPort] = fromPort
	net.forward[fromPort] = append(net.forward[fromPort], toPort)
	return nil
}

// resolveProducerPort resolves a <link from="..."> endpoint, which is
// either "network:<input-name>" (the network's own external input,
// backed by a repeaterNode) or "<node>[:<port>]".
func (net *Network) resolveProducerPort(nodesByName map[string]node.Node, nodeName, portName string) (*port.Port, error) {
	if nodeName == "network" {
		rep, ok := net.repeaters[portName]
		if !ok {
			return nil, fmt.Errorf("unknown network input %q", portName)
		}
		return rep.out, nil
	}
	producer, ok := nodesByName[nodeName]
	if !ok {
		return nil, fmt.Errorf("unknown node %q", nodeName)
	}
	return resolvePort(producer, portName, port.Output)
}

// resolvePort looks up a named port on n, defaulting to n's sole port
// of the requested direction when the `.flow` document omits the port
// name (the common case: every filter built so far has exactly one
// input and/or one output, so "preemph" unambiguously means
// "preemph's one input/output port").
func resolvePort(n node.Node, name string, dir port.Direction) (*port.Port, error) {
	if name != "" {
		if dir == port.Input {
			p, ok := n.InputPort(name)
			if !ok {
				return nil, fmt.Errorf("node %q has no input port %q", n.Name(), name)
			}
			return p, nil
		}
		p, ok := n.OutputPort(name)
		if !ok {
			return nil, fmt.Errorf("node %q has no output port %q", n.Name(), name)
		}
		return p, nil
	}
	if dir == port.Input {
		if n.NInputs() != 1 {
			return nil, fmt.Errorf("node %q has %d input ports, a link endpoint must name one", n.Name(), n.NInputs())
		}
		p, _ := n.NameToInputPort(0)
		return p, nil
	}
	if n.NOutputs() != 1 {
		return nil, fmt.Errorf("node %q has %d output ports, a link endpoint must name one", n.Name(), n.NOutputs())
	}
	p, _ := n.NameToOutputPort(0)
	return p, nil
}
