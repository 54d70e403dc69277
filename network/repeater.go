package network

import (
	"github.com/rwthflow/flow/node"
	"github.com/rwthflow/flow/port"
	"github.com/rwthflow/flow/registry"
)

// repeaterNode is the hidden node backing one external input of a
// Network (spec.md §4.5's generic-repeater: an AbstractNode with one
// input and one output that passes every packet through unchanged).
// Network.InputPort aliases the repeater's literal in *port.Port
// object so that a caller feeding the network's external input is,
// in effect, feeding this node's input directly - no copy, no proxy
// object standing between the two.
type repeaterNode struct {
	*node.Base
	in, out *port.Port
}

func newRepeaterNode(name string, dt *registry.Datatype) *repeaterNode {
	n := &repeaterNode{Base: node.NewBase(name)}
	n.in, _ = n.AddInput("in", dt)
	n.out, _ = n.AddOutput("out", dt)
	return n
}

func (n *repeaterNode) Configure() bool {
	a := n.GetInputAttributes(n.in, nil)
	n.PutOutputAttributes(n.out, a.Clone())
	return n.Errs() == nil
}

// Work forwards one packet from in to out. The Network's upstream-first
// recursion calls it whenever a node downstream of this external input
// is worked; the packet itself arrives on in from the Network's caller
// via Put on the aliased port, not from another node's Work.
func (n *repeaterNode) Work(out *port.Port) bool {
	r, ok := node.GetData(n.in, nil)
	if !ok {
		n.PutEOS(out)
		return false
	}
	if r.IsEOS() {
		n.PutData(out, r)
		return false
	}
	n.PutData(out, r)
	return true
}

func (n *repeaterNode) SetParameter(string, string) bool { return false }
