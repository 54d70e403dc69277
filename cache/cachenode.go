package cache

import (
	"fmt"

	"github.com/rwthflow/flow/node"
	"github.com/rwthflow/flow/packet"
	"github.com/rwthflow/flow/port"
	"github.com/rwthflow/flow/registry"
)

// Node is CacheNode (spec.md §4.9): its configuration is determined by
// which ports are connected - input only is a write-only sink, output
// only is a read-only source, both is a caching pass-through. Keying is
// by a string id set as a parameter; changing the id opens a new
// reader/writer.
type Node struct {
	*node.Base

	in  *port.Port
	out *port.Port

	cache *Cache
	key   string

	writer *Writer
	reader *Reader
}

func NewNode(name string, c *Cache, dt *registry.Datatype) *Node {
	n := &Node{Base: node.NewBase(name), cache: c}
	in, _ := n.AddInput("in", dt)
	out, _ := n.AddOutput("out", dt)
	n.in = in
	n.out = out
	return n
}

// SetParameter recognizes "id", the cache key; changing it closes any
// open reader/writer so the next work() call opens a fresh one.
func (n *Node) SetParameter(name, value string) bool {
	if name != "id" {
		return false
	}
	if n.key == value {
		return true
	}
	n.key = value
	if n.writer != nil {
		n.writer.Close()
		n.writer = nil
	}
	n.reader = nil
	return true
}

func (n *Node) writeOnly() bool  { return n.in.IsConnected() && !n.out.IsConnected() }
func (n *Node) readOnly() bool   { return n.out.IsConnected() && !n.in.IsConnected() }
func (n *Node) passThrough() bool { return n.in.IsConnected() && n.out.IsConnected() }

func (n *Node) Configure() bool {
	if n.key == "" {
		n.RecordErr(fmt.Errorf("cache node %q: missing required %q parameter", n.Name(), "id"))
		return false
	}
	if n.in.IsConnected() {
		a := n.GetInputAttributes(n.in, nil)
		n.PutOutputAttributes(n.out, a)
	}
	return true
}

func (n *Node) Work(out *port.Port) bool {
	switch {
	case n.writeOnly():
		return n.workWriteOnly(out)
	case n.readOnly():
		return n.workReadOnly(out)
	default:
		return n.workPassThrough(out)
	}
}

func (n *Node) workWriteOnly(out *port.Port) bool {
	if n.writer == nil {
		n.writer = n.cache.Writer(n.key)
	}
	r, ok := node.GetData(n.in, nil)
	if !ok {
		return false
	}
	d := r.Get()
	if packet.IsEOS(d) {
		n.writer.Close()
		return false
	}
	if err := n.writer.Put(d); err != nil {
		n.RecordErr(err)
		return false
	}
	return true
}

func (n *Node) workReadOnly(out *port.Port) bool {
	if n.reader == nil {
		rd, ok, err := n.cache.Reader(n.key)
		if err != nil || !ok {
			n.RecordErr(fmt.Errorf("cache node %q: no cached entry for key %q", n.Name(), n.key))
			n.PutEOS(out)
			return false
		}
		n.reader = rd
	}
	d, ok, err := n.reader.Next()
	if err != nil {
		n.RecordErr(err)
		n.PutEOS(out)
		return false
	}
	if !ok {
		n.PutEOS(out)
		return false
	}
	return n.PutData(out, packet.New(d)) == nil
}

func (n *Node) workPassThrough(out *port.Port) bool {
	if n.writer == nil {
		n.writer = n.cache.Writer(n.key)
	}
	r, ok := node.GetData(n.in, nil)
	if !ok {
		return false
	}
	d := r.Get()
	if packet.IsEOS(d) {
		n.writer.Close()
		n.PutEOS(out)
		return false
	}
	if err := n.writer.Put(d.Clone()); err != nil {
		n.RecordErr(err)
	}
	return n.PutData(out, r) == nil
}

