// Package port implements the named attachment points through which a
// node exchanges packets with its neighbors: one Link per input port,
// fan-out to any number of Links per output port.
package port

import (
	"fmt"

	"github.com/rwthflow/flow/attrs"
	"github.com/rwthflow/flow/packet"
	"github.com/rwthflow/flow/registry"
)

// Linker is the subset of link.Link a port needs; declared here as an
// interface so that any type with these methods (a *link.Link, or the
// network package's discarding sink) can be attached to a port.
type Linker interface {
	Put(r packet.Ref) error
	Get() (packet.Ref, error)
	IsDataAvailable() bool
	Clear()
}

// Direction distinguishes an input port (receives packets) from an
// output port (produces them).
type Direction int

const (
	Input Direction = iota
	Output
)

// Port is one named, indexed attachment point on a node.
type Port struct {
	Name      string
	Index     int
	Dir       Direction
	Datatype  *registry.Datatype
	attrs     *attrs.Attributes
	input     Linker   // set for an Input port (at most one)
	outputs   []Linker // set for an Output port (fan-out)
}

func NewInput(name string, index int, dt *registry.Datatype) *Port {
	return &Port{Name: name, Index: index, Dir: Input, Datatype: dt, attrs: attrs.New()}
}

func NewOutput(name string, index int, dt *registry.Datatype) *Port {
	return &Port{Name: name, Index: index, Dir: Output, Datatype: dt, attrs: attrs.New()}
}

// Attach wires a Linker to this port. An input port accepts exactly one
// link; attaching a second one is a configuration error. An output port
// fans out to any number of links.
func (p *Port) Attach(l Linker) error {
	switch p.Dir {
	case Input:
		if p.input != nil {
			return fmt.Errorf("port: input port %q already has a link attached", p.Name)
		}
		p.input = l
	case Output:
		p.outputs = append(p.outputs, l)
	}
	return nil
}

// IsConnected reports whether the port has at least one link attached.
func (p *Port) IsConnected() bool {
	if p.Dir == Input {
		return p.input != nil
	}
	return len(p.outputs) > 0
}

// Get pulls the next packet from an input port's link. Calling Get on an
// unconnected input port yields packet.Sentinel, matching the "reading
// an unconnected optional input behaves as an empty stream" contract.
func (p *Port) Get() (packet.Ref, error) {
	if p.Dir != Input {
		return packet.Empty(), fmt.Errorf("port: Get on non-input port %q", p.Name)
	}
	if p.input == nil {
		return packet.New(packet.Sentinel), nil
	}
	return p.input.Get()
}

// Put pushes r to every link fanned out from an output port. Each
// downstream link receives its own Retain()'d reference; r itself is
// consumed (released) by Put.
func (p *Port) Put(r packet.Ref) error {
	if p.Dir != Output {
		return fmt.Errorf("port: Put on non-output port %q", p.Name)
	}
	if len(p.outputs) == 0 {
		r.Release()
		return nil
	}
	for i, l := range p.outputs {
		share := r
		if i < len(p.outputs)-1 {
			share = r.Retain()
		}
		if err := l.Put(share); err != nil {
			return err
		}
	}
	return nil
}

// IsDataAvailable reports whether an input port has a packet ready.
// An unconnected input always reports data available (its implicit
// Sentinel stream never blocks).
func (p *Port) IsDataAvailable() bool {
	if p.Dir != Input {
		return false
	}
	if p.input == nil {
		return true
	}
	return p.input.IsDataAvailable()
}

func (p *Port) Attributes() *attrs.Attributes { return p.attrs }

func (p *Port) SetAttributes(a *attrs.Attributes) { p.attrs = a }
