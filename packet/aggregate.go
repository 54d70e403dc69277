package packet

import (
	"fmt"
	"io"

	"github.com/rwthflow/flow/registry"
)

// Aggregate is spec.md §3's heterogeneous aggregate packet: a timestamp
// plus an ordered sequence of timestamped child packets whose concrete
// datatypes may differ from one another. The binary codec writes a
// polymorphism tag only when they do (spec.md §3), so a run of
// same-typed children costs no more than the gathered codec would.
type Aggregate struct {
	Timestamp
	Children []Data
}

var AggregateDT = registry.MustRegisterDatatype("flow-aggregate", func() any { return &Aggregate{} })

func NewAggregate(ts Timestamp, children ...Data) *Aggregate {
	return &Aggregate{Timestamp: ts, Children: children}
}

func (a *Aggregate) Datatype() *registry.Datatype { return AggregateDT }

func (a *Aggregate) Clone() Data {
	c := &Aggregate{Timestamp: a.Timestamp, Children: make([]Data, len(a.Children))}
	for i, ch := range a.Children {
		c.Children[i] = ch.Clone()
	}
	return c
}

// homogeneous reports whether every child shares one non-nil datatype.
func (a *Aggregate) homogeneous() (*registry.Datatype, bool) {
	if len(a.Children) == 0 {
		return nil, false
	}
	dt := a.Children[0].Datatype()
	if dt == nil {
		return nil, false
	}
	for _, ch := range a.Children[1:] {
		if ch.Datatype() != dt {
			return nil, false
		}
	}
	return dt, true
}

const (
	tagHomogeneous byte = 0
	tagPolymorphic byte = 1
)

func (a *Aggregate) Write(w io.Writer) error {
	if err := a.Timestamp.Write(w); err != nil {
		return err
	}
	if dt, ok := a.homogeneous(); ok {
		if _, err := w.Write([]byte{tagHomogeneous}); err != nil {
			return err
		}
		if err := writeString(w, dt.Name); err != nil {
			return err
		}
		return WriteGathered(w, dt, a.Children)
	}
	if _, err := w.Write([]byte{tagPolymorphic}); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(a.Children))); err != nil {
		return err
	}
	for _, ch := range a.Children {
		if err := writeString(w, ch.Datatype().Name); err != nil {
			return err
		}
		if err := ch.Write(w); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregate) Read(r io.Reader) error {
	if err := a.Timestamp.Read(r); err != nil {
		return err
	}
	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return err
	}
	switch tag[0] {
	case tagHomogeneous:
		name, err := readString(r)
		if err != nil {
			return err
		}
		dt, ok := registry.GetDatatype(name)
		if !ok {
			return fmt.Errorf("packet.Aggregate.Read: unknown datatype %q", name)
		}
		children, err := ReadGathered(r, dt)
		if err != nil {
			return err
		}
		a.Children = children
		return nil
	case tagPolymorphic:
		n, err := readU32(r)
		if err != nil {
			return err
		}
		a.Children = make([]Data, n)
		for i := range a.Children {
			name, err := readString(r)
			if err != nil {
				return err
			}
			dt, ok := registry.GetDatatype(name)
			if !ok {
				return fmt.Errorf("packet.Aggregate.Read: unknown datatype %q", name)
			}
			ch, err := ReadData(r, dt)
			if err != nil {
				return err
			}
			a.Children[i] = ch
		}
		return nil
	default:
		return fmt.Errorf("packet.Aggregate.Read: bad polymorphism tag %d", tag[0])
	}
}

func (a *Aggregate) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "<flow-aggregate start=%q end=%q size=%d>", fmtG(a.Start), fmtG(a.End), len(a.Children)); err != nil {
		return err
	}
	for _, ch := range a.Children {
		if err := ch.Dump(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</flow-aggregate>")
	return err
}

func (a *Aggregate) Equals(other Data) bool {
	o, ok := other.(*Aggregate)
	if !ok || !a.Timestamp.Equal(o.Timestamp) || len(a.Children) != len(o.Children) {
		return false
	}
	for i := range a.Children {
		if !a.Children[i].Equals(o.Children[i]) {
			return false
		}
	}
	return true
}

// TypedAggregate is spec.md §3's homogeneous aggregate: every child has
// the same concrete Go type T, enforced by the type system rather than by
// a runtime datatype check, so its codec never needs the polymorphism tag.
type TypedAggregate[T Data] struct {
	Timestamp
	Children []T
	dt       *registry.Datatype
	newChild func() T
}

// RegisterTypedAggregateDatatype registers a TypedAggregate[T] kind;
// newChild must return a zero-valued, Read-able T (mirroring the
// registry's DatatypeFactory contract for ordinary packets).
func RegisterTypedAggregateDatatype[T Data](name string, newChild func() T) *registry.Datatype {
	return registry.MustRegisterDatatype(name, func() any {
		dt, _ := registry.GetDatatype(name)
		return &TypedAggregate[T]{dt: dt, newChild: newChild}
	})
}

func NewTypedAggregate[T Data](dt *registry.Datatype, newChild func() T, ts Timestamp, children ...T) *TypedAggregate[T] {
	return &TypedAggregate[T]{Timestamp: ts, Children: children, dt: dt, newChild: newChild}
}

func (a *TypedAggregate[T]) Datatype() *registry.Datatype { return a.dt }

func (a *TypedAggregate[T]) Clone() Data {
	c := &TypedAggregate[T]{Timestamp: a.Timestamp, dt: a.dt, newChild: a.newChild, Children: make([]T, len(a.Children))}
	for i, ch := range a.Children {
		c.Children[i] = ch.Clone().(T)
	}
	return c
}

func (a *TypedAggregate[T]) Write(w io.Writer) error {
	if err := a.Timestamp.Write(w); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(a.Children))); err != nil {
		return err
	}
	for _, ch := range a.Children {
		if err := ch.Write(w); err != nil {
			return err
		}
	}
	return nil
}

func (a *TypedAggregate[T]) Read(r io.Reader) error {
	if err := a.Timestamp.Read(r); err != nil {
		return err
	}
	n, err := readU32(r)
	if err != nil {
		return err
	}
	a.Children = make([]T, n)
	for i := range a.Children {
		ch := a.newChild()
		if err := ch.Read(r); err != nil {
			return err
		}
		a.Children[i] = ch
	}
	return nil
}

func (a *TypedAggregate[T]) Dump(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "<flow-typed-aggregate start=%q end=%q size=%d>", fmtG(a.Start), fmtG(a.End), len(a.Children)); err != nil {
		return err
	}
	for _, ch := range a.Children {
		if err := ch.Dump(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</flow-typed-aggregate>")
	return err
}

func (a *TypedAggregate[T]) Equals(other Data) bool {
	o, ok := other.(*TypedAggregate[T])
	if !ok || !a.Timestamp.Equal(o.Timestamp) || len(a.Children) != len(o.Children) {
		return false
	}
	for i := range a.Children {
		if !a.Children[i].Equals(o.Children[i]) {
			return false
		}
	}
	return true
}
