package packet

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rwthflow/flow/registry"
)

// Numeric constrains the scalar element types Vector[T] is instantiated
// over. Only fixed-width types are allowed so that encoding/binary can
// (de)serialize a whole slice in one call (spec.md §6's "fixed-width
// big- or little-endian integers and floats").
type Numeric interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// Vector is spec.md §3's "timestamp + ordered sequence of scalar T".
type Vector[T Numeric] struct {
	Timestamp
	Values []T
	dt     *registry.Datatype
}

// RegisterVectorDatatype registers a Vector[T] kind under name and
// returns the canonical *registry.Datatype new vectors of that kind must
// reference from Datatype().
func RegisterVectorDatatype[T Numeric](name string) *registry.Datatype {
	return registry.MustRegisterDatatype(name, func() any {
		dt, _ := registry.GetDatatype(name)
		return &Vector[T]{dt: dt}
	})
}

var (
	Float32VectorDT = RegisterVectorDatatype[float32]("flow-vector-f32")
	Float64VectorDT = RegisterVectorDatatype[float64]("flow-vector-f64")
	Int32VectorDT   = RegisterVectorDatatype[int32]("flow-vector-i32")
)

func NewFloat32Vector(ts Timestamp, values ...float32) *Vector[float32] {
	return &Vector[float32]{Timestamp: ts, Values: values, dt: Float32VectorDT}
}

func NewFloat64Vector(ts Timestamp, values ...float64) *Vector[float64] {
	return &Vector[float64]{Timestamp: ts, Values: values, dt: Float64VectorDT}
}

func NewInt32Vector(ts Timestamp, values ...int32) *Vector[int32] {
	return &Vector[int32]{Timestamp: ts, Values: values, dt: Int32VectorDT}
}

func (v *Vector[T]) Datatype() *registry.Datatype { return v.dt }

func (v *Vector[T]) Clone() Data {
	c := &Vector[T]{Timestamp: v.Timestamp, dt: v.dt, Values: make([]T, len(v.Values))}
	copy(c.Values, v.Values)
	return c
}

func (v *Vector[T]) Write(w io.Writer) error {
	if err := v.Timestamp.Write(w); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(v.Values))); err != nil {
		return err
	}
	return writeFixed(w, v.Values)
}

func (v *Vector[T]) Read(r io.Reader) error {
	if err := v.Timestamp.Read(r); err != nil {
		return err
	}
	n, err := readU32(r)
	if err != nil {
		return err
	}
	v.Values = make([]T, n)
	return readFixed(r, v.Values)
}

func (v *Vector[T]) Dump(w io.Writer) error {
	_, err := fmt.Fprintf(w, "<flow-vector start=%q end=%q size=%d>%v</flow-vector>",
		fmtG(v.Start), fmtG(v.End), len(v.Values), v.Values)
	return err
}

func (v *Vector[T]) Equals(other Data) bool {
	o, ok := other.(*Vector[T])
	if !ok || !v.Timestamp.Equal(o.Timestamp) || len(v.Values) != len(o.Values) {
		return false
	}
	for i := range v.Values {
		if v.Values[i] != o.Values[i] {
			return false
		}
	}
	return true
}

// writeFixed/readFixed delegate to encoding/binary's reflection-based
// slice codec, which natively supports slices of float32/float64/int32/
// int64 - exactly the Numeric constraint - at their native width, unlike
// a float64 bridge which would lose precision for large int64 values.
func writeFixed[T Numeric](w io.Writer, values []T) error {
	return binary.Write(w, byteOrder, values)
}

func readFixed[T Numeric](r io.Reader, values []T) error {
	return binary.Read(r, byteOrder, values)
}
