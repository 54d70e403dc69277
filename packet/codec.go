package packet

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/rwthflow/flow/registry"
)

// byteOrder is fixed process-wide, as spec.md §6 requires ("consistent
// across one implementation").
var byteOrder = binary.BigEndian

func writeU32(w io.Writer, v uint32) error { return binary.Write(w, byteOrder, v) }

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, byteOrder, &v)
	return v, err
}

func writeF64s(w io.Writer, vals ...float64) error {
	for _, v := range vals {
		if err := binary.Write(w, byteOrder, v); err != nil {
			return err
		}
	}
	return nil
}

func readF64s(r io.Reader, n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		if err := binary.Read(r, byteOrder, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func writeString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteData is the single-packet codec: it asserts d's datatype matches
// dt before delegating to d.Write, per spec.md §4.1.
func WriteData(w io.Writer, dt *registry.Datatype, d Data) error {
	if d.Datatype() != dt {
		return fmt.Errorf("packet.WriteData: datatype mismatch: packet is %v, expected %v", d.Datatype(), dt)
	}
	return d.Write(w)
}

// ReadData allocates a fresh packet from dt's factory and reads into it.
func ReadData(r io.Reader, dt *registry.Datatype) (Data, error) {
	d, ok := dt.NewData().(Data)
	if !ok {
		return nil, fmt.Errorf("packet.ReadData: datatype %q factory does not produce a Data", dt.Name)
	}
	if err := d.Read(r); err != nil {
		return nil, err
	}
	return d, nil
}

// WriteGathered serializes a run of same-typed packets as a u32 count
// followed by each packet's own codec, per spec.md §4.1 / §6.
func WriteGathered(w io.Writer, dt *registry.Datatype, items []Data) error {
	if err := writeU32(w, uint32(len(items))); err != nil {
		return err
	}
	for _, it := range items {
		if err := WriteData(w, dt, it); err != nil {
			return err
		}
	}
	return nil
}

// ReadGathered is the symmetric reverse of WriteGathered.
func ReadGathered(r io.Reader, dt *registry.Datatype) ([]Data, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	out := make([]Data, n)
	for i := range out {
		d, err := ReadData(r, dt)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// EqualGathered reports whether two gathered runs are pairwise equal via
// each packet's Equals, per the binary-round-trip testable property of
// spec.md §8.
func EqualGathered(a, b []Data) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

// almostEqual is a small relative-tolerance numeric helper; Vector.Equals
// compares values exactly and does not call it.
func almostEqual(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
