package packet

import (
	"fmt"
	"io"
	"math"

	"github.com/rwthflow/flow/registry"
)

// Timestamp is the [start, end) interval in seconds carried by every
// timestamped packet (spec.md §3). It is embedded by Vector and Aggregate
// and can also stand alone as a packet kind in its own right (the
// parameter-expression ports, spec.md §4.4, carry StringPacket, which
// embeds Timestamp).
type Timestamp struct {
	Start, End float64
}

// InvalidTimestamp is the canonical "no interval" value: start=+Inf, end=-Inf.
func InvalidTimestamp() Timestamp {
	return Timestamp{Start: math.Inf(1), End: math.Inf(-1)}
}

func (t Timestamp) IsValid() bool { return t.Start <= t.End }

func (t Timestamp) Contains(x float64) bool { return x >= t.Start && x < t.End }

func (t Timestamp) Overlaps(o Timestamp) bool { return t.Start < o.End && o.Start < t.End }

func (t Timestamp) Expand(o Timestamp) Timestamp {
	return Timestamp{Start: math.Min(t.Start, o.Start), End: math.Max(t.End, o.End)}
}

func (t Timestamp) String() string { return fmt.Sprintf("[%g, %g)", t.Start, t.End) }

// maxULPs bounds the "fixed ULP tolerance" equality spec.md §3 calls for.
const maxULPs = 16

// Equal compares two timestamps within a fixed ULP tolerance on each bound,
// per spec.md §3.
func (t Timestamp) Equal(o Timestamp) bool {
	return ulpEqual(t.Start, o.Start) && ulpEqual(t.End, o.End)
}

func ulpEqual(a, b float64) bool {
	if a == b {
		return true
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) || math.IsNaN(a) || math.IsNaN(b) {
		return a == b
	}
	return ulpDistance(a, b) <= maxULPs
}

// ulpDistance returns the number of representable float64 values between
// a and b, treating the IEEE-754 bit pattern as a signed-magnitude integer
// remapped to a monotonic biased integer so that adjacent floats are
// adjacent integers regardless of sign.
func ulpDistance(a, b float64) uint64 {
	ai, bi := monotonicBits(a), monotonicBits(b)
	if ai > bi {
		return uint64(ai - bi)
	}
	return uint64(bi - ai)
}

func monotonicBits(f float64) int64 {
	bits := int64(math.Float64bits(f))
	if bits < 0 {
		return math.MinInt64 - bits
	}
	return bits
}

// timestamp datatype registration: Timestamp can travel as a bare packet
// (e.g. a parameter-expression port, spec.md §4.4 carries "timestamped
// string" packets built from Timestamp + a string payload - see
// StringPacket in string.go).
var timestampDT = registry.MustRegisterDatatype("flow-timestamp", func() any { return &Timestamp{} })

func (t *Timestamp) Datatype() *registry.Datatype { return timestampDT }
func (t *Timestamp) Clone() Data                  { c := *t; return &c }

func (t *Timestamp) Write(w io.Writer) error {
	return writeF64s(w, t.Start, t.End)
}

func (t *Timestamp) Read(r io.Reader) error {
	vals, err := readF64s(r, 2)
	if err != nil {
		return err
	}
	t.Start, t.End = vals[0], vals[1]
	return nil
}

func (t *Timestamp) Dump(w io.Writer) error {
	_, err := fmt.Fprintf(w, "<flow-timestamp start=%q end=%q/>", fmtG(t.Start), fmtG(t.End))
	return err
}

func (t *Timestamp) Equals(other Data) bool {
	o, ok := other.(*Timestamp)
	return ok && t.Equal(*o)
}

func fmtG(f float64) string { return fmt.Sprintf("%g", f) }
