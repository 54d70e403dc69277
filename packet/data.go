// Package packet implements SPEC_FULL.md §1/§3: the polymorphic,
// reference-counted packet that flows on every link, its timestamp and
// vector/aggregate specializations, and the three process-wide sentinels.
package packet

import (
	"io"

	"github.com/rwthflow/flow/registry"
)

// Data is the abstract packet base (spec.md §3). Concrete packet kinds -
// Timestamp, Vector[T], Aggregate, TypedAggregate[T], and whatever a
// plug-in registers - all implement it.
type Data interface {
	// Datatype is pointer-equal to the registry entry this packet was
	// constructed from; sentinels return nil.
	Datatype() *registry.Datatype
	Clone() Data
	Read(r io.Reader) error
	Write(w io.Writer) error
	Dump(w io.Writer) error
	Equals(other Data) bool
}

// sentinel is the concrete type behind the three process-wide control
// values. Pointer identity, not structural equality, is what makes a
// value a sentinel - two sentinel{} literals are never interchangeable
// with the package-level Sentinel/EOS/OOD values.
type sentinel struct{ tag string }

func (s *sentinel) Datatype() *registry.Datatype { return nil }
func (s *sentinel) Clone() Data                  { return s }
func (s *sentinel) Read(io.Reader) error          { return errNotDataCodec(s.tag) }
func (s *sentinel) Write(io.Writer) error         { return errNotDataCodec(s.tag) }
func (s *sentinel) Dump(w io.Writer) error        { _, err := io.WriteString(w, "<"+s.tag+"/>"); return err }
func (s *sentinel) Equals(other Data) bool        { return other == Data(s) }

var (
	// Sentinel fills an empty input-port slot before any packet has
	// arrived on it.
	Sentinel Data = &sentinel{tag: "sentinel"}
	// EOS signals that the upstream stream has ended; downstream nodes
	// must flush then forward it verbatim.
	EOS Data = &sentinel{tag: "eos"}
	// OOD ("out of data") is a transient-stall signal: no data now,
	// more may come later. Only single-in/single-out nodes forward it
	// verbatim (spec.md §4.11, §9).
	OOD Data = &sentinel{tag: "ood"}
)

func IsSentinel(d Data) bool { return d == Sentinel }
func IsEOS(d Data) bool      { return d == EOS }
func IsOOD(d Data) bool      { return d == OOD }

// IsControl reports whether d is one of the three sentinels, i.e. not a
// real payload packet.
func IsControl(d Data) bool { return IsSentinel(d) || IsEOS(d) || IsOOD(d) }

type dataCodecError struct{ tag string }

func (e *dataCodecError) Error() string { return "sentinel packet " + e.tag + " has no binary codec" }

func errNotDataCodec(tag string) error { return &dataCodecError{tag: tag} }
