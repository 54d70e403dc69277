package packet

import (
	"fmt"
	"io"

	"github.com/rwthflow/flow/registry"
)

// StringPacket is a timestamped string payload. It is not named in
// spec.md's data model directly but is required by it implicitly: §4.4
// says a parameter-expression port "supplies a timestamped string
// packet", and §6's seed scenario 6 feeds `"0.9"@[0,1)` through one.
type StringPacket struct {
	Timestamp
	Value string
}

var StringDT = registry.MustRegisterDatatype("flow-string", func() any { return &StringPacket{} })

func NewStringPacket(ts Timestamp, value string) *StringPacket {
	return &StringPacket{Timestamp: ts, Value: value}
}

func (s *StringPacket) Datatype() *registry.Datatype { return StringDT }

func (s *StringPacket) Clone() Data {
	c := *s
	return &c
}

func (s *StringPacket) Write(w io.Writer) error {
	if err := s.Timestamp.Write(w); err != nil {
		return err
	}
	return writeString(w, s.Value)
}

func (s *StringPacket) Read(r io.Reader) error {
	if err := s.Timestamp.Read(r); err != nil {
		return err
	}
	v, err := readString(r)
	if err != nil {
		return err
	}
	s.Value = v
	return nil
}

func (s *StringPacket) Dump(w io.Writer) error {
	_, err := fmt.Fprintf(w, "<flow-string start=%q end=%q value=%q/>", fmtG(s.Start), fmtG(s.End), s.Value)
	return err
}

func (s *StringPacket) Equals(other Data) bool {
	o, ok := other.(*StringPacket)
	return ok && s.Timestamp.Equal(o.Timestamp) && s.Value == o.Value
}
