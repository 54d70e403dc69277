// Package attrs implements the side-band attribute map that travels
// alongside a port: arbitrary string key/value pairs describing the
// packets a port carries (datatype name, sample rate, frame shift, ...),
// independent of the packet payload itself.
package attrs

import (
	"encoding/xml"
	"io"
	"sort"
)

// Well-known keys. Nodes are free to set others; these are the ones the
// network layer and built-in filters read by convention.
const (
	Datatype    = "datatype"
	SampleRate  = "sample-rate"
	FrameShift  = "frame-shift"
	FrameLength = "frame-length"
	TrackCount  = "track-count"
)

// Attributes is an ordered key->value map: iteration and XML dump order
// is always lexical by key, so two Attributes with the same contents
// serialize identically regardless of insertion order.
type Attributes struct {
	values map[string]string
}

func New() *Attributes {
	return &Attributes{values: make(map[string]string)}
}

func (a *Attributes) Set(name, value string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	a.values[name] = value
}

func (a *Attributes) Get(name string) (string, bool) {
	if a.values == nil {
		return "", false
	}
	v, ok := a.values[name]
	return v, ok
}

func (a *Attributes) Erase(name string) {
	delete(a.values, name)
}

func (a *Attributes) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

func (a *Attributes) Len() int { return len(a.values) }

// Names returns the attribute names in lexical order.
func (a *Attributes) Names() []string {
	names := make([]string, 0, len(a.values))
	for k := range a.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (a *Attributes) Clone() *Attributes {
	c := New()
	for k, v := range a.values {
		c.values[k] = v
	}
	return c
}

// Merge overlays other's entries onto a, other winning on key collision.
// Used when a node's explicit configuration should override attributes
// inherited from its upstream input.
func (a *Attributes) Merge(other *Attributes) {
	if other == nil {
		return
	}
	for _, name := range other.Names() {
		v, _ := other.Get(name)
		a.Set(name, v)
	}
}

// Equals reports whether a and other hold the same key/value pairs.
func (a *Attributes) Equals(other *Attributes) bool {
	if other == nil {
		return a.Len() == 0
	}
	if a.Len() != other.Len() {
		return false
	}
	for k, v := range a.values {
		if ov, ok := other.values[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// wire types mirror the `<flow-attributes><flow-attribute name=.. value=../>
// ...</flow-attributes>` XML side-car grammar.
type wireAttribute struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type wireAttributes struct {
	XMLName xml.Name        `xml:"flow-attributes"`
	Attrs   []wireAttribute `xml:"flow-attribute"`
}

func (a *Attributes) WriteXML(w io.Writer) error {
	wa := wireAttributes{}
	for _, name := range a.Names() {
		v, _ := a.Get(name)
		wa.Attrs = append(wa.Attrs, wireAttribute{Name: name, Value: v})
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(wa)
}

func ReadXML(r io.Reader) (*Attributes, error) {
	var wa wireAttributes
	if err := xml.NewDecoder(r).Decode(&wa); err != nil {
		return nil, err
	}
	a := New()
	for _, wv := range wa.Attrs {
		a.Set(wv.Name, wv.Value)
	}
	return a, nil
}
