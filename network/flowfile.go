// Package network implements SPEC_FULL.md §3: the `.flow` XML grammar,
// the NetworkTemplate/NodeBuilder/NetworkParser assembly pipeline, and
// the Network composite node itself (external ports backed by hidden
// repeater nodes, parameter-expression dependency walking,
// erase_output_attributes propagation, sub-network file resolution).
package network

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// ParamDecl is a `<param name=.../>` declaration: a configuration-scope
// name other nodes' parameter expressions may reference via $(name).
type ParamDecl struct{ Name string }

// PortDecl is an `<in name=.../>` or `<out name=.../>` declaration.
type PortDecl struct{ Name string }

// NodeDecl is a `<node name=... filter=... ...>` declaration; every
// attribute other than name/filter is forwarded verbatim as a deferred
// parameter expression (spec.md §6).
type NodeDecl struct {
	Name   string
	Filter string
	Params map[string]string
}

// LinkDecl is a `<link from=... to=... buffer=N/>` declaration. From/To
// are `node[:port]`, with the node name `network` referring to the
// enclosing network's external ports (spec.md §6).
type LinkDecl struct {
	From, To string
	Buffer   int
}

// NetworkTemplate accumulates one `<network>` or `<network-node>`
// scope's declarations (spec.md §4.5). NodeBuilder's filter lookup order
// (b) resolves a bare filter name against NetworkNodes (nested templates
// declared earlier in the same file), keyed by the template's own `name`
// attribute.
type NetworkTemplate struct {
	Name         string
	Threaded     bool
	Params       []ParamDecl
	Ins          []PortDecl
	Outs         []PortDecl
	Nodes        []NodeDecl
	Links        []LinkDecl
	NetworkNodes map[string]*NetworkTemplate
}

func newTemplate() *NetworkTemplate {
	return &NetworkTemplate{NetworkNodes: make(map[string]*NetworkTemplate)}
}

func attrOf(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// ParseFlow reads a `.flow` document and returns its root NetworkTemplate.
// It walks the document with xml.Decoder.Token directly (a SAX-like
// event source, spec.md §1) rather than struct-tag Unmarshal, since
// <network-node> templates nest arbitrarily and a single fixed struct
// shape cannot describe that recursion the way DOM-style unmarshal
// expects.
func ParseFlow(r io.Reader) (*NetworkTemplate, error) {
	dec := xml.NewDecoder(r)
	var stack []*NetworkTemplate
	var root *NetworkTemplate

	cur := func() *NetworkTemplate {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "network: parsing .flow document")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "network":
				tpl := newTemplate()
				tpl.Name = attrOf(t, "name")
				tpl.Threaded = attrOf(t, "threaded") == "true"
				stack = append(stack, tpl)
			case "network-node":
				tpl := newTemplate()
				tpl.Name = attrOf(t, "name")
				stack = append(stack, tpl)
			case "param":
				if c := cur(); c != nil {
					c.Params = append(c.Params, ParamDecl{Name: attrOf(t, "name")})
				}
			case "in":
				if c := cur(); c != nil {
					c.Ins = append(c.Ins, PortDecl{Name: attrOf(t, "name")})
				}
			case "out":
				if c := cur(); c != nil {
					c.Outs = append(c.Outs, PortDecl{Name: attrOf(t, "name")})
				}
			case "node":
				if c := cur(); c != nil {
					nd := NodeDecl{Name: attrOf(t, "name"), Filter: attrOf(t, "filter"), Params: make(map[string]string)}
					for _, a := range t.Attr {
						if a.Name.Local == "name" || a.Name.Local == "filter" {
							continue
						}
						nd.Params[a.Name.Local] = a.Value
					}
					c.Nodes = append(c.Nodes, nd)
				}
			case "link":
				if c := cur(); c != nil {
					ld := LinkDecl{From: attrOf(t, "from"), To: attrOf(t, "to")}
					if b := attrOf(t, "buffer"); b != "" {
						if n, err := strconv.Atoi(b); err == nil {
							ld.Buffer = n
						}
					}
					c.Links = append(c.Links, ld)
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "network":
				tpl := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					root = tpl
				} else {
					// A <network> only ever nests beneath a <network-node>
					// scope in malformed input; treat it as that parent's
					// template contents for robustness rather than erroring.
					parent := cur()
					parent.Nodes = append(parent.Nodes, tpl.Nodes...)
					parent.Links = append(parent.Links, tpl.Links...)
				}
			case "network-node":
				tpl := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if parent := cur(); parent != nil {
					parent.NetworkNodes[tpl.Name] = tpl
				}
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("network: no <network> element found")
	}
	return root, nil
}
