// Package registry holds the two process-wide registries named in
// SPEC_FULL.md §2: the datatype registry and the filter registry. Both are
// append-mostly maps, built once at start-up from a fixed list of built-ins
// (see the filters package) plus whatever plug-ins call Register* before
// the first network is assembled; after that point they are read-only
// (spec.md §5).
/*
 * Grounded on the aistore project's xact/xreg registry: a name-keyed map
 * guarded by an RWMutex, with a duplicate-name registration treated as a
 * programmer error rather than a runtime condition to recover from.
 */
package registry

import (
	"sync"

	"github.com/rwthflow/flow/cmn/cos"
)

type (
	// DatatypeFactory produces a fresh, uninitialized packet of one
	// registered kind (spec.md §3).
	DatatypeFactory func() any

	// Datatype is the registry entry for one packet kind: a name, a
	// factory, and nothing else here - the (de)serializer lives on the
	// packet type itself (packet.Data.Read/Write), the registry only
	// needs to hand back a fresh instance to read into.
	Datatype struct {
		Name    string
		NewData DatatypeFactory
	}

	// NodeFactory constructs a fresh, unconfigured node instance keyed
	// by filter name (spec.md §2 "Filter registry").
	NodeFactory func() any

	registry struct {
		mu        sync.RWMutex
		datatypes map[string]*Datatype
		filters   map[string]NodeFactory
	}
)

var global = &registry{
	datatypes: make(map[string]*Datatype, 32),
	filters:   make(map[string]NodeFactory, 32),
}

// Reset clears both maps; used only by tests that need a hermetic registry.
func Reset() {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.datatypes = make(map[string]*Datatype, 32)
	global.filters = make(map[string]NodeFactory, 32)
}

// RegisterDatatype registers name with factory new. A duplicate name is
// fatal (spec.md §4.11: "a registry collision... is fatal").
func RegisterDatatype(name string, newData DatatypeFactory) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if _, exists := global.datatypes[name]; exists {
		cos.Exitf("duplicate datatype registration: %q", name)
	}
	global.datatypes[name] = &Datatype{Name: name, NewData: newData}
}

// MustRegisterDatatype registers name and returns the canonical
// *Datatype stored in the registry, so that callers can hand that exact
// pointer back from their Data.Datatype() method (the equality the
// registry and every packet must agree on is pointer equality, per
// spec.md §3: "datatype() - pointer-equal to the registry entry").
func MustRegisterDatatype(name string, newData DatatypeFactory) *Datatype {
	RegisterDatatype(name, newData)
	d, _ := GetDatatype(name)
	return d
}

// GetDatatype looks up a previously registered datatype by name.
func GetDatatype(name string) (*Datatype, bool) {
	global.mu.RLock()
	defer global.mu.RUnlock()
	d, ok := global.datatypes[name]
	return d, ok
}

// RegisterFilter registers a node-factory by filter name. A duplicate name
// is fatal.
func RegisterFilter(name string, factory NodeFactory) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if _, exists := global.filters[name]; exists {
		cos.Exitf("duplicate filter registration: %q", name)
	}
	global.filters[name] = factory
}

// GetFilter looks up a previously registered node-factory by filter name.
func GetFilter(name string) (NodeFactory, bool) {
	global.mu.RLock()
	defer global.mu.RUnlock()
	f, ok := global.filters[name]
	return f, ok
}
