package node

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Expression is a parsed parameter value: a template string may be a
// plain constant, may reference configuration scope via $(name), or may
// reference an input stream via $input(port) (spec.md §4.4). Constant
// expressions are applied immediately by the network parser; expressions
// referencing $(name) register a configuration-parameter dependency;
// expressions referencing $input(port) additionally require the node to
// open an extra input port that supplies a timestamped string packet.
type Expression struct {
	raw      string
	configRefs []string // $(name) references, in order of appearance
	inputRefs  []string // $input(port) references, in order of appearance
}

var (
	// configRefPattern matches the ClusterCockpit-style $(name) constant-
	// scope placeholder (the text/template-flavored half of the
	// expression grammar).
	configRefPattern = regexp.MustCompile(`\$\(([a-zA-Z0-9_.-]+)\)`)
	// inputRefPattern matches the $input(port) per-packet placeholder.
	// A generic template engine cannot model "opening a port is a side
	// effect of parsing this placeholder", so this half is a small
	// hand-rolled scanner rather than text/template (see DESIGN.md).
	inputRefPattern = regexp.MustCompile(`\$input\(([a-zA-Z0-9_.-]+)\)`)
)

// ParseExpression scans raw for $(name) and $input(port) placeholders.
func ParseExpression(raw string) *Expression {
	e := &Expression{raw: raw}
	for _, m := range configRefPattern.FindAllStringSubmatch(raw, -1) {
		e.configRefs = append(e.configRefs, m[1])
	}
	for _, m := range inputRefPattern.FindAllStringSubmatch(raw, -1) {
		e.inputRefs = append(e.inputRefs, m[1])
	}
	return e
}

// IsConstant reports whether the expression has no placeholders at all;
// constant expressions are applied immediately by the network parser
// rather than registered as a dependency.
func (e *Expression) IsConstant() bool {
	return len(e.configRefs) == 0 && len(e.inputRefs) == 0
}

// ConfigRefs returns the $(name) configuration-parameter names, one entry
// per occurrence in order of appearance (repeats are kept),
// this expression depends on.
func (e *Expression) ConfigRefs() []string { return e.configRefs }

// InputRefs returns the $input(port) port names, one entry per
// occurrence in order of appearance (repeats are kept), this
// expression requires opened on its owning node.
func (e *Expression) InputRefs() []string { return e.inputRefs }

// ResolveConfig substitutes every $(name) occurrence using lookup,
// leaving $input(port) placeholders untouched for ResolveInput to
// handle against the node's current per-packet scope.
func (e *Expression) ResolveConfig(lookup func(name string) (string, bool)) (string, error) {
	var missing error
	out := configRefPattern.ReplaceAllStringFunc(e.raw, func(m string) string {
		name := configRefPattern.FindStringSubmatch(m)[1]
		v, ok := lookup(name)
		if !ok {
			missing = fmt.Errorf("parameter expression: unknown configuration parameter %q", name)
			return m
		}
		return v
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}

// ResolveInput substitutes every $input(port) occurrence in expr (the
// output of ResolveConfig) using lookup, which supplies the current
// string value received on that port.
func ResolveInput(expr string, lookup func(port string) (string, bool)) (string, error) {
	var missing error
	out := inputRefPattern.ReplaceAllStringFunc(expr, func(m string) string {
		port := inputRefPattern.FindStringSubmatch(m)[1]
		v, ok := lookup(port)
		if !ok {
			missing = fmt.Errorf("parameter expression: no value yet on input port %q", port)
			return m
		}
		return v
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}

// String returns the original, unresolved expression text.
func (e *Expression) String() string { return e.raw }

// dependency keys a node's registration for a configuration parameter:
// (node, expression) pairs sharing name are notified together whenever
// Network.SetParameter updates it.
type dependency struct {
	paramName string
	nodeName  string
	apply     func(newValue string) error
}

// DependencyTracker walks the set of (expression, node) pairs registered
// against each configuration-parameter name, implementing
// Network.set_parameter's "walk the dependents list" contract.
type DependencyTracker struct {
	byParam map[string][]dependency
}

func NewDependencyTracker() *DependencyTracker {
	return &DependencyTracker{byParam: make(map[string][]dependency)}
}

func (t *DependencyTracker) Register(paramName, nodeName string, apply func(string) error) {
	t.byParam[paramName] = append(t.byParam[paramName], dependency{paramName, nodeName, apply})
}

// Notify re-evaluates every dependency registered against name with
// value, collecting (not short-circuiting on) individual apply errors
// so one bad node does not block reconfiguration of its siblings.
func (t *DependencyTracker) Notify(name, value string) []error {
	var errs []error
	for _, dep := range t.byParam[name] {
		if err := dep.apply(value); err != nil {
			errs = append(errs, errors.Wrapf(err, "node %q", dep.nodeName))
		}
	}
	return errs
}

// HasDependents reports whether any node depends on configuration
// parameter name.
func (t *DependencyTracker) HasDependents(name string) bool {
	return len(t.byParam[name]) > 0
}

// sanitizeParamName trims surrounding whitespace, mirroring how the XML
// attribute parser hands parameter names to ParseExpression.
func sanitizeParamName(s string) string { return strings.TrimSpace(s) }
