// Package factors provides the emission-factor reference tables and the
// cascading lookup resolver.
//
// A Table is an immutable nested mapping from dimension keys (fuel-type group,
// fuel, unit; material, disposal method; ...) to a terminal Factor. Every leaf
// is either a finite non-negative number or the explicit NotApplicable
// sentinel; a combination the table does not offer is never silently absent.
package factors

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Factor is a terminal emission factor.
// A NotApplicable factor marks a combination the dataset categorically does
// not offer (e.g. a material that cannot be composted). It is distinct from
// an unresolved lookup.
type Factor struct {
	Value         decimal.Decimal
	NotApplicable bool
}

// NA returns the NotApplicable sentinel
func NA() Factor {
	return Factor{NotApplicable: true}
}

// Numeric builds a numeric factor
func Numeric(d decimal.Decimal) Factor {
	return Factor{Value: d}
}

// naVariants are the raw dataset spellings that all collapse to the
// NotApplicable sentinel at load time.
var naVariants = map[string]bool{
	"n/a": true,
	"na":  true,
}

// IsNASpelling reports whether a raw dataset string denotes NotApplicable
func IsNASpelling(s string) bool {
	return naVariants[strings.ToLower(strings.TrimSpace(s))]
}

// NormalizeKey canonicalizes a dimension key. Lookup is case-sensitive exact
// match on trimmed keys; all key variants are collapsed here, once, so the
// resolver never guesses.
func NormalizeKey(k string) string {
	return strings.TrimSpace(k)
}

// node is one level of a table. Exactly one of children/leaf is used.
type node struct {
	children map[string]*node
	factor   Factor
	leaf     bool
}

// Table is an immutable nested factor mapping
type Table struct {
	name  string
	depth int
	root  *node
}

// NewTable builds a table from nested map data. Leaves may be float64, int,
// decimal.Decimal, or a string NotApplicable spelling; inner levels are
// map[string]interface{}. Keys are normalized on the way in.
func NewTable(name string, depth int, data map[string]interface{}) *Table {
	return &Table{
		name:  name,
		depth: depth,
		root:  buildNode(data),
	}
}

// Empty returns a present-but-empty table of the given shape. Resolving
// against it yields Unresolved for every path, which is how the engine runs
// while a dataset is still loading.
func Empty(name string, depth int) *Table {
	return &Table{
		name:  name,
		depth: depth,
		root:  &node{children: map[string]*node{}},
	}
}

func buildNode(v interface{}) *node {
	switch t := v.(type) {
	case map[string]interface{}:
		children := make(map[string]*node, len(t))
		for k, child := range t {
			children[NormalizeKey(k)] = buildNode(child)
		}
		return &node{children: children}
	case string:
		if IsNASpelling(t) {
			return &node{leaf: true, factor: NA()}
		}
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			// Unknown spellings are treated as NotApplicable rather than
			// fabricating a zero factor.
			return &node{leaf: true, factor: NA()}
		}
		return &node{leaf: true, factor: Numeric(d)}
	case float64:
		return &node{leaf: true, factor: Numeric(decimal.NewFromFloat(t))}
	case int:
		return &node{leaf: true, factor: Numeric(decimal.NewFromInt(int64(t)))}
	case decimal.Decimal:
		return &node{leaf: true, factor: Numeric(t)}
	case Factor:
		return &node{leaf: true, factor: t}
	default:
		return &node{leaf: true, factor: NA()}
	}
}

// Name returns the table name
func (t *Table) Name() string {
	return t.name
}

// Depth returns the number of dimensions to a terminal factor
func (t *Table) Depth() int {
	return t.depth
}

// State classifies the outcome of a resolution
type State string

const (
	// Unresolved means the path is incomplete or names an unknown key
	Unresolved State = "unresolved"

	// Resolved means the path reached a numeric factor
	Resolved State = "resolved"

	// NotApplicableState means the path reached the NotApplicable sentinel
	NotApplicableState State = "not_applicable"
)

// Resolution is the outcome of resolving a (possibly partial) key path
type Resolution struct {
	// Options are the valid keys at the next depth, sorted. Empty once the
	// path is terminal or invalid.
	Options []string

	// Factor is the terminal factor when State is Resolved or NotApplicable
	Factor Factor

	// State classifies the outcome
	State State
}

// Resolve walks the table along path. A partial path yields the next-level
// options and Unresolved; a full path yields the terminal factor or the
// NotApplicable sentinel; an unknown key anywhere yields Unresolved with no
// options. Resolve is pure: same table, same path, same answer.
func (t *Table) Resolve(path ...string) Resolution {
	n := t.root
	for _, raw := range path {
		key := NormalizeKey(raw)
		if key == "" || n.children == nil {
			return Resolution{State: Unresolved}
		}
		next, ok := n.children[key]
		if !ok {
			return Resolution{State: Unresolved}
		}
		n = next
	}

	if n.leaf {
		if n.factor.NotApplicable {
			return Resolution{Factor: n.factor, State: NotApplicableState}
		}
		return Resolution{Factor: n.factor, State: Resolved}
	}

	return Resolution{Options: sortedKeys(n.children), State: Unresolved}
}

// AvailableOptions returns the next-level options for path, excluding keys
// whose terminal factor is NotApplicable. For inner levels it is identical to
// Resolve(path).Options; at the last level it is the selectable subset (a
// material's disposal methods that the dataset actually offers).
func (t *Table) AvailableOptions(path ...string) []string {
	res := t.Resolve(path...)
	if len(res.Options) == 0 {
		return nil
	}

	out := make([]string, 0, len(res.Options))
	for _, opt := range res.Options {
		child := t.Resolve(append(append([]string{}, path...), opt)...)
		if child.State == NotApplicableState {
			continue
		}
		out = append(out, opt)
	}
	return out
}

// Has reports whether key is a valid top-level key of the table. Used for
// the one-time activity dispatch between the passenger and delivery tables.
func (t *Table) Has(key string) bool {
	_, ok := t.root.children[NormalizeKey(key)]
	return ok
}

// Len returns the number of top-level keys
func (t *Table) Len() int {
	return len(t.root.children)
}

// Merge returns a new table with other's entries layered over t. Leaves in
// other win; inner levels merge recursively. Neither input is modified.
func (t *Table) Merge(other *Table) *Table {
	return &Table{
		name:  t.name,
		depth: t.depth,
		root:  mergeNodes(t.root, other.root),
	}
}

func mergeNodes(base, over *node) *node {
	if over.leaf || base.leaf {
		return over
	}
	children := make(map[string]*node, len(base.children)+len(over.children))
	for k, v := range base.children {
		children[k] = v
	}
	for k, v := range over.children {
		if existing, ok := children[k]; ok {
			children[k] = mergeNodes(existing, v)
		} else {
			children[k] = v
		}
	}
	return &node{children: children}
}

func sortedKeys(m map[string]*node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
