// Package tree exposes a parsed YAML or JSON document as a read-only tree of
// nodes. Lookups never fail: reading a missing key, indexing past the end of
// an array or indexing a scalar yields an Absent node, so callers can chain
// reads like root.Get("info").Get("title") and dispatch on the Kind at the end.
//
// Mapping order follows the source document.
package tree

import (
	"strconv"
)

// Kind is the closed set of node variants.
type Kind uint8

const (
	Absent Kind = iota
	Null
	String
	Number
	Bool
	Array
	Map
)

func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Null:
		return "null"
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case Array:
		return "array"
	case Map:
		return "map"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Entry is one member of a Map node.
type Entry struct {
	Key   string
	Value Node
}

// Node is an immutable document node. The zero value is Absent.
type Node struct {
	kind    Kind
	scalar  string
	items   []Node
	entries []Entry
	index   map[string]int
}

// Kind reports the node variant.
func (n Node) Kind() Kind { return n.kind }

// IsAbsent reports whether the node is the missing-value sentinel.
func (n Node) IsAbsent() bool { return n.kind == Absent }

// Get returns the member stored under key, or an Absent node.
func (n Node) Get(key string) Node {
	if n.kind != Map {
		return Node{}
	}
	i, ok := n.index[key]
	if !ok {
		return Node{}
	}
	return n.entries[i].Value
}

// Path walks a chain of keys.
func (n Node) Path(keys ...string) Node {
	cur := n
	for _, k := range keys {
		cur = cur.Get(k)
		if cur.kind == Absent {
			return cur
		}
	}
	return cur
}

// Index returns the i-th array element, or an Absent node.
func (n Node) Index(i int) Node {
	if n.kind != Array || i < 0 || i >= len(n.items) {
		return Node{}
	}
	return n.items[i]
}

// Len returns the number of array elements or map members.
func (n Node) Len() int {
	switch n.kind {
	case Array:
		return len(n.items)
	case Map:
		return len(n.entries)
	default:
		return 0
	}
}

// AsString returns the value of a String node.
func (n Node) AsString() (string, bool) {
	if n.kind != String {
		return "", false
	}
	return n.scalar, true
}

// StringOr returns the value of a String node or def.
func (n Node) StringOr(def string) string {
	if s, ok := n.AsString(); ok {
		return s
	}
	return def
}

// AsBool returns the value of a Bool node.
func (n Node) AsBool() (bool, bool) {
	if n.kind != Bool {
		return false, false
	}
	b, err := strconv.ParseBool(n.scalar)
	if err != nil {
		return false, false
	}
	return b, true
}

// BoolOr returns the value of a Bool node or def.
func (n Node) BoolOr(def bool) bool {
	if b, ok := n.AsBool(); ok {
		return b
	}
	return def
}

// Scalar returns the literal text of any String, Number or Bool node.
func (n Node) Scalar() (string, bool) {
	switch n.kind {
	case String, Number, Bool:
		return n.scalar, true
	default:
		return "", false
	}
}

// AsArray returns the elements of an Array node.
func (n Node) AsArray() ([]Node, bool) {
	if n.kind != Array {
		return nil, false
	}
	return n.items, true
}

// AsMap returns the members of a Map node in document order.
func (n Node) AsMap() ([]Entry, bool) {
	if n.kind != Map {
		return nil, false
	}
	return n.entries, true
}

// Keys returns the member names of a Map node in document order.
func (n Node) Keys() []string {
	if n.kind != Map {
		return nil
	}
	keys := make([]string, 0, len(n.entries))
	for _, e := range n.entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// NewString builds a String node.
func NewString(s string) Node { return Node{kind: String, scalar: s} }

// NewBool builds a Bool node.
func NewBool(b bool) Node { return Node{kind: Bool, scalar: strconv.FormatBool(b)} }

// NewArray builds an Array node.
func NewArray(items ...Node) Node {
	return Node{kind: Array, items: append([]Node(nil), items...)}
}

// NewMap builds a Map node. A repeated key replaces the earlier value in place.
func NewMap(entries ...Entry) Node {
	n := Node{kind: Map, index: make(map[string]int, len(entries))}
	for _, e := range entries {
		n.set(e.Key, e.Value)
	}
	return n
}

func (n *Node) set(key string, value Node) {
	if i, ok := n.index[key]; ok {
		n.entries[i].Value = value
		return
	}
	n.index[key] = len(n.entries)
	n.entries = append(n.entries, Entry{Key: key, Value: value})
}
