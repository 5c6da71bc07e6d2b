package tree

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrParse is returned when the document is not valid YAML or JSON.
var ErrParse = errors.New("parse document")

// maxAliasDepth guards against alias chains that point back at themselves.
const maxAliasDepth = 64

// Parse decodes the first YAML (or JSON) document in data. An empty input
// yields an Absent root.
func Parse(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Node{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return FromYAML(&doc)
}

// FromYAML converts a yaml.v3 node into a tree node. Anchors and merge keys
// are expanded.
func FromYAML(y *yaml.Node) (Node, error) {
	return convert(y, 0)
}

func convert(y *yaml.Node, depth int) (Node, error) {
	if y == nil {
		return Node{}, nil
	}
	if depth > maxAliasDepth {
		return Node{}, fmt.Errorf("%w: alias nesting deeper than %d at line %d", ErrParse, maxAliasDepth, y.Line)
	}
	switch y.Kind {
	case 0:
		return Node{}, nil
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return Node{}, nil
		}
		return convert(y.Content[0], depth)
	case yaml.AliasNode:
		return convert(y.Alias, depth+1)
	case yaml.ScalarNode:
		return scalar(y), nil
	case yaml.SequenceNode:
		items := make([]Node, 0, len(y.Content))
		for _, c := range y.Content {
			item, err := convert(c, depth)
			if err != nil {
				return Node{}, err
			}
			items = append(items, item)
		}
		return Node{kind: Array, items: items}, nil
	case yaml.MappingNode:
		return mapping(y, depth)
	default:
		return Node{}, fmt.Errorf("%w: unexpected node kind %d at line %d", ErrParse, y.Kind, y.Line)
	}
}

func scalar(y *yaml.Node) Node {
	switch y.ShortTag() {
	case "!!null":
		return Node{kind: Null, scalar: y.Value}
	case "!!bool":
		return Node{kind: Bool, scalar: y.Value}
	case "!!int", "!!float":
		return Node{kind: Number, scalar: y.Value}
	default:
		return Node{kind: String, scalar: y.Value}
	}
}

func mapping(y *yaml.Node, depth int) (Node, error) {
	n := Node{kind: Map, index: make(map[string]int, len(y.Content)/2)}
	var merges []*yaml.Node
	for i := 0; i+1 < len(y.Content); i += 2 {
		k, v := y.Content[i], y.Content[i+1]
		if k.Kind == yaml.ScalarNode && k.ShortTag() == "!!merge" {
			merges = append(merges, v)
			continue
		}
		if k.Kind == yaml.AliasNode && k.Alias != nil {
			k = k.Alias
		}
		if k.Kind != yaml.ScalarNode {
			return Node{}, fmt.Errorf("%w: non-scalar mapping key at line %d", ErrParse, k.Line)
		}
		value, err := convert(v, depth)
		if err != nil {
			return Node{}, err
		}
		n.set(k.Value, value)
	}
	// Explicit keys take precedence over merged ones.
	for _, m := range merges {
		src, err := convert(m, depth+1)
		if err != nil {
			return Node{}, err
		}
		var sources []Node
		switch src.kind {
		case Map:
			sources = []Node{src}
		case Array:
			sources = src.items
		}
		for _, s := range sources {
			for _, e := range s.entries {
				if _, exists := n.index[e.Key]; !exists {
					n.set(e.Key, e.Value)
				}
			}
		}
	}
	return n, nil
}
