package spec

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mark3labs/swagger2tex/internal/tree"
)

// Placeholders emitted in place of element types that are not declared.
const (
	UnknownProperty = "unknown property"
	UnknownType     = "unknown type"
)

const componentsSchemasPrefix = "#/components/schemas/"

// RefStripping selects how $ref values are reduced to a type name.
type RefStripping int

const (
	// RefTail keeps the part after the last "/" for every $ref.
	RefTail RefStripping = iota
	// RefLegacy keeps RefTail for schema-wrapped nodes but only drops a
	// literal "#/components/schemas/" prefix for property nodes, so
	// "#/definitions/Pet" stays as is.
	RefLegacy
)

// TypeResolver derives display type names from schema nodes.
type TypeResolver struct {
	Refs RefStripping
}

// ResolveType resolves a schema-wrapped node (parameter, media type or legacy
// response) with the default resolver.
func ResolveType(n tree.Node) (string, error) { return TypeResolver{}.Resolve(n) }

// ResolvePropertyType resolves an object property node with the default resolver.
func ResolvePropertyType(n tree.Node) (string, error) { return TypeResolver{}.ResolveProperty(n) }

// Resolve prefers the type carried by the node's "schema" child and falls
// back to the node itself.
func (r TypeResolver) Resolve(n tree.Node) (string, error) {
	if typ, ok := r.resolveSchema(n.Get("schema"), stripRefTail); ok {
		return typ, nil
	}
	if typ, ok := r.resolveType(n, stripRefTail); ok {
		return typ, nil
	}
	return "", ErrTypeNotFound
}

// ResolveProperty resolves a node that carries its type directly.
func (r TypeResolver) ResolveProperty(n tree.Node) (string, error) {
	if typ, ok := r.resolveSchema(n, r.propertyStripper()); ok {
		return typ, nil
	}
	return "", ErrTypeNotFound
}

func (r TypeResolver) propertyStripper() func(string) string {
	if r.Refs == RefLegacy {
		return stripComponentsPrefix
	}
	return stripRefTail
}

// resolveSchema applies the type rules first and the $ref rule second.
func (r TypeResolver) resolveSchema(s tree.Node, strip func(string) string) (string, bool) {
	if typ, ok := r.resolveType(s, strip); ok {
		return typ, true
	}
	if ref, ok := s.Get("$ref").AsString(); ok {
		return ShortenTypeName(strip(ref)), true
	}
	return "", false
}

func (r TypeResolver) resolveType(s tree.Node, strip func(string) string) (string, bool) {
	typ, ok := s.Get("type").AsString()
	if !ok {
		return "", false
	}
	switch typ {
	case "array":
		return arrayElement(s.Get("items"), strip) + "[]", true
	case "object":
		return "Map<string," + ShortenTypeName(mapElement(s.Get("additionalProperties"), strip)) + ">", true
	default:
		return typ, true
	}
}

func arrayElement(items tree.Node, strip func(string) string) string {
	if typ, ok := items.Get("type").AsString(); ok {
		return typ
	}
	if ref, ok := items.Get("$ref").AsString(); ok {
		return ShortenTypeName(strip(ref))
	}
	return UnknownProperty
}

func mapElement(props tree.Node, strip func(string) string) string {
	if ref, ok := props.Get("$ref").AsString(); ok {
		return strip(ref)
	}
	if typ, ok := props.Get("type").AsString(); ok {
		return typ
	}
	return UnknownType
}

func stripRefTail(ref string) string {
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func stripComponentsPrefix(ref string) string {
	return strings.ReplaceAll(ref, componentsSchemasPrefix, "")
}

// ShortenTypeName collapses a dotted, namespaced name to its segments that
// start with an upper case letter: "a.B.c.D" becomes "B.D". Names without a
// dot are returned unchanged; a dotted name without such segments yields "".
func ShortenTypeName(name string) string {
	if !strings.Contains(name, ".") {
		return name
	}
	parts := strings.Split(name, ".")
	kept := parts[:0]
	for _, part := range parts {
		first, _ := utf8.DecodeRuneInString(part)
		if part != "" && unicode.IsUpper(first) {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ".")
}
