package spec

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/mark3labs/swagger2tex/internal/markup"
	"github.com/mark3labs/swagger2tex/internal/tree"
)

// Placeholder values used when a document leaves something out.
const (
	DefaultHost            = "-"
	DefaultBodyDescription = "N/A"
)

// maxRefDepth bounds chains of local $ref between parameters, bodies and responses.
const maxRefDepth = 8

// BuildOption configures how the Documentation is built from a document tree.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[HttpMethod]struct{}
	pathRes     []*regexp.Regexp
	status      StatusTable
	resolver    TypeResolver
	logger      Logger
	converter   *markup.Converter
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		if len(tags) == 0 {
			return
		}
		if c.includeTags == nil {
			c.includeTags = make(map[string]struct{}, len(tags))
		}
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			c.includeTags[t] = struct{}{}
		}
	}
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		if len(tags) == 0 {
			return
		}
		if c.excludeTags == nil {
			c.excludeTags = make(map[string]struct{}, len(tags))
		}
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			c.excludeTags[t] = struct{}{}
		}
	}
}

// WithMethods keeps only operations using one of the provided HTTP methods.
func WithMethods(methods []HttpMethod) BuildOption {
	return func(c *buildConfig) {
		if len(methods) == 0 {
			return
		}
		if c.methods == nil {
			c.methods = make(map[HttpMethod]struct{}, len(methods))
		}
		for _, m := range methods {
			c.methods[m] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only paths matching at least one of the provided
// regular expressions. An invalid pattern matches nothing.
func WithPathPatterns(patterns []string) BuildOption {
	return func(c *buildConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				re = regexp.MustCompile("a^$")
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// WithStatusTable replaces the default status phrases and success codes.
func WithStatusTable(t StatusTable) BuildOption {
	return func(c *buildConfig) { c.status = t }
}

// WithLegacyRefStripping makes property $refs drop only a literal
// "#/components/schemas/" prefix, as older generated documentation did.
func WithLegacyRefStripping() BuildOption {
	return func(c *buildConfig) { c.resolver.Refs = RefLegacy }
}

// WithLogger routes build diagnostics to l. A nil logger is ignored.
func WithLogger(l Logger) BuildOption {
	return func(c *buildConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithConverter sets the converter used for every description.
func WithConverter(conv *markup.Converter) BuildOption {
	return func(c *buildConfig) {
		if conv != nil {
			c.converter = conv
		}
	}
}

// BuildResult is the outcome of a build: the model plus every placeholder the
// builder had to substitute.
type BuildResult struct {
	Documentation *Documentation
	Fallbacks     []*Fallback
}

// Err combines the fallbacks into one error, nil when there were none.
func (r *BuildResult) Err() error {
	if r == nil {
		return nil
	}
	var err error
	for _, f := range r.Fallbacks {
		err = multierr.Append(err, f)
	}
	return err
}

// builder carries the per-build state.
type builder struct {
	cfg       *buildConfig
	root      tree.Node
	fallbacks []*Fallback
}

// BuildDocumentation walks root and produces the documentation model. Missing
// info.title or paths abort the build with a *MalformedDocumentError; every
// other gap is filled with a placeholder and reported in BuildResult.Fallbacks.
func BuildDocumentation(ctx context.Context, root tree.Node, opts ...BuildOption) (*BuildResult, error) {
	cfg := &buildConfig{
		status:    DefaultStatusTable(),
		logger:    NopLogger(),
		converter: markup.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	title, ok := root.Path("info", "title").Scalar()
	if !ok {
		return nil, &MalformedDocumentError{Pointer: "#/info/title", Reason: "is missing"}
	}
	paths := root.Get("paths")
	if paths.Kind() != tree.Map {
		return nil, &MalformedDocumentError{Pointer: "#/paths", Reason: "is missing or not a map"}
	}

	b := &builder{cfg: cfg, root: root}
	doc := &Documentation{
		Title:     title,
		Host:      root.Get("servers").Index(0).Get("url").StringOr(DefaultHost),
		BaseURL:   root.Get("basePath").StringOr(""),
		Endpoints: []Endpoint{},
		Schemas:   []Schema{},
	}

	entries, _ := paths.AsMap()
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !b.allowPath(e.Key) {
			continue
		}
		if ep, ok := b.endpoint(e.Key, e.Value); ok {
			doc.Endpoints = append(doc.Endpoints, ep)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc.Schemas = b.schemas()

	res := &BuildResult{Documentation: doc, Fallbacks: b.fallbacks}
	cfg.logger.Info("documentation built",
		"title", doc.Title,
		"endpoints", len(doc.Endpoints),
		"schemas", len(doc.Schemas),
		"fallbacks", len(res.Fallbacks))
	return res, nil
}

func (b *builder) allowPath(p string) bool {
	if len(b.cfg.pathRes) == 0 {
		return true
	}
	for _, re := range b.cfg.pathRes {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

// endpoint builds the Endpoint for one path item. It reports false when the
// item declared operations and the filters removed all of them.
func (b *builder) endpoint(path string, item tree.Node) (Endpoint, bool) {
	ep := Endpoint{Title: path, Operations: []Operation{}, Responses: []Response{}}
	headers, queries, bodies := &FieldGroup{}, &FieldGroup{}, &FieldGroup{}
	base := pointer("paths", path)
	baseParams := b.parameters(item.Get("parameters"), base+"/parameters")

	seen := map[string]bool{}
	declared := 0
	entries, _ := item.AsMap()
	for _, e := range entries {
		method, ok := ParseHttpMethod(e.Key)
		if !ok {
			continue
		}
		declared++
		details := e.Value
		tags := stringList(details.Get("tags"))
		if !b.allowMethod(method) || !allowByTags(tags, b.cfg) {
			continue
		}

		op := Operation{
			Method:      method,
			Path:        path,
			Summary:     details.Get("summary").StringOr(""),
			Description: b.markup(details.Get("description").StringOr("")),
			Tags:        tags,
		}
		if op.Description != "" {
			ep.Description = op.Description
		}
		ep.Operations = append(ep.Operations, op)

		opPtr := base + "/" + escapePointer(e.Key)
		params := mergeParams(baseParams, b.parameters(details.Get("parameters"), opPtr+"/parameters"))
		for _, p := range params {
			if seen[p.key()] {
				continue
			}
			seen[p.key()] = true
			switch {
			case strings.Contains(p.in, "query"):
				queries.add(p.field)
			case strings.Contains(p.in, "header"):
				headers.add(p.field)
			}
		}

		if body, ptr := b.deref(details.Get("requestBody"), opPtr+"/requestBody"); body.Kind() == tree.Map {
			bodies.add(b.requestBody(body, ptr))
		}

		ep.Responses = append(ep.Responses, b.responses(details.Get("responses"), opPtr+"/responses")...)
	}

	if declared > 0 && len(ep.Operations) == 0 {
		return Endpoint{}, false
	}
	ep.RequestHeaders = headers.orNil()
	ep.QueryParameters = queries.orNil()
	ep.RequestBody = bodies.orNil()
	return ep, true
}

func (b *builder) allowMethod(m HttpMethod) bool {
	if len(b.cfg.methods) == 0 {
		return true
	}
	_, ok := b.cfg.methods[m]
	return ok
}

func allowByTags(tags []string, cfg *buildConfig) bool {
	if len(cfg.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := cfg.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := cfg.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}

type param struct {
	in    string
	name  string
	field Field
}

func (p param) key() string { return p.in + ":" + p.name }

func (b *builder) parameters(list tree.Node, ptr string) []param {
	items, _ := list.AsArray()
	out := make([]param, 0, len(items))
	for i, raw := range items {
		entry, at := b.deref(raw, indexPointer(ptr, i))
		if entry.Kind() != tree.Map {
			continue
		}
		name := entry.Get("name").StringOr("")
		out = append(out, param{
			in:   entry.Get("in").StringOr(""),
			name: name,
			field: NewField(
				escapeName(name),
				b.resolve(entry, at),
				entry.Get("required").BoolOr(false),
				b.markup(entry.Get("description").StringOr("")),
				example(entry),
			),
		})
	}
	return out
}

// mergeParams overlays operation parameters on path parameters; an operation
// parameter replaces the path parameter with the same location and name.
// An endpoint lists each location and name once; the first operation using
// it supplies the field.
func mergeParams(base, own []param) []param {
	if len(base) == 0 {
		return own
	}
	out := make([]param, 0, len(base)+len(own))
	for _, p := range base {
		overridden := false
		for _, o := range own {
			if o.key() == p.key() {
				overridden = true
				break
			}
		}
		if !overridden {
			out = append(out, p)
		}
	}
	return append(out, own...)
}

func (b *builder) requestBody(body tree.Node, ptr string) Field {
	return NewField(
		"",
		b.resolve(body.Path("content", defaultContentType), ptr+"/content/"+escapePointer(defaultContentType)),
		body.Get("required").BoolOr(false),
		b.markup(body.Get("description").StringOr(DefaultBodyDescription)),
		example(body),
	)
}

func (b *builder) responses(list tree.Node, ptr string) []Response {
	entries, _ := list.AsMap()
	out := make([]Response, 0, len(entries))
	for _, e := range entries {
		node, at := b.deref(e.Value, ptr+"/"+escapePointer(e.Key))
		description := b.markup(node.Get("description").StringOr(""))
		resp := Response{
			StatusCode:  e.Key,
			StatusText:  b.cfg.status.Phrase(e.Key),
			Error:       b.cfg.status.IsError(e.Key),
			Description: description,
			Fields:      []Field{},
		}
		resp.setContentType(defaultContentType)

		var typ string
		hasField := true
		switch {
		case !node.Path("content", defaultContentType).IsAbsent():
			typ = b.resolve(node.Path("content", defaultContentType), at+"/content/"+escapePointer(defaultContentType))
		case !node.Get("schema").IsAbsent():
			typ = b.resolve(node, at)
		default:
			hasField = false
			if keys := node.Get("content").Keys(); len(keys) > 0 {
				resp.setContentType(keys[0])
			}
		}
		if hasField {
			resp.Fields = append(resp.Fields, NewField("", typ, false, description, example(node)))
		}
		out = append(out, resp)
	}
	return out
}

func (b *builder) schemas() []Schema {
	defs := b.root.Path("components", "schemas")
	if defs.Kind() != tree.Map {
		defs = b.root.Get("definitions")
	}
	entries, _ := defs.AsMap()
	out := make([]Schema, 0, len(entries))
	for _, e := range entries {
		out = append(out, b.schema(e.Key, e.Value, b.schemaPointer(e.Key)))
	}
	return out
}

func (b *builder) schemaPointer(name string) string {
	if b.root.Path("components", "schemas").Kind() == tree.Map {
		return pointer("components", "schemas", name)
	}
	return pointer("definitions", name)
}

func (b *builder) schema(name string, node tree.Node, ptr string) Schema {
	fields := []Field{}
	enumFields := []Field{}

	required := map[string]bool{}
	for _, r := range stringList(node.Get("required")) {
		required[r] = true
	}

	if props, ok := node.Get("properties").AsMap(); ok {
		for _, p := range props {
			at := ptr + "/properties/" + escapePointer(p.Key)
			typ, err := b.cfg.resolver.ResolveProperty(p.Value)
			if err != nil {
				typ = b.fallback(at, UnknownType, err)
			}
			fields = append(fields, NewField(
				ShortenTypeName(escapeName(p.Key)),
				typ,
				required[p.Key],
				b.markup(p.Value.Get("description").StringOr("")),
				example(p.Value),
			))
		}
	} else if values, ok := node.Get("enum").AsArray(); ok {
		for _, v := range values {
			lit, _ := v.Scalar()
			enumFields = append(enumFields, NewField(escapeName(lit), "", false, "", ""))
		}
	}
	return NewSchema(ShortenTypeName(name), fields, enumFields)
}

// resolve runs the schema-wrapped resolver and records a fallback on failure.
func (b *builder) resolve(n tree.Node, ptr string) string {
	typ, err := b.cfg.resolver.Resolve(n)
	if err != nil {
		return b.fallback(ptr, UnknownType, err)
	}
	return typ
}

func (b *builder) fallback(ptr, placeholder string, err error) string {
	b.fallbacks = append(b.fallbacks, &Fallback{Pointer: ptr, Placeholder: placeholder, Err: err})
	b.cfg.logger.Debug("type fallback", "pointer", ptr, "placeholder", placeholder, "reason", err.Error())
	return placeholder
}

func (b *builder) markup(text string) string {
	if text == "" {
		return ""
	}
	return b.cfg.converter.Convert(text)
}

// deref follows local "#/..." references. It returns the node reached and its
// pointer; unresolvable references leave n unchanged.
func (b *builder) deref(n tree.Node, ptr string) (tree.Node, string) {
	for depth := 0; depth < maxRefDepth; depth++ {
		ref, ok := n.Get("$ref").AsString()
		if !ok || !strings.HasPrefix(ref, "#/") {
			return n, ptr
		}
		target := b.root.Path(splitPointer(ref)...)
		if target.IsAbsent() {
			b.cfg.logger.Warn("unresolved reference", "pointer", ptr, "ref", ref)
			return n, ptr
		}
		n, ptr = target, ref
	}
	b.cfg.logger.Warn("reference chain too deep", "pointer", ptr)
	return n, ptr
}

// example returns the literal text of a scalar example, else "".
func example(n tree.Node) string {
	s, _ := n.Get("example").Scalar()
	return s
}

func stringList(n tree.Node) []string {
	items, _ := n.AsArray()
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.Scalar(); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

var nameEscaper = strings.NewReplacer("_", `\_`)

func escapeName(s string) string { return nameEscaper.Replace(s) }

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

func escapePointer(s string) string { return pointerEscaper.Replace(s) }

func pointer(keys ...string) string {
	var sb strings.Builder
	sb.WriteString("#")
	for _, k := range keys {
		sb.WriteString("/")
		sb.WriteString(escapePointer(k))
	}
	return sb.String()
}

func indexPointer(ptr string, i int) string {
	return ptr + "/" + strconv.Itoa(i)
}

func splitPointer(ref string) []string {
	parts := strings.Split(strings.TrimPrefix(ref, "#/"), "/")
	for i, p := range parts {
		parts[i] = pointerUnescaper.Replace(p)
	}
	return parts
}
