package spec

import "strings"

// Documentation model handed to the emitters. JSON names are stable because
// templates and model.json consumers address fields by name.

type HttpMethod string

const (
	GET     HttpMethod = "get"
	POST    HttpMethod = "post"
	PUT     HttpMethod = "put"
	DELETE  HttpMethod = "delete"
	PATCH   HttpMethod = "patch"
	HEAD    HttpMethod = "head"
	OPTIONS HttpMethod = "options"
	TRACE   HttpMethod = "trace"
)

// ParseHttpMethod maps a path item key onto a method. Keys such as
// "parameters" or "summary" are not operations.
func ParseHttpMethod(key string) (HttpMethod, bool) {
	switch m := HttpMethod(strings.ToLower(strings.TrimSpace(key))); m {
	case GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS, TRACE:
		return m, true
	default:
		return "", false
	}
}

type Documentation struct {
	Title     string     `json:"title"`
	Host      string     `json:"host"`
	BaseURL   string     `json:"base_url"`
	Endpoints []Endpoint `json:"requests"`
	Schemas   []Schema   `json:"schemas"`
}

// Endpoint groups every operation declared under one path.
type Endpoint struct {
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Operations      []Operation `json:"methods"`
	RequestHeaders  *FieldGroup `json:"request_headers,omitempty"`
	QueryParameters *FieldGroup `json:"query_parameters,omitempty"`
	RequestBody     *FieldGroup `json:"request_body,omitempty"`
	Responses       []Response  `json:"responses"`
}

type Operation struct {
	Method      HttpMethod `json:"method"`
	Path        string     `json:"path"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags,omitempty"`
}

type FieldGroup struct {
	Fields []Field `json:"params"`
}

func (g *FieldGroup) add(f Field) { g.Fields = append(g.Fields, f) }

// orNil drops empty groups so templates can test for presence.
func (g *FieldGroup) orNil() *FieldGroup {
	if g == nil || len(g.Fields) == 0 {
		return nil
	}
	return g
}

// Field is one parameter, property, enum literal or body. Description is
// already LaTeX.
type Field struct {
	Name        string `json:"field"`
	Type        string `json:"param_type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
	Example     string `json:"example"`
	PureType    string `json:"pure_type"`
}

func NewField(name, typ string, required bool, description, example string) Field {
	return Field{
		Name:        name,
		Type:        typ,
		Required:    required,
		Description: description,
		Example:     example,
		PureType:    PureType(typ),
	}
}

var pureTypeReplacer = strings.NewReplacer("[", "", "]", "", "Map<string,", "", ">", "")

// PureType strips container decorations so a field can be linked to the
// schema it carries: "Pet[]" and "Map<string,Pet>" both become "Pet".
func PureType(typ string) string { return pureTypeReplacer.Replace(typ) }

type Response struct {
	StatusCode      string  `json:"status_code"`
	StatusText      string  `json:"status_string"`
	Error           bool    `json:"error"`
	ContentType     string  `json:"content_type"`
	ApplicationJSON bool    `json:"application_json"`
	Description     string  `json:"description"`
	Fields          []Field `json:"params"`
}

const defaultContentType = "application/json"

func (r *Response) setContentType(ct string) {
	r.ContentType = ct
	r.ApplicationJSON = strings.Contains(ct, defaultContentType)
}

type Schema struct {
	Name       string  `json:"name"`
	Fields     []Field `json:"fields"`
	EnumFields []Field `json:"enum_fields"`
	IsEnum     bool    `json:"is_enum"`
}

func NewSchema(name string, fields, enumFields []Field) Schema {
	return Schema{
		Name:       name,
		Fields:     fields,
		EnumFields: enumFields,
		IsEnum:     len(enumFields) > 0,
	}
}
