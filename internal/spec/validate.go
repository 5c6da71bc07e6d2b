package spec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/invopop/yaml"
	yamlv3 "gopkg.in/yaml.v3"
)

// Validate checks raw against the OpenAPI schema rules kin-openapi knows.
// Swagger 2 documents are converted to OpenAPI 3 first. The result is a
// diagnostic; nothing in the build depends on it.
func Validate(ctx context.Context, raw []byte, location string) error {
	version, err := detectSpecVersion(raw)
	if err != nil {
		return &SpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}

	var doc *openapi3.T
	switch version {
	case 3:
		loader := openapi3.NewLoader()
		loader.IsExternalRefsAllowed = false
		doc, err = loader.LoadFromData(raw)
		if err != nil {
			return mapValidateOrParseErr(err, location)
		}
	case 2:
		doc, err = convertV2ToV3(raw)
		if err != nil {
			return &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2->v3: %v", err), Location: location, Cause: err}
		}
	}

	if err := doc.Validate(ctx); err != nil {
		return mapValidateOrParseErr(err, location)
	}
	return nil
}

// detectSpecVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else error.
func detectSpecVersion(data []byte) (int, error) {
	var root map[string]any
	if err := yamlv3.Unmarshal(data, &root); err != nil {
		return 0, fmt.Errorf("parse spec: %w", err)
	}
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3, nil
		}
	}
	if v, ok := root["swagger"]; ok {
		if s := fmt.Sprint(v); strings.HasPrefix(strings.TrimSpace(s), "2") {
			return 2, nil
		}
	}
	return 0, errors.New("spec: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')")
}

func convertV2ToV3(data []byte) (*openapi3.T, error) {
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	var v2 openapi2.T
	if err := json.Unmarshal(js, &v2); err != nil {
		return nil, err
	}
	return openapi2conv.ToV3(&v2)
}

func mapValidateOrParseErr(err error, location string) error {
	pointer := extractJSONPointer(err)
	code := ValidationError
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unmarshal") || strings.Contains(msg, "invalid character") || strings.Contains(msg, "yaml:") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: pointer, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	var me openapi3.MultiError
	if errors.As(err, &me) && len(me) > 0 {
		return extractJSONPointer(me[0])
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}
