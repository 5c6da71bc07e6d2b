package cli

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mark3labs/swagger2tex/internal/spec"
)

// EnvSwaggerHubToken supplies --authorization when the flag and config are empty.
const EnvSwaggerHubToken = "SWAGGERHUB_TOKEN"

// EnvSwaggerHubURL points SwaggerHub sources at another registry, e.g. an
// on-premise install.
const EnvSwaggerHubURL = "SWAGGERHUB_URL"

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Source        spec.Source
	SwaggerHubURL string
	Out           string
	FileName      string
	Template      string
	IncludeTags   []string
	ExcludeTags   []string
	Methods       []string
	Paths         []string
	LegacyRefs    bool
	ModelJSON     bool
	Validate      bool
	StatusPhrases map[string]string
	SuccessCodes  []string
	ConfigPath    string
	DryRun        bool
	Force         bool
	Verbose       bool

	stdout io.Writer
	stderr io.Writer
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Out: ".", FileName: "documentation.tex"}
}

func (c *GenerateConfig) normalize() {
	c.Source.Input = strings.TrimSpace(c.Source.Input)
	c.Source.Owner = strings.TrimSpace(c.Source.Owner)
	c.Source.API = strings.TrimSpace(c.Source.API)
	c.Source.Version = strings.TrimSpace(c.Source.Version)
	c.Source.Authorization = strings.TrimSpace(c.Source.Authorization)
	if c.Source.Authorization == "" {
		c.Source.Authorization = strings.TrimSpace(os.Getenv(EnvSwaggerHubToken))
	}
	c.SwaggerHubURL = strings.TrimSpace(c.SwaggerHubURL)
	if c.SwaggerHubURL == "" {
		c.SwaggerHubURL = strings.TrimSpace(os.Getenv(EnvSwaggerHubURL))
	}
	c.Out = strings.TrimSpace(c.Out)
	if c.Out == "" {
		c.Out = "."
	}
	c.FileName = strings.TrimSpace(c.FileName)
	c.Template = strings.TrimSpace(c.Template)
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
	c.Methods = sanitizeTags(c.Methods)
	c.Paths = sanitizeTags(c.Paths)
	c.SuccessCodes = sanitizeTags(c.SuccessCodes)
}

func (c *GenerateConfig) validate(cmdName string) error {
	if err := validateSource(cmdName, c.Source); err != nil {
		return err
	}

	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return newUsageError(fmt.Sprintf("%s: include/exclude tags overlap: %s", cmdName, strings.Join(overlap, ", ")))
	}
	for _, m := range c.Methods {
		if _, ok := spec.ParseHttpMethod(m); !ok {
			return newUsageError(fmt.Sprintf("%s: unsupported --methods value %q", cmdName, m))
		}
	}
	for _, p := range c.Paths {
		if _, err := regexp.Compile(p); err != nil {
			return newUsageError(fmt.Sprintf("%s: invalid --paths pattern %q: %v", cmdName, p, err))
		}
	}
	return nil
}

func validateSource(cmdName string, src spec.Source) error {
	hub := src.Owner != "" || src.API != "" || src.Version != ""
	switch {
	case src.Input != "" && hub:
		return newUsageError(fmt.Sprintf("%s: use either --input or --owner/--api/--api-version, not both", cmdName))
	case src.Input == "" && !hub:
		return newUsageError(fmt.Sprintf("%s: --input or --owner/--api/--api-version is required (set via flag or config file)", cmdName))
	case hub && (src.Owner == "" || src.API == "" || src.Version == ""):
		return newUsageError(fmt.Sprintf("%s: --owner, --api and --api-version must be given together", cmdName))
	}
	return nil
}

// httpMethods converts validated method names.
func (c *GenerateConfig) httpMethods() []spec.HttpMethod {
	out := make([]spec.HttpMethod, 0, len(c.Methods))
	for _, m := range c.Methods {
		if hm, ok := spec.ParseHttpMethod(m); ok {
			out = append(out, hm)
		}
	}
	return out
}

// loadOptions returns the loader options implied by the config.
func loadOptions(hubURL string) []spec.Option {
	if hubURL == "" {
		return nil
	}
	return []spec.Option{spec.WithSwaggerHubURL(hubURL)}
}

// statusTable layers the configured phrases and success codes over the defaults.
func (c *GenerateConfig) statusTable() spec.StatusTable {
	table := spec.DefaultStatusTable().WithPhrases(c.StatusPhrases)
	if len(c.SuccessCodes) > 0 {
		table.SuccessCodes = append([]string(nil), c.SuccessCodes...)
	}
	return table
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := applyConfigField(cfg, key, raw[key]); err != nil {
			if isUnknownField(err) {
				return newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
			}
			return newUsageError(fmt.Sprintf("config field %q: %v", key, err))
		}
	}
	return nil
}

type unknownFieldError struct{}

func (unknownFieldError) Error() string { return "unknown field" }

func isUnknownField(err error) bool {
	_, ok := err.(unknownFieldError)
	return ok
}

func applyConfigField(cfg *GenerateConfig, key string, value any) error {
	var err error
	switch normalizeKey(key) {
	case "input":
		cfg.Source.Input, err = valueAsString(value)
	case "owner":
		cfg.Source.Owner, err = valueAsString(value)
	case "api":
		cfg.Source.API, err = valueAsString(value)
	case "apiversion":
		cfg.Source.Version, err = valueAsString(value)
	case "authorization":
		cfg.Source.Authorization, err = valueAsString(value)
	case "swaggerhuburl":
		cfg.SwaggerHubURL, err = valueAsString(value)
	case "out":
		cfg.Out, err = valueAsString(value)
	case "filename":
		cfg.FileName, err = valueAsString(value)
	case "template":
		cfg.Template, err = valueAsString(value)
	case "includetags":
		cfg.IncludeTags, err = valueAsStringSlice(value)
	case "excludetags":
		cfg.ExcludeTags, err = valueAsStringSlice(value)
	case "methods":
		cfg.Methods, err = valueAsStringSlice(value)
	case "paths":
		cfg.Paths, err = valueAsPatternList(value)
	case "legacyrefs":
		cfg.LegacyRefs, err = valueAsBool(value)
	case "modeljson":
		cfg.ModelJSON, err = valueAsBool(value)
	case "validate":
		cfg.Validate, err = valueAsBool(value)
	case "statusphrases":
		cfg.StatusPhrases, err = valueAsStringMap(value)
	case "successcodes":
		cfg.SuccessCodes, err = valueAsStringSlice(value)
	case "dryrun":
		cfg.DryRun, err = valueAsBool(value)
	case "force":
		cfg.Force, err = valueAsBool(value)
	case "verbose":
		cfg.Verbose, err = valueAsBool(value)
	default:
		return unknownFieldError{}
	}
	return err
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

// valueAsString accepts strings and scalars; status codes are often written
// as bare numbers.
func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case int, int64, uint64, float64:
		return fmt.Sprint(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

// valueAsPatternList reads regular expressions. Only YAML lists are accepted
// and elements are never split, since a pattern such as ^/v{1,2}/ holds commas.
func valueAsPatternList(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected list of patterns, got %T", v)
	}
}

func valueAsStringMap(v any) (map[string]string, error) {
	out := map[string]string{}
	put := func(k, val any) error {
		key, err := valueAsString(k)
		if err != nil {
			return fmt.Errorf("key: %w", err)
		}
		str, err := valueAsString(val)
		if err != nil {
			return fmt.Errorf("value for %q: %w", key, err)
		}
		out[key] = str
		return nil
	}
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		for k, e := range val {
			if err := put(k, e); err != nil {
				return nil, err
			}
		}
	case map[any]any:
		for k, e := range val {
			if err := put(k, e); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("expected mapping, got %T", v)
	}
	return out, nil
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}
