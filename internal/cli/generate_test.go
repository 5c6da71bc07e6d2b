package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2tex/internal/spec"
)

// captureGenerate swaps the runner for one that records the resolved config.
func captureGenerate(t *testing.T) **GenerateConfig {
	t.Helper()
	var captured *GenerateConfig
	generateRunner = func(ctx context.Context, cfg *GenerateConfig) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })
	return &captured
}

func execute(args ...string) error {
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.Execute()
}

func TestGenerateConfigFromFlags(t *testing.T) {
	t.Setenv(EnvSwaggerHubToken, "")
	t.Setenv(EnvSwaggerHubURL, "")
	captured := captureGenerate(t)

	require.NoError(t, execute(
		"--verbose",
		"generate",
		"--input", "spec.yaml",
		"--out", "./build",
		"--file-name", "api.tex",
		"--template", "custom.gotmpl",
		"--include-tags", "foo,bar",
		"--exclude-tags", "baz",
		"--methods", "GET,post",
		"--paths", "^/pets",
		"--legacy-refs",
		"--model-json",
		"--validate",
		"--dry-run",
		"--force",
	))

	cfg := *captured
	require.NotNil(t, cfg)
	assert.Equal(t, spec.Source{Input: "spec.yaml"}, cfg.Source)
	assert.Equal(t, "./build", cfg.Out)
	assert.Equal(t, "api.tex", cfg.FileName)
	assert.Equal(t, "custom.gotmpl", cfg.Template)
	assert.Equal(t, []string{"foo", "bar"}, cfg.IncludeTags)
	assert.Equal(t, []string{"baz"}, cfg.ExcludeTags)
	assert.Equal(t, []spec.HttpMethod{spec.GET, spec.POST}, cfg.httpMethods())
	assert.Equal(t, []string{"^/pets"}, cfg.Paths)
	assert.True(t, cfg.LegacyRefs)
	assert.True(t, cfg.ModelJSON)
	assert.True(t, cfg.Validate)
	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.Force)
	assert.True(t, cfg.Verbose)
}

func TestGenerateConfigDefaults(t *testing.T) {
	t.Setenv(EnvSwaggerHubToken, "")
	captured := captureGenerate(t)

	require.NoError(t, execute("generate", "--input", "spec.yaml"))
	cfg := *captured
	assert.Equal(t, ".", cfg.Out)
	assert.Equal(t, "documentation.tex", cfg.FileName)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, spec.DefaultStatusTable(), cfg.statusTable())
}

func TestGenerateConfigSwaggerHub(t *testing.T) {
	t.Setenv(EnvSwaggerHubToken, "from-env")
	t.Setenv(EnvSwaggerHubURL, "https://hub.internal/apis")
	captured := captureGenerate(t)

	require.NoError(t, execute("generate", "--owner", "acme", "--api", "pets", "--api-version", "1.0.0"))
	assert.Equal(t, spec.Source{Owner: "acme", API: "pets", Version: "1.0.0", Authorization: "from-env"}, (*captured).Source)
	assert.Equal(t, "https://hub.internal/apis", (*captured).SwaggerHubURL)
	assert.Len(t, loadOptions((*captured).SwaggerHubURL), 1)
	assert.Empty(t, loadOptions(""))

	require.NoError(t, execute("generate", "--owner", "acme", "--api", "pets", "--api-version", "1.0.0", "--authorization", "flag"))
	assert.Equal(t, "flag", (*captured).Source.Authorization)
}

func TestGenerateConfigPrecedence(t *testing.T) {
	t.Setenv(EnvSwaggerHubToken, "")
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := strings.TrimSpace(`input: config-spec.yaml
out: from-config
file_name: cfg.tex
includeTags:
  - cfgFoo
excludeTags: cfgBar
methods: [get]
statusPhrases:
  404: Not Found
  "201": Created
successCodes: [200, 201]
modelJson: yes
dryRun: true
force: false
verbose: true
`) + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o600))
	captured := captureGenerate(t)

	require.NoError(t, execute(
		"--config", configPath,
		"generate",
		"--input", "flag-spec.yaml",
		"--include-tags", "flagTag",
		"--dry-run=false",
		"--force",
	))

	cfg := *captured
	require.NotNil(t, cfg)
	assert.Equal(t, "flag-spec.yaml", cfg.Source.Input)
	assert.Equal(t, "from-config", cfg.Out)
	assert.Equal(t, "cfg.tex", cfg.FileName)
	assert.Equal(t, []string{"flagTag"}, cfg.IncludeTags)
	assert.Equal(t, []string{"cfgBar"}, cfg.ExcludeTags)
	assert.Equal(t, []string{"get"}, cfg.Methods)
	assert.True(t, cfg.ModelJSON)
	assert.False(t, cfg.DryRun, "flag overrides config")
	assert.True(t, cfg.Force, "flag overrides config")
	assert.True(t, cfg.Verbose, "from config file")
	assert.Equal(t, configPath, cfg.ConfigPath)

	table := cfg.statusTable()
	assert.Equal(t, "Not Found", table.Phrase("404"))
	assert.Equal(t, "Created", table.Phrase("201"))
	assert.Equal(t, "Success", table.Phrase("200"))
	assert.False(t, table.IsError("201"))
	assert.True(t, table.IsError("302"))
}

func TestGenerateConfigUnknownKey(t *testing.T) {
	t.Parallel()
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("unknown: value\n"), 0o600))

	err := execute("--config", configPath, "generate", "--input", "spec.yaml")
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestGenerateConfigBadValue(t *testing.T) {
	t.Parallel()
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("force: maybe\n"), 0o600))

	err := execute("--config", configPath, "generate", "--input", "spec.yaml")
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), `config field "force"`)
}

func TestGenerateConfigValidation(t *testing.T) {
	t.Setenv(EnvSwaggerHubToken, "")
	cases := map[string][]string{
		"no source":        {"generate"},
		"both sources":     {"generate", "--input", "a.yaml", "--owner", "acme", "--api", "x", "--api-version", "1"},
		"partial hub":      {"generate", "--owner", "acme"},
		"tag overlap":      {"generate", "--input", "a.yaml", "--include-tags", "a", "--exclude-tags", "a"},
		"bad method":       {"generate", "--input", "a.yaml", "--methods", "fetch"},
		"bad path pattern": {"generate", "--input", "a.yaml", "--paths", "("},
	}
	for name, args := range cases {
		err := execute(args...)
		assert.ErrorIs(t, err, ErrUsage, name)
	}
}

func TestValueHelpers(t *testing.T) {
	t.Parallel()
	m, err := valueAsStringMap(map[any]any{404: "Not Found", "500": "Boom"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"404": "Not Found", "500": "Boom"}, m)

	_, err = valueAsStringMap([]any{"x"})
	assert.Error(t, err)

	list, err := valueAsStringSlice("a, b,,c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, list)

	list, err = valueAsStringSlice([]any{200, "302"})
	require.NoError(t, err)
	assert.Equal(t, []string{"200", "302"}, list)

	_, err = valueAsBool("maybe")
	assert.Error(t, err)

	assert.Equal(t, "apiversion", normalizeKey(" API_Version "))
	assert.Equal(t, []string{"b"}, intersect([]string{"a", "b"}, []string{"b", "c"}))
}

func TestGenerateConfigPathPatternsKeepCommas(t *testing.T) {
	t.Setenv(EnvSwaggerHubToken, "")
	captured := captureGenerate(t)

	require.NoError(t, execute("generate", "--input", "spec.yaml",
		"--paths", "^/v{1,2}/pets$", "--paths", "^/admin"))
	assert.Equal(t, []string{"^/v{1,2}/pets$", "^/admin"}, (*captured).Paths)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("paths:\n  - ^/v{1,2}/pets$\n"), 0o600))
	require.NoError(t, execute("--config", configPath, "generate", "--input", "spec.yaml"))
	assert.Equal(t, []string{"^/v{1,2}/pets$"}, (*captured).Paths)

	// A scalar is never split into several patterns.
	require.NoError(t, os.WriteFile(configPath, []byte("paths: ^/v{1,2}/pets$\n"), 0o600))
	err := execute("--config", configPath, "generate", "--input", "spec.yaml")
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "expected list of patterns")
}
