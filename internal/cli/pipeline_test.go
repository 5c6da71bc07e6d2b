package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalSpecYAML = `openapi: 3.0.0
info:
  title: Test API
  version: '1.0.0'
servers:
  - url: https://api.example.com
paths:
  /hello:
    get:
      summary: Hello
      tags: [greeting]
      parameters:
        - name: name
          in: query
          schema: {type: string}
      responses:
        '200':
          description: ok
          content:
            application/json:
              schema: {$ref: '#/components/schemas/com.acme.Greeting'}
components:
  schemas:
    com.acme.Greeting:
      type: object
      required: [text]
      properties:
        text: {type: string, example: hi}
`

func writeSpec(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalSpecYAML), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGeneratePipeline_DryRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	specPath := writeSpec(t, dir)
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "generate", "--input", specPath, "--out", outDir, "--model-json", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Planned writes to")
	assert.Contains(t, out, "(2 files)")
	assert.Contains(t, out, "- documentation.tex")
	assert.Contains(t, out, "- model.json")

	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr), "dry run must not create the output directory")
}

func TestGeneratePipeline_Writes(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	specPath := writeSpec(t, dir)
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "generate", "--input", specPath, "--out", outDir, "--model-json", "--validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+filepath.Join(outDir, "documentation.tex"))

	tex, err := os.ReadFile(filepath.Join(outDir, "documentation.tex"))
	require.NoError(t, err)
	assert.Contains(t, string(tex), `\title{Test API}`)
	assert.Contains(t, string(tex), "https://api.example.com")
	assert.Contains(t, string(tex), "Greeting")

	data, err := os.ReadFile(filepath.Join(outDir, "model.json"))
	require.NoError(t, err)
	var model struct {
		Title    string `json:"title"`
		Host     string `json:"host"`
		Requests []struct {
			Title string `json:"title"`
		} `json:"requests"`
		Schemas []struct {
			Name string `json:"name"`
		} `json:"schemas"`
	}
	require.NoError(t, json.Unmarshal(data, &model))
	assert.Equal(t, "Test API", model.Title)
	assert.Equal(t, "https://api.example.com", model.Host)
	require.Len(t, model.Requests, 1)
	assert.Equal(t, "/hello", model.Requests[0].Title)
	require.Len(t, model.Schemas, 1)

	// A second run without --force refuses to overwrite.
	_, err = run(t, "generate", "--input", specPath, "--out", outDir)
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "--force")

	_, err = run(t, "generate", "--input", specPath, "--out", outDir, "--force")
	require.NoError(t, err)
}

func TestGeneratePipeline_MalformedDocument(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	specPath := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte("openapi: 3.0.0\ninfo: {}\npaths: {}\n"), 0o600))

	_, err := run(t, "generate", "--input", specPath, "--out", filepath.Join(dir, "out"))
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "#/info/title")
}

func TestGeneratePipeline_MissingInput(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_, err := run(t, "generate", "--input", filepath.Join(dir, "nope.yaml"), "--out", dir)
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "Location:")
}

func TestGeneratePipeline_PathPatternWithQuantifier(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	specPath := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(specPath, []byte(`openapi: 3.0.0
info: {title: Versions, version: '1'}
paths:
  /v1/pets:
    get: {summary: v1, responses: {'200': {description: ok}}}
  /v2/pets:
    get: {summary: v2, responses: {'200': {description: ok}}}
  /v3/pets:
    get: {summary: v3, responses: {'200': {description: ok}}}
`), 0o600))
	outDir := filepath.Join(dir, "out")

	_, err := run(t, "generate", "--input", specPath, "--out", outDir, "--model-json", "--paths", "^/v{1,2}/pets$")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "model.json"))
	require.NoError(t, err)
	var model struct {
		Requests []struct {
			Title string `json:"title"`
		} `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(data, &model))
	require.Len(t, model.Requests, 2)
	assert.Equal(t, "/v1/pets", model.Requests[0].Title)
	assert.Equal(t, "/v2/pets", model.Requests[1].Title)
}
