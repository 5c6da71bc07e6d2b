package texemitter

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/swagger2tex/internal/spec"
)

func minimalDoc() *spec.Documentation {
	return &spec.Documentation{
		Title: "Pet Store & Friends",
		Host:  "https://api.example.com",
		Endpoints: []spec.Endpoint{{
			Title:       "/pets",
			Description: "List \\textbf{all} pets\n",
			Operations: []spec.Operation{
				{Method: spec.GET, Path: "/pets", Summary: "List pets", Tags: []string{"animals"}},
			},
			QueryParameters: &spec.FieldGroup{Fields: []spec.Field{
				spec.NewField(`page\_size`, "integer", true, "Max items\n", "20"),
			}},
			Responses: []spec.Response{{
				StatusCode:      "200",
				StatusText:      "Success",
				ContentType:     "application/json",
				ApplicationJSON: true,
				Description:     "ok\n",
				Fields:          []spec.Field{spec.NewField("", "Pet[]", false, "ok\n", "")},
			}, {
				StatusCode:  "404",
				StatusText:  "Internal Server Error",
				Error:       true,
				ContentType: "text/plain",
			}},
		}},
		Schemas: []spec.Schema{
			spec.NewSchema("Pet", []spec.Field{spec.NewField("tags", "Map<string,Tag>", false, "", "")}, nil),
			spec.NewSchema("Status", nil, []spec.Field{spec.NewField(`sold\_out`, "", false, "", "")}),
		},
	}
}

func TestEmit_DryRun_Plan(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	res, err := Emit(context.Background(), minimalDoc(), Options{OutDir: dir, WriteModel: true, DryRun: true})
	require.NoError(t, err)
	require.Len(t, res.Planned, 2)
	assert.Equal(t, DefaultFileName, res.Planned[0].RelPath)
	assert.Equal(t, ModelFileName, res.Planned[1].RelPath)
	assert.Positive(t, res.Planned[0].Size)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry run must not write")
}

func TestEmit_WriteAndContents(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "out")

	_, err := Emit(context.Background(), minimalDoc(), Options{OutDir: dir, WriteModel: true})
	require.NoError(t, err)

	tex, err := os.ReadFile(filepath.Join(dir, DefaultFileName))
	require.NoError(t, err)
	out := string(tex)
	assert.Contains(t, out, `\title{Pet Store \& Friends}`)
	assert.Contains(t, out, `\subsection{/pets}`)
	assert.Contains(t, out, `List \textbf{all} pets`)
	assert.Contains(t, out, `\paragraph{\texttt{GET} /pets} List pets \fbox{\small Animals}`)
	assert.Contains(t, out, `\subsubsection*{Query parameters}`)
	assert.NotContains(t, out, `Request headers`)
	assert.Contains(t, out, `page\_size & integer & yes & Max items`)
	assert.Contains(t, out, `Example: \texttt{20}`)
	assert.Contains(t, out, `\hyperref[schema:Pet]{Pet[]}`)
	assert.Contains(t, out, `Map\textless{}string,Tag\textgreater{}`)
	assert.Contains(t, out, `\paragraph{404 Internal Server Error} \textcolor{red}{error} \texttt{text/plain}`)
	assert.Contains(t, out, `\label{schema:Status}`)
	assert.Contains(t, out, `\item \texttt{sold\_out}`)
	assert.Contains(t, out, `\end{document}`)

	raw, err := os.ReadFile(filepath.Join(dir, ModelFileName))
	require.NoError(t, err)
	var model map[string]any
	require.NoError(t, json.Unmarshal(raw, &model))
	assert.Equal(t, "Pet Store & Friends", model["title"])
	assert.Contains(t, model, "requests")
	assert.Contains(t, model, "schemas")
}

func TestEmit_NoForce_ExistingFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte("x"), 0o600))

	_, err := Emit(context.Background(), minimalDoc(), Options{OutDir: dir})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutputExists))

	_, err = Emit(context.Background(), minimalDoc(), Options{OutDir: dir, Force: true})
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, DefaultFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `\begin{document}`)
}

func TestEmit_OtherFilesDoNotBlock(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	_, err := Emit(context.Background(), minimalDoc(), Options{OutDir: dir, FileName: "api.tex"})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "api.tex"))
	assert.NoFileExists(t, filepath.Join(dir, ModelFileName))
}

func TestEmit_CustomTemplate(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "custom.tex.gotmpl")
	require.NoError(t, os.WriteFile(tmpl, []byte(`<< upper .Title >>|<< len .Endpoints >>|<< range .Schemas >><< .Name >>,<< end >>`), 0o600))

	_, err := Emit(context.Background(), minimalDoc(), Options{OutDir: dir, TemplatePath: tmpl})
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, DefaultFileName))
	require.NoError(t, err)
	assert.Equal(t, "PET STORE & FRIENDS|1|Pet,Status,", string(data))
}

func TestEmit_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := Emit(ctx, nil, Options{OutDir: t.TempDir()})
	assert.Error(t, err)

	_, err = Emit(ctx, minimalDoc(), Options{})
	assert.Error(t, err)

	_, err = Emit(ctx, minimalDoc(), Options{OutDir: t.TempDir(), FileName: "../escape.tex"})
	assert.Error(t, err)

	_, err = Emit(ctx, minimalDoc(), Options{OutDir: t.TempDir(), TemplatePath: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.gotmpl")
	require.NoError(t, os.WriteFile(bad, []byte("<< if >>"), 0o600))
	_, err = Emit(ctx, minimalDoc(), Options{OutDir: t.TempDir(), TemplatePath: bad})
	assert.Error(t, err)
}

func TestTex(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `50\% \& \$5 \#1 a\_b \{x\}`, Tex(`50% & $5 #1 a_b {x}`))
	assert.Equal(t, `\textbackslash{}n`, Tex(`\n`))
	assert.Equal(t, "plain", Tex("plain"))
}

func TestLabel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "B.D", Label("B.D"))
	assert.Equal(t, "a--b", Label(`a\_b`))
	assert.Equal(t, "-ber", Label("Über"))
}

func TestBuiltinTemplate(t *testing.T) {
	t.Parallel()
	text, err := BuiltinTemplate()
	require.NoError(t, err)
	assert.Contains(t, text, `<< define "fields" >>`)
}

func TestEmit_LinkMacroDefinedBeforeUse(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	doc := minimalDoc()
	doc.Endpoints[0].Description = "See \\url[the guide]{https://docs.example.com/pets}\n"

	_, err := Emit(context.Background(), doc, Options{OutDir: dir})
	require.NoError(t, err)
	tex, err := os.ReadFile(filepath.Join(dir, DefaultFileName))
	require.NoError(t, err)
	out := string(tex)

	macro := `\renewcommand{\url}[2][]{\href{#2}`
	def := strings.Index(out, macro)
	use := strings.Index(out, `\url[the guide]{https://docs.example.com/pets}`)
	require.NotEqual(t, -1, def, "url macro missing from preamble")
	require.NotEqual(t, -1, use)
	assert.Less(t, def, strings.Index(out, `\begin{document}`))
	assert.Less(t, def, use)
}
