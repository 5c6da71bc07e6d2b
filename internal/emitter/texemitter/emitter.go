package texemitter

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/mark3labs/swagger2tex/internal/spec"
)

// DefaultFileName is the name of the rendered document.
const DefaultFileName = "documentation.tex"

// ModelFileName is written next to the document when Options.WriteModel is set.
const ModelFileName = "model.json"

//go:embed templates/*.tex.gotmpl
var templateFS embed.FS

const builtinTemplate = "templates/documentation.tex.gotmpl"

// ErrOutputExists is returned when a target file exists and Force is off.
var ErrOutputExists = errors.New("texemitter: output file exists")

// Options controls how the LaTeX emitter renders a document.
type Options struct {
	OutDir       string // required; target directory
	FileName     string // document name; defaults to DefaultFileName
	TemplatePath string // optional template replacing the built-in one
	WriteModel   bool   // also write the model as JSON
	Force        bool   // overwrite existing files
	DryRun       bool   // don't write, only plan
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result lists the planned files in write order.
type Result struct {
	Planned []PlannedFile
}

// Emit renders doc into OutDir.
func Emit(ctx context.Context, doc *spec.Documentation, opts Options) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("texemitter: nil Documentation")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("texemitter: OutDir is required")
	}
	name := strings.TrimSpace(opts.FileName)
	if name == "" {
		name = DefaultFileName
	}
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("texemitter: file name %q must not contain a directory", name)
	}

	tmpl, err := loadTemplate(opts.TemplatePath, doc)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("texemitter: render: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files := map[string][]byte{name: buf.Bytes()}
	if opts.WriteModel {
		modelJSON, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", ModelFileName, err)
		}
		files[ModelFileName] = append(modelJSON, '\n')
	}

	rels := make([]string, 0, len(files))
	for p := range files {
		rels = append(rels, p)
	}
	sort.Strings(rels)

	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}

	if !opts.DryRun {
		if err := writeFiles(opts.OutDir, rels, files, opts.Force); err != nil {
			return nil, err
		}
	}
	return &Result{Planned: planned}, nil
}

// BuiltinTemplate returns the text of the embedded template, a starting
// point for --template.
func BuiltinTemplate() (string, error) {
	b, err := templateFS.ReadFile(builtinTemplate)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func loadTemplate(path string, doc *spec.Documentation) (*template.Template, error) {
	var (
		text     []byte
		err      error
		tmplName = "documentation"
	)
	if strings.TrimSpace(path) != "" {
		text, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("texemitter: read template: %w", err)
		}
		tmplName = filepath.Base(path)
	} else {
		text, err = templateFS.ReadFile(builtinTemplate)
		if err != nil {
			return nil, fmt.Errorf("texemitter: builtin template: %w", err)
		}
	}
	t, err := template.New(tmplName).Delims("<<", ">>").Funcs(templateFuncs(doc)).Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("texemitter: parse template %s: %w", tmplName, err)
	}
	return t, nil
}

func writeFiles(outDir string, rels []string, files map[string][]byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	if !force {
		for _, rel := range rels {
			p := filepath.Join(abs, rel)
			if st, err := os.Stat(p); err == nil && st.Size() > 0 {
				return fmt.Errorf("%w: %s (use --force to overwrite)", ErrOutputExists, p)
			}
		}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	for _, rel := range rels {
		p := filepath.Join(abs, rel)
		// atomic write via temp file + rename
		tmp := p + ".tmp-" + time.Now().Format("20060102150405")
		if err := os.WriteFile(tmp, files[rel], 0o644); err != nil {
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := os.Rename(tmp, p); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", rel, err)
		}
	}
	return nil
}
