package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const defaultConfigName = "swagger2tex.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	stdout     io.Writer
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample swagger2tex configuration file",
		Long:  "Scaffold a commented swagger2tex configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{OutputPath: out, Force: force, stdout: cmd.OutOrStdout()})
		},
	}

	cmd.Flags().String("out", defaultConfigName, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigName
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force && st.Mode().IsRegular() {
		return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	w := cfg.stdout
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# swagger2tex configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Path or URL to the Swagger/OpenAPI document (http/https or local file).
# input: ./openapi.yaml

# Or fetch from SwaggerHub. authorization falls back to $SWAGGERHUB_TOKEN.
# owner: acme
# api: pets
# apiVersion: 1.0.0
# authorization: ""
# swaggerHubUrl: https://api.swaggerhub.com/apis

# Output directory and file name.
# out: ./docs
# fileName: documentation.tex

# Custom template using << >> delimiters (see the built-in one for fields).
# template: ./documentation.tex.gotmpl

# Only include operations with these tags (comma-separated or list).
# includeTags: [public,read]

# Exclude operations with these tags (comma-separated or list).
# excludeTags: [internal]

# Only include these HTTP methods and paths matching these regular expressions.
# methods: [get,post]
# paths is always a list; patterns are never split on commas.
# paths: ["^/pets", "^/v{1,2}/orders"]

# Phrases shown next to status codes; unlisted codes read "Internal Server Error".
# statusPhrases:
#   201: Created
#   404: Not Found

# Status codes that are not errors.
# successCodes: [200, 201, 302]

# Property $refs drop only "#/components/schemas/" (older output).
# legacyRefs: false

# Also write model.json next to the document.
# modelJson: false

# Validate the document first and log problems.
# validate: false

# Preview planned outputs without writing files.
# dryRun: false

# Overwrite existing output files.
# force: false

# Enable verbose logging.
# verbose: false
`
