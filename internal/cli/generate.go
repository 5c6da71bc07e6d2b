package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/swagger2tex/internal/emitter/texemitter"
	"github.com/mark3labs/swagger2tex/internal/logging"
	"github.com/mark3labs/swagger2tex/internal/spec"
	"github.com/mark3labs/swagger2tex/internal/tree"
)

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render LaTeX documentation from an OpenAPI/Swagger document",
		Long: "Render LaTeX documentation from an OpenAPI/Swagger document. " +
			"Options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  swagger2tex generate --input openapi.yaml --out ./docs
  swagger2tex generate --owner acme --api pets --api-version 1.0.0 --authorization $TOKEN
  swagger2tex --config swagger2tex.yaml generate --force --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	addSourceFlags(flags)
	flags.String("out", "", "Output directory (defaults to the current directory)")
	flags.String("file-name", "", "Name of the rendered file (defaults to documentation.tex)")
	flags.String("template", "", "Custom template replacing the built-in one (<< >> delimiters)")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringSlice("methods", nil, "Only include these HTTP methods")
	flags.StringArray("paths", nil, "Only include paths matching this regular expression (repeatable)")
	flags.Bool("legacy-refs", false, "Strip only #/components/schemas/ from property references")
	flags.Bool("model-json", false, "Also write the documentation model as model.json")
	flags.Bool("validate", false, "Validate the document first and log problems")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func addSourceFlags(flags *pflag.FlagSet) {
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document")
	flags.String("owner", "", "SwaggerHub owner")
	flags.String("api", "", "SwaggerHub API name")
	flags.String("api-version", "", "SwaggerHub API version")
	flags.String("authorization", "", "SwaggerHub Authorization header (defaults to $"+EnvSwaggerHubToken+")")
	flags.String("swaggerhub-url", "", "SwaggerHub API root (defaults to $"+EnvSwaggerHubURL+" or "+spec.DefaultSwaggerHubURL+")")
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate("generate"); err != nil {
		return nil, err
	}
	cfg.stdout = cmd.OutOrStdout()
	cfg.stderr = cmd.ErrOrStderr()
	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := map[string]*string{
		"input":          &cfg.Source.Input,
		"owner":          &cfg.Source.Owner,
		"api":            &cfg.Source.API,
		"api-version":    &cfg.Source.Version,
		"authorization":  &cfg.Source.Authorization,
		"swaggerhub-url": &cfg.SwaggerHubURL,
		"out":            &cfg.Out,
		"file-name":      &cfg.FileName,
		"template":       &cfg.Template,
	}
	for name, dst := range strs {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}

	slices := map[string]*[]string{
		"include-tags": &cfg.IncludeTags,
		"exclude-tags": &cfg.ExcludeTags,
		"methods":      &cfg.Methods,
	}
	for name, dst := range slices {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		value, err := flags.GetStringSlice(name)
		if err != nil {
			return err
		}
		*dst = sanitizeTags(value)
	}

	// Patterns may contain commas ({m,n}), so each --paths value is one pattern.
	if flags.Lookup("paths") != nil && flags.Changed("paths") {
		value, err := flags.GetStringArray("paths")
		if err != nil {
			return err
		}
		cfg.Paths = sanitizeTags(value)
	}

	bools := map[string]*bool{
		"legacy-refs": &cfg.LegacyRefs,
		"model-json":  &cfg.ModelJSON,
		"validate":    &cfg.Validate,
		"dry-run":     &cfg.DryRun,
		"force":       &cfg.Force,
		"verbose":     &cfg.Verbose,
	}
	for name, dst := range bools {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}
	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	stdout, stderr := cfg.stdout, cfg.stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	zl := logging.New(stderr, cfg.Verbose)
	logger := logging.NewAdapter(zl).With("source", cfg.Source.String())
	defer func() { _ = logger.Sync() }()

	// 1) Fetch the raw document (file, http/https URL or SwaggerHub)
	raw, err := spec.Load(ctx, cfg.Source, loadOptions(cfg.SwaggerHubURL)...)
	if err != nil {
		return specUsageError(err)
	}

	// 2) Optional validation; problems are reported, never fatal
	if cfg.Validate {
		if verr := spec.Validate(ctx, raw, cfg.Source.String()); verr != nil {
			logger.Warn("document does not validate", "error", verr.Error(), "pointer", pointerOf(verr))
		} else {
			logger.Info("document validates")
		}
	}

	// 3) Parse into the ordered tree and build the documentation model
	root, err := tree.Parse(raw)
	if err != nil {
		return newUsageError(fmt.Sprintf("spec: %v\nLocation: %s", err, cfg.Source.String()))
	}
	opts := []spec.BuildOption{
		spec.WithIncludeTags(cfg.IncludeTags),
		spec.WithExcludeTags(cfg.ExcludeTags),
		spec.WithMethods(cfg.httpMethods()),
		spec.WithPathPatterns(cfg.Paths),
		spec.WithStatusTable(cfg.statusTable()),
		spec.WithLogger(logger),
	}
	if cfg.LegacyRefs {
		opts = append(opts, spec.WithLegacyRefStripping())
	}
	res, err := spec.BuildDocumentation(ctx, root, opts...)
	if err != nil {
		if errors.Is(err, spec.ErrMalformedDocument) {
			return newUsageError(fmt.Sprintf("spec: %v\nLocation: %s", err, cfg.Source.String()))
		}
		return fmt.Errorf("build documentation: %w", err)
	}
	if ferr := res.Err(); ferr != nil {
		logger.Warn("placeholders substituted", "count", len(res.Fallbacks))
	}

	// 4) Render
	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}
	emitted, err := texemitter.Emit(ctx, res.Documentation, texemitter.Options{
		OutDir:       cfg.Out,
		FileName:     cfg.FileName,
		TemplatePath: cfg.Template,
		WriteModel:   cfg.ModelJSON,
		Force:        cfg.Force,
		DryRun:       cfg.DryRun,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}

	paths := make([]string, 0, len(emitted.Planned))
	for _, p := range emitted.Planned {
		paths = append(paths, p.RelPath)
	}
	if cfg.DryRun {
		printPlan(stdout, absOut, paths)
		return nil
	}
	for _, p := range paths {
		fmt.Fprintf(stdout, "Wrote %s\n", filepath.Join(absOut, p))
	}
	return nil
}

func printPlan(w io.Writer, outDir string, relPaths []string) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", outDir, len(relPaths))
	for _, p := range relPaths {
		fmt.Fprintf(w, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	if errors.Is(err, texemitter.ErrOutputExists) {
		return newUsageError(fmt.Sprintf("output error for %s: %v", outDir, err))
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "template") {
		return newUsageError(fmt.Sprintf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg))
	}
	return err
}
