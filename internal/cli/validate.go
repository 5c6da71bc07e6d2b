package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/swagger2tex/internal/spec"
)

// ValidateConfig captures the options for the validate command.
type ValidateConfig struct {
	Source        spec.Source
	SwaggerHubURL string
	stdout        io.Writer
}

var validateRunner = runValidate

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check an OpenAPI/Swagger document and report the first problem",
		Long: "Check an OpenAPI/Swagger document and report the first problem. " +
			"The source keys of --config (input, owner, api, apiVersion, authorization, swaggerHubUrl) are honored; other keys are ignored.",
		Example: strings.TrimSpace(`  swagger2tex validate --input openapi.yaml
  swagger2tex validate --owner acme --api pets --api-version 1.0.0`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveValidateConfig(cmd)
			if err != nil {
				return err
			}
			return validateRunner(cmd.Context(), cfg)
		},
	}
	addSourceFlags(cmd.Flags())
	return cmd
}

// resolveValidateConfig reads the source keys of the --config file, then
// applies flag overrides and the environment fallbacks.
func resolveValidateConfig(cmd *cobra.Command) (*ValidateConfig, error) {
	cfg := &ValidateConfig{stdout: cmd.OutOrStdout()}
	flags := cmd.Flags()

	configPath, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}
	if configPath = strings.TrimSpace(configPath); configPath != "" {
		fromFile := defaultGenerateConfig()
		if err := applyGenerateConfigFromFile(&fromFile, configPath); err != nil {
			return nil, err
		}
		cfg.Source = fromFile.Source
		cfg.SwaggerHubURL = fromFile.SwaggerHubURL
	}

	for name, dst := range map[string]*string{
		"input":          &cfg.Source.Input,
		"owner":          &cfg.Source.Owner,
		"api":            &cfg.Source.API,
		"api-version":    &cfg.Source.Version,
		"authorization":  &cfg.Source.Authorization,
		"swaggerhub-url": &cfg.SwaggerHubURL,
	} {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return nil, err
		}
		*dst = value
	}

	cfg.Source.Input = strings.TrimSpace(cfg.Source.Input)
	cfg.Source.Owner = strings.TrimSpace(cfg.Source.Owner)
	cfg.Source.API = strings.TrimSpace(cfg.Source.API)
	cfg.Source.Version = strings.TrimSpace(cfg.Source.Version)
	cfg.Source.Authorization = strings.TrimSpace(cfg.Source.Authorization)
	if cfg.Source.Authorization == "" {
		cfg.Source.Authorization = strings.TrimSpace(os.Getenv(EnvSwaggerHubToken))
	}
	cfg.SwaggerHubURL = strings.TrimSpace(cfg.SwaggerHubURL)
	if cfg.SwaggerHubURL == "" {
		cfg.SwaggerHubURL = strings.TrimSpace(os.Getenv(EnvSwaggerHubURL))
	}
	if err := validateSource("validate", cfg.Source); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runValidate(ctx context.Context, cfg *ValidateConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := cfg.stdout
	if out == nil {
		out = os.Stdout
	}
	raw, err := spec.Load(ctx, cfg.Source, loadOptions(cfg.SwaggerHubURL)...)
	if err != nil {
		return specUsageError(err)
	}
	if err := spec.Validate(ctx, raw, cfg.Source.String()); err != nil {
		return specUsageError(err)
	}
	fmt.Fprintf(out, "OK: %s\n", cfg.Source.String())
	return nil
}
