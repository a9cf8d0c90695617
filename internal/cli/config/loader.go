package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Context keys for the loaded config and logger. Commands retrieve both via
// FromContext/LoggerFromContext, avoiding an import cycle with the cli
// package that stores them.
type (
	configKey struct{}
	loggerKey struct{}
)

// configFileUsed tracks the config file resolved by the last Load call.
var configFileUsed string

// findConfigFile finds the config file to use.
// Priority: explicit path > medallion.yaml > medallion.yml in the CWD.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"medallion.yaml", "medallion.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"paths.raw_dir":       DefaultRawDir,
		"paths.processed_dir": DefaultProcessedDir,
		"paths.final_dir":     DefaultFinalDir,
		"files.sales":         DefaultSalesFile,
		"files.forecast":      DefaultForecastFile,
		"state_path":          DefaultStateFile,
		"environment":         DefaultEnv,
		"integrity":           DefaultIntegrity,
		"verbose":             false,
		"output":              DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables (MEDALLION_ prefix).
	// Transform: MEDALLION_PATHS__RAW_DIR -> paths.raw_dir
	if err := k.Load(env.Provider("MEDALLION_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "MEDALLION_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Resolve relative paths against the project root: the config file's
	// directory when one was used, the working directory otherwise.
	root := ""
	if configFileUsed != "" {
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			root = filepath.Dir(abs)
		}
	}
	if root == "" {
		root, _ = os.Getwd()
		if root == "" {
			root = "."
		}
	}
	cfg.ProjectRoot = root
	cfg.Paths.RawDir = resolvePathRelativeTo(cfg.Paths.RawDir, root)
	cfg.Paths.ProcessedDir = resolvePathRelativeTo(cfg.Paths.ProcessedDir, root)
	cfg.Paths.FinalDir = resolvePathRelativeTo(cfg.Paths.FinalDir, root)
	cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, root)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// flagKey maps a flag name to its config key.
func flagKey(name string) string {
	switch name {
	case "raw-dir":
		return "paths.raw_dir"
	case "processed-dir":
		return "paths.processed_dir"
	case "final-dir":
		return "paths.final_dir"
	case "sales-file":
		return "files.sales"
	case "forecast-file":
		return "files.forecast"
	case "state":
		return "state_path"
	case "env":
		return "environment"
	}
	return strings.ReplaceAll(name, "-", "_")
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not
// absolute. Empty paths pass through.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// FileUsed returns the path of the config file the last Load resolved, if any.
func FileUsed() string {
	return configFileUsed
}

// NewContext returns a context carrying the config.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from the context, or a default-valued
// config when none was stored.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return &Config{
		Paths:       Paths{RawDir: DefaultRawDir, ProcessedDir: DefaultProcessedDir, FinalDir: DefaultFinalDir},
		Files:       Files{Sales: DefaultSalesFile, Forecast: DefaultForecastFile},
		StatePath:   DefaultStateFile,
		Environment: DefaultEnv,
		Integrity:   DefaultIntegrity,
	}
}

// NewLoggerContext returns a context carrying the logger.
func NewLoggerContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFromContext retrieves the logger from the context, falling back to a
// discard logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
