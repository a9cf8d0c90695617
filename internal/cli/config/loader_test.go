package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("raw-dir", "", "")
	fs.String("processed-dir", "", "")
	fs.String("final-dir", "", "")
	fs.String("sales-file", "", "")
	fs.String("forecast-file", "", "")
	fs.String("state", "", "")
	fs.String("env", "", "")
	fs.String("integrity", "", "")
	fs.Bool("verbose", false, "")
	fs.String("output", "", "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	cwd, _ := os.Getwd()
	assert.Equal(t, filepath.Join(cwd, DefaultRawDir), cfg.Paths.RawDir)
	assert.Equal(t, DefaultSalesFile, cfg.Files.Sales)
	assert.Equal(t, DefaultForecastFile, cfg.Files.Forecast)
	assert.Equal(t, DefaultEnv, cfg.Environment)
	assert.Equal(t, DefaultIntegrity, cfg.Integrity)
	assert.False(t, cfg.Verbose)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "medallion.yaml")
	content := map[string]any{
		"paths": map[string]any{
			"raw_dir":       "landing",
			"processed_dir": "silver",
			"final_dir":     "gold",
		},
		"files": map[string]any{
			"sales":    "tx.json",
			"forecast": "fc.json",
		},
		"environment": "prod",
		"integrity":   "fail",
	}
	raw, err := yaml.Marshal(content)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, raw, 0o644))

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)

	// Relative paths resolve against the config file's directory.
	assert.Equal(t, filepath.Join(dir, "landing"), cfg.Paths.RawDir)
	assert.Equal(t, filepath.Join(dir, "gold"), cfg.Paths.FinalDir)
	assert.Equal(t, "tx.json", cfg.Files.Sales)
	assert.Equal(t, "fc.json", cfg.Files.Forecast)
	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "fail", cfg.Integrity)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, cfgPath, FileUsed())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "medallion.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("environment: prod\n"), 0o644))

	t.Setenv("MEDALLION_ENVIRONMENT", "staging")
	t.Setenv("MEDALLION_PATHS__RAW_DIR", "/abs/raw")

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "/abs/raw", cfg.Paths.RawDir)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	t.Setenv("MEDALLION_ENVIRONMENT", "staging")

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--env", "prod", "--raw-dir", "/data/in", "--integrity", "fail"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "/data/in", cfg.Paths.RawDir)
	assert.Equal(t, "fail", cfg.Integrity)
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	fs := newFlags()
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, DefaultEnv, cfg.Environment)
}

func TestLoad_InvalidIntegrity(t *testing.T) {
	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--integrity", "retry"}))

	_, err := Load("", fs)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Paths:     Paths{RawDir: "a", ProcessedDir: "b", FinalDir: "c"},
		Files:     Files{Sales: "s.json", Forecast: "f.json"},
		Integrity: "warn",
	}
	require.NoError(t, cfg.Validate())

	missing := *cfg
	missing.Files.Sales = ""
	assert.Error(t, missing.Validate())

	badDirs := *cfg
	badDirs.Paths.FinalDir = ""
	assert.Error(t, badDirs.Validate())
}

func TestFromContext_Default(t *testing.T) {
	cfg := FromContext(context.Background())
	assert.Equal(t, DefaultSalesFile, cfg.Files.Sales)
	assert.Equal(t, DefaultIntegrity, cfg.Integrity)
}
