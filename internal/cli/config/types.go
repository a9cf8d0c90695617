// Package config loads CLI configuration from defaults, an optional
// medallion.yaml file, MEDALLION_ environment variables, and command-line
// flags, in ascending precedence.
package config

// Default configuration values.
const (
	DefaultRawDir       = "data/raw"
	DefaultProcessedDir = "data/processed"
	DefaultFinalDir     = "data/final"
	DefaultSalesFile    = "sales.json"
	DefaultForecastFile = "forecast.json"
	DefaultStateFile    = ".medallion/state.db"
	DefaultEnv          = "dev"
	DefaultIntegrity    = "warn"
	DefaultOutput       = "auto" // TTY=text, non-TTY=markdown
)

// Paths holds the three data-layer directory locations.
type Paths struct {
	RawDir       string `koanf:"raw_dir"`
	ProcessedDir string `koanf:"processed_dir"`
	FinalDir     string `koanf:"final_dir"`
}

// Files holds the raw source file names within the raw directory.
type Files struct {
	Sales    string `koanf:"sales"`
	Forecast string `koanf:"forecast"`
}

// Config holds all CLI configuration options.
type Config struct {
	// ProjectRoot anchors relative path resolution. It is the directory of
	// the config file when one is used, otherwise the working directory.
	ProjectRoot string `koanf:"-"`

	Paths       Paths  `koanf:"paths"`
	Files       Files  `koanf:"files"`
	StatePath   string `koanf:"state_path"`
	Environment string `koanf:"environment"`
	// Integrity is the join-integrity policy: warn or fail.
	Integrity    string `koanf:"integrity"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
}
