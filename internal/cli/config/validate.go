package config

import "fmt"

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.Integrity {
	case "warn", "fail":
	default:
		return fmt.Errorf("invalid integrity policy %q (want warn or fail)", c.Integrity)
	}
	if c.Files.Sales == "" {
		return fmt.Errorf("files.sales is required")
	}
	if c.Files.Forecast == "" {
		return fmt.Errorf("files.forecast is required")
	}
	if c.Paths.RawDir == "" || c.Paths.ProcessedDir == "" || c.Paths.FinalDir == "" {
		return fmt.Errorf("paths.raw_dir, paths.processed_dir, and paths.final_dir are required")
	}
	return nil
}
