package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/medallion/internal/cli/output"
)

const configTemplate = `# Medallion project configuration
paths:
  raw_dir: data/raw
  processed_dir: data/processed
  final_dir: data/final

files:
  sales: sales.json
  forecast: forecast.json

state_path: .medallion/state.db
environment: dev

# Join-integrity policy: warn keeps a run successful when the modeling join
# drops rows, fail aborts it.
integrity: warn
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Scaffold a new pipeline project",
		Long: `Create a medallion.yaml config file and the three data-layer
directories (raw, processed, final) in the target directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir)
		},
	}
	return cmd
}

func runInit(cmd *cobra.Command, dir string) error {
	r := output.FromContext(cmd.Context())

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	cfgPath := filepath.Join(dir, "medallion.yaml")
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("config file already exists: %s", cfgPath)
	}
	if err := os.WriteFile(cfgPath, []byte(configTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	for _, sub := range []string{"data/raw", "data/processed", "data/final"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	r.Success("Created " + cfgPath)
	r.Muted("Place your raw sales.json and forecast.json in data/raw, then run: medallion run")
	return nil
}
