package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/medallion/internal/cli/config"
	"github.com/leapstack-labs/medallion/internal/cli/output"
	"github.com/leapstack-labs/medallion/internal/pipeline"
	"github.com/leapstack-labs/medallion/internal/state"
)

// RunOptions holds options for the run command.
type RunOptions struct {
	Integrity string
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full ETL pipeline",
		Long: `Execute the three pipeline stages in order: extract the raw sales and
forecast files, clean and standardize them into the processed directory,
and model the star schema into the final directory.

The join-integrity check compares the fact table row count against the
cleaned sales row count. Under the default warn policy a mismatch is
reported and the run still succeeds; under fail it aborts the run.`,
		Example: `  # Run with the project config
  medallion run

  # Fail the run if the modeling join drops rows
  medallion run --integrity fail

  # Run against explicit directories
  medallion run --raw-dir ./landing --final-dir ./gold`,
		Aliases: []string{"build"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Integrity, "integrity", "", "Join-integrity policy: warn or fail")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := config.LoggerFromContext(ctx)
	r := output.FromContext(ctx)

	integrity := pipeline.IntegrityPolicy(cfg.Integrity)
	if opts.Integrity != "" {
		integrity = pipeline.IntegrityPolicy(opts.Integrity)
	}
	switch integrity {
	case pipeline.IntegrityWarn, pipeline.IntegrityFail:
	default:
		return fmt.Errorf("invalid integrity policy %q (want warn or fail)", integrity)
	}

	// Run history is bookkeeping, not a reason to block the pipeline: a
	// store that fails to open leaves the Store field nil.
	var store state.Store
	if s, err := openStore(cfg, logger); err != nil {
		logger.Warn("run history unavailable", "error", err)
	} else {
		store = s
		defer func() { _ = s.Close() }()
	}

	p := pipeline.New(pipeline.Config{
		RawDir:       cfg.Paths.RawDir,
		ProcessedDir: cfg.Paths.ProcessedDir,
		FinalDir:     cfg.Paths.FinalDir,
		SalesFile:    cfg.Files.Sales,
		ForecastFile: cfg.Files.Forecast,
		Integrity:    integrity,
		Environment:  cfg.Environment,
		Logger:       logger,
		Store:        store,
	})

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(newRunOutput(result))
	}
	renderRunResult(r, result)
	return nil
}

// runOutput is the machine-readable shape of a run result.
type runOutput struct {
	RunID               string   `json:"run_id,omitempty"`
	RawSalesRows        int      `json:"raw_sales_rows"`
	RawForecastRows     int      `json:"raw_forecast_rows"`
	CleanedSalesRows    int      `json:"cleaned_sales_rows"`
	CleanedForecastRows int      `json:"cleaned_forecast_rows"`
	DroppedRows         int      `json:"dropped_rows"`
	DimProductRows      int      `json:"dim_product_rows"`
	DimCustomerRows     int      `json:"dim_customer_rows"`
	DimGeoRows          int      `json:"dim_geo_rows"`
	FactSalesRows       int      `json:"fact_sales_rows"`
	FactForecastRows    int      `json:"fact_forecast_rows"`
	RowsLost            int      `json:"rows_lost"`
	Warnings            []string `json:"warnings,omitempty"`
	ElapsedMS           int64    `json:"elapsed_ms"`
}

func newRunOutput(res *pipeline.RunResult) runOutput {
	return runOutput{
		RunID:               res.RunID,
		RawSalesRows:        res.Extract.SalesRows,
		RawForecastRows:     res.Extract.ForecastRows,
		CleanedSalesRows:    res.Clean.SalesRows,
		CleanedForecastRows: res.Clean.ForecastRows,
		DroppedRows:         res.Clean.Dropped,
		DimProductRows:      res.Model.DimProductRows,
		DimCustomerRows:     res.Model.DimCustomerRows,
		DimGeoRows:          res.Model.DimGeoRows,
		FactSalesRows:       res.Model.FactSalesRows,
		FactForecastRows:    res.Model.FactForecastRows,
		RowsLost:            res.Model.RowsLost,
		Warnings:            res.Warnings,
		ElapsedMS:           res.Elapsed.Milliseconds(),
	}
}

func renderRunResult(r *output.Renderer, res *pipeline.RunResult) {
	r.Header(2, "Bronze")
	r.KeyValue("Raw sales loaded", res.Extract.SalesRows)
	r.KeyValue("Raw forecast loaded", res.Extract.ForecastRows)

	r.Println("")
	r.Header(2, "Silver")
	r.KeyValue("Cleaned sales", res.Clean.SalesRows)
	r.KeyValue("Cleaned forecast", res.Clean.ForecastRows)
	r.KeyValue("Rows dropped", res.Clean.Dropped)

	r.Println("")
	r.Header(2, "Gold")
	r.Table(
		[]string{"Table", "Rows"},
		[][]string{
			{"dim_product", strconv.Itoa(res.Model.DimProductRows)},
			{"dim_customer", strconv.Itoa(res.Model.DimCustomerRows)},
			{"dim_geo", strconv.Itoa(res.Model.DimGeoRows)},
			{"fact_sales", strconv.Itoa(res.Model.FactSalesRows)},
			{"fact_forecast", strconv.Itoa(res.Model.FactForecastRows)},
		},
	)

	r.Println("")
	if res.Model.RowsLost != 0 {
		r.Warn(fmt.Sprintf("%d rows lost during modeling join", res.Model.RowsLost))
	} else {
		r.Success("Data integrity check passed (sales row count maintained)")
	}
	r.Success(fmt.Sprintf("Pipeline completed in %s", res.Elapsed.Round(time.Millisecond)))
}
