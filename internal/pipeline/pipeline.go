// Package pipeline implements the three-stage batch transform: extract raw
// JSON records (bronze), clean and standardize them (silver), and reshape the
// result into a star schema of fact and dimension tables (gold). Each stage
// returns a structured result; presentation is the caller's concern.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/leapstack-labs/medallion/internal/state"
)

// IntegrityPolicy decides what happens when the modeling join drops rows.
type IntegrityPolicy string

const (
	// IntegrityWarn reports lost rows as a warning and keeps the run
	// successful.
	IntegrityWarn IntegrityPolicy = "warn"
	// IntegrityFail escalates lost rows to a run failure.
	IntegrityFail IntegrityPolicy = "fail"
)

// Output file names for the silver and gold layers.
const (
	CleanedSalesFile    = "cleaned_sales.csv"
	CleanedForecastFile = "cleaned_forecast.csv"
	FactSalesFile       = "fact_sales.csv"
	FactForecastFile    = "fact_forecast.csv"
	DimProductFile      = "dim_product.csv"
	DimCustomerFile     = "dim_customer.csv"
	DimGeoFile          = "dim_geo.csv"
)

// Config holds everything a pipeline needs. No ambient path resolution
// happens anywhere below this struct.
type Config struct {
	// RawDir holds the two raw source files.
	RawDir string
	// ProcessedDir receives the cleaned (silver) tables.
	ProcessedDir string
	// FinalDir receives the fact and dimension (gold) tables.
	FinalDir string
	// SalesFile and ForecastFile are file names within RawDir.
	SalesFile    string
	ForecastFile string
	// Integrity selects the join-integrity policy. Defaults to IntegrityWarn.
	Integrity IntegrityPolicy
	// Environment names the run in the state store.
	Environment string
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
	// Store records run history (optional).
	Store state.Store
}

// Pipeline executes the extract, clean, and model stages in order.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
	store  state.Store
}

// RunResult aggregates the per-stage results of one pipeline run.
type RunResult struct {
	RunID    string
	Extract  ExtractResult
	Clean    CleanResult
	Model    ModelResult
	Elapsed  time.Duration
	Warnings []string
}

// New creates a pipeline from the given configuration.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Integrity == "" {
		cfg.Integrity = IntegrityWarn
	}
	return &Pipeline{cfg: cfg, logger: logger, store: cfg.Store}
}

// Run executes the full pipeline. It creates the data directories if absent,
// then runs extract, clean, and model in strict order, recording each stage
// in the state store when one is configured. Extraction and cleaning errors
// abort the run; join-integrity violations follow the configured policy.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()

	for _, dir := range []string{p.cfg.RawDir, p.cfg.ProcessedDir, p.cfg.FinalDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	result := &RunResult{}
	runID := p.beginRun()
	result.RunID = runID

	p.logger.Info("starting pipeline", "environment", p.cfg.Environment, "run_id", runID)

	// Stage 1: bronze
	stageStart := time.Now()
	sales, forecast, extractRes, err := p.extract()
	p.recordStage(runID, "extract", stageStart, err, extractRes.SalesRows+extractRes.ForecastRows, extractRes.SalesRows+extractRes.ForecastRows, 0, "")
	if err != nil {
		p.failRun(runID, err)
		return nil, err
	}
	result.Extract = extractRes

	// Stage 2: silver
	stageStart = time.Now()
	cleanSales, cleanForecast, cleanRes, err := p.clean(sales, forecast)
	p.recordStage(runID, "clean", stageStart, err, extractRes.SalesRows, cleanRes.SalesRows, cleanRes.Dropped, "")
	if err != nil {
		p.failRun(runID, err)
		return nil, err
	}
	result.Clean = cleanRes

	// Stage 3: gold
	stageStart = time.Now()
	modelRes, err := p.model(ctx, cleanSales, cleanForecast)
	p.recordStage(runID, "model", stageStart, err, cleanRes.SalesRows, modelRes.FactSalesRows, modelRes.RowsLost, modelRes.Warning)
	if err != nil {
		p.failRun(runID, err)
		return nil, err
	}
	result.Model = modelRes
	if modelRes.Warning != "" {
		result.Warnings = append(result.Warnings, modelRes.Warning)
	}

	result.Elapsed = time.Since(start)
	p.completeRun(runID)
	p.logger.Info("pipeline completed", "run_id", runID, "elapsed", result.Elapsed.Round(time.Millisecond))
	return result, nil
}

// beginRun creates a run row in the state store. Store failures are logged
// and leave the pipeline running without history.
func (p *Pipeline) beginRun() string {
	if p.store == nil {
		return ""
	}
	run, err := p.store.CreateRun(p.cfg.Environment)
	if err != nil {
		p.logger.Warn("failed to create run record", "error", err)
		return ""
	}
	return run.ID
}

func (p *Pipeline) completeRun(runID string) {
	if p.store == nil || runID == "" {
		return
	}
	if err := p.store.CompleteRun(runID, state.RunStatusCompleted, ""); err != nil {
		p.logger.Warn("failed to complete run record", "error", err)
	}
}

func (p *Pipeline) failRun(runID string, cause error) {
	if p.store == nil || runID == "" {
		return
	}
	if err := p.store.CompleteRun(runID, state.RunStatusFailed, cause.Error()); err != nil {
		p.logger.Warn("failed to complete run record", "error", err)
	}
}

func (p *Pipeline) recordStage(runID, stage string, start time.Time, stageErr error, rowsIn, rowsOut, dropped int, detail string) {
	if p.store == nil || runID == "" {
		return
	}
	status := state.StageStatusSuccess
	if stageErr != nil {
		status = state.StageStatusFailed
		detail = stageErr.Error()
	}
	sr := &state.StageRun{
		RunID:       runID,
		Stage:       stage,
		Status:      status,
		RowsIn:      rowsIn,
		RowsOut:     rowsOut,
		RowsDropped: dropped,
		ExecutionMS: time.Since(start).Milliseconds(),
		Detail:      detail,
	}
	if err := p.store.RecordStage(sr); err != nil {
		p.logger.Warn("failed to record stage", "stage", stage, "error", err)
	}
}
