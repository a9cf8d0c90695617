package commands

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/medallion/internal/cli/config"
	"github.com/leapstack-labs/medallion/internal/cli/output"
	"github.com/leapstack-labs/medallion/internal/state"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit int
	ID    string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		Long: `Show the run history recorded in the state database: recent runs with
their status and timing, or the per-stage detail of a single run.`,
		Example: `  # List the last 10 runs
  medallion runs

  # Show the stage detail of one run
  medallion runs --id 6f1c9b3a-...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "Maximum number of runs to list")
	cmd.Flags().StringVar(&opts.ID, "id", "", "Show stage detail for one run ID")

	return cmd
}

func runRuns(cmd *cobra.Command, opts *RunsOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	logger := config.LoggerFromContext(ctx)
	r := output.FromContext(ctx)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if opts.ID != "" {
		return renderRunDetail(r, store, opts.ID)
	}
	return renderRunList(r, store, opts.Limit)
}

func renderRunList(r *output.Renderer, store state.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(runs)
	}

	if len(runs) == 0 {
		r.Muted("No runs recorded yet")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		elapsed := ""
		if run.CompletedAt != nil {
			elapsed = run.CompletedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			run.ID,
			run.Environment,
			string(run.Status),
			run.StartedAt.Format(time.RFC3339),
			elapsed,
		})
	}
	r.Table([]string{"Run", "Env", "Status", "Started", "Elapsed"}, rows)
	return nil
}

func renderRunDetail(r *output.Renderer, store state.Store, id string) error {
	run, err := store.GetRun(id)
	if err != nil {
		return err
	}
	stages, err := store.ListStageRuns(id)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(struct {
			Run    *state.Run        `json:"run"`
			Stages []*state.StageRun `json:"stages"`
		}{run, stages})
	}

	r.KeyValue("Run", run.ID)
	r.KeyValue("Environment", run.Environment)
	r.KeyValue("Status", string(run.Status))
	if run.Error != "" {
		r.KeyValue("Error", run.Error)
	}
	r.Println("")

	rows := make([][]string, 0, len(stages))
	for _, s := range stages {
		rows = append(rows, []string{
			s.Stage,
			string(s.Status),
			strconv.Itoa(s.RowsIn),
			strconv.Itoa(s.RowsOut),
			strconv.Itoa(s.RowsDropped),
			strconv.FormatInt(s.ExecutionMS, 10) + "ms",
			s.Detail,
		})
	}
	r.Table([]string{"Stage", "Status", "In", "Out", "Dropped", "Time", "Detail"}, rows)
	return nil
}
