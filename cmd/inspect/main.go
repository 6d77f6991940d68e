package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/behavior-harness/internal/config"
	"github.com/danielpatrickdp/behavior-harness/internal/results"
)

// #region main

func main() {
	var (
		driver  string
		dsn     string
		last    int
		runID   string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:          "inspect [--run id] [--last N] [--json]",
		Short:        "Inspect batch runs recorded in the results store",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.LoadDotEnv()
			s, err := config.LoadSettings()
			if err != nil {
				return err
			}
			if driver != "" {
				s.ResultsDriver = driver
			}
			if dsn != "" {
				s.ResultsDSN = dsn
			}
			store, err := results.NewStore(s.ResultsDriver, s.ResultsDSN)
			if err != nil {
				return fmt.Errorf("open results store: %w", err)
			}
			defer store.Close()

			if runID != "" {
				return runDetailMode(store, runID, jsonOut)
			}
			return runListMode(store, last, jsonOut)
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "results store driver, sqlite or postgres (default from BEHAVIOR_RESULTS_DRIVER)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "results store DSN (default from BEHAVIOR_RESULTS_DSN)")
	cmd.Flags().IntVar(&last, "last", 20, "show N most recent runs")
	cmd.Flags().StringVar(&runID, "run", "", "show the outcomes of one run")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID      string `json:"run_id"`
	Kind       string `json:"kind"`
	Total      int    `json:"total"`
	Failed     int    `json:"failed"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func runListMode(store *results.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		st, err := store.Stats(r.RunID)
		if err != nil {
			return err
		}
		row := listRow{
			RunID:     r.RunID,
			Kind:      r.Kind,
			Total:     st.Total,
			Failed:    st.Failed,
			StartedAt: r.StartedAt.Format(time.RFC3339),
		}
		if r.FinishedAt != nil {
			row.FinishedAt = r.FinishedAt.Format(time.RFC3339)
		}
		rows[i] = row
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-10s  %-16s  %6s  %6s  %-20s  %s\n", "Run", "Kind", "Demos", "Failed", "Started", "Finished")
	fmt.Printf("%-10s+-%-16s+-%6s+-%6s+-%-20s+-%s\n", "----------", "----------------", "------", "------", "--------------------", "--------------------")
	for _, r := range rows {
		finished := r.FinishedAt
		if finished == "" {
			finished = "running"
		}
		fmt.Printf("%-10s  %-16s  %6d  %6d  %-20s  %s\n", shortID(r.RunID), r.Kind, r.Total, r.Failed, r.StartedAt, finished)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type outcomeRow struct {
	Demo          string         `json:"demo"`
	Failed        bool           `json:"failed"`
	FailureReason string         `json:"failure_reason,omitempty"`
	OutputPath    string         `json:"output_path,omitempty"`
	Stats         map[string]any `json:"stats,omitempty"`
	CreatedAt     string         `json:"created_at"`
}

func runDetailMode(store *results.Store, runID string, jsonOut bool) error {
	outcomes, err := store.ListOutcomes(runID)
	if err != nil {
		return err
	}
	rows := make([]outcomeRow, len(outcomes))
	for i, o := range outcomes {
		rows[i] = outcomeRow{
			Demo:          o.Demo,
			Failed:        o.Failed,
			FailureReason: o.FailureReason,
			OutputPath:    o.OutputPath,
			Stats:         o.Stats,
			CreatedAt:     o.CreatedAt.Format(time.RFC3339),
		}
	}
	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("Run %s: %d demos\n\n", runID, len(rows))
	for _, r := range rows {
		status := "OK"
		if r.Failed {
			status = "FAILED: " + r.FailureReason
		}
		done := ""
		if v, ok := r.Stats["task_done"].(bool); ok {
			done = fmt.Sprintf(" task_done=%t", v)
		}
		fmt.Printf("  %-48s %s%s\n", r.Demo, status, done)
	}
	return nil
}

// #endregion detail-mode

// #region helpers

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion helpers
