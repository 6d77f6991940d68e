package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/behavior-harness/internal/batch"
	"github.com/danielpatrickdp/behavior-harness/internal/replay"
	"github.com/danielpatrickdp/behavior-harness/internal/simulator"
)

func (a *app) replayCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "replay <demo.hdf5>",
		Short: "Replay one demo and check that it is deterministic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := a.openOptions(true)
			if err != nil {
				return err
			}
			sim, err := a.simulator()
			if err != nil {
				return err
			}
			defer sim.Close()

			s, err := sim.OpenDemo(ctx, args[0], opts)
			if err != nil {
				return err
			}
			stats, err := replay.Replay(ctx, s, replay.Callbacks{})
			if err != nil {
				return err
			}
			info := stats.Map()
			info["failed"] = false
			info["filename"] = filepath.Base(args[0])

			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			if out != "" {
				return os.WriteFile(out, data, 0o644)
			}
			printf(cmd, "%s\n", data)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the replay log to this file instead of stdout")
	return cmd
}

func (a *app) replayBatchCmd() *cobra.Command {
	var (
		skipExisting bool
		ignoreErrors bool
		record       bool
	)
	cmd := &cobra.Command{
		Use:   "replay-batch <demo_root> <manifest> <out_dir>",
		Short: "Replay every demo of a manifest",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, cleanup, err := a.runner(ctx, "replay-batch", record)
			if err != nil {
				return err
			}
			defer cleanup()

			r.DemoRoot, r.OutDir = args[0], args[2]
			r.SkipExisting, r.IgnoreErrors = skipExisting, ignoreErrors
			sum, err := r.Run(ctx, args[1])
			printf(cmd, "replayed %d demos (%d skipped, %d failed)\n", sum.Processed, sum.Skipped, sum.Failed)
			return err
		},
	}
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", true, "skip demos that already have a replay log")
	cmd.Flags().BoolVar(&ignoreErrors, "ignore-errors", true, "record failing demos and continue")
	cmd.Flags().BoolVar(&record, "record", true, "record the run in the results store")
	return cmd
}

func (a *app) metricsBatchCmd() *cobra.Command {
	var (
		skipExisting bool
		ignoreErrors bool
		record       bool
		metrics      []string
	)
	cmd := &cobra.Command{
		Use:   "metrics-batch <demo_root> <manifest> <out_dir>",
		Short: "Replay every demo of a manifest and add its metrics to the replay log",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, cleanup, err := a.runner(ctx, "metrics-batch", record, func(o *simulator.OpenOptions) {
				o.Metrics = metrics
			})
			if err != nil {
				return err
			}
			defer cleanup()

			collector := &simulator.MetricsCollector{}
			r.Open = collector.Opener(r.Open)
			r.Callbacks = collector.Callbacks
			r.DemoRoot, r.OutDir = args[0], args[2]
			r.SkipExisting, r.IgnoreErrors = skipExisting, ignoreErrors
			sum, err := r.Run(ctx, args[1])
			printf(cmd, "computed metrics for %d demos (%d skipped, %d failed)\n", sum.Processed, sum.Skipped, sum.Failed)
			return err
		},
	}
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", true, "skip demos that already have a replay log")
	cmd.Flags().BoolVar(&ignoreErrors, "ignore-errors", true, "record failing demos and continue")
	cmd.Flags().BoolVar(&record, "record", true, "record the run in the results store")
	cmd.Flags().StringSliceVar(&metrics, "metric", simulator.DefaultMetrics, "metrics to compute")
	return cmd
}

func (a *app) manifestCmd() *cobra.Command {
	var (
		outDir string
		split  int
	)
	cmd := &cobra.Command{
		Use:   "manifest <demo_dir>",
		Short: "Generate batch manifests for the demos in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = args[0]
			}
			written, err := batch.GenerateManifests(cmd.Context(), args[0], outDir, split)
			if err != nil {
				return err
			}
			for _, p := range written {
				printf(cmd, "%s\n", p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for the manifests (default: the demo directory)")
	cmd.Flags().IntVar(&split, "split", 0, "number of partial manifests for distributing the replay")
	return cmd
}
