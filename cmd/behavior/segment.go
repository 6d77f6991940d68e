package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/behavior-harness/internal/batch"
	"github.com/danielpatrickdp/behavior-harness/internal/logging"
	"github.com/danielpatrickdp/behavior-harness/internal/replay"
	"github.com/danielpatrickdp/behavior-harness/internal/segment"
	"github.com/danielpatrickdp/behavior-harness/internal/snapshot"
)

// writeSegmentations writes one <demo>_<processor>_segm.json per processor.
func writeSegmentations(ctx context.Context, outDir, demo string, procs []*segment.Processor) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, p := range procs {
		path := filepath.Join(outDir, segment.FileName(demo, p.Name))
		if err := segment.WriteFile(path, p.Serialize(ctx)); err != nil {
			return err
		}
		logging.Infof(ctx, "segmentation %s written to %s", p.Name, path)
	}
	return nil
}

func (a *app) segmentCmd() *cobra.Command {
	var (
		outDir      string
		includeGoal bool
		quiet       bool
	)
	cmd := &cobra.Command{
		Use:   "segment <demo.hdf5>",
		Short: "Segment one demo into state-change segments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := a.openOptions(false)
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
			_, procs, stats, err := replay.Segment(ctx, s, includeGoal)
			if err != nil {
				return err
			}
			if !quiet {
				for _, p := range procs {
					printf(cmd, "%s\n", p)
				}
			}
			if outDir == "" {
				outDir = filepath.Dir(args[0])
			}
			if err := writeSegmentations(ctx, outDir, batch.DemoName(args[0]), procs); err != nil {
				return err
			}
			printf(cmd, "task %s in %s: done=%t, %d frames\n", stats.Task, stats.Scene, stats.TaskDone, stats.TotalFrameNum)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for the segmentation files (default: next to the demo)")
	cmd.Flags().BoolVar(&includeGoal, "goal", false, "also run the goal-condition hierarchical segmentation")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the segmentation trees")
	return cmd
}

func (a *app) segmentBatchCmd() *cobra.Command {
	var (
		skipExisting bool
		ignoreErrors bool
		includeGoal  bool
		record       bool
	)
	cmd := &cobra.Command{
		Use:   "segment-batch <demo_dir> <manifest> <out_dir>",
		Short: "Segment every demo of a manifest",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r, cleanup, err := a.runner(ctx, "segment-batch", record)
			if err != nil {
				return err
			}
			defer cleanup()

			r.DemoRoot, r.OutDir = args[0], args[2]
			r.SkipExisting, r.IgnoreErrors = skipExisting, ignoreErrors
			r.Callbacks = func(demo, outDir string) replay.Callbacks {
				procs := segment.DefaultProcessors(includeGoal)
				cb := replay.SegmentationCallbacks(procs)
				cb.End = append(cb.End, func(ctx context.Context, _ snapshot.Scene) error {
					return writeSegmentations(ctx, outDir, demo, procs)
				})
				return cb
			}

			sum, err := r.Run(ctx, args[1])
			printf(cmd, "segmented %d demos (%d skipped, %d failed)\n", sum.Processed, sum.Skipped, sum.Failed)
			return err
		},
	}
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", true, "skip demos that already have a replay log")
	cmd.Flags().BoolVar(&ignoreErrors, "ignore-errors", true, "record failing demos and continue")
	cmd.Flags().BoolVar(&includeGoal, "goal", false, "also run the goal-condition hierarchical segmentation")
	cmd.Flags().BoolVar(&record, "record", true, "record the run in the results store")
	return cmd
}
