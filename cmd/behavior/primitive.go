package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/behavior-harness/internal/batch"
	"github.com/danielpatrickdp/behavior-harness/internal/config"
	"github.com/danielpatrickdp/behavior-harness/internal/logging"
	"github.com/danielpatrickdp/behavior-harness/internal/primitive"
)

func (a *app) planCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "plan <segm.json>",
		Short: "Derive the action-primitive plan from a flat segmentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flat, err := primitive.LoadFlat(args[0])
			if err != nil {
				return err
			}
			plan, err := primitive.Derive(cmd.Context(), flat)
			if err != nil {
				return err
			}
			if asJSON {
				out, err := marshalPlan(plan)
				if err != nil {
					return err
				}
				printf(cmd, "%s\n", out)
				return nil
			}
			for i, step := range plan {
				printf(cmd, "%2d  %s\n", i, step)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as [[primitive, object], ...]")
	return cmd
}

func (a *app) apReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ap-replay <demo.hdf5> <segm.json> <out.json>",
		Short: "Replay a segmented demo with action primitives",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			demoFile, segmFile, outFile := args[0], args[1], args[2]

			flat, err := primitive.LoadFlat(segmFile)
			if err != nil {
				return err
			}
			plan, err := primitive.Derive(ctx, flat)
			if err != nil {
				return err
			}

			cfg, err := a.loadEnvConfig()
			if err != nil {
				return err
			}
			sim, err := a.simulator()
			if err != nil {
				return err
			}
			defer sim.Close()

			meta, err := sim.DemoMetadata(ctx, demoFile)
			if err != nil {
				return err
			}
			cfg = cfg.Overlay(config.DemoOverlay{
				Task:       meta.Activity,
				TaskID:     meta.ActivityID,
				SceneID:    meta.SceneID,
				InstanceID: meta.Instance(),
				URDFFile:   meta.URDF(),
			})
			env, err := sim.NewPrimitiveEnv(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := env.Close(ctx); err != nil {
					logging.Warnf(ctx, "close primitive env: %v", err)
				}
			}()

			res := primitive.Run(ctx, env, plan)
			if err := primitive.WriteResult(outFile, res); err != nil {
				return err
			}
			printf(cmd, "executed %d of %d actions, done=%t\n", len(res.ActionSuccesses), len(plan), res.Done)
			return nil
		},
	}
}

func (a *app) apReplayBatchCmd() *cobra.Command {
	var (
		parallel     int
		skipExisting bool
		command      []string
	)
	cmd := &cobra.Command{
		Use:   "ap-replay-batch <demo_dir> <segm_dir> <out_dir>",
		Short: "Replay every segmented demo with action primitives, one process per segmentation",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := os.MkdirAll(args[2], 0o755); err != nil {
				return err
			}
			jobs, err := batch.FindSegmentationJobs(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			printf(cmd, "segmentations to replay with action primitives: %d\n", len(jobs))

			if len(command) == 0 {
				self, err := os.Executable()
				if err != nil {
					return fmt.Errorf("locate executable: %w", err)
				}
				command = []string{self, "ap-replay"}
				if a.envConfig != "" {
					command = append(command, "--env-config", a.envConfig)
				}
			}
			sum, err := batch.RunJobs(ctx, jobs, command, parallel, skipExisting)
			printf(cmd, "launched %d jobs (%d skipped, %d failed)\n", sum.Launched, sum.Skipped, sum.Failed)
			return err
		},
	}
	cmd.Flags().IntVarP(&parallel, "parallel", "j", 1, "number of replays to run at once")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", true, "skip segmentations that already have a result")
	cmd.Flags().StringSliceVar(&command, "command", nil, "command to launch per job; demo, segmentation and output paths are appended")
	return cmd
}

// marshalPlan renders a plan as its JSON wire form.
func marshalPlan(plan primitive.Plan) (string, error) {
	b, err := json.Marshal(plan)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
