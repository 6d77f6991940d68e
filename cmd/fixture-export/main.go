package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/behavior-harness/internal/config"
	"github.com/danielpatrickdp/behavior-harness/internal/logging"
	"github.com/danielpatrickdp/behavior-harness/internal/replay"
	"github.com/danielpatrickdp/behavior-harness/internal/simulator"
)

// #region main

func main() {
	var (
		addr        string
		envConfig   string
		outPath     string
		description string
		includeGoal bool
	)
	cmd := &cobra.Command{
		Use:          "fixture-export <demo.hdf5> --out path/to/fixture.json",
		Short:        "Record a demo through the simulator into an offline fixture",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotEnv()
			s, err := config.LoadSettings()
			if err != nil {
				return err
			}
			if err := logging.Setup(s.LogLevel, s.LogFormat); err != nil {
				return err
			}
			if addr == "" {
				addr = s.SimulatorAddr
			}
			if description == "" {
				description = fmt.Sprintf("recorded from %s", args[0])
			}
			return run(cmd.Context(), addr, envConfig, args[0], outPath, description, includeGoal)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "simulator address (default from BEHAVIOR_SIM_ADDR)")
	cmd.Flags().StringVar(&envConfig, "env-config", "", "YAML environment config passed to the simulator")
	cmd.Flags().StringVar(&outPath, "out", "", "output fixture JSON path")
	cmd.Flags().StringVar(&description, "description", "", "fixture description")
	cmd.Flags().BoolVar(&includeGoal, "goal", false, "record the goal-condition segment count too")
	cmd.MarkFlagRequired("out")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// #endregion main

// #region export

// run records the demo, then replays the recording offline to fill in the
// expected segment counts and plan.
func run(ctx context.Context, addr, envConfig, demo, outPath, description string, includeGoal bool) error {
	cfg := config.EnvConfig{}
	if envConfig != "" {
		var err error
		if cfg, err = config.LoadEnvConfig(envConfig); err != nil {
			return err
		}
	}

	sim, err := simulator.NewClient(addr)
	if err != nil {
		return err
	}
	defer sim.Close()

	s, err := sim.OpenDemo(ctx, demo, simulator.OpenOptions{EnvConfig: cfg, SaveReplay: true})
	if err != nil {
		return err
	}
	f, err := replay.RecordFixture(ctx, s, description)
	if err != nil {
		return err
	}

	res, err := replay.RunFixture(ctx, f, includeGoal)
	if err != nil {
		logging.Warnf(ctx, "recorded fixture does not derive a plan: %v", err)
	} else {
		f.ExpectedSegments = res.SegmentCounts
		f.ExpectedPlan = res.Plan
	}

	if err := replay.WriteFixture(outPath, f); err != nil {
		return err
	}
	fmt.Printf("Exported %d frames, %d expected steps to %s\n", len(f.Frames), len(f.ExpectedPlan), outPath)
	return nil
}

// #endregion export
