package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/behavior-harness/internal/benchmark"
)

func (a *app) benchmarkCmd() *cobra.Command {
	var (
		agentClass     string
		seed           int64
		split          string
		outputDir      string
		episodes       int
		activityScenes string
		activityStats  string
	)
	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Evaluate an agent on BEHAVIOR activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if a.envConfig == "" {
				a.envConfig = os.Getenv("CONFIG_FILE")
			}
			if outputDir == "" {
				outputDir = os.Getenv("OUTPUT_DIR")
			}
			if split == "" {
				split = os.Getenv("SPLIT")
			}
			if a.envConfig == "" || outputDir == "" || split == "" {
				return fmt.Errorf("env config, output dir and split are required (flags or CONFIG_FILE, OUTPUT_DIR, SPLIT)")
			}

			var agent benchmark.Agent
			switch agentClass {
			case "Random":
				agent = benchmark.NewRandomAgent(seed)
			default:
				return fmt.Errorf("agent class %q not recognized", agentClass)
			}

			cfg, err := a.loadEnvConfig()
			if err != nil {
				return err
			}
			scenes, err := benchmark.LoadActivityScenes(activityScenes)
			if err != nil {
				return err
			}
			stats := map[string]benchmark.ActivityStats{}
			if activityStats != "" {
				if stats, err = benchmark.LoadActivityStats(activityStats); err != nil {
					return err
				}
			}

			all := make([]string, 0, len(scenes))
			for name := range scenes {
				all = append(all, name)
			}
			sort.Strings(all)
			task, _ := cfg["task"].(string)
			activities, err := benchmark.SelectActivities(split, all, task)
			if err != nil {
				return err
			}
			printf(cmd, "evaluating agent of type %s on %d activities\n", agentClass, len(activities))

			sim, err := a.simulator()
			if err != nil {
				return err
			}
			defer sim.Close()

			b := &benchmark.Benchmark{
				Agent:               agent,
				NewEnv:              sim.EnvFactory(),
				EnvConfig:           cfg,
				OutputDir:           outputDir,
				EpisodesPerInstance: episodes,
				ActivityScenes:      scenes,
				ActivityStats:       stats,
			}
			report, err := b.Run(ctx, activities)
			if err != nil {
				return err
			}
			for _, m := range report {
				printf(cmd, "%-26s %.4f\n", m.Name, m.Value)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&agentClass, "agent-class", "Random", "agent implementation to evaluate")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for the random agent")
	cmd.Flags().StringVar(&split, "split", "", "minival, dev, test, an activity or a comma-separated list of activities")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for the metric reports")
	cmd.Flags().IntVar(&episodes, "episodes-per-instance", 1, "episodes to run per activity instance")
	cmd.Flags().StringVar(&activityScenes, "activity-scenes", "activity_to_preselected_scenes.json", "activity to preselected scenes table")
	cmd.Flags().StringVar(&activityStats, "activity-stats", "", "human demonstration statistics per activity")
	return cmd
}
