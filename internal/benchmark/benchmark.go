package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/behavior-harness/internal/config"
	"github.com/danielpatrickdp/behavior-harness/internal/logging"
)

// Output files written to the benchmark output directory.
const (
	PerEpisodeFile = "per_episode_metrics.json"
	AggregatedFile = "aggregated_metrics.json"
)

// #region selection
// SelectActivities resolves a split into the activities to evaluate. dev and
// test select every activity, minival selects the config's task. Otherwise
// split is one activity name or a comma-separated list of them.
func SelectActivities(split string, all []string, configTask string) ([]string, error) {
	switch split {
	case "dev", "test":
		out := append([]string(nil), all...)
		sort.Strings(out)
		return out, nil
	case "minival":
		if configTask == "" {
			return nil, fmt.Errorf("minival split needs a task in the env config")
		}
		return []string{configTask}, nil
	}

	known := make(map[string]bool, len(all))
	for _, a := range all {
		known[a] = true
	}
	var out []string
	for _, name := range strings.Split(split, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !known[name] {
			return nil, fmt.Errorf("unknown activity %q in split", name)
		}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty split")
	}
	return out, nil
}

// InstanceSchedule assigns the nine evaluated instances of an activity to the
// scenes it can be performed in. Instances 0-9 have seen object poses, 10-19
// unseen poses, 20-29 unseen furniture.
func InstanceSchedule(scenes []string) ([]SceneInstances, error) {
	uniq := map[string]bool{}
	for _, s := range scenes {
		uniq[s] = true
	}
	sorted := make([]string, 0, len(uniq))
	for s := range uniq {
		sorted = append(sorted, s)
	}
	sort.Strings(sorted)

	switch len(sorted) {
	case 3:
		return []SceneInstances{
			{sorted[0], []int{0, 10, 20}},
			{sorted[1], []int{0, 10, 20}},
			{sorted[2], []int{0, 10, 20}},
		}, nil
	case 2:
		return []SceneInstances{
			{sorted[0], []int{0, 1, 10, 20}},
			{sorted[1], []int{0, 1, 10, 11, 20}},
		}, nil
	case 1:
		return []SceneInstances{{sorted[0], []int{0, 1, 2, 10, 11, 12, 20, 21, 22}}}, nil
	}
	return nil, fmt.Errorf("activity needs 1 to 3 scenes, got %d", len(sorted))
}

// #endregion selection

// #region loaders
// LoadActivityScenes reads the activity -> preselected scenes table.
func LoadActivityScenes(path string) (map[string][]string, error) {
	out := map[string][]string{}
	if err := readJSON(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadActivityStats reads the human demonstration statistics per activity.
func LoadActivityStats(path string) (map[string]ActivityStats, error) {
	out := map[string]ActivityStats{}
	if err := readJSON(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// #endregion loaders

// #region benchmark
// Benchmark evaluates one agent over a set of activities.
type Benchmark struct {
	Agent               Agent
	NewEnv              EnvFactory
	EnvConfig           config.EnvConfig
	OutputDir           string
	EpisodesPerInstance int
	ActivityScenes      map[string][]string
	ActivityStats       map[string]ActivityStats
}

// EvaluateEpisode runs agent in env until the episode is done and returns the
// environment's metric report.
func EvaluateEpisode(ctx context.Context, env Env, agent Agent) (map[string]any, error) {
	agent.Reset()
	obs, err := env.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset env: %w", err)
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var done bool
		obs, _, done, err = env.Step(ctx, agent.Act(obs))
		if err != nil {
			return nil, fmt.Errorf("step env: %w", err)
		}
		if done {
			break
		}
	}
	logging.Infof(ctx, "generating report for the episode")
	return env.Metrics(ctx)
}

// Run evaluates every activity, writes the per-episode metrics and the
// aggregated report to OutputDir, and returns the report.
func (b *Benchmark) Run(ctx context.Context, activities []string) (Report, error) {
	if b.NewEnv == nil || b.Agent == nil {
		return nil, fmt.Errorf("benchmark needs an agent and an env factory")
	}
	perInstance := b.EpisodesPerInstance
	if perInstance < 1 {
		perInstance = 1
	}

	var episodes []map[string]any
	for _, task := range activities {
		scenes, ok := b.ActivityScenes[task]
		if !ok {
			return nil, fmt.Errorf("activity %s has no preselected scenes", task)
		}
		schedule, err := InstanceSchedule(scenes)
		if err != nil {
			return nil, fmt.Errorf("activity %s: %w", task, err)
		}
		base := b.taskConfig(ctx, task)
		for _, si := range schedule {
			for _, inst := range si.Instances {
				for epID := 0; epID < perInstance; epID++ {
					ep := Episode{Task: task, SceneID: si.Scene, InstanceID: inst, EpisodeID: epID, Config: episodeConfig(base, si.Scene, inst)}
					m, err := b.runEpisode(ctx, ep)
					if err != nil {
						return nil, err
					}
					episodes = append(episodes, m)
				}
			}
		}
	}

	if err := b.write(ctx, PerEpisodeFile, indexed(episodes)); err != nil {
		return nil, err
	}
	report, err := Aggregate(episodes)
	if err != nil {
		return nil, err
	}
	if err := b.write(ctx, AggregatedFile, report.Map()); err != nil {
		return nil, err
	}
	return report, nil
}

func (b *Benchmark) runEpisode(ctx context.Context, ep Episode) (map[string]any, error) {
	ctx = logging.WithFields(ctx, map[string]any{"task": ep.Task, "scene": ep.SceneID, "instance": ep.InstanceID, "episode": ep.EpisodeID})
	logging.Infof(ctx, "new episode")

	env, err := b.NewEnv(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("start env for %s/%s/%d: %w", ep.Task, ep.SceneID, ep.InstanceID, err)
	}
	metrics, err := EvaluateEpisode(ctx, env, b.Agent)
	cerr := env.Close(ctx)
	if err != nil {
		return nil, fmt.Errorf("episode %s/%s/%d: %w", ep.Task, ep.SceneID, ep.InstanceID, err)
	}
	if cerr != nil {
		logging.Warnf(ctx, "close env: %v", cerr)
	}
	if metrics == nil {
		metrics = map[string]any{}
	}
	metrics["task"] = ep.Task
	return metrics, nil
}

// taskConfig gives the agent twice the mean human time for the task.
func (b *Benchmark) taskConfig(ctx context.Context, task string) config.EnvConfig {
	cfg := make(config.EnvConfig, len(b.EnvConfig)+4)
	for k, v := range b.EnvConfig {
		cfg[k] = v
	}
	cfg["task"] = task
	cfg["task_id"] = 0
	if st, ok := b.ActivityStats[task]; ok {
		cfg["max_step"] = st.Mean * 2
		logging.Infof(ctx, "maximum number of steps is twice the mean of human time: %v", st.Mean*2)
	}
	return cfg
}

func episodeConfig(base config.EnvConfig, scene string, instance int) config.EnvConfig {
	cfg := make(config.EnvConfig, len(base)+2)
	for k, v := range base {
		cfg[k] = v
	}
	cfg["scene_id"] = scene
	cfg["instance_id"] = instance
	return cfg
}

func indexed(episodes []map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(episodes))
	for i, ep := range episodes {
		out[strconv.Itoa(i)] = ep
	}
	return out
}

func (b *Benchmark) write(ctx context.Context, name string, v any) error {
	if err := os.MkdirAll(b.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	path := filepath.Join(b.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logging.Infof(ctx, "eval results saved to %s", path)
	return nil
}

// #endregion benchmark
