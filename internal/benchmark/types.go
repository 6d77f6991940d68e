package benchmark

import (
	"context"
	"math/rand"

	"github.com/danielpatrickdp/behavior-harness/internal/config"
)

// #region agent
// Observation is the simulator's per-step observation, keyed by modality.
type Observation map[string][]float64

// Action is a continuous control vector.
type Action []float64

// Agent is evaluated by the benchmark. Reset is called before each episode.
type Agent interface {
	Reset()
	Act(obs Observation) Action
}

// ActionDim is the action size of the benchmark robot.
const ActionDim = 26

// RandomAgent samples each action component uniformly from [-1, 1).
type RandomAgent struct {
	rng *rand.Rand
	dim int
}

// NewRandomAgent returns a seeded RandomAgent over ActionDim components.
func NewRandomAgent(seed int64) *RandomAgent {
	return &RandomAgent{rng: rand.New(rand.NewSource(seed)), dim: ActionDim}
}

func (a *RandomAgent) Reset() {}

func (a *RandomAgent) Act(Observation) Action {
	act := make(Action, a.dim)
	for i := range act {
		act[i] = a.rng.Float64()*2 - 1
	}
	return act
}

// #endregion agent

// #region env
// Env is one benchmark episode running in the simulator.
type Env interface {
	Reset(ctx context.Context) (Observation, error)
	Step(ctx context.Context, a Action) (obs Observation, reward float64, done bool, err error)
	// Metrics gathers the episode's metric report after the last step.
	Metrics(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

// Episode identifies one evaluation episode.
type Episode struct {
	Task       string
	SceneID    string
	InstanceID int
	EpisodeID  int
	// Config is the environment config with the episode overlay applied.
	Config config.EnvConfig
}

// EnvFactory starts the environment for an episode.
type EnvFactory func(ctx context.Context, ep Episode) (Env, error)

// #endregion env

// #region schedule
// SceneInstances lists the activity instances evaluated in one scene.
type SceneInstances struct {
	Scene     string
	Instances []int
}

// ActivityStats holds the human demonstration statistics for an activity.
type ActivityStats struct {
	Mean float64 `json:"mean"`
}

// #endregion schedule

// #region metrics
// Metric is one aggregated benchmark figure.
type Metric struct {
	Name  string
	Value float64
}

// Report is the aggregated result of a benchmark, in presentation order.
type Report []Metric

// Map returns the report keyed by metric name.
func (r Report) Map() map[string]float64 {
	out := make(map[string]float64, len(r))
	for _, m := range r {
		out[m.Name] = m.Value
	}
	return out
}

// Get returns the value of the named metric.
func (r Report) Get(name string) (float64, bool) {
	for _, m := range r {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

// #endregion metrics
