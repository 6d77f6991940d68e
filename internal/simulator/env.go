package simulator

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/behavior-harness/internal/benchmark"
	"github.com/danielpatrickdp/behavior-harness/internal/config"
	"github.com/danielpatrickdp/behavior-harness/internal/primitive"
)

// #region messages
type resetRequest struct {
	EnvConfig map[string]any `json:"env_config"`
}

type resetPrimitiveResponse struct {
	SessionID string   `json:"session_id"`
	Objects   []string `json:"objects"`
}

type stepPrimitiveRequest struct {
	SessionID string `json:"session_id"`
	Action    int    `json:"action"`
}

type resetEnvResponse struct {
	SessionID   string                `json:"session_id"`
	Observation benchmark.Observation `json:"observation"`
}

type stepEnvRequest struct {
	SessionID string           `json:"session_id"`
	Action    benchmark.Action `json:"action"`
}

type stepResponse struct {
	Observation benchmark.Observation `json:"observation"`
	Reward      float64               `json:"reward"`
	Done        bool                  `json:"done"`
	Info        map[string]any        `json:"info"`
}

type metricsResponse struct {
	Metrics map[string]any `json:"metrics"`
}

// #endregion messages

// #region primitive-env
// PrimitiveEnv executes action primitives on addressable objects. It
// implements primitive.Executor.
type PrimitiveEnv struct {
	client  *Client
	id      string
	objects []string
	index   map[string]int
}

// NewPrimitiveEnv resets a primitive environment with cfg.
func (c *Client) NewPrimitiveEnv(ctx context.Context, cfg config.EnvConfig) (*PrimitiveEnv, error) {
	var resp resetPrimitiveResponse
	if err := c.call(ctx, MethodResetPrimitiveEnv, resetRequest{EnvConfig: cfg}, &resp); err != nil {
		return nil, err
	}
	index := make(map[string]int, len(resp.Objects))
	for i, name := range resp.Objects {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	return &PrimitiveEnv{client: c, id: resp.SessionID, objects: resp.Objects, index: index}, nil
}

// Objects returns the addressable objects in action order.
func (e *PrimitiveEnv) Objects() []string { return e.objects }

// ActionIndex encodes step as primitive * objects + object index.
func (e *PrimitiveEnv) ActionIndex(step primitive.Step) (int, error) {
	if !step.Primitive.Valid() {
		return 0, fmt.Errorf("invalid primitive %d", int(step.Primitive))
	}
	i, ok := e.index[step.Object]
	if !ok {
		return 0, fmt.Errorf("object %s is not addressable", step.Object)
	}
	return int(step.Primitive)*len(e.objects) + i, nil
}

func (e *PrimitiveEnv) Execute(ctx context.Context, step primitive.Step) (primitive.StepOutcome, error) {
	action, err := e.ActionIndex(step)
	if err != nil {
		return primitive.StepOutcome{}, err
	}
	var resp stepResponse
	if err := e.client.call(ctx, MethodStepPrimitive, stepPrimitiveRequest{SessionID: e.id, Action: action}, &resp); err != nil {
		return primitive.StepOutcome{}, err
	}
	return primitive.StepOutcome{Reward: resp.Reward, Done: resp.Done, Info: resp.Info}, nil
}

// Close releases the simulator environment.
func (e *PrimitiveEnv) Close(ctx context.Context) error {
	return e.client.call(ctx, MethodCloseEnv, sessionRequest{SessionID: e.id}, nil)
}

// #endregion primitive-env

// #region benchmark-env
// BenchmarkEnv is a benchmark episode in the simulator. It implements
// benchmark.Env.
type BenchmarkEnv struct {
	client *Client
	cfg    config.EnvConfig
	id     string
}

// EnvFactory returns a benchmark.EnvFactory backed by the simulator.
func (c *Client) EnvFactory() benchmark.EnvFactory {
	return func(_ context.Context, ep benchmark.Episode) (benchmark.Env, error) {
		return &BenchmarkEnv{client: c, cfg: ep.Config}, nil
	}
}

func (e *BenchmarkEnv) Reset(ctx context.Context) (benchmark.Observation, error) {
	var resp resetEnvResponse
	if err := e.client.call(ctx, MethodResetEnv, resetRequest{EnvConfig: e.cfg}, &resp); err != nil {
		return nil, err
	}
	e.id = resp.SessionID
	return resp.Observation, nil
}

func (e *BenchmarkEnv) Step(ctx context.Context, a benchmark.Action) (benchmark.Observation, float64, bool, error) {
	if e.id == "" {
		return nil, 0, false, fmt.Errorf("step before reset")
	}
	var resp stepResponse
	if err := e.client.call(ctx, MethodStepEnv, stepEnvRequest{SessionID: e.id, Action: a}, &resp); err != nil {
		return nil, 0, false, err
	}
	return resp.Observation, resp.Reward, resp.Done, nil
}

func (e *BenchmarkEnv) Metrics(ctx context.Context) (map[string]any, error) {
	var resp metricsResponse
	if err := e.client.call(ctx, MethodEpisodeMetrics, sessionRequest{SessionID: e.id}, &resp); err != nil {
		return nil, err
	}
	return resp.Metrics, nil
}

func (e *BenchmarkEnv) Close(ctx context.Context) error {
	if e.id == "" {
		return nil
	}
	return e.client.call(ctx, MethodCloseEnv, sessionRequest{SessionID: e.id}, nil)
}

// #endregion benchmark-env
