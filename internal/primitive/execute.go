package primitive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/behavior-harness/internal/logging"
)

// #region executor
// StepOutcome is what the environment reports for one executed step.
type StepOutcome struct {
	Reward float64
	Done   bool
	Info   map[string]any
}

// Executor runs plan steps against an environment.
type Executor interface {
	Execute(ctx context.Context, step Step) (StepOutcome, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, step Step) (StepOutcome, error)

func (f ExecutorFunc) Execute(ctx context.Context, step Step) (StepOutcome, error) {
	return f(ctx, step)
}

// #endregion executor

// #region result
// Result is the record of one plan execution.
type Result struct {
	Actions         Plan             `json:"actions"`
	Infos           []map[string]any `json:"infos"`
	ActionSuccesses []bool           `json:"action_successes"`
	Done            bool             `json:"done"`
}

// WriteResult writes r as JSON to path.
func WriteResult(path string, r Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result %s: %w", path, err)
	}
	return nil
}

// LoadResult reads a result written by WriteResult.
func LoadResult(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read result %s: %w", path, err)
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, fmt.Errorf("parse result %s: %w", path, err)
	}
	return r, nil
}

// #endregion result

// #region run
// Run executes plan in order and stops after the environment reports done.
// A failing step is recorded as unsuccessful and execution continues.
func Run(ctx context.Context, exec Executor, plan Plan) Result {
	log := logging.GetLogger(ctx)
	res := Result{
		Actions:         plan,
		Infos:           make([]map[string]any, 0, len(plan)),
		ActionSuccesses: make([]bool, 0, len(plan)),
	}
	for _, step := range plan {
		log.Infof("executing %s", step)
		out, err := exec.Execute(ctx, step)
		if err != nil {
			log.Warnf("step %s failed: %v", step, err)
			res.Infos = append(res.Infos, map[string]any{"error": err.Error()})
			res.ActionSuccesses = append(res.ActionSuccesses, false)
			continue
		}
		log.Infof("reward: %v, info: %v", out.Reward, out.Info)
		info := out.Info
		if info == nil {
			info = map[string]any{}
		}
		res.Infos = append(res.Infos, info)
		res.ActionSuccesses = append(res.ActionSuccesses, true)
		if out.Done {
			res.Done = true
			break
		}
	}
	return res
}

// #endregion run
