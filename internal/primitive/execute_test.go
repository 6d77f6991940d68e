package primitive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedExecutor struct {
	calls []Step
	fail  map[string]error
	done  string
}

func (s *scriptedExecutor) Execute(_ context.Context, step Step) (StepOutcome, error) {
	s.calls = append(s.calls, step)
	if err, ok := s.fail[step.Object]; ok {
		return StepOutcome{}, err
	}
	return StepOutcome{Reward: 1, Done: step.Object == s.done, Info: map[string]any{"object": step.Object}}, nil
}

func TestRun_RecordsEachStep(t *testing.T) {
	exec := &scriptedExecutor{fail: map[string]error{"pear": errors.New("unreachable")}}
	plan := Plan{{RightGrasp, "apple"}, {LeftGrasp, "pear"}, {RightPlaceInside, "apple"}}

	res := Run(context.Background(), exec, plan)
	assert.Equal(t, plan, res.Actions)
	assert.Equal(t, []bool{true, false, true}, res.ActionSuccesses)
	require.Len(t, res.Infos, 3)
	assert.Equal(t, "unreachable", res.Infos[1]["error"])
	assert.False(t, res.Done)
	assert.Len(t, exec.calls, 3)
}

func TestRun_StopsWhenDone(t *testing.T) {
	exec := &scriptedExecutor{done: "fridge"}
	plan := Plan{{Open, "fridge"}, {Close, "fridge"}}

	res := Run(context.Background(), exec, plan)
	assert.True(t, res.Done)
	assert.Len(t, exec.calls, 1)
	assert.Equal(t, []bool{true}, res.ActionSuccesses)
}

func TestRun_ExecutorFunc(t *testing.T) {
	var seen []Primitive
	exec := ExecutorFunc(func(_ context.Context, s Step) (StepOutcome, error) {
		seen = append(seen, s.Primitive)
		return StepOutcome{}, nil
	})
	res := Run(context.Background(), exec, Plan{{Open, "a"}, {Close, "a"}})
	assert.Equal(t, []Primitive{Open, Close}, seen)
	assert.Equal(t, []map[string]any{{}, {}}, res.Infos)
}

func TestResult_WriteLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo_ap_replay.json")
	res := Result{
		Actions:         Plan{{RightGrasp, "apple"}},
		Infos:           []map[string]any{{"reward": 1.0}},
		ActionSuccesses: []bool{true},
	}
	require.NoError(t, WriteResult(path, res))

	back, err := LoadResult(path)
	require.NoError(t, err)
	assert.Equal(t, res, back)
}
