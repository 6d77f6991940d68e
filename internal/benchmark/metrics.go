package benchmark

import (
	"fmt"
	"sort"
	"strings"
)

// Aggregated metric names.
const (
	SuccessScore            = "Success Score"
	SuccessScoreTop5        = "Success Score Top 5"
	SimulatedTime           = "Simulated Time"
	KinematicDisarrangement = "Kinematic Disarrangement"
	LogicalDisarrangement   = "Logical Disarrangement"
	DistanceNavigated       = "Distance Navigated"
	DisplacementOfHands     = "Displacement of Hands"
)

// #region aggregate
// Aggregate averages the per-episode metric reports. Success Score Top 5 is
// the mean of the five best per-task mean success scores.
func Aggregate(episodes []map[string]any) (Report, error) {
	if len(episodes) == 0 {
		return nil, fmt.Errorf("no episodes to aggregate")
	}

	var (
		success, simTime, kinematic, logical, distance, hands []float64
		taskOrder                                             []string
		byTask                                                = map[string][]float64{}
	)
	for i, ep := range episodes {
		q, err := number(ep, "q_score", "final")
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", i, err)
		}
		task, _ := ep["task"].(string)
		if _, seen := byTask[task]; !seen {
			taskOrder = append(taskOrder, task)
		}
		byTask[task] = append(byTask[task], q)
		success = append(success, q)

		fields := []struct {
			dst  *[]float64
			path []string
		}{
			{&simTime, []string{"time", "simulator_time"}},
			{&kinematic, []string{"kinematic_disarrangement", "relative"}},
			{&logical, []string{"logical_disarrangement", "relative"}},
		}
		for _, f := range fields {
			v, err := number(ep, f.path...)
			if err != nil {
				return nil, fmt.Errorf("episode %d: %w", i, err)
			}
			*f.dst = append(*f.dst, v)
		}

		body, err := series(ep, "agent_distance", "timestep", "body")
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", i, err)
		}
		distance = append(distance, sum(body))

		left, err := series(ep, "grasp_distance", "timestep", "left_hand")
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", i, err)
		}
		right, err := series(ep, "grasp_distance", "timestep", "right_hand")
		if err != nil {
			return nil, fmt.Errorf("episode %d: %w", i, err)
		}
		hands = append(hands, sum(left)+sum(right))
	}

	taskScores := make([]float64, 0, len(taskOrder))
	for _, task := range taskOrder {
		taskScores = append(taskScores, mean(byTask[task]))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(taskScores)))
	if len(taskScores) > 5 {
		taskScores = taskScores[:5]
	}

	return Report{
		{SuccessScore, mean(success)},
		{SuccessScoreTop5, mean(taskScores)},
		{SimulatedTime, mean(simTime)},
		{KinematicDisarrangement, mean(kinematic)},
		{LogicalDisarrangement, mean(logical)},
		{DistanceNavigated, mean(distance)},
		{DisplacementOfHands, mean(hands)},
	}, nil
}

// #endregion aggregate

// #region helpers
func lookup(m map[string]any, path ...string) (any, error) {
	var cur any = m
	for _, key := range path {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("metric %s: not an object", strings.Join(path, "."))
		}
		if cur, ok = node[key]; !ok {
			return nil, fmt.Errorf("metric %s: missing", strings.Join(path, "."))
		}
	}
	return cur, nil
}

func number(m map[string]any, path ...string) (float64, error) {
	v, err := lookup(m, path...)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("metric %s: not a number", strings.Join(path, "."))
}

func series(m map[string]any, path ...string) ([]float64, error) {
	v, err := lookup(m, path...)
	if err != nil {
		return nil, err
	}
	switch s := v.(type) {
	case []float64:
		return s, nil
	case []any:
		out := make([]float64, len(s))
		for i, x := range s {
			f, ok := x.(float64)
			if !ok {
				return nil, fmt.Errorf("metric %s[%d]: not a number", strings.Join(path, "."), i)
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("metric %s: not a list", strings.Join(path, "."))
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sum(xs) / float64(len(xs))
}

// #endregion helpers
