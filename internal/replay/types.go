package replay

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/behavior-harness/internal/scene"
	"github.com/danielpatrickdp/behavior-harness/internal/snapshot"
)

// #region metadata
// Metadata is read from a demo log's header.
type Metadata struct {
	Activity        string  `json:"activity"`
	ActivityID      int     `json:"activity_id"`
	SceneID         string  `json:"scene_id"`
	InstanceID      *int    `json:"instance_id,omitempty"`
	FilterObjects   bool    `json:"filter_objects"`
	URDFFile        string  `json:"urdf_file,omitempty"`
	PhysicsTimestep float64 `json:"physics_timestep"`
	RenderTimestep  float64 `json:"render_timestep"`
}

// Instance returns the activity instance, 0 when the log does not record one.
func (m Metadata) Instance() int {
	if m.InstanceID == nil {
		return 0
	}
	return *m.InstanceID
}

// URDF returns the scene file to load, falling back to the fixed-furniture
// file for the activity.
func (m Metadata) URDF() string {
	if m.URDFFile != "" {
		return m.URDFFile
	}
	return fmt.Sprintf("%s_task_%s_%d_0_fixed_furniture", m.SceneID, m.Activity, m.ActivityID)
}

// #endregion metadata

// #region session
// PhysicsData maps object -> attribute -> flattened values as stored in a
// demo log.
type PhysicsData map[string]map[string][]float64

// PhysicsPair is the logged and the replayed physics trace. Both are nil
// when the session did not save a replay log.
type PhysicsPair struct {
	Original PhysicsData
	Replayed PhysicsData
}

// Session is an open demo: a log reader driving a simulator.
type Session interface {
	Metadata() Metadata
	TotalFrames() int
	// Current is the scene after reset, before any step.
	Current() *scene.Frame
	HasMore() bool
	Step(ctx context.Context) (*scene.Frame, error)
	Close(ctx context.Context) (PhysicsPair, error)
}

// Opener opens the demo at path.
type Opener func(ctx context.Context, path string) (Session, error)

// #endregion session

// #region callbacks
// Callback observes the scene at the start, after each step, or at the end of
// a replay.
type Callback func(ctx context.Context, s snapshot.Scene) error

// DataCallback contributes entries to a demo's replay log.
type DataCallback func(ctx context.Context) (map[string]any, error)

// Callbacks is the set of hooks for one replay.
type Callbacks struct {
	Start []Callback
	Step  []Callback
	End   []Callback
	Data  []DataCallback
}

// CollectData runs the data callbacks in order and merges their entries.
// Later callbacks overwrite earlier keys.
func (c Callbacks) CollectData(ctx context.Context) (map[string]any, error) {
	out := make(map[string]any)
	for _, cb := range c.Data {
		data, err := cb(ctx)
		if err != nil {
			return nil, fmt.Errorf("data callback: %w", err)
		}
		for k, v := range data {
			out[k] = v
		}
	}
	return out, nil
}

// #endregion callbacks

// #region statistics
// Statistics summarizes one replay.
type Statistics struct {
	Deterministic *bool  `json:"deterministic"`
	Task          string `json:"task"`
	TaskID        int    `json:"task_id"`
	Scene         string `json:"scene"`
	TaskDone      bool   `json:"task_done"`
	TotalFrameNum int    `json:"total_frame_num"`
}

// Map returns the statistics as replay-log entries.
func (s Statistics) Map() map[string]any {
	var det any
	if s.Deterministic != nil {
		det = *s.Deterministic
	}
	return map[string]any{
		"deterministic":   det,
		"task":            s.Task,
		"task_id":         s.TaskID,
		"scene":           s.Scene,
		"task_done":       s.TaskDone,
		"total_frame_num": s.TotalFrameNum,
	}
}

// #endregion statistics
