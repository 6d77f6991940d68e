package snapshot

import "github.com/danielpatrickdp/behavior-harness/internal/predicate"

// #region selections
// ObjectSelection picks the object population a recorder samples.
type ObjectSelection int

const (
	AllObjects ObjectSelection = iota + 1
	TaskRelevantObjects
	Robots
)

func (s ObjectSelection) String() string {
	switch s {
	case AllObjects:
		return "ALL_OBJECTS"
	case TaskRelevantObjects:
		return "TASK_RELEVANT_OBJECTS"
	case Robots:
		return "ROBOTS"
	default:
		return "UNKNOWN"
	}
}

// StateSelection picks the predicate kinds a recorder tracks. Explicit uses
// Config.Kinds as given.
type StateSelection int

const (
	Explicit StateSelection = iota
	AllStates
	GoalConditionRelevantStates
)

// #endregion selections

// #region scene
// Scene is the per-step view of the simulator the recorder reads from.
type Scene interface {
	FrameCount() int
	TaskObjects() []predicate.Object
	SceneObjects() []predicate.Object
	GoalConditions() []predicate.Condition
}

// #endregion scene

// #region snapshot
// Snapshot is the set of facts observed at one simulation frame.
type Snapshot struct {
	Frame   int
	Records predicate.RecordSet
}

// #endregion snapshot

// #region config
// Config controls what a Recorder samples.
type Config struct {
	Objects ObjectSelection
	States  StateSelection
	Kinds   []predicate.Kind // used when States is Explicit

	// Hierarchical records every known kind so nested segmentation can use
	// kinds outside the top-level selection.
	Hierarchical bool

	// DiffInitial seeds history with an empty snapshot at frame 0 so the
	// first observed facts count as a change.
	DiffInitial bool
}

// #endregion config
