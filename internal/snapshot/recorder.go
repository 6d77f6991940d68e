package snapshot

import (
	"fmt"

	"github.com/danielpatrickdp/behavior-harness/internal/predicate"
)

// #region recorder
// Recorder samples predicate facts once per step and keeps only the steps
// where the fact set changed.
type Recorder struct {
	config  Config
	kinds   []predicate.Kind
	history []Snapshot
}

// NewRecorder creates a recorder. Kinds are resolved in Start.
func NewRecorder(config Config) *Recorder {
	r := &Recorder{config: config}
	if config.DiffInitial {
		r.history = append(r.history, Snapshot{Frame: 0, Records: predicate.RecordSet{}})
	}
	return r
}

// Start resolves the tracked kinds against the scene's task definition.
func (r *Recorder) Start(scene Scene) error {
	switch r.config.States {
	case Explicit:
		r.kinds = append([]predicate.Kind(nil), r.config.Kinds...)
	case AllStates:
		r.kinds = predicate.AllKinds()
	case GoalConditionRelevantStates:
		set := predicate.GoalKinds(scene.GoalConditions())
		r.kinds = make([]predicate.Kind, 0, len(set))
		for k := range set {
			r.kinds = append(r.kinds, k)
		}
		predicate.SortKinds(r.kinds)
	default:
		return fmt.Errorf("unknown state selection %d", r.config.States)
	}
	return nil
}

// Step samples the scene and appends a snapshot if the fact set differs from
// the last retained one.
func (r *Recorder) Step(scene Scene) error {
	objects, err := r.selectObjects(scene)
	if err != nil {
		return err
	}

	kinds := r.kinds
	if r.config.Hierarchical {
		kinds = predicate.AllKinds()
	}

	records := Process(objects, kinds)
	if n := len(r.history); n == 0 || !r.history[n-1].Records.Equal(records) {
		r.history = append(r.history, Snapshot{Frame: scene.FrameCount(), Records: records})
	}
	return nil
}

// History returns the retained snapshots in frame order.
func (r *Recorder) History() []Snapshot {
	return r.history
}

// ActiveKinds returns the kinds resolved in Start.
func (r *Recorder) ActiveKinds() []predicate.Kind {
	return r.kinds
}

// Config returns the recorder's configuration.
func (r *Recorder) Config() Config {
	return r.config
}

func (r *Recorder) selectObjects(scene Scene) ([]predicate.Object, error) {
	switch r.config.Objects {
	case TaskRelevantObjects:
		return filterRobots(scene.TaskObjects(), false), nil
	case Robots:
		return filterRobots(scene.TaskObjects(), true), nil
	case AllObjects:
		return scene.SceneObjects(), nil
	default:
		return nil, fmt.Errorf("incorrect object selection %d", r.config.Objects)
	}
}

func filterRobots(objects []predicate.Object, robots bool) []predicate.Object {
	out := make([]predicate.Object, 0, len(objects))
	for _, o := range objects {
		if o.IsRobot() == robots {
			out = append(out, o)
		}
	}
	return out
}

// #endregion recorder

// #region process
// Process evaluates kinds over objects. Absolute kinds yield one record per
// object; relative kinds yield one per ordered pair within the population.
// Undefined evaluations produce no record.
func Process(objects []predicate.Object, kinds []predicate.Kind) predicate.RecordSet {
	records := make(predicate.RecordSet)
	for _, obj := range objects {
		for _, kind := range kinds {
			p, ok := obj.State(kind)
			if !ok {
				continue
			}
			switch p := p.(type) {
			case predicate.Absolute:
				if value, ok := p.Eval(); ok {
					records.Add(predicate.Unary(kind, obj.Ref(), value))
				}
			case predicate.Relative:
				for _, other := range objects {
					if value, ok := p.Eval(other.Ref()); ok {
						records.Add(predicate.Binary(kind, obj.Ref(), other.Ref(), value))
					}
				}
			}
		}
	}
	return records
}

// #endregion process
