package scene

import (
	"github.com/danielpatrickdp/behavior-harness/internal/predicate"
)

// #region types
// Frame is the simulator state at one replayed step, as a fact table. It is
// what the simulator service returns per step and what fixtures store.
type Frame struct {
	Frame    int                   `json:"frame_count"`
	TaskDone bool                  `json:"task_done,omitempty"`
	Objects  []ObjectSpec          `json:"objects"`
	Facts    []Fact                `json:"facts"`
	Goals    []predicate.Condition `json:"goals,omitempty"`

	index map[factKey]bool
}

// ObjectSpec describes one object in the frame.
type ObjectSpec struct {
	Name         string           `json:"name"`
	Category     string           `json:"category"`
	Robot        bool             `json:"robot,omitempty"`
	TaskRelevant bool             `json:"task_relevant,omitempty"`
	Kinds        []predicate.Kind `json:"kinds,omitempty"` // nil means every kind applies
}

// Fact is one defined predicate evaluation. Pairs absent from the table are
// undefined.
type Fact struct {
	Kind    predicate.Kind `json:"kind"`
	Objects []string       `json:"objects"`
	Value   bool           `json:"value"`
}

type factKey struct {
	kind    predicate.Kind
	subject string
	other   string
}

// #endregion types

// #region scene-impl
// FrameCount implements snapshot.Scene.
func (f *Frame) FrameCount() int { return f.Frame }

// GoalConditions implements snapshot.Scene.
func (f *Frame) GoalConditions() []predicate.Condition { return f.Goals }

// TaskObjects returns the task-relevant objects, robots included.
func (f *Frame) TaskObjects() []predicate.Object {
	out := make([]predicate.Object, 0, len(f.Objects))
	for i := range f.Objects {
		if f.Objects[i].TaskRelevant {
			out = append(out, &object{spec: &f.Objects[i], frame: f})
		}
	}
	return out
}

// SceneObjects returns every object in the frame.
func (f *Frame) SceneObjects() []predicate.Object {
	out := make([]predicate.Object, 0, len(f.Objects))
	for i := range f.Objects {
		out = append(out, &object{spec: &f.Objects[i], frame: f})
	}
	return out
}

// Ref returns the object reference for name, if present.
func (f *Frame) Ref(name string) (predicate.ObjectRef, bool) {
	for _, o := range f.Objects {
		if o.Name == name {
			return predicate.ObjectRef{Name: o.Name, Category: o.Category}, true
		}
	}
	return predicate.ObjectRef{}, false
}

func (f *Frame) lookup(key factKey) (bool, bool) {
	if f.index == nil {
		f.index = make(map[factKey]bool, len(f.Facts))
		for _, fact := range f.Facts {
			if len(fact.Objects) == 0 {
				continue
			}
			k := factKey{kind: fact.Kind, subject: fact.Objects[0]}
			if len(fact.Objects) > 1 {
				k.other = fact.Objects[1]
			}
			f.index[k] = fact.Value
		}
	}
	v, ok := f.index[key]
	return v, ok
}

// #endregion scene-impl

// #region object
type object struct {
	spec  *ObjectSpec
	frame *Frame
}

func (o *object) Ref() predicate.ObjectRef {
	return predicate.ObjectRef{Name: o.spec.Name, Category: o.spec.Category}
}

func (o *object) IsRobot() bool { return o.spec.Robot }

func (o *object) State(kind predicate.Kind) (predicate.Predicate, bool) {
	if o.spec.Kinds != nil && !containsKind(o.spec.Kinds, kind) {
		return nil, false
	}
	name := o.spec.Name
	if kind.Relative() {
		return predicate.Relative{Kind: kind, Eval: func(other predicate.ObjectRef) (bool, bool) {
			return o.frame.lookup(factKey{kind: kind, subject: name, other: other.Name})
		}}, true
	}
	return predicate.Absolute{Kind: kind, Eval: func() (bool, bool) {
		return o.frame.lookup(factKey{kind: kind, subject: name})
	}}, true
}

func containsKind(kinds []predicate.Kind, k predicate.Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

// #endregion object
