package segment

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielpatrickdp/behavior-harness/internal/predicate"
	"github.com/danielpatrickdp/behavior-harness/internal/snapshot"
)

// #region processor
// Processor pairs a recorder with an engine. Start and Step plug into the
// replay loop; Root and Serialize read the result afterwards.
type Processor struct {
	Name       string
	Recorder   *snapshot.Recorder
	Engine     *Engine
	ByInstance bool
}

// NewProcessor builds a processor from its recorder and engine configs.
func NewProcessor(name string, rc snapshot.Config, ec Config, byInstance bool) *Processor {
	return &Processor{
		Name:       name,
		Recorder:   snapshot.NewRecorder(rc),
		Engine:     NewEngine(ec),
		ByInstance: byInstance,
	}
}

// Start resolves the tracked kinds from the scene.
func (p *Processor) Start(_ context.Context, scene snapshot.Scene) error {
	if err := p.Recorder.Start(scene); err != nil {
		return fmt.Errorf("processor %s: %w", p.Name, err)
	}
	return nil
}

// Step samples one frame.
func (p *Processor) Step(_ context.Context, scene snapshot.Scene) error {
	if err := p.Recorder.Step(scene); err != nil {
		return fmt.Errorf("processor %s: %w", p.Name, err)
	}
	return nil
}

// Root segments the recorded history.
func (p *Processor) Root(ctx context.Context) Segment {
	return p.Engine.Root(ctx, p.Recorder.History(), p.Recorder.ActiveKinds())
}

// Serialize segments the recorded history and returns its JSON form.
func (p *Processor) Serialize(ctx context.Context) Serialized {
	return Serialize(p.Root(ctx), p.ByInstance)
}

func (p *Processor) String() string {
	kinds := p.Recorder.ActiveKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	rule := strings.Repeat("-", 51)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nSegmentation of %s\n", rule, p.Recorder.Config().Objects)
	fmt.Fprintf(&b, "Considered states: %s\n%s\n", strings.Join(names, ", "), rule)
	b.WriteString(Tree(p.Root(context.Background()), false))
	b.WriteString(rule + "\n")
	return b.String()
}

// #endregion processor

// #region defaults
// Default processor names.
const (
	Flat = "flat"
	Room = "room"
	Goal = "goal"
)

// DefaultProcessors returns the flat and room processors, plus the
// hierarchical goal processor when includeGoal is set.
func DefaultProcessors(includeGoal bool) []*Processor {
	procs := []*Processor{
		NewProcessor(Flat, snapshot.Config{
			Objects: snapshot.TaskRelevantObjects,
			States:  snapshot.Explicit,
			Kinds: []predicate.Kind{
				predicate.Open,
				predicate.OnTop,
				predicate.Inside,
				predicate.InHandOfRobot,
				predicate.InReachOfRobot,
			},
		}, DefaultConfig(false), true),
		NewProcessor(Room, snapshot.Config{
			Objects:     snapshot.Robots,
			States:      snapshot.Explicit,
			Kinds:       predicate.RoomKinds(),
			DiffInitial: true,
		}, DefaultConfig(false), false),
	}
	if includeGoal {
		procs = append(procs, NewProcessor(Goal, snapshot.Config{
			Objects:      snapshot.TaskRelevantObjects,
			States:       snapshot.GoalConditionRelevantStates,
			Hierarchical: true,
		}, DefaultConfig(true), true))
	}
	return procs
}

// SerializeAll serializes every processor into one segmentation file.
func SerializeAll(ctx context.Context, procs []*Processor) File {
	f := make(File, len(procs))
	for _, p := range procs {
		f[p.Name] = p.Serialize(ctx)
	}
	return f
}

// #endregion defaults
