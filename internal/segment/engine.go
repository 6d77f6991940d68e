package segment

import (
	"context"

	"github.com/danielpatrickdp/behavior-harness/internal/logging"
	"github.com/danielpatrickdp/behavior-harness/internal/predicate"
	"github.com/danielpatrickdp/behavior-harness/internal/snapshot"
)

// #region types
// Segment is a frame interval bounded by a relevant state change. Records
// holds the changes observed at End.
type Segment struct {
	Start    int
	Duration int
	End      int
	Records  predicate.RecordSet
	Children []Segment
}

// Config holds the tables the engine filters and recurses with.
type Config struct {
	Directions   map[predicate.Kind]predicate.Direction
	SubSegments  map[predicate.Kind][]predicate.Kind
	Hierarchical bool
}

// DefaultConfig returns a config over fresh copies of the default tables.
func DefaultConfig(hierarchical bool) Config {
	return Config{
		Directions:   predicate.DefaultDirections(),
		SubSegments:  predicate.AllowedSubSegments(),
		Hierarchical: hierarchical,
	}
}

// #endregion types

// #region engine
// Engine turns a snapshot history into segments. It holds no per-call state.
type Engine struct {
	config Config
}

// NewEngine creates an engine. Nil tables fall back to the defaults.
func NewEngine(config Config) *Engine {
	if config.Directions == nil {
		config.Directions = predicate.DefaultDirections()
	}
	if config.SubSegments == nil {
		config.SubSegments = predicate.AllowedSubSegments()
	}
	return &Engine{config: config}
}

// Config returns the engine's tables.
func (e *Engine) Config() Config {
	return e.config
}

// Segments splits history wherever a filtered change appears between the
// current window start and the next snapshot.
func (e *Engine) Segments(ctx context.Context, history []snapshot.Snapshot, kinds []predicate.Kind) []Segment {
	return e.segments(ctx, history, predicate.KindSet(kinds...))
}

func (e *Engine) segments(ctx context.Context, history []snapshot.Snapshot, kinds map[predicate.Kind]struct{}) []Segment {
	if len(kinds) == 0 {
		logging.Infof(ctx, "no state kinds to segment on, returning no segments")
		return nil
	}

	var out []Segment
	before := 0
	for after := 1; after < len(history); after++ {
		diff := e.filter(history[after].Records.Minus(history[before].Records), kinds)
		if len(diff) == 0 {
			continue
		}

		var children []Segment
		if e.config.Hierarchical {
			sub := make(map[predicate.Kind]struct{})
			for r := range diff {
				for _, k := range e.config.SubSegments[r.Kind] {
					sub[k] = struct{}{}
				}
			}
			children = e.segments(ctx, history[before:after+1], sub)
		}

		start, end := history[before].Frame, history[after].Frame
		out = append(out, Segment{
			Start:    start,
			Duration: end - start,
			End:      end,
			Records:  diff,
			Children: children,
		})
		before = after
	}
	return out
}

// filter keeps records whose kind is active and whose value matches the
// kind's direction. Kinds missing from the table accept both values.
func (e *Engine) filter(records predicate.RecordSet, kinds map[predicate.Kind]struct{}) predicate.RecordSet {
	out := make(predicate.RecordSet)
	for r := range records {
		if _, ok := kinds[r.Kind]; !ok {
			continue
		}
		dir, ok := e.config.Directions[r.Kind]
		if !ok {
			dir = predicate.BothDirections
		}
		if dir.Accepts(r.Value) {
			out.Add(r)
		}
	}
	return out
}

// Root wraps the segments of history into one segment spanning them. With no
// segments the root has zero duration at the first retained frame.
func (e *Engine) Root(ctx context.Context, history []snapshot.Snapshot, kinds []predicate.Kind) Segment {
	children := e.Segments(ctx, history, kinds)
	if len(children) == 0 {
		frame := 0
		if len(history) > 0 {
			frame = history[0].Frame
		}
		return Segment{Start: frame, End: frame, Records: predicate.RecordSet{}}
	}
	start, end := children[0].Start, children[len(children)-1].End
	return Segment{
		Start:    start,
		Duration: end - start,
		End:      end,
		Records:  predicate.RecordSet{},
		Children: children,
	}
}

// #endregion engine
