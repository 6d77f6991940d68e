package primitive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/behavior-harness/internal/logging"
	"github.com/danielpatrickdp/behavior-harness/internal/predicate"
	"github.com/danielpatrickdp/behavior-harness/internal/segment"
)

// #region hands
// hands tracks which gripper holds which object during one derivation.
type hands map[string]Hand

// empty returns the free hand, right first.
func (h hands) empty() (Hand, error) {
	switch len(h) {
	case 0:
		return RightHand, nil
	case 1:
		for _, held := range h {
			if held == RightHand {
				return LeftHand, nil
			}
		}
		return RightHand, nil
	default:
		return 0, ErrHandsFull
	}
}

// #endregion hands

// #region derive
// Derive converts the top-level changes of a flat segmentation into a plan.
// Each sub-segment contributes at most its first state record.
func Derive(ctx context.Context, root segment.Serialized) (Plan, error) {
	log := logging.GetLogger(ctx)
	log.Info("converting segmentation to action primitives")

	changes := make([]segment.SerializedRecord, 0, len(root.SubSegments))
	for _, seg := range root.SubSegments {
		switch n := len(seg.StateRecords); {
		case n == 0:
			log.Infof("segment %d-%d has no usable state changes", seg.Start, seg.End)
			continue
		case n > 1:
			log.Warnf("segment %d-%d has %d state changes, using the first", seg.Start, seg.End, n)
		}
		changes = append(changes, seg.StateRecords[0])
	}

	held := make(hands)
	plan := make(Plan, 0, len(changes))
	for i, change := range changes {
		if len(change.Objects) == 0 {
			return nil, fmt.Errorf("%w: %s has no objects", ErrUnsupportedTransition, change.Name)
		}
		obj := change.Objects[0]

		var step Step
		switch kind := predicate.Kind(change.Name); {
		case kind == predicate.Open && change.Value:
			step = Step{Primitive: Open, Object: obj}
		case kind == predicate.Open:
			step = Step{Primitive: Close, Object: obj}
		case kind == predicate.InReachOfRobot && change.Value:
			// navigation is implicit in the primitives
			continue
		case kind == predicate.InHandOfRobot && change.Value:
			if !usedLater(obj, changes[i+1:]) {
				log.Infof("grasp of %s in change %d is never placed, skipping", obj, i)
				continue
			}
			hand, err := held.empty()
			if err != nil {
				return nil, fmt.Errorf("grasp %s in change %d: %w", obj, i, err)
			}
			held[obj] = hand
			step = Step{Primitive: grasp(hand), Object: obj}
		case (kind == predicate.Inside || kind == predicate.OnTop) && change.Value:
			hand, ok := held[obj]
			if !ok {
				log.Infof("placed object %s in change %d is not grasped, skipping", obj, i)
				continue
			}
			delete(held, obj)
			if kind == predicate.Inside {
				step = Step{Primitive: placeInside(hand), Object: obj}
			} else {
				step = Step{Primitive: placeOnTop(hand), Object: obj}
			}
		default:
			return nil, fmt.Errorf("%w: %s(%v) = %t", ErrUnsupportedTransition, change.Name, change.Objects, change.Value)
		}

		log.Infof("action: %s", step)
		plan = append(plan, step)
	}

	log.Info("conversion completed")
	return plan, nil
}

// usedLater reports whether obj is placed by a later change before it is
// grasped again.
func usedLater(obj string, later []segment.SerializedRecord) bool {
	for _, c := range later {
		if len(c.Objects) == 0 || c.Objects[0] != obj {
			continue
		}
		kind := predicate.Kind(c.Name)
		if kind == predicate.InHandOfRobot && c.Value {
			return false
		}
		if (kind == predicate.Inside || kind == predicate.OnTop) && c.Value {
			return true
		}
	}
	return false
}

// #endregion derive

// #region load
// LoadFlat reads the flat segmentation from path. It accepts a batch replay
// log ({"segmentations": {...}}), a segmentation file keyed by processor, or
// a single serialized tree.
func LoadFlat(path string) (segment.Serialized, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return segment.Serialized{}, fmt.Errorf("read segmentation %s: %w", path, err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return segment.Serialized{}, fmt.Errorf("parse segmentation %s: %w", path, err)
	}

	if raw, ok := probe["segmentations"]; ok {
		var file segment.File
		if err := json.Unmarshal(raw, &file); err != nil {
			return segment.Serialized{}, fmt.Errorf("parse segmentations in %s: %w", path, err)
		}
		return flatOf(file, path)
	}
	if _, ok := probe["sub_segments"]; ok {
		return segment.Deserialize(data)
	}

	var file segment.File
	if err := json.Unmarshal(data, &file); err != nil {
		return segment.Serialized{}, fmt.Errorf("parse segmentation %s: %w", path, err)
	}
	return flatOf(file, path)
}

func flatOf(file segment.File, path string) (segment.Serialized, error) {
	flat, ok := file[segment.Flat]
	if !ok {
		return segment.Serialized{}, fmt.Errorf("%s: %w", path, ErrNoFlatSegmentation)
	}
	return flat, nil
}

// #endregion load
