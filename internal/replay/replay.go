package replay

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/behavior-harness/internal/logging"
	"github.com/danielpatrickdp/behavior-harness/internal/scene"
	"github.com/danielpatrickdp/behavior-harness/internal/segment"
)

// #region replay
// Replay steps session to the end of its log, invoking callbacks in order.
// The session is closed even when a callback fails. Determinism is checked
// when the session returns physics traces.
func Replay(ctx context.Context, s Session, cb Callbacks) (stats Statistics, err error) {
	log := logging.GetLogger(ctx)
	meta := s.Metadata()

	defer func() {
		log.Info("end of the replay")
		physics, cerr := s.Close(ctx)
		if cerr != nil {
			if err == nil {
				err = fmt.Errorf("close session: %w", cerr)
			}
			return
		}
		if err != nil || physics.Original == nil || physics.Replayed == nil {
			return
		}
		ok, mismatches := VerifyDeterminism(physics.Original, physics.Replayed)
		for _, m := range mismatches {
			log.Warnf("mismatch for obj %s with mismatched attribute %s", m.Object, m.Attribute)
		}
		log.Infof("demo was deterministic: %t", ok)
		stats.Deterministic = &ok
	}()

	current := s.Current()
	for _, fn := range cb.Start {
		if err := fn(ctx, current); err != nil {
			return Statistics{}, fmt.Errorf("start callback: %w", err)
		}
	}

	taskDone := false
	log.Info("replaying demo")
	for s.HasMore() {
		var frame *scene.Frame
		frame, err = s.Step(ctx)
		if err != nil {
			return Statistics{}, fmt.Errorf("step demo: %w", err)
		}
		taskDone = taskDone || frame.TaskDone
		for _, fn := range cb.Step {
			if err := fn(ctx, frame); err != nil {
				return Statistics{}, fmt.Errorf("step callback at frame %d: %w", frame.Frame, err)
			}
		}
		current = frame
	}
	log.Infof("demo ended in success: %t", taskDone)

	for _, fn := range cb.End {
		if err := fn(ctx, current); err != nil {
			return Statistics{}, fmt.Errorf("end callback: %w", err)
		}
	}

	return Statistics{
		Task:          meta.Activity,
		TaskID:        meta.ActivityID,
		Scene:         meta.SceneID,
		TaskDone:      taskDone,
		TotalFrameNum: s.TotalFrames(),
	}, nil
}

// #endregion replay

// #region segmentation
// SegmentationCallbacks wires processors into replay hooks. The data
// callback serializes every processor under the "segmentations" key.
func SegmentationCallbacks(procs []*segment.Processor) Callbacks {
	var cb Callbacks
	for _, p := range procs {
		cb.Start = append(cb.Start, p.Start)
		cb.Step = append(cb.Step, p.Step)
	}
	cb.Data = append(cb.Data, func(ctx context.Context) (map[string]any, error) {
		for _, p := range procs {
			logging.Infof(ctx, "serializing segmentation %s", p.Name)
		}
		return map[string]any{"segmentations": segment.SerializeAll(ctx, procs)}, nil
	})
	return cb
}

// Segment replays s through the default processors.
func Segment(ctx context.Context, s Session, includeGoal bool) (segment.File, []*segment.Processor, Statistics, error) {
	procs := segment.DefaultProcessors(includeGoal)
	stats, err := Replay(ctx, s, SegmentationCallbacks(procs))
	if err != nil {
		return nil, nil, Statistics{}, err
	}
	return segment.SerializeAll(ctx, procs), procs, stats, nil
}

// #endregion segmentation
