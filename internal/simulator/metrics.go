package simulator

import (
	"context"
	"fmt"
	"sync"

	"github.com/danielpatrickdp/behavior-harness/internal/replay"
	"github.com/danielpatrickdp/behavior-harness/internal/snapshot"
)

// DefaultMetrics are the demo metrics computed by metrics batches.
var DefaultMetrics = []string{
	"kinematic_disarrangement",
	"logical_disarrangement",
	"agent",
	"gaze",
	"task",
}

// MetricsSource is a session that reports simulator-side metrics.
type MetricsSource interface {
	Metrics(ctx context.Context) (map[string]any, error)
}

// MetricsCollector gathers the metrics of each replayed demo into its replay
// log. Demos are expected one at a time: Callbacks starts a new demo and the
// wrapped opener attaches its session.
type MetricsCollector struct {
	mu      sync.Mutex
	session MetricsSource
}

// Opener wraps open so the collector sees every session it opens.
func (m *MetricsCollector) Opener(open replay.Opener) replay.Opener {
	return func(ctx context.Context, path string) (replay.Session, error) {
		s, err := open(ctx, path)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if src, ok := s.(MetricsSource); ok {
			m.session = src
		}
		return s, nil
	}
}

// Callbacks reads the metrics once the demo has ended, before the session is
// closed, and hands them to the replay log. Its signature matches
// batch.CallbackFactory.
func (m *MetricsCollector) Callbacks(string, string) replay.Callbacks {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()

	var gathered map[string]any
	return replay.Callbacks{
		End: []replay.Callback{func(ctx context.Context, _ snapshot.Scene) error {
			m.mu.Lock()
			src := m.session
			m.mu.Unlock()
			if src == nil {
				return fmt.Errorf("session does not report metrics")
			}
			var err error
			gathered, err = src.Metrics(ctx)
			return err
		}},
		Data: []replay.DataCallback{func(context.Context) (map[string]any, error) {
			return gathered, nil
		}},
	}
}
