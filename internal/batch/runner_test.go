package batch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/behavior-harness/internal/events"
	"github.com/danielpatrickdp/behavior-harness/internal/replay"
	"github.com/danielpatrickdp/behavior-harness/internal/results"
	"github.com/danielpatrickdp/behavior-harness/internal/scene"
	"github.com/danielpatrickdp/behavior-harness/internal/simulator"
	"github.com/danielpatrickdp/behavior-harness/internal/snapshot"
)

// #region fakes
func fixtureOpener(opened *[]string) replay.Opener {
	return func(_ context.Context, path string) (replay.Session, error) {
		*opened = append(*opened, path)
		if filepath.Base(path) == "broken.hdf5" {
			return nil, errors.New("corrupt log")
		}
		return replay.NewFixtureSession(&replay.Fixture{
			Metadata: replay.Metadata{Activity: "storing_food", ActivityID: 0, SceneID: "Rs_int"},
			Frames: []scene.Frame{
				{Frame: 0},
				{Frame: 1},
				{Frame: 2, TaskDone: true},
			},
		}), nil
	}
}

type fakeStore struct {
	runs     []string
	outcomes []results.Outcome
	finished []string
}

func (s *fakeStore) CreateRun(kind string, _ map[string]any) (results.Run, error) {
	s.runs = append(s.runs, kind)
	return results.Run{RunID: "run-1", Kind: kind}, nil
}

func (s *fakeStore) RecordOutcome(o results.Outcome) (results.Outcome, error) {
	s.outcomes = append(s.outcomes, o)
	return o, nil
}

func (s *fakeStore) FinishRun(runID string) error {
	s.finished = append(s.finished, runID)
	return nil
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() {}

func (r *recorder) names() []string {
	var out []string
	for _, e := range r.events {
		out = append(out, e.Name)
	}
	return out
}

func writeManifest(t *testing.T, demos ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.csv")
	require.NoError(t, WriteManifest(path, demos))
	return path
}

func readLog(t *testing.T, path string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// #endregion fakes

func TestRunner_WritesReplayLogs(t *testing.T) {
	outDir := t.TempDir()
	var opened []string
	steps := 0
	r := &Runner{
		DemoRoot:     "/demos",
		OutDir:       outDir,
		IgnoreErrors: true,
		Open:         fixtureOpener(&opened),
		Callbacks: func(demoName, dir string) replay.Callbacks {
			assert.Equal(t, outDir, dir)
			return replay.Callbacks{
				Step: []replay.Callback{func(context.Context, snapshot.Scene) error { steps++; return nil }},
				Data: []replay.DataCallback{func(context.Context) (map[string]any, error) {
					return map[string]any{"demo_name": demoName}, nil
				}},
			}
		},
	}

	sum, err := r.Run(context.Background(), writeManifest(t, "a.hdf5", "a_replay.hdf5", "/abs/b.hdf5"))
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 3, Processed: 2, Skipped: 1}, sum)
	assert.Equal(t, []string{"/demos/a.hdf5", "/abs/b.hdf5"}, opened)
	assert.Equal(t, 6, steps)

	log := readLog(t, filepath.Join(outDir, "a_replay_log.json"))
	assert.Equal(t, false, log["failed"])
	assert.Equal(t, "a.hdf5", log["filename"])
	assert.Equal(t, "a", log["demo_name"])
	assert.Equal(t, "storing_food", log["task"])
	assert.Equal(t, true, log["task_done"])
	assert.Equal(t, float64(3), log["total_frame_num"])
	assert.Nil(t, log["deterministic"])

	_, err = os.Stat(filepath.Join(outDir, "abs_b_replay_log.json"))
	assert.NoError(t, err)
}

func TestRunner_SkipExisting(t *testing.T) {
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "a_replay_log.json"), []byte("{}"), 0o644))

	var opened []string
	pub := &recorder{}
	r := &Runner{DemoRoot: "/demos", OutDir: outDir, SkipExisting: true, Open: fixtureOpener(&opened), Publisher: pub}
	sum, err := r.Run(context.Background(), writeManifest(t, "a.hdf5", "c.hdf5"))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, []string{"/demos/c.hdf5"}, opened)
	assert.Equal(t, []string{events.RunStarted, events.DemoSkipped, events.DemoFinished, events.RunFinished}, pub.names())
}

func TestRunner_IgnoreErrorsWritesFailureRecord(t *testing.T) {
	outDir := t.TempDir()
	var opened []string
	store := &fakeStore{}
	r := &Runner{Kind: "segment-batch", DemoRoot: "/demos", OutDir: outDir, IgnoreErrors: true, Open: fixtureOpener(&opened), Store: store}

	sum, err := r.Run(context.Background(), writeManifest(t, "broken.hdf5", "ok.hdf5"))
	require.NoError(t, err)
	assert.Equal(t, "run-1", sum.RunID)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 2, sum.Processed)

	log := readLog(t, filepath.Join(outDir, "broken_replay_log.json"))
	assert.Equal(t, map[string]any{
		"demo_id":        "broken.hdf5",
		"failed":         true,
		"failure_reason": "open demo: corrupt log",
	}, log)

	assert.Equal(t, []string{"segment-batch"}, store.runs)
	assert.Equal(t, []string{"run-1"}, store.finished)
	require.Len(t, store.outcomes, 2)
	assert.True(t, store.outcomes[0].Failed)
	assert.False(t, store.outcomes[1].Failed)
	assert.Equal(t, true, store.outcomes[1].Stats["task_done"])
}

func TestRunner_StrictModeStops(t *testing.T) {
	outDir := t.TempDir()
	var opened []string
	store := &fakeStore{}
	r := &Runner{DemoRoot: "/demos", OutDir: outDir, Open: fixtureOpener(&opened), Store: store}

	_, err := r.Run(context.Background(), writeManifest(t, "broken.hdf5", "ok.hdf5"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt log")
	assert.Len(t, opened, 1)
	assert.Equal(t, []string{"run-1"}, store.finished)

	_, statErr := os.Stat(filepath.Join(outDir, "broken_replay_log.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunner_DataCallbackError(t *testing.T) {
	var opened []string
	r := &Runner{
		OutDir:       t.TempDir(),
		IgnoreErrors: true,
		Open:         fixtureOpener(&opened),
		Callbacks: func(string, string) replay.Callbacks {
			return replay.Callbacks{Data: []replay.DataCallback{func(context.Context) (map[string]any, error) {
				return nil, errors.New("serialize failed")
			}}}
		},
	}
	sum, err := r.Run(context.Background(), writeManifest(t, "a.hdf5"))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
}

func TestRunner_BadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("files\na\n"), 0o644))
	var opened []string
	r := &Runner{OutDir: t.TempDir(), Open: fixtureOpener(&opened)}
	_, err := r.Run(context.Background(), path)
	assert.ErrorIs(t, err, ErrNoDemosColumn)
}

// metricSession is a fixture session that also reports simulator metrics.
type metricSession struct {
	*replay.FixtureSession
	metrics map[string]any
}

func (s metricSession) Metrics(context.Context) (map[string]any, error) { return s.metrics, nil }

func TestRunner_MetricsMergedIntoReplayLog(t *testing.T) {
	outDir := t.TempDir()
	var opened []string
	fixtures := fixtureOpener(&opened)
	collector := &simulator.MetricsCollector{}
	r := &Runner{
		Kind:         "metrics-batch",
		DemoRoot:     "/demos",
		OutDir:       outDir,
		IgnoreErrors: true,
		Open: collector.Opener(func(ctx context.Context, path string) (replay.Session, error) {
			s, err := fixtures(ctx, path)
			if err != nil {
				return nil, err
			}
			return metricSession{
				FixtureSession: s.(*replay.FixtureSession),
				metrics:        map[string]any{"task": map[string]any{"path": path}},
			}, nil
		}),
		Callbacks: collector.Callbacks,
	}

	sum, err := r.Run(context.Background(), writeManifest(t, "a.hdf5", "broken.hdf5", "c.hdf5"))
	require.NoError(t, err)
	assert.Equal(t, Summary{Total: 3, Processed: 3, Failed: 1}, sum)

	for _, name := range []string{"a", "c"} {
		log := readLog(t, filepath.Join(outDir, name+"_replay_log.json"))
		assert.Equal(t, false, log["failed"])
		assert.Equal(t, map[string]any{"path": "/demos/" + name + ".hdf5"}, log["task"])
	}
	broken := readLog(t, filepath.Join(outDir, "broken_replay_log.json"))
	assert.Equal(t, true, broken["failed"])
}

func TestRunner_SameNameInDifferentDirectories(t *testing.T) {
	outDir := t.TempDir()
	var opened []string
	store := &fakeStore{}
	var keys []string
	r := &Runner{
		DemoRoot:     "/demos",
		OutDir:       outDir,
		SkipExisting: true,
		IgnoreErrors: true,
		Open:         fixtureOpener(&opened),
		Store:        store,
		Callbacks: func(demoKey, _ string) replay.Callbacks {
			keys = append(keys, demoKey)
			return replay.Callbacks{}
		},
	}

	sum, err := r.Run(context.Background(), writeManifest(t, "day1/demo.hdf5", "day2/demo.hdf5"))
	require.NoError(t, err)
	assert.Equal(t, Summary{RunID: "run-1", Total: 2, Processed: 2}, sum)
	assert.Equal(t, []string{"/demos/day1/demo.hdf5", "/demos/day2/demo.hdf5"}, opened)
	assert.Equal(t, []string{filepath.Join("day1", "demo"), filepath.Join("day2", "demo")}, keys)

	for _, dir := range []string{"day1", "day2"} {
		log := readLog(t, filepath.Join(outDir, dir, "demo_replay_log.json"))
		assert.Equal(t, "demo.hdf5", log["filename"])
	}
	require.Len(t, store.outcomes, 2)
	assert.NotEqual(t, store.outcomes[0].Demo, store.outcomes[1].Demo)
	assert.NotEqual(t, store.outcomes[0].OutputPath, store.outcomes[1].OutputPath)

	// A second pass finds both logs.
	opened = nil
	sum, err = r.Run(context.Background(), writeManifest(t, "day1/demo.hdf5", "day2/demo.hdf5"))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Skipped)
	assert.Empty(t, opened)
}

func TestDemoNameAndKey(t *testing.T) {
	assert.Equal(t, "cleaning_0", DemoName("/data/cleaning_0.hdf5"))

	cases := []struct {
		root, demo, want string
	}{
		{"/data", "cleaning_0.hdf5", "cleaning_0"},
		{"/data", "sub/cleaning_0.hdf5", filepath.Join("sub", "cleaning_0")},
		{"/data", "/data/sub/cleaning_0.hdf5", filepath.Join("sub", "cleaning_0")},
		{"/data", "/other/sub/cleaning_0.hdf5", "other_sub_cleaning_0"},
		{"/data", "../up/cleaning_0.hdf5", "up_cleaning_0"},
		{"", "/abs/cleaning_0.hdf5", "abs_cleaning_0"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DemoKey(c.root, c.demo), "%s under %s", c.demo, c.root)
	}
	assert.Equal(t, filepath.Join("out", "sub", "cleaning_0_replay_log.json"), LogPath("out", filepath.Join("sub", "cleaning_0")))
}
