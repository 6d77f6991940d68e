package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielpatrickdp/behavior-harness/internal/events"
	"github.com/danielpatrickdp/behavior-harness/internal/logging"
	"github.com/danielpatrickdp/behavior-harness/internal/replay"
	"github.com/danielpatrickdp/behavior-harness/internal/results"
)

// OutcomeStore persists batch runs. *results.Store implements it.
type OutcomeStore interface {
	CreateRun(kind string, args map[string]any) (results.Run, error)
	RecordOutcome(o results.Outcome) (results.Outcome, error)
	FinishRun(runID string) error
}

// CallbackFactory builds the hooks for one demo. demoKey is the DemoKey of
// the manifest entry and may contain directories below outDir.
type CallbackFactory func(demoKey, outDir string) replay.Callbacks

// Runner replays every demo of a manifest and writes one replay log per demo.
type Runner struct {
	Kind         string
	DemoRoot     string
	OutDir       string
	SkipExisting bool
	IgnoreErrors bool
	Open         replay.Opener
	Callbacks    CallbackFactory
	Store        OutcomeStore
	Publisher    events.Publisher
}

// Summary counts what a run did with its manifest.
type Summary struct {
	RunID     string
	Total     int
	Processed int
	Skipped   int
	Failed    int
}

// DemoName strips directory and extension from a manifest entry.
func DemoName(demo string) string {
	base := filepath.Base(demo)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DemoKey names the outputs of a manifest entry: its path relative to
// demoRoot without the extension, so same-named demos in different
// directories stay apart. Entries outside demoRoot are flattened into a
// single file name.
func DemoKey(demoRoot, demo string) string {
	rel := filepath.Clean(demo)
	if filepath.IsAbs(rel) && demoRoot != "" {
		if r, err := filepath.Rel(demoRoot, rel); err == nil {
			rel = r
		}
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	if filepath.IsLocal(rel) {
		return rel
	}
	var parts []string
	for _, p := range strings.Split(filepath.ToSlash(rel), "/") {
		if p != "" && p != "." && p != ".." {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "_")
}

// LogPath is where the replay log for the demo with the given key is written.
func LogPath(outDir, key string) string {
	return filepath.Join(outDir, key+"_replay_log.json")
}

// #region run
// Run processes the manifest. In strict mode the first demo error aborts the
// run; otherwise failures are written as failure records.
func (r *Runner) Run(ctx context.Context, manifestPath string) (Summary, error) {
	if r.Open == nil {
		return Summary{}, fmt.Errorf("runner has no session opener")
	}
	demos, err := ReadManifest(manifestPath)
	if err != nil {
		return Summary{}, err
	}
	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create output dir: %w", err)
	}

	sum := Summary{Total: len(demos)}
	if r.Store != nil {
		run, err := r.Store.CreateRun(r.kind(), map[string]any{
			"manifest":      manifestPath,
			"demo_root":     r.DemoRoot,
			"out_dir":       r.OutDir,
			"skip_existing": r.SkipExisting,
			"ignore_errors": r.IgnoreErrors,
		})
		if err != nil {
			return Summary{}, fmt.Errorf("create run: %w", err)
		}
		sum.RunID = run.RunID
		defer func() {
			if err := r.Store.FinishRun(run.RunID); err != nil {
				logging.Warnf(ctx, "finish run %s: %v", run.RunID, err)
			}
		}()
	}

	ctx = logging.WithField(ctx, "run_id", sum.RunID)
	log := logging.GetLogger(ctx)
	log.Infof("demos in manifest: %d", len(demos))
	events.Emit(ctx, r.Publisher, events.Event{Name: events.RunStarted, Fields: map[string]any{"run_id": sum.RunID, "total": len(demos)}})

	for idx, demo := range demos {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if strings.Contains(demo, "replay") {
			sum.Skipped++
			continue
		}
		key := DemoKey(r.DemoRoot, demo)
		logPath := LogPath(r.OutDir, key)
		if r.SkipExisting {
			if _, err := os.Stat(logPath); err == nil {
				log.Infof("skipping existing demo: %s, %d out of %d", demo, idx, len(demos))
				sum.Skipped++
				events.Emit(ctx, r.Publisher, events.Event{Name: events.DemoSkipped, Demo: key})
				continue
			}
		}
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return sum, fmt.Errorf("create output dir: %w", err)
		}

		log.Infof("replaying demo: %s, %d out of %d", demo, idx, len(demos))
		info, stats, err := r.replayOne(ctx, demo, key)
		outcome := results.Outcome{RunID: sum.RunID, Demo: key, OutputPath: logPath, Stats: stats}
		if err != nil {
			if !r.IgnoreErrors {
				r.record(ctx, outcome, err)
				return sum, fmt.Errorf("demo %s: %w", demo, err)
			}
			log.Infof("demo failed with the error: %v", err)
			info = map[string]any{"demo_id": filepath.Base(demo), "failed": true, "failure_reason": err.Error()}
			sum.Failed++
		}
		if werr := writeLog(logPath, info); werr != nil {
			return sum, werr
		}
		sum.Processed++
		r.record(ctx, outcome, err)
	}

	events.Emit(ctx, r.Publisher, events.Event{Name: events.RunFinished, Fields: map[string]any{
		"run_id": sum.RunID, "processed": sum.Processed, "skipped": sum.Skipped, "failed": sum.Failed,
	}})
	return sum, nil
}

func (r *Runner) kind() string {
	if r.Kind == "" {
		return "replay-batch"
	}
	return r.Kind
}

func (r *Runner) replayOne(ctx context.Context, demo, key string) (map[string]any, map[string]any, error) {
	path := demo
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.DemoRoot, demo)
	}
	var cb replay.Callbacks
	if r.Callbacks != nil {
		cb = r.Callbacks(key, r.OutDir)
	}

	ctx = logging.WithField(ctx, "demo", key)
	s, err := r.Open(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("open demo: %w", err)
	}
	stats, err := replay.Replay(ctx, s, cb)
	if err != nil {
		return nil, nil, err
	}

	info := stats.Map()
	info["failed"] = false
	info["filename"] = filepath.Base(demo)
	data, err := cb.CollectData(ctx)
	if err != nil {
		return nil, nil, err
	}
	for k, v := range data {
		info[k] = v
	}
	return info, stats.Map(), nil
}

// record stores and publishes one demo outcome. Neither failure is fatal.
func (r *Runner) record(ctx context.Context, o results.Outcome, demoErr error) {
	name := events.DemoFinished
	if demoErr != nil {
		o.Failed = true
		o.FailureReason = demoErr.Error()
		name = events.DemoFailed
	}
	if r.Store != nil {
		if _, err := r.Store.RecordOutcome(o); err != nil {
			logging.Warnf(ctx, "record outcome for %s: %v", o.Demo, err)
		}
	}
	fields := map[string]any{"run_id": o.RunID, "failed": o.Failed}
	if o.Failed {
		fields["failure_reason"] = o.FailureReason
	}
	events.Emit(ctx, r.Publisher, events.Event{Name: name, Demo: o.Demo, Fields: fields})
}

func writeLog(path string, info map[string]any) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal replay log: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write replay log: %w", err)
	}
	return nil
}

// #endregion run
