package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/behavior-harness/internal/logging"
	"github.com/danielpatrickdp/behavior-harness/internal/segment"
)

// Job pairs a demo with one of its segmentation files.
type Job struct {
	Demo       string
	DemoFile   string
	SegmFile   string
	OutputFile string
	LogFile    string
}

// FindSegmentationJobs pairs every non-replay demo in demoDir with each
// *_segm.json in segmDir whose path contains the demo name. Room and goal
// processor files are skipped: actions are derived from flat segmentations.
func FindSegmentationJobs(demoDir, segmDir, outDir string) ([]Job, error) {
	segms, err := filepath.Glob(filepath.Join(segmDir, "*_segm.json"))
	if err != nil {
		return nil, fmt.Errorf("glob segmentations: %w", err)
	}
	demos, err := filepath.Glob(filepath.Join(demoDir, "*.hdf5"))
	if err != nil {
		return nil, fmt.Errorf("glob demos: %w", err)
	}

	var jobs []Job
	for _, demoFile := range demos {
		demo := DemoName(demoFile)
		if strings.Contains(demo, "replay") {
			continue
		}
		for _, segm := range segms {
			if !strings.Contains(segm, demo) || !derivable(segm) {
				continue
			}
			name := DemoName(segm)
			jobs = append(jobs, Job{
				Demo:       demo,
				DemoFile:   demoFile,
				SegmFile:   segm,
				OutputFile: filepath.Join(outDir, name+"_ap_replay.json"),
				LogFile:    filepath.Join(outDir, name+"_ap_replay.log"),
			})
		}
	}
	return jobs, nil
}

func derivable(segm string) bool {
	base := filepath.Base(segm)
	for _, name := range []string{segment.Room, segment.Goal} {
		if strings.HasSuffix(base, "_"+name+"_segm.json") {
			return false
		}
	}
	return true
}

// JobSummary counts the outcome of RunJobs.
type JobSummary struct {
	Launched int
	Skipped  int
	Failed   int
}

// RunJobs launches command once per job with the demo, segmentation and
// output paths appended, at most parallelism at a time. Each process writes
// stdout and stderr to the job's log file. A failing process is counted and
// logged; only setup errors stop the batch.
func RunJobs(ctx context.Context, jobs []Job, command []string, parallelism int, skipExisting bool) (JobSummary, error) {
	if len(command) == 0 {
		return JobSummary{}, fmt.Errorf("empty job command")
	}
	if parallelism < 1 {
		parallelism = 1
	}

	var (
		mu  sync.Mutex
		sum JobSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for _, job := range jobs {
		if skipExisting {
			if _, err := os.Stat(job.OutputFile); err == nil {
				logging.Infof(ctx, "skipping demo because it exists already: %s", job.OutputFile)
				sum.Skipped++
				continue
			}
		}
		sum.Launched++
		g.Go(func() error {
			err := runJob(gctx, job, command)
			if err == nil {
				return nil
			}
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				logging.Warnf(gctx, "job for %s exited with code %d, see %s", job.Demo, exitErr.ExitCode(), job.LogFile)
				mu.Lock()
				sum.Failed++
				mu.Unlock()
				return nil
			}
			return err
		})
	}

	err := g.Wait()
	return sum, err
}

func runJob(ctx context.Context, job Job, command []string) error {
	if err := os.MkdirAll(filepath.Dir(job.LogFile), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.Create(job.LogFile)
	if err != nil {
		return fmt.Errorf("create job log: %w", err)
	}
	defer logFile.Close()

	args := append(append([]string{}, command[1:]...), job.DemoFile, job.SegmFile, job.OutputFile)
	cmd := exec.CommandContext(ctx, command[0], args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	logging.Infof(ctx, "launching subprocess for demo %s, log file: %s", job.Demo, job.LogFile)
	return cmd.Run()
}
