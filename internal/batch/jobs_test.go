package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
}

func TestFindSegmentationJobs(t *testing.T) {
	demoDir, segmDir, outDir := t.TempDir(), t.TempDir(), t.TempDir()
	touch(t, demoDir, "cleaning_0.hdf5", "cleaning_0_replay.hdf5", "storing_1.hdf5")
	touch(t, segmDir,
		"cleaning_0_flat_segm.json", "cleaning_0_room_segm.json", "cleaning_0_goal_segm.json",
		"cleaning_0_segm.json", "other_segm.json", "cleaning_0.json")

	jobs, err := FindSegmentationJobs(demoDir, segmDir, outDir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, Job{
		Demo:       "cleaning_0",
		DemoFile:   filepath.Join(demoDir, "cleaning_0.hdf5"),
		SegmFile:   filepath.Join(segmDir, "cleaning_0_flat_segm.json"),
		OutputFile: filepath.Join(outDir, "cleaning_0_flat_segm_ap_replay.json"),
		LogFile:    filepath.Join(outDir, "cleaning_0_flat_segm_ap_replay.log"),
	}, jobs[0])
	assert.Equal(t, filepath.Join(segmDir, "cleaning_0_segm.json"), jobs[1].SegmFile)
}

func TestRunJobs(t *testing.T) {
	outDir := t.TempDir()
	jobs := []Job{
		{Demo: "a", DemoFile: "a.hdf5", SegmFile: "a_segm.json", OutputFile: filepath.Join(outDir, "a_ap_replay.json"), LogFile: filepath.Join(outDir, "a_ap_replay.log")},
		{Demo: "b", DemoFile: "b.hdf5", SegmFile: "b_segm.json", OutputFile: filepath.Join(outDir, "b_ap_replay.json"), LogFile: filepath.Join(outDir, "b_ap_replay.log")},
		{Demo: "c", DemoFile: "c.hdf5", SegmFile: "c_segm.json", OutputFile: filepath.Join(outDir, "c_ap_replay.json"), LogFile: filepath.Join(outDir, "c_ap_replay.log")},
	}
	touch(t, outDir, "c_ap_replay.json")

	script := `echo "replaying $1 with $2"; echo oops >&2; echo '{}' > "$3"`
	sum, err := RunJobs(context.Background(), jobs, []string{"sh", "-c", script, "ap-replay"}, 2, true)
	require.NoError(t, err)
	assert.Equal(t, JobSummary{Launched: 2, Skipped: 1}, sum)

	raw, err := os.ReadFile(jobs[0].LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "replaying a.hdf5 with a_segm.json")
	assert.Contains(t, string(raw), "oops")
	_, err = os.Stat(jobs[1].OutputFile)
	assert.NoError(t, err)
	_, err = os.Stat(jobs[2].LogFile)
	assert.True(t, os.IsNotExist(err))
}

func TestRunJobs_FailuresAreCounted(t *testing.T) {
	outDir := t.TempDir()
	jobs := []Job{{Demo: "a", OutputFile: filepath.Join(outDir, "a.json"), LogFile: filepath.Join(outDir, "a.log")}}
	sum, err := RunJobs(context.Background(), jobs, []string{"sh", "-c", "echo failing; exit 3", "ap-replay"}, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)

	raw, err := os.ReadFile(jobs[0].LogFile)
	require.NoError(t, err)
	assert.Equal(t, "failing", strings.TrimSpace(string(raw)))
}

func TestRunJobs_EmptyCommand(t *testing.T) {
	_, err := RunJobs(context.Background(), nil, nil, 1, false)
	assert.Error(t, err)
}
