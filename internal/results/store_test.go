package results

import (
	"path/filepath"
	"testing"
	"time"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("sqlite", filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_UnknownDriver(t *testing.T) {
	if _, err := NewStore("mysql", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestCreateAndFinishRun(t *testing.T) {
	s := tempStore(t)

	run, err := s.CreateRun("segment-batch", map[string]any{"manifest": "manifest.csv", "skip_existing": true})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.RunID == "" {
		t.Fatal("expected run id")
	}

	if err := s.FinishRun(run.RunID); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := s.FinishRun("missing"); err == nil {
		t.Fatal("expected error finishing unknown run")
	}

	runs, err := s.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	got := runs[0]
	if got.Kind != "segment-batch" || got.Args["manifest"] != "manifest.csv" || got.Args["skip_existing"] != true {
		t.Errorf("unexpected run %+v", got)
	}
	if got.FinishedAt == nil {
		t.Error("expected finished_at")
	}
	if !got.StartedAt.Equal(run.StartedAt) {
		t.Errorf("started_at round trip: %v vs %v", got.StartedAt, run.StartedAt)
	}
}

func TestListRuns_NewestFirstWithLimit(t *testing.T) {
	s := tempStore(t)
	var ids []string
	for _, kind := range []string{"replay-batch", "segment-batch", "ap-replay-batch"} {
		r, err := s.CreateRun(kind, nil)
		if err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
		ids = append(ids, r.RunID)
		time.Sleep(2 * time.Millisecond)
	}

	runs, err := s.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != ids[2] || runs[1].RunID != ids[1] {
		t.Errorf("expected newest first, got %s, %s", runs[0].Kind, runs[1].Kind)
	}
	if runs[0].Args != nil {
		t.Errorf("expected nil args, got %v", runs[0].Args)
	}
}

func TestRecordAndListOutcomes(t *testing.T) {
	s := tempStore(t)
	run, err := s.CreateRun("replay-batch", nil)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	inputs := []Outcome{
		{RunID: run.RunID, Demo: "a.hdf5", OutputPath: "out/a_replay_log.json", Stats: map[string]any{"task_done": true}, CreatedAt: base},
		{RunID: run.RunID, Demo: "b.hdf5", Failed: true, FailureReason: "simulator crashed", CreatedAt: base.Add(time.Second)},
	}
	for _, o := range inputs {
		rec, err := s.RecordOutcome(o)
		if err != nil {
			t.Fatalf("RecordOutcome: %v", err)
		}
		if rec.ID == "" {
			t.Fatal("expected generated id")
		}
	}

	outs, err := s.ListOutcomes(run.RunID)
	if err != nil {
		t.Fatalf("ListOutcomes: %v", err)
	}
	if len(outs) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outs))
	}
	if outs[0].Demo != "a.hdf5" || outs[0].Failed || outs[0].Stats["task_done"] != true {
		t.Errorf("unexpected first outcome %+v", outs[0])
	}
	if !outs[1].Failed || outs[1].FailureReason != "simulator crashed" || outs[1].OutputPath != "" {
		t.Errorf("unexpected second outcome %+v", outs[1])
	}

	st, err := s.Stats(run.RunID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 2 || st.Failed != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestRecordOutcome_UnknownRun(t *testing.T) {
	s := tempStore(t)
	if _, err := s.RecordOutcome(Outcome{RunID: "nope", Demo: "a.hdf5"}); err == nil {
		t.Fatal("expected foreign key violation")
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: "postgres"}
	got := pg.rebind(`UPDATE runs SET finished_at = ? WHERE run_id = ?`)
	if want := `UPDATE runs SET finished_at = $1 WHERE run_id = $2`; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	lite := &Store{driver: "sqlite"}
	if q := lite.rebind("a = ?"); q != "a = ?" {
		t.Errorf("sqlite query rewritten: %q", q)
	}
}
