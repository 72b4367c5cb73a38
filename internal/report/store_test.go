package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newRecord(id string, started time.Time, status int) *RunRecord {
	return &RunRecord{
		ID:         id,
		Kind:       Launch,
		Workspace:  "/app",
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Outcome:    OutcomeAppFailed,
		Status:     status,
		Stages: []StageRecord{
			{Name: "runtime", Argv: []string{"python", "--version"}, Status: StatusPass},
			{Name: "install", Status: StatusSkipped},
			{Name: "launch", Argv: []string{"python", "main.py"}, Status: StatusFail, ExitCode: status, Detail: "exit code 7"},
		},
	}
}

// storeContract runs the behaviour every Store backend shares.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		r := newRecord(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute), i)
		if err := s.Save(r); err != nil {
			t.Fatalf("Save(run-%d): %v", i, err)
		}
	}

	got, err := s.Load("run-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Status != 1 || got.Kind != Launch || len(got.Stages) != 3 {
		t.Errorf("Load(run-1) = %+v, want status 1 with 3 stages", got)
	}
	if !got.StartedAt.Equal(base.Add(time.Minute)) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, base.Add(time.Minute))
	}

	list, err := s.List(2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len(List(2)) = %d, want 2", len(list))
	}
	if list[0].ID != "run-2" || list[1].ID != "run-1" {
		t.Errorf("List order = [%s %s], want newest first", list[0].ID, list[1].ID)
	}

	all, err := s.List(0)
	if err != nil {
		t.Fatalf("List(0): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(List(0)) = %d, want 3", len(all))
	}

	// Saving an existing ID replaces it.
	updated := newRecord("run-0", base, 42)
	if err := s.Save(updated); err != nil {
		t.Fatalf("Save(update): %v", err)
	}
	got, err = s.Load("run-0")
	if err != nil {
		t.Fatalf("Load(run-0): %v", err)
	}
	if got.Status != 42 {
		t.Errorf("Status after update = %d, want 42", got.Status)
	}

	if _, err := s.Load("missing"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Load(missing) err = %v, want not found", err)
	}
}

func TestDiskStore(t *testing.T) {
	storeContract(t, NewDiskStore(filepath.Join(t.TempDir(), "runs")))
}

func TestDiskStore_RejectsPathIDs(t *testing.T) {
	s := NewDiskStore(t.TempDir())
	if _, err := s.Load("../etc/passwd"); err == nil {
		t.Error("Load accepted a path-like run id")
	}
}

func TestDiskStore_ReadsDoNotCreateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs")
	s := NewDiskStore(dir)

	records, err := s.List(0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("List = %d records, want 0", len(records))
	}
	if _, err := s.Load("abc"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Load err = %v, want not found", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("run directory created by a read (stat err = %v)", err)
	}

	if err := s.Save(newRecord("abc", time.Now(), 0)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := s.Load("abc"); err != nil {
		t.Errorf("Load after Save: %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	storeContract(t, s)
}

func TestLRUStore_DelegatesAndCaches(t *testing.T) {
	back := NewDiskStore(t.TempDir())
	s := NewLRUStore(2, back)
	storeContract(t, s)
}

func TestLRUStore_Evicts(t *testing.T) {
	back := NewDiskStore(t.TempDir())
	s := NewLRUStore(2, back)
	now := time.Now()

	for _, id := range []string{"a", "b"} {
		if err := s.Save(newRecord(id, now, 0)); err != nil {
			t.Fatal(err)
		}
	}
	// Touch "a" so "b" becomes least recently used.
	if _, err := s.Load("a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(newRecord("c", now, 0)); err != nil {
		t.Fatal(err)
	}

	if s.Cached("b") {
		t.Error("b still cached, want evicted")
	}
	if !s.Cached("a") || !s.Cached("c") {
		t.Error("a and c should be cached")
	}

	// Evicted records still load from the backing store and are promoted.
	r, err := s.Load("b")
	if err != nil {
		t.Fatalf("Load(b): %v", err)
	}
	if r.ID != "b" {
		t.Errorf("Load(b).ID = %q", r.ID)
	}
	if !s.Cached("b") {
		t.Error("b not promoted after load")
	}
}

func TestOpen(t *testing.T) {
	for _, backend := range []string{"json", "sqlite", "none"} {
		t.Run(backend, func(t *testing.T) {
			s, closer, err := Open(backend, t.TempDir(), 3)
			if err != nil {
				t.Fatalf("Open(%s): %v", backend, err)
			}
			defer closer.Close()
			if err := s.Save(newRecord("x", time.Now(), 0)); err != nil {
				t.Errorf("Save: %v", err)
			}
		})
	}

	if _, _, err := Open("redis", t.TempDir(), 3); err == nil {
		t.Error("Open(redis) succeeded, want error")
	}
}

func TestNop(t *testing.T) {
	var s Store = Nop{}
	if err := s.Save(newRecord("x", time.Now(), 0)); err != nil {
		t.Errorf("Save: %v", err)
	}
	if _, err := s.Load("x"); err == nil {
		t.Error("Load succeeded on Nop store")
	}
	list, err := s.List(5)
	if err != nil || len(list) != 0 {
		t.Errorf("List = %v, %v; want empty", list, err)
	}
}

func TestFormat(t *testing.T) {
	r := newRecord("run-7", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), 7)
	out := Format(r)

	for _, want := range []string{
		"Run: run-7 (launch)",
		"Outcome: app_failed (status 7)",
		"python main.py",
		"exit code 7",
		"Duration: 1.5s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format missing %q:\n%s", want, out)
		}
	}
	if r.Stage("install").Status != StatusSkipped {
		t.Error("Stage(install) not found")
	}
	if r.Stage("bogus") != nil {
		t.Error("Stage(bogus) != nil")
	}
}
