package deadletter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/wire"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deadletter.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	entry := Entry{
		TaskID:    "t1",
		SocketID:  "sock1",
		Err:       "decode failed",
		Offset:    5,
		Duration:  15,
		CreatedAt: time.Now(),
	}
	if err := s.Record(entry); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(Recent()) = %d, want 1", len(got))
	}
	if got[0].TaskID != "t1" || got[0].Err != "decode failed" {
		t.Fatalf("Recent()[0] = %+v, want task_id t1 / err 'decode failed'", got[0])
	}
}

func TestStoreRecordFailureAdaptsWorkerOutput(t *testing.T) {
	s := openTestStore(t)
	out := wire.WorkerOutput{TaskID: "t2", SocketID: "sock2", Err: "boom", Offset: 1, Duration: 2}
	if err := s.RecordFailure(out); err != nil {
		t.Fatalf("RecordFailure() error = %v", err)
	}
	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Count() = %d, want 1", n)
	}
}

func TestStoreRecentOrdersNewestFirst(t *testing.T) {
	s := openTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Record(Entry{TaskID: id, SocketID: "sock", Err: "x", CreatedAt: time.Now()}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	got, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(Recent(2)) = %d, want 2", len(got))
	}
	if got[0].TaskID != "c" || got[1].TaskID != "b" {
		t.Fatalf("Recent order = [%s %s], want [c b]", got[0].TaskID, got[1].TaskID)
	}
}
