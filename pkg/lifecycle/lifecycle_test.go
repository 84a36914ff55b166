package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/statement-tools/bankstage/pkg/models"
)

// fakeStore is an in-memory row-store keyed by session id.
type fakeStore struct {
	rows    map[string][]time.Time
	failAll bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string][]time.Time{}}
}

func (f *fakeStore) seed(sessionID string, n int, at time.Time) {
	for i := 0; i < n; i++ {
		f.rows[sessionID] = append(f.rows[sessionID], at.Add(time.Duration(i)*time.Minute))
	}
}

func (f *fakeStore) InsertTransactions(_ context.Context, sessionID string, table *models.Table) (int64, error) {
	now := time.Now()
	for range table.Rows {
		f.rows[sessionID] = append(f.rows[sessionID], now)
	}
	return int64(len(table.Rows)), nil
}

func (f *fakeStore) DeleteSession(_ context.Context, sessionID string) (int64, error) {
	if f.failAll {
		return 0, errors.New("store unavailable")
	}
	n := int64(len(f.rows[sessionID]))
	delete(f.rows, sessionID)
	return n, nil
}

func (f *fakeStore) DeleteAll(_ context.Context) (int64, error) {
	if f.failAll {
		return 0, errors.New("store unavailable")
	}
	var n int64
	for _, rows := range f.rows {
		n += int64(len(rows))
	}
	f.rows = map[string][]time.Time{}
	return n, nil
}

func (f *fakeStore) DeleteOlderThan(_ context.Context, age time.Duration) (int64, error) {
	if f.failAll {
		return 0, errors.New("store unavailable")
	}
	cutoff := time.Now().Add(-age)
	var n int64
	for id, rows := range f.rows {
		var kept []time.Time
		for _, at := range rows {
			if at.Before(cutoff) {
				n++
			} else {
				kept = append(kept, at)
			}
		}
		if len(kept) == 0 {
			delete(f.rows, id)
		} else {
			f.rows[id] = kept
		}
	}
	return n, nil
}

func (f *fakeStore) ListSessions(_ context.Context) ([]models.SessionInfo, error) {
	if f.failAll {
		return nil, errors.New("store unavailable")
	}
	var sessions []models.SessionInfo
	for id, rows := range f.rows {
		info := models.SessionInfo{SessionID: id, RecordCount: int64(len(rows))}
		for _, at := range rows {
			if info.FirstUpload.IsZero() || at.Before(info.FirstUpload) {
				info.FirstUpload = at
			}
			if at.After(info.LastUpload) {
				info.LastUpload = at
			}
		}
		sessions = append(sessions, info)
	}
	return sessions, nil
}

func (f *fakeStore) Close() {}

func TestPurgeSession(t *testing.T) {
	st := newFakeStore()
	st.seed("s1", 3, time.Now())
	st.seed("s2", 2, time.Now())

	dataDir := t.TempDir()
	sessionDir := filepath.Join(dataDir, "s1")
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sessionDir, "cleaned_data.csv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	manager := New(st, dataDir, log.Default())
	result, err := manager.PurgeSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("PurgeSession failed: %v", err)
	}
	if result.RowsDeleted != 3 {
		t.Errorf("Expected 3 rows deleted, got %d", result.RowsDeleted)
	}
	if _, err := os.Stat(sessionDir); !os.IsNotExist(err) {
		t.Error("Session directory should be gone")
	}

	for _, s := range manager.ListSessions(context.Background()) {
		if s.SessionID == "s1" {
			t.Error("Purged session still listed")
		}
	}
	if len(manager.ListSessions(context.Background())) != 1 {
		t.Error("Other session should survive")
	}
}

func TestPurgeSessionIdempotent(t *testing.T) {
	st := newFakeStore()
	st.seed("gone", 1, time.Now())

	manager := New(st, t.TempDir(), log.Default())
	ctx := context.Background()

	if _, err := manager.PurgeSession(ctx, "gone"); err != nil {
		t.Fatalf("First purge failed: %v", err)
	}

	// both repeat purges succeed and report zero deletions
	for i := 0; i < 2; i++ {
		result, err := manager.PurgeSession(ctx, "gone")
		if err != nil {
			t.Fatalf("Repeat purge %d errored: %v", i+1, err)
		}
		if result.RowsDeleted != 0 {
			t.Errorf("Repeat purge %d deleted %d rows, want 0", i+1, result.RowsDeleted)
		}
	}
}

func TestPurgeAll(t *testing.T) {
	st := newFakeStore()
	st.seed("s1", 2, time.Now())
	st.seed("s2", 4, time.Now())

	dataDir := filepath.Join(t.TempDir(), "uploaded_data")
	for _, id := range []string{"s1", "s2"} {
		if err := os.MkdirAll(filepath.Join(dataDir, id), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	manager := New(st, dataDir, log.Default())
	result, err := manager.PurgeAll(context.Background())
	if err != nil {
		t.Fatalf("PurgeAll failed: %v", err)
	}
	if result.RowsDeleted != 6 {
		t.Errorf("Expected 6 rows deleted, got %d", result.RowsDeleted)
	}

	if sessions := manager.ListSessions(context.Background()); len(sessions) != 0 {
		t.Errorf("Expected empty inventory, got %d sessions", len(sessions))
	}

	// the root survives, empty and writable
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		t.Fatalf("Data root missing after PurgeAll: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Data root not empty: %d entries", len(entries))
	}
	if err := os.WriteFile(filepath.Join(dataDir, "probe"), []byte("x"), 0o644); err != nil {
		t.Errorf("Data root not writable: %v", err)
	}
}

func TestPurgeSessionStoreFailure(t *testing.T) {
	st := newFakeStore()
	st.failAll = true

	manager := New(st, t.TempDir(), log.Default())
	result, err := manager.PurgeSession(context.Background(), "s1")
	if err == nil {
		t.Fatal("Expected error from failing store")
	}
	if result.Message == "" {
		t.Error("Failure must still carry an outcome message")
	}
}

func TestListSessionsSwallowsStoreFailure(t *testing.T) {
	st := newFakeStore()
	st.failAll = true

	manager := New(st, t.TempDir(), log.Default())
	sessions := manager.ListSessions(context.Background())
	if sessions == nil {
		t.Fatal("Expected empty slice, got nil")
	}
	if len(sessions) != 0 {
		t.Errorf("Expected no sessions, got %d", len(sessions))
	}
}

func TestPurgeOlderThan(t *testing.T) {
	st := newFakeStore()
	st.seed("old", 2, time.Now().AddDate(0, 0, -30))
	st.seed("new", 1, time.Now())

	manager := New(st, t.TempDir(), log.Default())
	result, err := manager.PurgeOlderThan(context.Background(), 7*24*time.Hour)
	if err != nil {
		t.Fatalf("PurgeOlderThan failed: %v", err)
	}
	if result.RowsDeleted != 2 {
		t.Errorf("Expected 2 old rows deleted, got %d", result.RowsDeleted)
	}
	if len(manager.ListSessions(context.Background())) != 1 {
		t.Error("Recent session should survive")
	}
}

func TestPurgeOlderThanSubDayAge(t *testing.T) {
	st := newFakeStore()
	st.seed("recent", 3, time.Now().Add(-time.Hour))

	manager := New(st, t.TempDir(), log.Default())
	result, err := manager.PurgeOlderThan(context.Background(), 12*time.Hour)
	if err != nil {
		t.Fatalf("PurgeOlderThan failed: %v", err)
	}
	if result.RowsDeleted != 0 {
		t.Errorf("Rows only 1h old must survive a 12h cutoff, deleted=%d", result.RowsDeleted)
	}
	if len(manager.ListSessions(context.Background())) != 1 {
		t.Error("Recent session should survive")
	}

	// rows past the cutoff still go
	st.seed("stale", 2, time.Now().Add(-24*time.Hour))
	result, err = manager.PurgeOlderThan(context.Background(), 12*time.Hour)
	if err != nil {
		t.Fatalf("PurgeOlderThan failed: %v", err)
	}
	if result.RowsDeleted != 2 {
		t.Errorf("Expected 2 stale rows deleted, got %d", result.RowsDeleted)
	}
}

func TestPurgeOlderThanRejectsNonPositiveAge(t *testing.T) {
	st := newFakeStore()
	st.seed("s1", 2, time.Now())

	manager := New(st, t.TempDir(), log.Default())
	for _, age := range []time.Duration{0, -time.Hour} {
		result, err := manager.PurgeOlderThan(context.Background(), age)
		if err == nil {
			t.Errorf("Expected error for age %s", age)
		}
		if result.RowsDeleted != 0 {
			t.Errorf("No rows may be deleted for age %s, got %d", age, result.RowsDeleted)
		}
	}
	if len(manager.ListSessions(context.Background())) != 1 {
		t.Error("Rows must be untouched after rejected purges")
	}
}
