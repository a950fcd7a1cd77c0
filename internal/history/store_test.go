package history

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	_ "modernc.org/sqlite"

	"github.com/grounded-app/risk-engine/internal/record"
	"github.com/grounded-app/risk-engine/internal/synth"
)

// #region helpers

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(testDB(t))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

// #endregion helpers

// #region store-tests

func TestNewStore_CreatesTables(t *testing.T) {
	db := testDB(t)
	if _, err := NewStore(db); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, table := range []string{"daily_records", "user_profiles"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s not created: %v", table, err)
		}
	}
	// Idempotent.
	if _, err := NewStore(db); err != nil {
		t.Fatalf("second NewStore: %v", err)
	}
}

func TestSaveAndLoadHistory(t *testing.T) {
	s := testStore(t)
	cfg := synth.DefaultDatasetConfig()
	cfg.Users, cfg.DaysPerUser = 4, 20
	ds, err := synth.GenerateDataset(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("GenerateDataset: %v", err)
	}

	if err := s.SaveHistory(ds.History); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}
	got, err := s.LoadHistory()
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if diff := cmp.Diff(ds.History, got); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}

	users, err := s.Users()
	if err != nil {
		t.Fatalf("Users: %v", err)
	}
	if diff := cmp.Diff(ds.History.Users(), users); diff != "" {
		t.Fatalf("users mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveHistoryReplacesUser(t *testing.T) {
	s := testStore(t)
	long := record.History{
		1: {record.NewDay(0), record.NewDay(1), record.NewDay(2)},
		2: {record.NewDay(0)},
	}
	for i := range long[1] {
		long[1][i].DayNum = i
	}
	s.SaveHistory(long)

	short := record.History{1: {record.UseDay(3, "party", "night", "drinking", 5, 40)}}
	if err := s.SaveHistory(short); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	days, err := s.LoadUser(1)
	if err != nil {
		t.Fatalf("LoadUser: %v", err)
	}
	if len(days) != 1 || !days[0].Used || days[0].Method != "drinking" {
		t.Fatalf("expected user 1 replaced by the single use day, got %+v", days)
	}
	other, _ := s.LoadUser(2)
	if len(other) != 1 {
		t.Fatalf("user 2 should be untouched, got %d days", len(other))
	}
	missing, err := s.LoadUser(99)
	if err != nil || len(missing) != 0 {
		t.Fatalf("unknown user should load empty, got %v %v", missing, err)
	}
}

func TestSaveHistoryKeepsDayNumbers(t *testing.T) {
	s := testStore(t)
	h := record.History{4: {record.NewDay(3), record.NewDay(4), record.NewDay(5)}}
	for i := range h[4] {
		h[4][i].DayNum = 10 + i
	}
	if err := s.SaveHistory(h); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}
	days, err := s.LoadUser(4)
	if err != nil {
		t.Fatalf("LoadUser: %v", err)
	}
	if diff := cmp.Diff(h[4], days); diff != "" {
		t.Fatalf("day numbers changed on round trip (-want +got):\n%s", diff)
	}

	dup := record.History{5: {record.NewDay(0), record.NewDay(1)}}
	if err := s.SaveHistory(dup); err == nil {
		t.Fatal("expected error for duplicate day numbers")
	}
}

func TestSaveAndLoadProfiles(t *testing.T) {
	s := testStore(t)
	profiles := map[record.UserID]record.Profile{
		1: {BaselineFrequency: 3, PreferredContext: "friends", PreferredTime: "evening", StressSensitivity: 0.4, SocialInfluence: 0.7},
		2: {BaselineFrequency: 6, PreferredContext: "alone", PreferredTime: "night", StressSensitivity: 0.9, SocialInfluence: 0.2},
	}
	if err := s.SaveProfiles(profiles); err != nil {
		t.Fatalf("SaveProfiles: %v", err)
	}
	profiles[2] = record.Profile{BaselineFrequency: 1, PreferredContext: "work", PreferredTime: "morning"}
	if err := s.SaveProfiles(profiles); err != nil {
		t.Fatalf("SaveProfiles upsert: %v", err)
	}

	got, err := s.LoadProfiles()
	if err != nil {
		t.Fatalf("LoadProfiles: %v", err)
	}
	if diff := cmp.Diff(profiles, got); diff != "" {
		t.Fatalf("profiles mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreOnClosedDB(t *testing.T) {
	db := testDB(t)
	s, _ := NewStore(db)
	db.Close()

	if err := s.SaveHistory(record.History{1: {record.NewDay(0)}}); err == nil {
		t.Fatal("expected SaveHistory error on closed db")
	}
	if _, err := s.LoadHistory(); err == nil {
		t.Fatal("expected LoadHistory error on closed db")
	}
	if _, err := s.Users(); err == nil {
		t.Fatal("expected Users error on closed db")
	}
}

// #endregion store-tests
