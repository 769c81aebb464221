package logging

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE run_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL,
		stage       TEXT NOT NULL,
		round       TEXT,
		counts_json TEXT,
		decision    TEXT NOT NULL,
		reason      TEXT,
		created_at  TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-stage-tests
func TestLogStage_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := StageEntry{
		RunID:      "run-1",
		Stage:      StageAssemble,
		Round:      "v1",
		CountsJSON: `{"decision_points":12}`,
		Decision:   "ok",
		Reason:     "12 decision points",
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := LogStage(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM run_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	got, err := ListStages(db, "run-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].Round != "v1" || got[0].Stage != StageAssemble || got[0].CountsJSON != entry.CountsJSON {
		t.Errorf("unexpected entry %+v", got[0])
	}
	if !got[0].CreatedAt.Equal(entry.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", entry.CreatedAt, got[0].CreatedAt)
	}
}

func TestLogStage_ZeroCreatedAtAndEmptyOptionals(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC()
	if err := LogStage(db, StageEntry{RunID: "run-2", Stage: StageTrain, Decision: "ok"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var round, reason sql.NullString
	var createdAtStr string
	db.QueryRow("SELECT round, reason, created_at FROM run_log").Scan(&round, &reason, &createdAtStr)
	if round.Valid || reason.Valid {
		t.Error("expected NULL round and reason for empty strings")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestLogStage_MissingTable(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := LogStage(db, StageEntry{RunID: "r", Stage: StageSave, Decision: "ok"}); err == nil {
		t.Fatal("expected error without run_log table")
	}
}

// #endregion log-stage-tests

func TestLoggerNopAndWith(t *testing.T) {
	l := NewNop().With("round", "v1")
	l.Info("assembled", "points", 3)
	l.Debug("debug")
	l.Warn("warn")
	l.Error("error")
	l.Sync()

	if _, err := New("production"); err != nil {
		t.Fatalf("new production logger: %v", err)
	}
}
