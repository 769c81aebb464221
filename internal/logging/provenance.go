package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-stage
// LogStage writes a stage entry to the run_log table.
func LogStage(db *sql.DB, entry StageEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO run_log (run_id, stage, round, counts_json, decision, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Stage,
		nullIfEmpty(entry.Round),
		nullIfEmpty(entry.CountsJSON),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log stage: %w", err)
	}
	return nil
}

// #endregion log-stage

// #region list-stages
// ListStages returns every entry for runID in insertion order.
func ListStages(db *sql.DB, runID string) ([]StageEntry, error) {
	rows, err := db.Query(
		`SELECT run_id, stage, round, counts_json, decision, reason, created_at
		 FROM run_log WHERE run_id = ? ORDER BY id ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	var out []StageEntry
	for rows.Next() {
		var e StageEntry
		var round, counts, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.Stage, &round, &counts, &e.Decision, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		e.Round = round.String
		e.CountsJSON = counts.String
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion list-stages

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
