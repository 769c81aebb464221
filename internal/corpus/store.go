package corpus

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/reg-trainer/internal/model"
	"github.com/danielpatrickdp/reg-trainer/internal/tokenize"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	policy      TEXT NOT NULL,
	rounds_json TEXT NOT NULL,
	status      TEXT NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS decision_points (
	run_id       TEXT NOT NULL,
	seq          INTEGER NOT NULL,
	round        TEXT NOT NULL,
	input_vector BLOB NOT NULL,
	label        TEXT NOT NULL,
	PRIMARY KEY (run_id, seq),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS responses (
	run_id      TEXT NOT NULL,
	round       TEXT NOT NULL,
	question_id TEXT NOT NULL,
	row_idx     INTEGER NOT NULL,
	text        TEXT NOT NULL,
	labels_json TEXT,
	tokens      TEXT NOT NULL,
	PRIMARY KEY (run_id, round, question_id, row_idx),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS run_log (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	stage       TEXT NOT NULL,
	round       TEXT,
	counts_json TEXT,
	decision    TEXT NOT NULL,
	reason      TEXT,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

// #region store-struct
// Store persists assembled training corpora in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region save-run
// SaveRun stores every round's decision points and tokenized responses under a
// new run id, in one transaction.
func (s *Store) SaveRun(policy string, rounds []Round) (RunRecord, error) {
	names := make([]string, len(rounds))
	for i, r := range rounds {
		if len(r.X) != len(r.Y) {
			return RunRecord{}, fmt.Errorf("round %s: %d inputs, %d labels", r.Name, len(r.X), len(r.Y))
		}
		names[i] = r.Name
	}
	roundsJSON, err := json.Marshal(names)
	if err != nil {
		return RunRecord{}, fmt.Errorf("marshal rounds: %w", err)
	}

	rec := RunRecord{
		RunID:     uuid.New().String(),
		Policy:    policy,
		Rounds:    names,
		Status:    StatusAssembled,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return RunRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, policy, rounds_json, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.RunID, policy, string(roundsJSON), rec.Status, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}

	seq := 0
	for _, r := range rounds {
		for i := range r.X {
			_, err = tx.Exec(
				`INSERT INTO decision_points (run_id, seq, round, input_vector, label) VALUES (?, ?, ?, ?, ?)`,
				rec.RunID, seq, r.Name, encodeVector(r.X[i]), r.Y[i],
			)
			if err != nil {
				return RunRecord{}, fmt.Errorf("insert decision point %d: %w", seq, err)
			}
			seq++
		}
		for _, g := range r.Groups {
			for row, resp := range g.Responses {
				labelsJSON, err := json.Marshal(resp.Labels)
				if err != nil {
					return RunRecord{}, fmt.Errorf("marshal labels: %w", err)
				}
				_, err = tx.Exec(
					`INSERT INTO responses (run_id, round, question_id, row_idx, text, labels_json, tokens)
					 VALUES (?, ?, ?, ?, ?, ?, ?)`,
					rec.RunID, r.Name, g.QuestionID, row, resp.Text, string(labelsJSON),
					strings.Join(tokenize.Names(resp.Tokens), ","),
				)
				if err != nil {
					return RunRecord{}, fmt.Errorf("insert response %s/%d: %w", g.QuestionID, row, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return RunRecord{}, fmt.Errorf("commit: %w", err)
	}
	rec.DecisionPoints = seq
	return rec, nil
}

// #endregion save-run

// #region status
// SetStatus updates a run's status.
func (s *Store) SetStatus(runID, status string) error {
	res, err := s.db.Exec(`UPDATE runs SET status = ? WHERE run_id = ?`, status, runID)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// #endregion status

// #region get-run
// GetRun retrieves a run by id.
func (s *Store) GetRun(runID string) (RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT r.run_id, r.policy, r.rounds_json, r.status, r.created_at,
		        (SELECT COUNT(*) FROM decision_points d WHERE d.run_id = r.run_id)
		 FROM runs r WHERE r.run_id = ?`, runID,
	)
	rec, err := scanRun(row)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return rec, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT r.run_id, r.policy, r.rounds_json, r.status, r.created_at,
		        (SELECT COUNT(*) FROM decision_points d WHERE d.run_id = r.run_id)
		 FROM runs r ORDER BY r.rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunRecord, error) {
	var rec RunRecord
	var roundsJSON, createdStr string
	if err := sc.Scan(&rec.RunID, &rec.Policy, &roundsJSON, &rec.Status, &createdStr, &rec.DecisionPoints); err != nil {
		return RunRecord{}, err
	}
	if err := json.Unmarshal([]byte(roundsJSON), &rec.Rounds); err != nil {
		return RunRecord{}, fmt.Errorf("unmarshal rounds: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// #endregion get-run

// #region load
// LoadCorpus returns a run's inputs and labels in their original order.
func (s *Store) LoadCorpus(runID string) ([]model.Vector, []string, error) {
	rows, err := s.db.Query(
		`SELECT input_vector, label FROM decision_points WHERE run_id = ? ORDER BY seq ASC`, runID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("load corpus: %w", err)
	}
	defer rows.Close()

	var x []model.Vector
	var y []string
	for rows.Next() {
		var blob []byte
		var label string
		if err := rows.Scan(&blob, &label); err != nil {
			return nil, nil, fmt.Errorf("scan decision point: %w", err)
		}
		x = append(x, decodeVector(blob))
		y = append(y, label)
	}
	return x, y, rows.Err()
}

// LoadResponses returns a run's tokenized responses ordered by round, then
// question, then row.
func (s *Store) LoadResponses(runID string) ([]StoredResponse, error) {
	rows, err := s.db.Query(
		`SELECT round, question_id, row_idx, text, labels_json, tokens FROM responses
		 WHERE run_id = ? ORDER BY rowid ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	defer rows.Close()

	var out []StoredResponse
	for rows.Next() {
		var r StoredResponse
		var labelsJSON sql.NullString
		var tokens string
		if err := rows.Scan(&r.Round, &r.QuestionID, &r.Row, &r.Text, &labelsJSON, &tokens); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if labelsJSON.Valid {
			if err := json.Unmarshal([]byte(labelsJSON.String), &r.Labels); err != nil {
				return nil, fmt.Errorf("unmarshal labels: %w", err)
			}
		}
		if tokens != "" {
			r.Tokens, err = tokenize.ParseTokens(strings.Split(tokens, ","))
			if err != nil {
				return nil, fmt.Errorf("parse tokens: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LabelCounts tallies a run's labels.
func (s *Store) LabelCounts(runID string) (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT label, COUNT(*) FROM decision_points WHERE run_id = ? GROUP BY label`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("label counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan label count: %w", err)
		}
		counts[label] = n
	}
	return counts, rows.Err()
}

// #endregion load

// #region vector-encoding
func encodeVector(v model.Vector) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeVector(b []byte) model.Vector {
	v := make(model.Vector, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v
}

// #endregion vector-encoding
