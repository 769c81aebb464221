package logging

import "time"

// Stage names written to run_log.
const (
	StageAssemble = "assemble"
	StageEval     = "eval"
	StageTrain    = "train"
	StageSave     = "save"
)

// #region stage-entry
// StageEntry is a single row in the run_log table.
type StageEntry struct {
	RunID      string
	Stage      string
	Round      string
	CountsJSON string
	Decision   string // "ok" | "fail" | "skip"
	Reason     string
	CreatedAt  time.Time
}

// #endregion stage-entry

// #region round-counts
// RoundCounts is serialized into run_log.counts_json for assemble stages.
type RoundCounts struct {
	Workspaces     int `json:"workspaces"`
	Questions      int `json:"questions"`
	Responses      int `json:"responses"`
	DecisionPoints int `json:"decision_points"`
	Labels         int `json:"labels"`
}

// #endregion round-counts
