package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/danielpatrickdp/reg-trainer/internal/corpus"
	"github.com/danielpatrickdp/reg-trainer/internal/logging"
	"github.com/danielpatrickdp/reg-trainer/internal/model"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to reg_corpus.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/reg_corpus.db [--last N] [--run id] [--json]")
		os.Exit(2)
	}

	store, err := corpus.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		err = runDetailMode(store, *runID, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID          string         `json:"run_id"`
	Policy         string         `json:"policy"`
	Rounds         []string       `json:"rounds"`
	Status         string         `json:"status"`
	DecisionPoints int            `json:"decision_points"`
	Labels         map[string]int `json:"labels"`
	CreatedAt      string         `json:"created_at"`
}

func runListMode(store *corpus.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// Store returns newest first; print chronologically.
	rows := make([]listRow, len(runs))
	for i, rec := range runs {
		counts, err := store.LabelCounts(rec.RunID)
		if err != nil {
			return err
		}
		rows[len(runs)-1-i] = listRow{
			RunID:          rec.RunID,
			Policy:         rec.Policy,
			Rounds:         rec.Rounds,
			Status:         rec.Status,
			DecisionPoints: rec.DecisionPoints,
			Labels:         counts,
			CreatedAt:      rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-8s  %-10s  %7s  %-34s  %s\n",
		"Run", "Policy", "Status", "Points", "Labels", "Time")
	fmt.Printf("%-12s+-%-8s+-%-10s+-%7s+-%-34s+-%s\n",
		"------------", "--------", "----------", "-------", strings.Repeat("-", 34), "--------------------")
	for _, r := range rows {
		fmt.Printf("%-12s  %-8s  %-10s  %7d  %-34s  %s\n",
			truncID(r.RunID), r.Policy, r.Status, r.DecisionPoints, formatCounts(r.Labels), r.CreatedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type stageRow struct {
	Stage    string               `json:"stage"`
	Round    string               `json:"round,omitempty"`
	Decision string               `json:"decision"`
	Reason   string               `json:"reason,omitempty"`
	Counts   *logging.RoundCounts `json:"counts,omitempty"`
}

type detailOutput struct {
	listRow
	Stages []stageRow `json:"stages"`
}

func runDetailMode(store *corpus.Store, runID string, jsonOut bool) error {
	rec, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	counts, err := store.LabelCounts(runID)
	if err != nil {
		return err
	}
	entries, err := logging.ListStages(store.DB(), runID)
	if err != nil {
		return err
	}

	out := detailOutput{
		listRow: listRow{
			RunID:          rec.RunID,
			Policy:         rec.Policy,
			Rounds:         rec.Rounds,
			Status:         rec.Status,
			DecisionPoints: rec.DecisionPoints,
			Labels:         counts,
			CreatedAt:      rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		},
	}
	for _, e := range entries {
		sr := stageRow{Stage: e.Stage, Round: e.Round, Decision: e.Decision, Reason: e.Reason}
		if e.CountsJSON != "" {
			var rc logging.RoundCounts
			if err := json.Unmarshal([]byte(e.CountsJSON), &rc); err == nil {
				sr.Counts = &rc
			}
		}
		out.Stages = append(out.Stages, sr)
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:             %s\n", out.RunID)
	fmt.Printf("Created:         %s\n", out.CreatedAt)
	fmt.Printf("Policy:          %s\n", out.Policy)
	fmt.Printf("Rounds:          %s\n", strings.Join(out.Rounds, ", "))
	fmt.Printf("Status:          %s\n", out.Status)
	fmt.Printf("Decision points: %d\n", out.DecisionPoints)
	fmt.Printf("Labels:          %s\n", formatCounts(out.Labels))

	fmt.Println()
	fmt.Printf("%-9s  %-6s  %-6s  %s\n", "Stage", "Round", "Result", "Detail")
	fmt.Printf("%-9s+-%-6s+-%-6s+-%s\n", "---------", "------", "------", "------------------------------")
	for _, s := range out.Stages {
		detail := s.Reason
		if s.Counts != nil {
			detail = fmt.Sprintf("workspaces=%d questions=%d responses=%d points=%d",
				s.Counts.Workspaces, s.Counts.Questions, s.Counts.Responses, s.Counts.DecisionPoints)
		}
		fmt.Printf("%-9s  %-6s  %-6s  %s\n", s.Stage, s.Round, s.Decision, detail)
	}
	return nil
}

// #endregion detail-mode

// #region helpers

var labelOrder = []string{model.LabelColor, model.LabelSize, model.LabelDim, model.LabelNone}

// formatCounts renders label counts in a fixed label order, then any others.
func formatCounts(counts map[string]int) string {
	var parts []string
	seen := make(map[string]bool, len(labelOrder))
	for _, l := range labelOrder {
		seen[l] = true
		parts = append(parts, fmt.Sprintf("%s=%d", l, counts[l]))
	}
	var extra []string
	for l := range counts {
		if !seen[l] {
			extra = append(extra, l)
		}
	}
	sort.Strings(extra)
	for _, l := range extra {
		parts = append(parts, fmt.Sprintf("%s=%d", l, counts[l]))
	}
	return strings.Join(parts, " ")
}

func truncID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers
