package replay

import (
	"fmt"
	"slices"
	"strings"

	"github.com/danielpatrickdp/reg-trainer/internal/assemble"
	"github.com/danielpatrickdp/reg-trainer/internal/tokenize"
)

// #region types
// Case is one recorded response for replay.
type Case struct {
	ID       string
	Text     string
	Tokens   []tokenize.Token
	Expected []string
}

// Replay outcomes.
const (
	ActionMatch   = "match"
	ActionDiverge = "diverge"
	ActionError   = "error"
)

// ReplayResult captures the outcome of replaying one case through the label
// assembler.
type ReplayResult struct {
	ID       string
	Action   string // "match" | "diverge" | "error"
	Reason   string
	Got      []string
	Expected []string
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalCases     int
	Matches        int
	Divergences    int
	Errors         int
	DecisionPoints int
	LabelCounts    map[string]int
}

// OK reports whether every case matched.
func (s ReplaySummary) OK() bool {
	return s.Matches == s.TotalCases
}

// #endregion types

// #region replay
// Replay assembles labels for every case under policy and compares them with
// the expected labels. Operates entirely in-memory.
func Replay(cases []Case, policy assemble.Policy) []ReplayResult {
	results := make([]ReplayResult, 0, len(cases))
	for _, c := range cases {
		got, err := assemble.Labels(c.Tokens, policy)
		r := ReplayResult{ID: c.ID, Got: got, Expected: c.Expected}
		switch {
		case err != nil:
			r.Action = ActionError
			r.Reason = err.Error()
		case slices.Equal(got, c.Expected):
			r.Action = ActionMatch
		default:
			r.Action = ActionDiverge
			r.Reason = divergence(got, c.Expected)
		}
		results = append(results, r)
	}
	return results
}

// divergence describes the first position where got and want differ.
func divergence(got, want []string) string {
	n := min(len(got), len(want))
	for i := 0; i < n; i++ {
		if got[i] != want[i] {
			return fmt.Sprintf("point %d: got %s, want %s", i, got[i], want[i])
		}
	}
	return fmt.Sprintf("got %d points [%s], want %d [%s]",
		len(got), strings.Join(got, " "), len(want), strings.Join(want, " "))
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{
		TotalCases:  len(results),
		LabelCounts: make(map[string]int),
	}
	for _, r := range results {
		switch r.Action {
		case ActionMatch:
			s.Matches++
		case ActionDiverge:
			s.Divergences++
		case ActionError:
			s.Errors++
		}
		s.DecisionPoints += len(r.Got)
		for _, l := range r.Got {
			s.LabelCounts[l]++
		}
	}
	return s
}

// #endregion replay
