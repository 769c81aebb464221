package corpus

import (
	"time"

	"github.com/danielpatrickdp/reg-trainer/internal/model"
	"github.com/danielpatrickdp/reg-trainer/internal/tokenize"
)

// Run statuses.
const (
	StatusAssembled = "assembled"
	StatusTrained   = "trained"
	StatusSaved     = "saved"
	StatusFailed    = "failed"
)

// #region round
// Round is the assembled output of one data collection round: flat inputs,
// flat labels and the tokenized responses they came from.
type Round struct {
	Name         string
	WorkspaceIDs []string
	X            []model.Vector
	Y            []string
	Groups       []tokenize.Group
}

// Merge concatenates rounds' inputs and labels in round order.
func Merge(rounds []Round) ([]model.Vector, []string) {
	var x []model.Vector
	var y []string
	for _, r := range rounds {
		x = append(x, r.X...)
		y = append(y, r.Y...)
	}
	return x, y
}

// #endregion round

// #region run-record
// RunRecord describes one stored training run.
type RunRecord struct {
	RunID          string
	Policy         string
	Rounds         []string
	Status         string
	DecisionPoints int
	CreatedAt      time.Time
}

// #endregion run-record

// #region stored-response
// StoredResponse is one tokenized response as persisted for a run.
type StoredResponse struct {
	Round      string
	QuestionID string
	Row        int
	Text       string
	Labels     []string
	Tokens     []tokenize.Token
}

// #endregion stored-response
