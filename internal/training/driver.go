package training

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielpatrickdp/reg-trainer/internal/assemble"
	"github.com/danielpatrickdp/reg-trainer/internal/config"
	"github.com/danielpatrickdp/reg-trainer/internal/corpus"
	"github.com/danielpatrickdp/reg-trainer/internal/eval"
	"github.com/danielpatrickdp/reg-trainer/internal/logging"
	"github.com/danielpatrickdp/reg-trainer/internal/model"
	"github.com/danielpatrickdp/reg-trainer/internal/responses"
	"github.com/danielpatrickdp/reg-trainer/internal/tokenize"
	"github.com/danielpatrickdp/reg-trainer/internal/workspace"
)

// #region errors
var (
	// ErrLengthMismatch indicates the input and label assemblers disagreed on
	// the number of decision points.
	ErrLengthMismatch = errors.New("training: inputs and labels differ in length")
	// ErrCorpusInvalid indicates the corpus failed validation before training.
	ErrCorpusInvalid = errors.New("training: corpus failed validation")
)

// #endregion errors

// #region driver
// Driver runs parse, tokenize, assemble, validate, train and save for a set
// of data collection rounds.
type Driver struct {
	tokenizer tokenize.Tokenizer
	model     model.Service
	asm       *assemble.Assembler
	eval      *eval.EvalHarness
	store     *corpus.Store
	log       *logging.Logger
}

// NewDriver wires a driver. log may be nil.
func NewDriver(tok tokenize.Tokenizer, m model.Service, policy assemble.Policy, log *logging.Logger) *Driver {
	if log == nil {
		log = logging.NewNop()
	}
	return &Driver{
		tokenizer: tok,
		model:     m,
		asm:       assemble.New(m, policy),
		eval:      eval.NewEvalHarness(eval.DefaultEvalConfig()),
		log:       log,
	}
}

// WithStore makes Run persist the corpus and its stage log in s.
func (d *Driver) WithStore(s *corpus.Store) *Driver {
	d.store = s
	return d
}

// WithEvalConfig replaces the validation thresholds.
func (d *Driver) WithEvalConfig(c eval.EvalConfig) *Driver {
	d.eval = eval.NewEvalHarness(c)
	return d
}

// #endregion driver

// #region build
// BuildRound assembles one round from its files. Every round parses into its
// own workspace store.
func (d *Driver) BuildRound(ctx context.Context, r config.Round) (corpus.Round, error) {
	log := d.log.With("round", r.Name)

	store := workspace.NewStore()
	if err := workspace.ParseFile(r.Workspaces, store); err != nil {
		return corpus.Round{}, err
	}
	qs, err := responses.ParseFile(r.Responses)
	if err != nil {
		return corpus.Round{}, err
	}
	log.Info("parsed round data", "workspaces", store.Len(), "questions", len(qs), "responses", responses.Count(qs))

	groups, err := tokenize.All(ctx, d.tokenizer, qs)
	if err != nil {
		return corpus.Round{}, fmt.Errorf("round %s: %w", r.Name, err)
	}
	return d.assembleRound(ctx, r.Name, store, groups)
}

func (d *Driver) assembleRound(ctx context.Context, name string, store *workspace.Store, groups []tokenize.Group) (corpus.Round, error) {
	log := d.log.With("round", name)

	for i, id := range store.IDs() {
		if i < len(groups) && groups[i].QuestionID != id {
			log.Warn("workspace and question ids differ", "index", i, "workspace", id, "question", groups[i].QuestionID)
		}
	}
	if len(groups) > store.Len() {
		log.Warn("more question columns than workspaces", "workspaces", store.Len(), "questions", len(groups))
	}

	x, err := d.asm.CorpusInputs(ctx, store, groups)
	if err != nil {
		return corpus.Round{}, fmt.Errorf("round %s: assemble inputs: %w", name, err)
	}
	y, err := assemble.CorpusLabels(groups, d.asm.Policy())
	if err != nil {
		return corpus.Round{}, fmt.Errorf("round %s: assemble labels: %w", name, err)
	}
	log.Info("assembled round", "decision_points", len(x), "labels", len(y))

	if len(x) != len(y) {
		return corpus.Round{}, fmt.Errorf("round %s: %d inputs, %d labels: %w", name, len(x), len(y), ErrLengthMismatch)
	}
	return corpus.Round{Name: name, WorkspaceIDs: store.IDs(), X: x, Y: y, Groups: groups}, nil
}

// Build assembles every round in order.
func (d *Driver) Build(ctx context.Context, rounds []config.Round) ([]corpus.Round, error) {
	out := make([]corpus.Round, 0, len(rounds))
	for _, r := range rounds {
		built, err := d.BuildRound(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, built)
	}
	return out, nil
}

// #endregion build

// #region train
// Train validates x and y and hands them to the model in one batch fit,
// saving the fitted model when save is set.
func (d *Driver) Train(ctx context.Context, x []model.Vector, y []string, save bool) (eval.EvalResult, error) {
	if len(x) != len(y) {
		return eval.EvalResult{}, fmt.Errorf("%d inputs, %d labels: %w", len(x), len(y), ErrLengthMismatch)
	}
	result := d.eval.Run(x, y)
	if !result.Passed {
		return result, fmt.Errorf("%s: %w", result.Reason, ErrCorpusInvalid)
	}
	for _, m := range result.Metrics {
		if !m.Pass {
			d.log.Warn("corpus check above threshold", "metric", m.Name, "value", m.Value)
		}
	}

	d.log.Info("training model", "decision_points", len(x))
	if err := d.model.Train(ctx, x, y); err != nil {
		return result, fmt.Errorf("train: %w", err)
	}
	if save {
		if err := d.model.Save(ctx); err != nil {
			return result, fmt.Errorf("save models: %w", err)
		}
		d.log.Info("saved models")
	}
	return result, nil
}

// #endregion train

// #region run
// Result summarizes a full run.
type Result struct {
	RunID  string
	Rounds []corpus.Round
	Eval   eval.EvalResult
}

// Run builds every round, concatenates them and trains once. With a store
// attached, the corpus and a stage log are persisted under a new run id.
func (d *Driver) Run(ctx context.Context, rounds []config.Round, save bool) (Result, error) {
	built, err := d.Build(ctx, rounds)
	if err != nil {
		return Result{}, err
	}
	res := Result{Rounds: built}

	if d.store != nil {
		rec, err := d.store.SaveRun(d.asm.Policy().String(), built)
		if err != nil {
			return res, fmt.Errorf("store corpus: %w", err)
		}
		res.RunID = rec.RunID
		for _, r := range built {
			d.logRound(res.RunID, r)
		}
	}

	x, y := corpus.Merge(built)
	res.Eval, err = d.Train(ctx, x, y, save)
	d.recordOutcome(res.RunID, res.Eval, save, err)
	return res, err
}

func (d *Driver) logRound(runID string, r corpus.Round) {
	counts := logging.RoundCounts{
		Workspaces:     len(r.WorkspaceIDs),
		Questions:      len(r.Groups),
		DecisionPoints: len(r.X),
		Labels:         len(r.Y),
	}
	for _, g := range r.Groups {
		counts.Responses += len(g.Responses)
	}
	countsJSON, _ := json.Marshal(counts)
	d.logStage(logging.StageEntry{
		RunID:      runID,
		Stage:      logging.StageAssemble,
		Round:      r.Name,
		CountsJSON: string(countsJSON),
		Decision:   "ok",
	})
}

func (d *Driver) recordOutcome(runID string, result eval.EvalResult, save bool, runErr error) {
	if d.store == nil || runID == "" {
		return
	}

	evalDecision := "ok"
	if !result.Passed {
		evalDecision = "fail"
	}
	d.logStage(logging.StageEntry{RunID: runID, Stage: logging.StageEval, Decision: evalDecision, Reason: result.Reason})

	status := corpus.StatusTrained
	if save {
		status = corpus.StatusSaved
	}
	if runErr != nil {
		status = corpus.StatusFailed
		if result.Passed {
			d.logStage(logging.StageEntry{RunID: runID, Stage: logging.StageTrain, Decision: "fail", Reason: runErr.Error()})
		}
	} else {
		d.logStage(logging.StageEntry{RunID: runID, Stage: logging.StageTrain, Decision: "ok"})
		saveDecision := "skip"
		if save {
			saveDecision = "ok"
		}
		d.logStage(logging.StageEntry{RunID: runID, Stage: logging.StageSave, Decision: saveDecision})
	}
	if err := d.store.SetStatus(runID, status); err != nil {
		d.log.Error("set run status", "run_id", runID, "error", err)
	}
}

func (d *Driver) logStage(e logging.StageEntry) {
	if err := logging.LogStage(d.store.DB(), e); err != nil {
		d.log.Error("log stage", "run_id", e.RunID, "stage", e.Stage, "error", err)
	}
}

// #endregion run

// #region label-features
// LabelFeatures returns the values the model reveals for color, size and dim
// of a workspace's key object against its full context.
func (d *Driver) LabelFeatures(ctx context.Context, e workspace.Entry) (map[string]model.Revealed, error) {
	in, err := d.model.ModelInput(ctx, e.Key, e.Context)
	if err != nil {
		return nil, fmt.Errorf("label features of %s: %w", e.ID, err)
	}
	out := make(map[string]model.Revealed, 3)
	for _, f := range []string{model.LabelColor, model.LabelSize, model.LabelDim} {
		if r, ok := in.Revealed[f]; ok {
			out[f] = r
		}
	}
	return out, nil
}

// #endregion label-features
