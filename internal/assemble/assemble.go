package assemble

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/reg-trainer/internal/model"
	"github.com/danielpatrickdp/reg-trainer/internal/scene"
	"github.com/danielpatrickdp/reg-trainer/internal/tokenize"
	"github.com/danielpatrickdp/reg-trainer/internal/workspace"
)

// #region model
// Model is the part of the regressor the assembler needs: input vectors and
// context narrowing. Narrow must not modify c.
type Model interface {
	ModelInput(ctx context.Context, obj scene.Object, c scene.Context) (model.Input, error)
	Narrow(ctx context.Context, c scene.Context, r model.Revealed) (scene.Context, error)
}

// #endregion model

// #region assembler
// Assembler pairs tokenized responses with model inputs. Inputs and Labels
// walk tokens identically and always agree on length for the same response.
type Assembler struct {
	model  Model
	policy Policy
}

// New returns an Assembler using m for inputs and p for pool underflow.
func New(m Model, p Policy) *Assembler {
	return &Assembler{model: m, policy: p}
}

// Policy returns the pool policy in use.
func (a *Assembler) Policy() Policy {
	return a.policy
}

// #endregion assembler

// #region inputs
// Inputs builds one model input per decision point of resp: one before each
// token, narrowing c by the feature the token reveals, plus one before the
// head noun when the response mentions nothing or leaves a feature unsaid.
func (a *Assembler) Inputs(ctx context.Context, obj scene.Object, c scene.Context, resp tokenize.Response) ([]model.Vector, error) {
	pool := NewPool(a.policy)
	xq := make([]model.Vector, 0, len(resp.Tokens)+1)

	for i, t := range resp.Tokens {
		in, err := a.model.ModelInput(ctx, obj, c)
		if err != nil {
			return nil, fmt.Errorf("model input at token %d: %w", i, err)
		}
		xq = append(xq, in.Vector)

		feature, err := featureOf(t)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		revealed, ok := in.Revealed[feature]
		if !ok {
			return nil, fmt.Errorf("token %d: %s: %w", i, feature, ErrMissingRevealed)
		}
		if err := pool.Take(t); err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}

		c, err = a.model.Narrow(ctx, c, revealed)
		if err != nil {
			return nil, fmt.Errorf("narrow by %s at token %d: %w", feature, i, err)
		}
	}

	if stopsBeforeNoun(resp.Tokens, pool) {
		in, err := a.model.ModelInput(ctx, obj, c)
		if err != nil {
			return nil, fmt.Errorf("model input before noun: %w", err)
		}
		xq = append(xq, in.Vector)
	}
	return xq, nil
}

// #endregion inputs

// #region labels
// Labels names the feature mentioned at each decision point of tokens, with
// "none" for the point before the head noun.
func Labels(tokens []tokenize.Token, policy Policy) ([]string, error) {
	pool := NewPool(policy)
	yq := make([]string, 0, len(tokens)+1)

	for i, t := range tokens {
		feature, err := featureOf(t)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
		yq = append(yq, feature)
		if err := pool.Take(t); err != nil {
			return nil, fmt.Errorf("token %d: %w", i, err)
		}
	}

	if stopsBeforeNoun(tokens, pool) {
		yq = append(yq, model.LabelNone)
	}
	return yq, nil
}

// Labels applies the package Labels with a's policy.
func (a *Assembler) Labels(resp tokenize.Response) ([]string, error) {
	return Labels(resp.Tokens, a.policy)
}

// #endregion labels

// #region corpus
// CorpusInputs runs Inputs over every response, pairing the i-th workspace
// of store with the i-th question group. Workspaces are walked in store
// order and responses in row order; the result is the concatenation.
func (a *Assembler) CorpusInputs(ctx context.Context, store *workspace.Store, groups []tokenize.Group) ([]model.Vector, error) {
	entries := store.Entries()
	if len(groups) < len(entries) {
		return nil, fmt.Errorf("%d workspaces, %d question groups: %w", len(entries), len(groups), ErrQuestionShortfall)
	}

	var x []model.Vector
	for i, e := range entries {
		for j, resp := range groups[i].Responses {
			xq, err := a.Inputs(ctx, e.Key, e.Context, resp)
			if err != nil {
				return nil, fmt.Errorf("workspace %s response %d: %w", e.ID, j, err)
			}
			x = append(x, xq...)
		}
	}
	return x, nil
}

// CorpusLabels runs Labels over every response of every group, in group then
// row order.
func CorpusLabels(groups []tokenize.Group, policy Policy) ([]string, error) {
	var y []string
	for _, g := range groups {
		for j, resp := range g.Responses {
			yq, err := Labels(resp.Tokens, policy)
			if err != nil {
				return nil, fmt.Errorf("question %s response %d: %w", g.QuestionID, j, err)
			}
			y = append(y, yq...)
		}
	}
	return y, nil
}

// #endregion corpus
