package assemble

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danielpatrickdp/reg-trainer/internal/model"
	"github.com/danielpatrickdp/reg-trainer/internal/tokenize"
)

// #region errors
var (
	// ErrFeatureExhausted indicates a token names a feature already narrated
	// in the same response (strict policy only).
	ErrFeatureExhausted = errors.New("assemble: feature already narrated")
	// ErrUnknownToken indicates a token outside COLOR/SIZE/DIM.
	ErrUnknownToken = errors.New("assemble: unknown token")
	// ErrMissingRevealed indicates the model returned no value for the
	// feature a token names.
	ErrMissingRevealed = errors.New("assemble: no revealed value for feature")
	// ErrQuestionShortfall indicates fewer question groups than workspaces.
	ErrQuestionShortfall = errors.New("assemble: fewer question groups than workspaces")
)

// #endregion errors

// #region policy
// Policy decides what happens when a token names a feature that has already
// left the pool.
type Policy int

const (
	// Strict rejects the response with ErrFeatureExhausted.
	Strict Policy = iota
	// Lenient keeps the decision point and leaves the pool as it is.
	Lenient
)

func (p Policy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// ParsePolicy maps "strict" or "lenient" to a Policy. Empty means Strict.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	}
	return Strict, fmt.Errorf("unknown pool policy %q", s)
}

// #endregion policy

// #region pool
// featureOf maps a token to the feature name used for labels and for the
// model's revealed values.
func featureOf(t tokenize.Token) (string, error) {
	switch t {
	case tokenize.Color:
		return model.LabelColor, nil
	case tokenize.Size:
		return model.LabelSize, nil
	case tokenize.Dim:
		return model.LabelDim, nil
	}
	return "", fmt.Errorf("%v: %w", t, ErrUnknownToken)
}

var poolOrder = []tokenize.Token{tokenize.Color, tokenize.Size, tokenize.Dim}

// Pool tracks which describable features a response has not mentioned yet.
type Pool struct {
	left   map[tokenize.Token]bool
	policy Policy
}

// NewPool returns a pool holding color, size and dim.
func NewPool(policy Policy) *Pool {
	left := make(map[tokenize.Token]bool, len(poolOrder))
	for _, t := range poolOrder {
		left[t] = true
	}
	return &Pool{left: left, policy: policy}
}

// Take removes the feature t names.
func (p *Pool) Take(t tokenize.Token) error {
	feature, err := featureOf(t)
	if err != nil {
		return err
	}
	if !p.left[t] {
		if p.policy == Lenient {
			return nil
		}
		return fmt.Errorf("%s: %w", feature, ErrFeatureExhausted)
	}
	delete(p.left, t)
	return nil
}

// Empty reports whether every feature has been mentioned.
func (p *Pool) Empty() bool {
	return len(p.left) == 0
}

// Remaining lists the features not yet mentioned, in color, size, dim order.
func (p *Pool) Remaining() []string {
	var out []string
	for _, t := range poolOrder {
		if p.left[t] {
			f, _ := featureOf(t)
			out = append(out, f)
		}
	}
	return out
}

// stopsBeforeNoun reports whether a response gets a trailing decision point:
// the speaker said nothing descriptive, or stopped with features unsaid.
func stopsBeforeNoun(tokens []tokenize.Token, p *Pool) bool {
	return len(tokens) == 0 || !p.Empty()
}

// #endregion pool
