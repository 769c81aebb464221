package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/reg-trainer/internal/assemble"
	"github.com/danielpatrickdp/reg-trainer/internal/tokenize"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Policy      string        `json:"policy"`
	Cases       []FixtureCase `json:"cases"`
}

// FixtureCase is one tokenized response and the labels it should produce.
type FixtureCase struct {
	ID             string   `json:"id"`
	Text           string   `json:"text"`
	Tokens         []string `json:"tokens"`
	ExpectedLabels []string `json:"expected_labels"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON to path.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ReplayPolicy parses the fixture's pool policy. Empty means strict.
func (f *Fixture) ReplayPolicy() (assemble.Policy, error) {
	return assemble.ParsePolicy(f.Policy)
}

// ToCase converts a FixtureCase to a domain Case.
func (fc *FixtureCase) ToCase() (Case, error) {
	tokens, err := tokenize.ParseTokens(fc.Tokens)
	if err != nil {
		return Case{}, fmt.Errorf("case %s: %w", fc.ID, err)
	}
	return Case{
		ID:       fc.ID,
		Text:     fc.Text,
		Tokens:   tokens,
		Expected: fc.ExpectedLabels,
	}, nil
}

// ToCases converts every case of f.
func (f *Fixture) ToCases() ([]Case, error) {
	out := make([]Case, 0, len(f.Cases))
	for i := range f.Cases {
		c, err := f.Cases[i].ToCase()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// NewFixtureCase builds a FixtureCase from a tokenized response, with labels
// computed under policy.
func NewFixtureCase(id string, resp tokenize.Response, policy assemble.Policy) (FixtureCase, error) {
	labels, err := assemble.Labels(resp.Tokens, policy)
	if err != nil {
		return FixtureCase{}, fmt.Errorf("case %s: %w", id, err)
	}
	return FixtureCase{
		ID:             id,
		Text:           resp.Text,
		Tokens:         tokenize.Names(resp.Tokens),
		ExpectedLabels: labels,
	}, nil
}

// #endregion fixture-loader
