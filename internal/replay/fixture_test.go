package replay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/reg-trainer/internal/assemble"
	"github.com/danielpatrickdp/reg-trainer/internal/tokenize"
)

// #region fixture-tests

// TestFixture_StudyV1 loads the study_v1 fixture, replays it and compares each
// case against its hand-written labels. If the label rules drift, this fails.
func TestFixture_StudyV1(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "study_v1.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	policy, err := f.ReplayPolicy()
	if err != nil {
		t.Fatalf("ReplayPolicy: %v", err)
	}
	cases, err := f.ToCases()
	if err != nil {
		t.Fatalf("ToCases: %v", err)
	}

	results := Replay(cases, policy)
	if len(results) != len(f.Cases) {
		t.Fatalf("expected %d results, got %d", len(f.Cases), len(results))
	}
	for i, r := range results {
		if r.ID != f.Cases[i].ID {
			t.Errorf("case %d: expected id=%s, got %s", i, f.Cases[i].ID, r.ID)
		}
		if r.Action != ActionMatch {
			t.Errorf("case %s: expected match, got %s (%s)", r.ID, r.Action, r.Reason)
		}
	}
}

// TestLoadFixture_NotFound verifies error on missing file.
func TestLoadFixture_NotFound(t *testing.T) {
	_, err := LoadFixture("testdata/nonexistent.json")
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

// TestLoadFixture_Malformed verifies error on invalid JSON.
func TestLoadFixture_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not valid json}"), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}

func TestToCases_UnknownMarker(t *testing.T) {
	f := &Fixture{Cases: []FixtureCase{{ID: "x", Tokens: []string{"COLOR", "SHAPE"}}}}
	if _, err := f.ToCases(); err == nil {
		t.Fatal("expected error for unknown marker")
	}
}

func TestReplayPolicy(t *testing.T) {
	f := &Fixture{Policy: "lenient"}
	p, err := f.ReplayPolicy()
	if err != nil || p != assemble.Lenient {
		t.Fatalf("expected lenient, got %v (%v)", p, err)
	}
	f.Policy = "loose"
	if _, err := f.ReplayPolicy(); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

// TestWriteFixture_RoundTrip exports cases the way fixture-export does and
// replays the written file.
func TestWriteFixture_RoundTrip(t *testing.T) {
	resp := tokenize.Response{Text: "tall blue bottle", Tokens: []tokenize.Token{tokenize.Dim, tokenize.Color}}
	fc, err := NewFixtureCase("v2/Q4/0", resp, assemble.Strict)
	if err != nil {
		t.Fatalf("NewFixtureCase: %v", err)
	}
	if want := []string{"dim", "color", "none"}; len(fc.ExpectedLabels) != 3 || fc.ExpectedLabels[2] != want[2] {
		t.Fatalf("expected labels %v, got %v", want, fc.ExpectedLabels)
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteFixture(path, &Fixture{Description: "export", Cases: []FixtureCase{fc}}); err != nil {
		t.Fatalf("WriteFixture: %v", err)
	}
	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	cases, err := f.ToCases()
	if err != nil {
		t.Fatalf("ToCases: %v", err)
	}
	s := Summarize(Replay(cases, assemble.Strict))
	if !s.OK() {
		t.Fatalf("expected round trip to match, got %+v", s)
	}
}

func TestNewFixtureCase_Exhausted(t *testing.T) {
	resp := tokenize.Response{Tokens: []tokenize.Token{tokenize.Color, tokenize.Color}}
	if _, err := NewFixtureCase("x", resp, assemble.Strict); err == nil {
		t.Fatal("expected error for repeated color under strict policy")
	}
}

// #endregion fixture-tests
