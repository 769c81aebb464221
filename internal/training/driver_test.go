package training

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/reg-trainer/internal/assemble"
	"github.com/danielpatrickdp/reg-trainer/internal/config"
	"github.com/danielpatrickdp/reg-trainer/internal/corpus"
	"github.com/danielpatrickdp/reg-trainer/internal/logging"
	"github.com/danielpatrickdp/reg-trainer/internal/model"
	"github.com/danielpatrickdp/reg-trainer/internal/scene"
	"github.com/danielpatrickdp/reg-trainer/internal/tokenize"
	"github.com/danielpatrickdp/reg-trainer/internal/workspace"
)

// #region fake-service
// filterService reveals the key object itself for every feature and narrows
// a context to the objects that share the revealed feature with it.
type filterService struct {
	narrowed []string
	trainX   []model.Vector
	trainY   []string
	trains   int
	saves    int
	trainErr error
}

func (s *filterService) ModelInput(_ context.Context, obj scene.Object, c scene.Context) (model.Input, error) {
	revealed := map[string]model.Revealed{}
	for _, f := range []string{model.LabelColor, model.LabelSize, model.LabelDim} {
		revealed[f] = model.Revealed{Feature: f, Value: obj}
	}
	return model.Input{Vector: model.Vector{float64(c.Len())}, Revealed: revealed}, nil
}

func (s *filterService) Narrow(_ context.Context, c scene.Context, r model.Revealed) (scene.Context, error) {
	s.narrowed = append(s.narrowed, r.Feature)
	key := r.Value.(scene.Object)
	var kept []scene.Object
	for _, o := range c.Objects() {
		if sameFeature(r.Feature, key, o) {
			kept = append(kept, o)
		}
	}
	return scene.NewContext(kept), nil
}

func sameFeature(feature string, a, b scene.Object) bool {
	switch feature {
	case model.LabelColor:
		return a.RGB != nil && b.RGB != nil && *a.RGB == *b.RGB
	case model.LabelSize:
		return a.Dim != nil && b.Dim != nil && a.Dim.W*a.Dim.H == b.Dim.W*b.Dim.H
	default:
		return a.Dim != nil && b.Dim != nil && *a.Dim == *b.Dim
	}
}

func (s *filterService) Train(_ context.Context, x []model.Vector, y []string) error {
	s.trains++
	s.trainX, s.trainY = x, y
	return s.trainErr
}

func (s *filterService) Save(context.Context) error {
	s.saves++
	return nil
}

// #endregion fake-service

// #region fixtures
const bottleScene = `<data>
  <workspace id="Q1">
    <item id="KEY"><type>bottle</type><hsv>120, 100, 100</hsv><dimensions><w>3</w><h>9</h></dimensions></item>
    <item id="D1"><type>bottle</type><hsv>120, 100, 100</hsv><dimensions><w>5</w><h>5</h></dimensions></item>
  </workspace>
</data>`

const twoScenes = `<data>
  <workspace id="Q1">
    <item id="KEY"><type>bottle</type><hsv>0, 100, 100</hsv><dimensions><w>3</w><h>9</h></dimensions></item>
    <item id="D1"><type>bottle</type><hsv>240, 100, 100</hsv><dimensions><w>3</w><h>9</h></dimensions></item>
    <item id="D2"><type>cup</type><hsv>0, 100, 100</hsv><dimensions><w>1</w><h>1</h></dimensions></item>
  </workspace>
  <workspace id="Q2">
    <item id="KEY"><type>screwdriver</type><hsv>240, 100, 100</hsv><dimensions><w>1</w><h>8</h></dimensions></item>
  </workspace>
</data>`

func lexiconTokenizer() tokenize.Tokenizer {
	return tokenize.NewLexiconTokenizer(tokenize.Lexicon{
		Color: []string{"green", "red", "blue"},
		Size:  []string{"big", "small"},
		Dim:   []string{"tall", "long"},
	})
}

func writeRound(t *testing.T, name, xmlDoc, csvDoc string) config.Round {
	t.Helper()
	dir := t.TempDir()
	ws := filepath.Join(dir, name+".xml")
	rs := filepath.Join(dir, name+".csv")
	require.NoError(t, os.WriteFile(ws, []byte(xmlDoc), 0o644))
	require.NoError(t, os.WriteFile(rs, []byte(csvDoc), 0o644))
	return config.Round{Name: name, Workspaces: ws, Responses: rs}
}

// #endregion fixtures

// #region build-tests
func TestBuildRound_NarrowsByColorThenSize(t *testing.T) {
	svc := &filterService{}
	d := NewDriver(lexiconTokenizer(), svc, assemble.Strict, nil)
	r := writeRound(t, "v1", bottleScene, "Q1\nmeta\nmeta\ngreen big bottle\n")

	got, err := d.BuildRound(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, []string{"color", "size", "none"}, got.Y)
	assert.Equal(t, []model.Vector{{2}, {2}, {1}}, got.X)
	assert.Equal(t, []string{"color", "size"}, svc.narrowed)
	assert.Equal(t, []string{"Q1"}, got.WorkspaceIDs)
	require.Len(t, got.Groups, 1)
	assert.Equal(t, []tokenize.Token{tokenize.Color, tokenize.Size}, got.Groups[0].Responses[0].Tokens)
}

func TestBuildRound_WorkspaceOrderAndEmptyQuestion(t *testing.T) {
	d := NewDriver(lexiconTokenizer(), &filterService{}, assemble.Strict, nil)
	r := writeRound(t, "v1", twoScenes, "Q1,Q2\nm,m\nm,m\nred bottle,\nbottle,\n")

	got, err := d.BuildRound(context.Background(), r)
	require.NoError(t, err)

	// Q2 has no responses, so only Q1 contributes.
	assert.Equal(t, []model.Vector{{3}, {2}, {3}}, got.X)
	assert.Equal(t, []string{"color", "none", "none"}, got.Y)
}

func TestBuildRound_LengthMismatch(t *testing.T) {
	d := NewDriver(lexiconTokenizer(), &filterService{}, assemble.Strict, nil)
	r := writeRound(t, "v1", bottleScene, "Q1,Q2\nm,m\nm,m\nbottle,red cup\n")

	_, err := d.BuildRound(context.Background(), r)
	assert.True(t, errors.Is(err, ErrLengthMismatch), "got %v", err)
}

func TestBuildRound_PoolPolicy(t *testing.T) {
	r := writeRound(t, "v1", bottleScene, "Q1\nm\nm\nred red bottle\n")

	_, err := NewDriver(lexiconTokenizer(), &filterService{}, assemble.Strict, nil).BuildRound(context.Background(), r)
	assert.True(t, errors.Is(err, assemble.ErrFeatureExhausted), "got %v", err)

	got, err := NewDriver(lexiconTokenizer(), &filterService{}, assemble.Lenient, nil).BuildRound(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []string{"color", "color", "none"}, got.Y)
	assert.Len(t, got.X, 3)
}

func TestBuildRound_MissingFiles(t *testing.T) {
	d := NewDriver(lexiconTokenizer(), &filterService{}, assemble.Strict, nil)
	r := writeRound(t, "v1", bottleScene, "Q1\nm\nm\n")

	missingXML := r
	missingXML.Workspaces = filepath.Join(t.TempDir(), "none.xml")
	_, err := d.BuildRound(context.Background(), missingXML)
	assert.Error(t, err)

	missingCSV := r
	missingCSV.Responses = filepath.Join(t.TempDir(), "none.csv")
	_, err = d.BuildRound(context.Background(), missingCSV)
	assert.Error(t, err)
}

// #endregion build-tests

// #region run-tests
func TestRun_ConcatenatesRoundsAndPersists(t *testing.T) {
	store, err := corpus.NewStore(filepath.Join(t.TempDir(), "corpus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := &filterService{}
	d := NewDriver(lexiconTokenizer(), svc, assemble.Strict, logging.NewNop()).WithStore(store)
	rounds := []config.Round{
		writeRound(t, "v1", bottleScene, "Q1\nm\nm\ngreen big bottle\n"),
		writeRound(t, "v2", twoScenes, "Q1,Q2\nm,m\nm,m\nred bottle,blue tall screwdriver\n"),
	}

	res, err := d.Run(context.Background(), rounds, true)
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)
	assert.True(t, res.Eval.Passed)

	assert.Equal(t, 1, svc.trains)
	assert.Equal(t, 1, svc.saves)
	assert.Equal(t, []string{"color", "size", "none", "color", "none", "color", "dim", "none"}, svc.trainY)
	assert.Len(t, svc.trainX, len(svc.trainY))

	rec, err := store.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, corpus.StatusSaved, rec.Status)
	assert.Equal(t, []string{"v1", "v2"}, rec.Rounds)
	assert.Equal(t, len(svc.trainY), rec.DecisionPoints)

	stages, err := logging.ListStages(store.DB(), res.RunID)
	require.NoError(t, err)
	var names []string
	for _, s := range stages {
		names = append(names, s.Stage)
	}
	assert.Equal(t, []string{"assemble", "assemble", "eval", "train", "save"}, names)
}

func TestRun_RepeatedDimUnderStrictFails(t *testing.T) {
	d := NewDriver(lexiconTokenizer(), &filterService{}, assemble.Strict, nil)
	rounds := []config.Round{writeRound(t, "v1", twoScenes, "Q1,Q2\nm,m\nm,m\nbottle,tall long\n")}

	// "tall" and "long" both map to DIM.
	_, err := d.Run(context.Background(), rounds, false)
	assert.True(t, errors.Is(err, assemble.ErrFeatureExhausted), "got %v", err)
}

func TestRun_EmptyCorpusFailsValidation(t *testing.T) {
	store, err := corpus.NewStore(filepath.Join(t.TempDir(), "corpus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := &filterService{}
	d := NewDriver(lexiconTokenizer(), svc, assemble.Strict, nil).WithStore(store)
	rounds := []config.Round{writeRound(t, "v1", bottleScene, "Q1\nm\nm\n")}

	res, err := d.Run(context.Background(), rounds, true)
	assert.True(t, errors.Is(err, ErrCorpusInvalid), "got %v", err)
	assert.Equal(t, 0, svc.trains)

	rec, err := store.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, corpus.StatusFailed, rec.Status)
}

func TestRun_TrainErrorMarksRunFailed(t *testing.T) {
	store, err := corpus.NewStore(filepath.Join(t.TempDir(), "corpus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	boom := errors.New("fit diverged")
	svc := &filterService{trainErr: boom}
	d := NewDriver(lexiconTokenizer(), svc, assemble.Strict, nil).WithStore(store)
	rounds := []config.Round{writeRound(t, "v1", bottleScene, "Q1\nm\nm\nbottle\n")}

	res, err := d.Run(context.Background(), rounds, true)
	assert.True(t, errors.Is(err, boom), "got %v", err)
	assert.Equal(t, 0, svc.saves)

	rec, _ := store.GetRun(res.RunID)
	assert.Equal(t, corpus.StatusFailed, rec.Status)
}

func TestTrain_RejectsMismatch(t *testing.T) {
	svc := &filterService{}
	d := NewDriver(lexiconTokenizer(), svc, assemble.Strict, nil)

	_, err := d.Train(context.Background(), []model.Vector{{1}, {2}}, []string{"none"}, false)
	assert.True(t, errors.Is(err, ErrLengthMismatch), "got %v", err)
	assert.Equal(t, 0, svc.trains)

	_, err = d.Train(context.Background(), []model.Vector{{1}}, []string{"none"}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.trains)
	assert.Equal(t, 0, svc.saves)
}

// #endregion run-tests

func TestLabelFeatures(t *testing.T) {
	store := workspace.NewStore()
	f, err := os.CreateTemp(t.TempDir(), "*.xml")
	require.NoError(t, err)
	_, _ = f.WriteString(bottleScene)
	require.NoError(t, f.Close())
	require.NoError(t, workspace.ParseFile(f.Name(), store))

	e, ok := store.Get("Q1")
	require.True(t, ok)

	got, err := NewDriver(lexiconTokenizer(), &filterService{}, assemble.Strict, nil).LabelFeatures(context.Background(), e)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, model.LabelDim, got[model.LabelDim].Feature)
}
