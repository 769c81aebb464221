package model

import (
	"context"

	"github.com/danielpatrickdp/reg-trainer/internal/scene"
)

// #region feature-labels
// Labels emitted at decision points. The first three are also the keys of
// Input.Revealed.
const (
	LabelColor = "color"
	LabelSize  = "size"
	LabelDim   = "dim"
	LabelNone  = "none"
)

// #endregion feature-labels

// #region input
// Vector is one model input row.
type Vector []float64

// Revealed is the value of one feature once the speaker has named it. The
// payload is opaque to this package and handed back to Narrow unchanged.
type Revealed struct {
	Feature string
	Value   any
}

// Input is what the model computes for an (object, context) pair.
type Input struct {
	Vector   Vector
	Labels   []string
	Revealed map[string]Revealed
}

// #endregion input

// #region service
// Service is the trainable regressor. ModelInput and Narrow are read-only;
// Narrow returns a new Context and leaves c untouched. Train is a one-shot
// batch fit and Save persists the fitted state.
type Service interface {
	ModelInput(ctx context.Context, obj scene.Object, c scene.Context) (Input, error)
	Narrow(ctx context.Context, c scene.Context, r Revealed) (scene.Context, error)
	Train(ctx context.Context, x []Vector, y []string) error
	Save(ctx context.Context) error
}

// #endregion service
