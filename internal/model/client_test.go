package model

import (
	"context"
	"errors"
	"testing"

	"github.com/danielpatrickdp/reg-trainer/internal/codec/codectest"
	"github.com/danielpatrickdp/reg-trainer/internal/scene"
)

var _ Service = (*Client)(nil)

func strp(s string) *string { return &s }

// #region model-input-tests
func TestModelInput_Success(t *testing.T) {
	conn := codectest.NewConn()
	conn.Handle(MethodGetModelInput, func(req map[string]any) (map[string]any, error) {
		ctxList, _ := req["context"].([]any)
		return map[string]any{
			"input":  []any{float64(len(ctxList)), 0.5},
			"labels": []any{"green"},
			"revealed": map[string]any{
				"color": []any{0.0, 255.0, 0.0},
				"size":  "big",
			},
		}, nil
	})
	c := NewClientWithConn(conn)

	obj := scene.Object{Type: strp("bottle")}
	in, err := c.ModelInput(context.Background(), obj, scene.NewContext([]scene.Object{obj, obj}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(in.Vector) != 2 || in.Vector[0] != 2 {
		t.Errorf("unexpected vector %v", in.Vector)
	}
	if len(in.Labels) != 1 || in.Labels[0] != "green" {
		t.Errorf("unexpected labels %v", in.Labels)
	}
	if r, ok := in.Revealed[LabelSize]; !ok || r.Value != "big" || r.Feature != LabelSize {
		t.Errorf("unexpected size revealed %+v", r)
	}
	if _, ok := in.Revealed[LabelDim]; ok {
		t.Error("expected no dim revealed value")
	}

	obj0, ok := conn.Calls[0].Request["object"].(map[string]any)
	if !ok || obj0["type"] != "bottle" {
		t.Errorf("expected encoded object, got %v", conn.Calls[0].Request["object"])
	}
}

func TestModelInput_BadVector(t *testing.T) {
	conn := codectest.NewConn()
	conn.Handle(MethodGetModelInput, func(map[string]any) (map[string]any, error) {
		return map[string]any{"input": "oops"}, nil
	})
	_, err := NewClientWithConn(conn).ModelInput(context.Background(), scene.Object{}, scene.Context{})
	if err == nil {
		t.Fatal("expected decode error")
	}
}

// #endregion model-input-tests

// #region narrow-tests
func TestNarrow_Success(t *testing.T) {
	conn := codectest.NewConn()
	conn.Handle(MethodUpdateContext, func(req map[string]any) (map[string]any, error) {
		if req["feature"] != LabelColor {
			t.Errorf("expected feature color, got %v", req["feature"])
		}
		list := req["context"].([]any)
		return map[string]any{"context": list[:1]}, nil
	})
	c := NewClientWithConn(conn)

	orig := scene.NewContext([]scene.Object{{Type: strp("a")}, {Type: strp("b")}})
	got, err := c.Narrow(context.Background(), orig, Revealed{Feature: LabelColor, Value: []any{1.0, 2.0, 3.0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 1 || got.At(0).TypeName() != "a" {
		t.Errorf("unexpected narrowed context %+v", got.Objects())
	}
	if orig.Len() != 2 {
		t.Errorf("expected original context untouched, got len %d", orig.Len())
	}
}

func TestNarrow_Error(t *testing.T) {
	rpcErr := errors.New("rpc failed")
	conn := codectest.NewConn()
	conn.Handle(MethodUpdateContext, func(map[string]any) (map[string]any, error) { return nil, rpcErr })

	_, err := NewClientWithConn(conn).Narrow(context.Background(), scene.Context{}, Revealed{})
	if !errors.Is(err, rpcErr) {
		t.Errorf("expected wrapped rpc error, got: %v", err)
	}
}

// #endregion narrow-tests

// #region train-tests
func TestTrainAndSave(t *testing.T) {
	conn := codectest.NewConn()
	var gotInputs, gotOutputs []any
	conn.Handle(MethodTrainModel, func(req map[string]any) (map[string]any, error) {
		gotInputs, _ = req["inputs"].([]any)
		gotOutputs, _ = req["outputs"].([]any)
		return map[string]any{}, nil
	})
	conn.Handle(MethodSaveModels, func(map[string]any) (map[string]any, error) {
		return map[string]any{}, nil
	})
	c := NewClientWithConn(conn)

	x := []Vector{{1, 2}, {3, 4}}
	y := []string{LabelColor, LabelNone}
	if err := c.Train(context.Background(), x, y); err != nil {
		t.Fatalf("train: %v", err)
	}
	if len(gotInputs) != 2 || len(gotOutputs) != 2 || gotOutputs[1] != LabelNone {
		t.Errorf("unexpected train payload: %v / %v", gotInputs, gotOutputs)
	}
	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(conn.Calls) != 2 || conn.Calls[1].Method != MethodSaveModels {
		t.Errorf("unexpected calls %+v", conn.Calls)
	}
	if err := c.Close(); err != nil {
		t.Errorf("close without owned conn: %v", err)
	}
}

// #endregion train-tests
