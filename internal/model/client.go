package model

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/danielpatrickdp/reg-trainer/internal/codec"
	"github.com/danielpatrickdp/reg-trainer/internal/scene"
)

// Model service methods.
const (
	MethodGetModelInput = "/reg.ModelService/GetModelInput"
	MethodUpdateContext = "/reg.ModelService/UpdateContext"
	MethodTrainModel    = "/reg.ModelService/TrainModel"
	MethodSaveModels    = "/reg.ModelService/SaveModels"
)

// #region client-struct
// Client implements Service against the Python regressor over gRPC.
type Client struct {
	conn   grpc.ClientConnInterface
	closer func() error
}

// #endregion client-struct

// #region constructor
// NewClient connects to the model service at addr.
func NewClient(addr string) (*Client, error) {
	conn, err := codec.Dial(addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, closer: conn.Close}, nil
}

// NewClientWithConn wraps an existing connection. Used for testing.
func NewClientWithConn(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Close shuts down the connection when the client owns it.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// #endregion constructor

// #region model-input
// ModelInput requests the input vector, auxiliary labels and per-feature
// revealed values for obj seen against ctx.
func (c *Client) ModelInput(ctx context.Context, obj scene.Object, sc scene.Context) (Input, error) {
	resp, err := codec.Call(ctx, c.conn, MethodGetModelInput, map[string]any{
		"object":  codec.EncodeObject(obj),
		"context": codec.EncodeContext(sc),
	})
	if err != nil {
		return Input{}, err
	}

	vec, err := codec.Floats(resp["input"])
	if err != nil {
		return Input{}, fmt.Errorf("decode input: %w", err)
	}
	labels, err := codec.Strings(resp["labels"])
	if err != nil {
		return Input{}, fmt.Errorf("decode labels: %w", err)
	}

	revealed := make(map[string]Revealed)
	if raw, ok := resp["revealed"].(map[string]any); ok {
		for feature, v := range raw {
			revealed[feature] = Revealed{Feature: feature, Value: v}
		}
	}
	return Input{Vector: vec, Labels: labels, Revealed: revealed}, nil
}

// #endregion model-input

// #region narrow
// Narrow asks the service to reduce sc by a revealed feature value.
func (c *Client) Narrow(ctx context.Context, sc scene.Context, r Revealed) (scene.Context, error) {
	resp, err := codec.Call(ctx, c.conn, MethodUpdateContext, map[string]any{
		"context":  codec.EncodeContext(sc),
		"feature":  r.Feature,
		"revealed": r.Value,
	})
	if err != nil {
		return scene.Context{}, err
	}
	narrowed, err := codec.DecodeContext(resp["context"])
	if err != nil {
		return scene.Context{}, fmt.Errorf("decode narrowed context: %w", err)
	}
	return narrowed, nil
}

// #endregion narrow

// #region train
// Train sends the whole corpus in one batch.
func (c *Client) Train(ctx context.Context, x []Vector, y []string) error {
	inputs := make([]any, len(x))
	for i, v := range x {
		inputs[i] = codec.FloatList(v)
	}
	outputs := make([]any, len(y))
	for i, l := range y {
		outputs[i] = l
	}
	_, err := codec.Call(ctx, c.conn, MethodTrainModel, map[string]any{
		"inputs":  inputs,
		"outputs": outputs,
	})
	return err
}

// Save asks the service to persist the fitted models.
func (c *Client) Save(ctx context.Context) error {
	_, err := codec.Call(ctx, c.conn, MethodSaveModels, nil)
	return err
}

// #endregion train
