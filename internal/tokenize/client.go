package tokenize

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/danielpatrickdp/reg-trainer/internal/codec"
)

// MethodProcessSpeech is the tokenizer service's unary method.
const MethodProcessSpeech = "/reg.Tokenizer/ProcessSpeech"

// #region client-struct
// Client calls the Python speech tokenizer over gRPC.
type Client struct {
	conn   grpc.ClientConnInterface
	closer func() error
}

// #endregion client-struct

// #region constructor
// NewClient connects to the tokenizer service at addr.
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

// #region tokenize
// Tokenize sends text to the service and decodes {labels, tokens}.
func (c *Client) Tokenize(ctx context.Context, text string) (Response, error) {
	resp, err := codec.Call(ctx, c.conn, MethodProcessSpeech, map[string]any{"text": text})
	if err != nil {
		return Response{}, err
	}

	labels, err := codec.Strings(resp["labels"])
	if err != nil {
		return Response{}, fmt.Errorf("decode labels: %w", err)
	}
	names, err := codec.Strings(resp["tokens"])
	if err != nil {
		return Response{}, fmt.Errorf("decode tokens: %w", err)
	}
	tokens, err := ParseTokens(names)
	if err != nil {
		return Response{}, fmt.Errorf("decode tokens: %w", err)
	}
	return Response{Text: text, Labels: labels, Tokens: tokens}, nil
}

// #endregion tokenize
