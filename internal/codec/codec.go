package codec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrBadPayload indicates a response field is missing or has the wrong shape.
var ErrBadPayload = errors.New("codec: bad payload")

// #region retry
const maxRetries = 2 // max 2 retries = 3 total attempts

// retryBackoff is the wait before the first retry; it doubles per attempt.
var retryBackoff = 250 * time.Millisecond

// retryable reports whether err is a transient service failure.
func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted:
		return true
	}
	return false
}

// #endregion retry

// #region dial
// Dial opens a client connection to one of the Python services
// (tokenizer or model). Connection is lazy; errors surface on first call.
func Dial(addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return conn, nil
}

// #endregion dial

// #region call
// Call issues a unary RPC whose request and response are both
// google.protobuf.Struct messages. Transient failures are retried.
func Call(ctx context.Context, conn grpc.ClientConnInterface, method string, req map[string]any) (map[string]any, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	for attempt := 0; ; attempt++ {
		out := &structpb.Struct{}
		err = conn.Invoke(ctx, method, in, out)
		if err == nil {
			return out.AsMap(), nil
		}
		if attempt >= maxRetries || !retryable(err) {
			return nil, fmt.Errorf("%s rpc: %w", method, err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s rpc: %w", method, ctx.Err())
		case <-time.After(retryBackoff << attempt):
		}
	}
}

// #endregion call

// #region field-helpers
// Floats converts a decoded list value to []float64.
func Floats(v any) ([]float64, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("want list, got %T: %w", v, ErrBadPayload)
	}
	out := make([]float64, len(list))
	for i, e := range list {
		f, ok := e.(float64)
		if !ok {
			return nil, fmt.Errorf("element %d: want number, got %T: %w", i, e, ErrBadPayload)
		}
		out[i] = f
	}
	return out, nil
}

// Strings converts a decoded list value to []string. Non-string elements are
// formatted with %v.
func Strings(v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("want list, got %T: %w", v, ErrBadPayload)
	}
	out := make([]string, len(list))
	for i, e := range list {
		if s, ok := e.(string); ok {
			out[i] = s
		} else {
			out[i] = fmt.Sprint(e)
		}
	}
	return out, nil
}

// FloatList converts a []float64 to the []any form structpb accepts.
func FloatList(fs []float64) []any {
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}

// #endregion field-helpers
