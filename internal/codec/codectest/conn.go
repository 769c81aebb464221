// Package codectest provides an in-memory grpc.ClientConnInterface for
// exercising the service clients without a network.
package codectest

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Handler answers one method. It receives the decoded request.
type Handler func(req map[string]any) (map[string]any, error)

// Call records one Invoke.
type Call struct {
	Method  string
	Request map[string]any
}

// Conn routes unary calls to per-method handlers and records every call.
type Conn struct {
	Handlers map[string]Handler
	Calls    []Call
}

// NewConn returns a Conn with no handlers.
func NewConn() *Conn {
	return &Conn{Handlers: make(map[string]Handler)}
}

// Handle registers h for method.
func (c *Conn) Handle(method string, h Handler) {
	c.Handlers[method] = h
}

// Invoke implements grpc.ClientConnInterface.
func (c *Conn) Invoke(_ context.Context, method string, args any, reply any, _ ...grpc.CallOption) error {
	in, ok := args.(*structpb.Struct)
	if !ok {
		return fmt.Errorf("codectest: request is %T, want *structpb.Struct", args)
	}
	req := in.AsMap()
	c.Calls = append(c.Calls, Call{Method: method, Request: req})

	h, ok := c.Handlers[method]
	if !ok {
		return fmt.Errorf("codectest: no handler for %s", method)
	}
	resp, err := h(req)
	if err != nil {
		return err
	}
	out, err := structpb.NewStruct(resp)
	if err != nil {
		return fmt.Errorf("codectest: encode response: %w", err)
	}
	msg, ok := reply.(proto.Message)
	if !ok {
		return fmt.Errorf("codectest: reply is %T, want proto.Message", reply)
	}
	proto.Merge(msg, out)
	return nil
}

// NewStream implements grpc.ClientConnInterface. Streaming is not used.
func (c *Conn) NewStream(context.Context, *grpc.StreamDesc, string, ...grpc.CallOption) (grpc.ClientStream, error) {
	return nil, errors.New("codectest: streams not supported")
}
