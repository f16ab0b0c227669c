package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls kvstore.v1.Commands over an existing connection.
type Client struct {
	conn  grpc.ClientConnInterface
	token string
}

// NewClient wraps conn. A non-empty token is sent as a bearer credential.
func NewClient(conn grpc.ClientConnInterface, token string) *Client {
	return &Client{conn: conn, token: token}
}

// Execute sends one command line and returns its reply.
func (c *Client) Execute(ctx context.Context, args ...string) (*structpb.Value, error) {
	req := &structpb.ListValue{Values: make([]*structpb.Value, len(args))}
	for i, a := range args {
		req.Values[i] = structpb.NewStringValue(a)
	}
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, AuthorizationKey, "Bearer "+c.token)
	}

	out := new(structpb.Value)
	if err := c.conn.Invoke(ctx, executeMethod, req, out); err != nil {
		return nil, err
	}
	return out, nil
}
