package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls BenchService over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, req map[string]interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Generate inserts count records of variant into representation.
func (c *Client) Generate(ctx context.Context, variant, representation string, count int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Generate", map[string]interface{}{
		"variant":        variant,
		"representation": representation,
		"count":          count,
	}, opts...)
}

// Benchmark times one fetch of count records.
func (c *Client) Benchmark(ctx context.Context, representation string, count int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Benchmark", map[string]interface{}{
		"representation": representation,
		"count":          count,
	}, opts...)
}

// BenchmarkComplex times one fetch plus analytics pass.
func (c *Client) BenchmarkComplex(ctx context.Context, count int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "BenchmarkComplex", map[string]interface{}{"count": count}, opts...)
}

// RunSweep runs a full sweep; nil scales use the server default.
func (c *Client) RunSweep(ctx context.Context, scales []int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req := map[string]interface{}{}
	if len(scales) > 0 {
		list := make([]interface{}, len(scales))
		for i, s := range scales {
			list[i] = s
		}
		req["scales"] = list
	}
	return c.invoke(ctx, "RunSweep", req, opts...)
}
