// Package grpc exposes the benchmark commands as a unary gRPC service whose
// messages are google.protobuf.Struct values.
package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	benchErrors "github.com/arkilian/layoutbench/internal/errors"
	"github.com/arkilian/layoutbench/internal/service"
	"github.com/arkilian/layoutbench/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "layoutbench.v1.BenchService"

// BenchServer adapts service.Commands to the gRPC service.
type BenchServer struct {
	cmds   service.Commands
	logger *zap.Logger
}

// NewBenchServer creates a server backed by cmds.
func NewBenchServer(cmds service.Commands, logger *zap.Logger) *BenchServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BenchServer{cmds: cmds, logger: logger}
}

// Register installs the service on s.
func Register(s grpc.ServiceRegistrar, cmds service.Commands, logger *zap.Logger) {
	s.RegisterService(&serviceDesc, NewBenchServer(cmds, logger))
}

// Generate expects {"variant","representation","count"}.
func (s *BenchServer) Generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	variant, err := types.ParseVariant(stringField(req, "variant"))
	if err != nil {
		return nil, s.toStatus(ctx, "Generate",
			benchErrors.NewValidationError(benchErrors.CodeInvalidVariant, err.Error()))
	}
	rep := types.RepresentationDocument
	if raw := stringField(req, "representation"); raw != "" {
		if rep, err = types.ParseRepresentation(raw); err != nil {
			return nil, s.toStatus(ctx, "Generate",
				benchErrors.NewValidationError(benchErrors.CodeInvalidRepresentation, err.Error()))
		}
	} else if variant == types.VariantSimple {
		rep = types.RepresentationFlat
	}

	res, err := s.cmds.Generate(ctx, service.GenerateRequest{
		Variant:        variant,
		Representation: rep,
		Count:          intField(req, "count"),
	})
	if err != nil {
		return nil, s.toStatus(ctx, "Generate", err)
	}
	return toStruct(res)
}

// Benchmark expects {"representation","count"}.
func (s *BenchServer) Benchmark(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rep, err := types.ParseRepresentation(stringField(req, "representation"))
	if err != nil {
		return nil, s.toStatus(ctx, "Benchmark",
			benchErrors.NewValidationError(benchErrors.CodeInvalidRepresentation, err.Error()))
	}
	trial, err := s.cmds.Benchmark(ctx, rep, intField(req, "count"))
	if err != nil {
		return nil, s.toStatus(ctx, "Benchmark", err)
	}
	return toStruct(trial)
}

// BenchmarkComplex expects {"count"}.
func (s *BenchServer) BenchmarkComplex(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	trial, err := s.cmds.BenchmarkComplex(ctx, intField(req, "count"))
	if err != nil {
		return nil, s.toStatus(ctx, "BenchmarkComplex", err)
	}
	return toStruct(trial)
}

// RunSweep accepts an optional {"scales":[...]}.
func (s *BenchServer) RunSweep(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var scales []int
	if v, ok := req.GetFields()["scales"]; ok {
		for _, item := range v.GetListValue().GetValues() {
			scales = append(scales, int(item.GetNumberValue()))
		}
	}
	report, err := s.cmds.RunFullSweep(ctx, scales)
	if err != nil {
		return nil, s.toStatus(ctx, "RunSweep", err)
	}
	return toStruct(report)
}

func (s *BenchServer) toStatus(ctx context.Context, method string, err error) error {
	s.logger.Warn("grpc call failed",
		zap.String("method", method),
		zap.String("request_id", extractRequestID(ctx)),
		zap.Error(err))
	return status.Error(benchErrors.GRPCCode(err), err.Error())
}

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func intField(s *structpb.Struct, name string) int {
	return int(s.GetFields()[name].GetNumberValue())
}

// toStruct converts v through its JSON encoding so field names match the
// HTTP API.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}

// extractRequestID reads x-request-id from the incoming metadata or makes one.
func extractRequestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get("x-request-id"); len(ids) > 0 {
			return ids[0]
		}
	}
	return uuid.New().String()
}

type benchHandler func(*BenchServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call benchHandler) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(*BenchServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(*BenchServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Generate", (*BenchServer).Generate),
		unaryHandler("Benchmark", (*BenchServer).Benchmark),
		unaryHandler("BenchmarkComplex", (*BenchServer).BenchmarkComplex),
		unaryHandler("RunSweep", (*BenchServer).RunSweep),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "layoutbench/v1/bench.proto",
}
