package codec

import (
	"context"
	"errors"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service

type generationHandler interface {
	generate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// generationService exposes a Generator as the sidecar service.
type generationService struct {
	gen Generator
}

func (s *generationService) generate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := decodeRequest(in)
	if req.Prompt == "" {
		return nil, status.Error(codes.InvalidArgument, "prompt is required")
	}
	if req.Sampling.Model == "" {
		req.Sampling.Model = DefaultModel
	}

	res, err := s.gen.Generate(ctx, req)
	if err != nil {
		log.Printf("[CODEC] generate failed: model=%s err=%v", req.Sampling.Model, err)
		if errors.Is(err, ErrEmptyResponse) {
			return nil, status.Error(codes.Unavailable, ErrEmptyResponse.Error())
		}
		if ctx.Err() != nil {
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return structpb.NewStruct(map[string]any{
		"text":  res.Text,
		"model": res.Model,
	})
}

// #endregion service

// #region registration

func generateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(generationHandler).generate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: generateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(generationHandler).generate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var generationServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*generationHandler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Generate", Handler: generateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cyclelab/codec/v1/generation.proto",
}

// RegisterGenerationServer serves gen as the sidecar service on s, so other
// lab processes can share one upstream model client.
func RegisterGenerationServer(s grpc.ServiceRegistrar, gen Generator) {
	s.RegisterService(&generationServiceDesc, &generationService{gen: gen})
}

// #endregion registration
