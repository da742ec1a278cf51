package codec

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-names
const (
	serviceName    = "cyclelab.codec.v1.GenerationService"
	generateMethod = "/" + serviceName + "/Generate"
)

// #endregion service-names

// #region service-client

// generationServiceClient is the client half of the sidecar protocol.
// Payloads are structpb.Struct so no generated code is needed on either side.
type generationServiceClient interface {
	Generate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type rawGenerationClient struct {
	cc grpc.ClientConnInterface
}

func (c *rawGenerationClient) Generate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, generateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion service-client

// #region client-struct

// GRPCGenerator sends prompts to a generation sidecar over gRPC.
type GRPCGenerator struct {
	conn   *grpc.ClientConn
	client generationServiceClient
}

// #endregion client-struct

// #region constructor

// NewGRPCGenerator connects to a generation sidecar.
func NewGRPCGenerator(addr string) (*GRPCGenerator, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return NewGRPCGeneratorWithConn(conn), nil
}

// NewGRPCGeneratorWithConn wraps an existing connection. The generator
// takes ownership and closes it in Close.
func NewGRPCGeneratorWithConn(conn *grpc.ClientConn) *GRPCGenerator {
	return &GRPCGenerator{
		conn:   conn,
		client: &rawGenerationClient{cc: conn},
	}
}

// newGRPCGeneratorWithService creates a GRPCGenerator with an injected service client.
// Used for testing without a real gRPC connection.
func newGRPCGeneratorWithService(svc generationServiceClient) *GRPCGenerator {
	return &GRPCGenerator{client: svc}
}

// #endregion constructor

// #region close

// Close shuts down the gRPC connection.
func (g *GRPCGenerator) Close() error {
	if g.conn == nil {
		return nil
	}
	return g.conn.Close()
}

// #endregion close

// #region generate

// Generate sends a prompt with its sampling config to the sidecar.
func (g *GRPCGenerator) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	in, err := encodeRequest(req)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("encode request: %w", err)
	}

	start := time.Now()
	resp, err := g.client.Generate(ctx, in)
	if err != nil {
		return GenerateResult{}, rpcError(ctx, err)
	}

	fields := resp.GetFields()
	text := fields["text"].GetStringValue()
	if text == "" {
		return GenerateResult{}, ErrEmptyResponse
	}
	model := fields["model"].GetStringValue()
	if model == "" {
		model = req.Sampling.Model
	}
	return GenerateResult{
		Text:    text,
		Model:   model,
		Latency: time.Since(start),
	}, nil
}

// rpcError maps a sidecar status back onto the sentinel it encodes. The
// status stays in the chain for callers that inspect the code.
func rpcError(ctx context.Context, err error) error {
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unavailable:
		if st.Message() == ErrEmptyResponse.Error() {
			return fmt.Errorf("generate rpc: %w: %w", ErrEmptyResponse, err)
		}
	case codes.DeadlineExceeded, codes.Canceled:
		cause := ctx.Err()
		if cause == nil {
			cause = context.DeadlineExceeded
			if st.Code() == codes.Canceled {
				cause = context.Canceled
			}
		}
		return fmt.Errorf("generate rpc: %w: %w", cause, err)
	}
	return fmt.Errorf("generate rpc: %w", err)
}

// #endregion generate

// #region wire

func encodeRequest(req GenerateRequest) (*structpb.Struct, error) {
	m := map[string]any{
		"prompt":      req.Prompt,
		"model":       req.Sampling.Model,
		"temperature": float64(req.Sampling.Temperature),
		"top_p":       float64(req.Sampling.TopP),
	}
	if req.Sampling.MaxTokens > 0 {
		m["max_tokens"] = req.Sampling.MaxTokens
	}
	if req.Sampling.Seed != nil {
		m["seed"] = *req.Sampling.Seed
	}
	return structpb.NewStruct(m)
}

func decodeRequest(in *structpb.Struct) GenerateRequest {
	f := in.GetFields()
	req := GenerateRequest{
		Prompt: f["prompt"].GetStringValue(),
		Sampling: Sampling{
			Model:       f["model"].GetStringValue(),
			Temperature: float32(f["temperature"].GetNumberValue()),
			TopP:        float32(f["top_p"].GetNumberValue()),
			MaxTokens:   int(f["max_tokens"].GetNumberValue()),
		},
	}
	if v, ok := f["seed"]; ok {
		seed := int(v.GetNumberValue())
		req.Sampling.Seed = &seed
	}
	return req
}

// #endregion wire
