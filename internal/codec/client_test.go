package codec

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region mock
type mockGenerationService struct {
	lastReq *structpb.Struct
	resp    *structpb.Struct
	err     error
}

func (m *mockGenerationService) Generate(_ context.Context, in *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	m.lastReq = in
	return m.resp, m.err
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("new struct: %v", err)
	}
	return s
}

// #endregion mock

// #region constructor-tests
func TestNewGRPCGeneratorLazyDial(t *testing.T) {
	g, err := NewGRPCGenerator("localhost:0")
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	defer g.Close()
}

func TestCloseWithoutConn(t *testing.T) {
	g := newGRPCGeneratorWithService(&mockGenerationService{})
	if err := g.Close(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

// #endregion constructor-tests

// #region generate-tests
func TestGenerate_Success(t *testing.T) {
	mock := &mockGenerationService{
		resp: mustStruct(t, map[string]any{"text": "hello world", "model": "gemini-2.5-pro"}),
	}
	g := newGRPCGeneratorWithService(mock)

	seed := 7
	res, err := g.Generate(context.Background(), GenerateRequest{
		Prompt: "hi",
		Sampling: Sampling{
			Model: "gemini-2.5-pro", Temperature: 0.4, TopP: 0.9, MaxTokens: 256, Seed: &seed,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "hello world" {
		t.Errorf("expected text 'hello world', got %q", res.Text)
	}
	if res.Model != "gemini-2.5-pro" {
		t.Errorf("expected model echoed, got %q", res.Model)
	}

	f := mock.lastReq.GetFields()
	if f["prompt"].GetStringValue() != "hi" {
		t.Errorf("prompt not sent: %v", f["prompt"])
	}
	if f["max_tokens"].GetNumberValue() != 256 {
		t.Errorf("max_tokens not sent: %v", f["max_tokens"])
	}
	if f["seed"].GetNumberValue() != 7 {
		t.Errorf("seed not sent: %v", f["seed"])
	}
}

func TestGenerate_OmitsUnsetOptionalFields(t *testing.T) {
	mock := &mockGenerationService{resp: mustStruct(t, map[string]any{"text": "ok"})}
	g := newGRPCGeneratorWithService(mock)

	res, err := g.Generate(context.Background(), GenerateRequest{Prompt: "p", Sampling: DefaultSampling()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Model != DefaultModel {
		t.Errorf("expected request model as fallback, got %q", res.Model)
	}
	f := mock.lastReq.GetFields()
	if _, ok := f["max_tokens"]; ok {
		t.Error("expected max_tokens omitted")
	}
	if _, ok := f["seed"]; ok {
		t.Error("expected seed omitted")
	}
}

func TestGenerate_Error(t *testing.T) {
	g := newGRPCGeneratorWithService(&mockGenerationService{err: errors.New("connection refused")})
	_, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "generate rpc") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestGenerate_EmptyText(t *testing.T) {
	g := newGRPCGeneratorWithService(&mockGenerationService{resp: mustStruct(t, map[string]any{"text": ""})})
	_, err := g.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

// #endregion generate-tests

// #region round-trip-tests
func startSidecar(t *testing.T, gen Generator) *GRPCGenerator {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterGenerationServer(srv, gen)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufnet: %v", err)
	}
	g := NewGRPCGeneratorWithConn(conn)
	t.Cleanup(func() { g.Close() })
	return g
}

func TestSidecar_RoundTrip(t *testing.T) {
	var got GenerateRequest
	g := startSidecar(t, GeneratorFunc(func(_ context.Context, req GenerateRequest) (GenerateResult, error) {
		got = req
		return GenerateResult{Text: "echo: " + req.Prompt, Model: req.Sampling.Model}, nil
	}))

	seed := 42
	res, err := g.Generate(context.Background(), GenerateRequest{
		Prompt:   "rest day?",
		Sampling: Sampling{Model: "m1", Temperature: 0.5, TopP: 0.8, MaxTokens: 100, Seed: &seed},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Text != "echo: rest day?" || res.Model != "m1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got.Sampling.Temperature != 0.5 || got.Sampling.TopP != 0.8 || got.Sampling.MaxTokens != 100 {
		t.Fatalf("sampling not decoded: %+v", got.Sampling)
	}
	if got.Sampling.Seed == nil || *got.Sampling.Seed != 42 {
		t.Fatalf("seed not decoded: %v", got.Sampling.Seed)
	}
}

func TestSidecar_DefaultsModel(t *testing.T) {
	var model string
	g := startSidecar(t, GeneratorFunc(func(_ context.Context, req GenerateRequest) (GenerateResult, error) {
		model = req.Sampling.Model
		return GenerateResult{Text: "ok", Model: req.Sampling.Model}, nil
	}))
	if _, err := g.Generate(context.Background(), GenerateRequest{Prompt: "p"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if model != DefaultModel {
		t.Fatalf("expected default model, got %q", model)
	}
}

func TestSidecar_StatusCodes(t *testing.T) {
	g := startSidecar(t, GeneratorFunc(func(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
		switch req.Prompt {
		case "empty":
			return GenerateResult{}, ErrEmptyResponse
		case "slow":
			<-ctx.Done()
			return GenerateResult{}, ctx.Err()
		}
		return GenerateResult{}, errors.New("quota exceeded")
	}))

	cases := []struct {
		prompt   string
		timeout  time.Duration
		code     codes.Code
		sentinel error
	}{
		{"", 0, codes.InvalidArgument, nil},
		{"empty", 0, codes.Unavailable, ErrEmptyResponse},
		{"boom", 0, codes.Internal, nil},
		{"slow", 50 * time.Millisecond, codes.DeadlineExceeded, context.DeadlineExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.prompt, func(t *testing.T) {
			ctx := context.Background()
			if tc.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tc.timeout)
				defer cancel()
			}
			_, err := g.Generate(ctx, GenerateRequest{Prompt: tc.prompt})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := status.Code(err); got != tc.code {
				t.Errorf("expected %s, got %s (%v)", tc.code, got, err)
			}
			if tc.sentinel != nil && !errors.Is(err, tc.sentinel) {
				t.Errorf("expected errors.Is %v, got %v", tc.sentinel, err)
			}
			if tc.sentinel == nil && (errors.Is(err, ErrEmptyResponse) || errors.Is(err, context.DeadlineExceeded)) {
				t.Errorf("unexpected sentinel in %v", err)
			}
		})
	}
}

func TestRPCError_Unavailable(t *testing.T) {
	err := rpcError(context.Background(), status.Error(codes.Unavailable, "connection refused"))
	if errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("transport failure must not read as an empty response: %v", err)
	}
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("expected status kept, got %v", err)
	}
}

// #endregion round-trip-tests
