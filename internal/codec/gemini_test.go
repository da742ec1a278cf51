package codec

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func fakeGemini(t *testing.T, reply string, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			http.Error(w, `{"error":{"code":401,"message":"bad key","status":"UNAUTHENTICATED"}}`, http.StatusUnauthorized)
			return
		}
		if captured != nil {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, captured)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewGeminiGenerator_RequiresKey(t *testing.T) {
	if _, err := NewGeminiGenerator(context.Background(), GeminiConfig{}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestGemini_Generate(t *testing.T) {
	var body map[string]any
	srv := fakeGemini(t, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Rest and hydrate."}]},"finishReason":"STOP"}]}`, &body)

	g, err := NewGeminiGenerator(context.Background(), GeminiConfig{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGeminiGenerator: %v", err)
	}

	seed := 3
	res, err := g.Generate(context.Background(), GenerateRequest{
		Prompt:   "User reports: tired",
		Sampling: Sampling{Model: "gemini-2.5-flash", Temperature: 0.4, TopP: 0.9, MaxTokens: 128, Seed: &seed},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Text != "Rest and hydrate." {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if res.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected model %q", res.Model)
	}

	raw, _ := json.Marshal(body)
	for _, want := range []string{"User reports: tired", "maxOutputTokens", "topP"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("expected %q in request body: %s", want, raw)
		}
	}
}

func TestGemini_EmptyCandidates(t *testing.T) {
	srv := fakeGemini(t, `{"candidates":[]}`, nil)
	g, err := NewGeminiGenerator(context.Background(), GeminiConfig{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGeminiGenerator: %v", err)
	}
	_, err = g.Generate(context.Background(), GenerateRequest{Prompt: "p", Sampling: DefaultSampling()})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestGemini_APIError(t *testing.T) {
	srv := fakeGemini(t, "", nil)
	g, err := NewGeminiGenerator(context.Background(), GeminiConfig{APIKey: "wrong-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGeminiGenerator: %v", err)
	}
	_, err = g.Generate(context.Background(), GenerateRequest{Prompt: "p", Sampling: DefaultSampling()})
	if err == nil {
		t.Fatal("expected error for rejected key")
	}
	if !strings.Contains(err.Error(), "gemini generate") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
