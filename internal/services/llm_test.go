package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eduvid/internal/config"
)

func newTestLLM(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewLLMService(config.Config{
		LLMAPIKey:  "test-key",
		LLMBaseURL: srv.URL,
		LLMModel:   "test-model",
	})
}

func TestCompleteReturnsContent(t *testing.T) {
	var gotJSONFormat bool
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Model          string `json:"model"`
			ResponseFormat *struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotJSONFormat = payload.ResponseFormat != nil && payload.ResponseFormat.Type == "json_object"

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	})

	text, err := svc.Complete(context.Background(), "system", "user", true)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "hello" {
		t.Fatalf("expected model content, got %q", text)
	}
	if !gotJSONFormat {
		t.Fatalf("expected json response_format in request")
	}
}

func TestCompleteReadsStreamedBody(t *testing.T) {
	// Real endpoints flush headers first and deliver the body as it is
	// produced; the client must stay alive until the body is fully read.
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{"choices":[{"message":{"content":"`))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`late body"}}]}`))
	})

	text, err := svc.Complete(context.Background(), "system", "user", false)
	if err != nil {
		t.Fatalf("complete failed on streamed body: %v", err)
	}
	if text != "late body" {
		t.Fatalf("expected streamed content, got %q", text)
	}
}

func TestCompleteAPIError(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	})

	if _, err := svc.Complete(context.Background(), "s", "u", false); !errors.Is(err, ErrModelError) {
		t.Fatalf("expected ErrModelError, got %v", err)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	svc := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	if _, err := svc.Complete(context.Background(), "s", "u", false); !errors.Is(err, ErrModelError) {
		t.Fatalf("expected ErrModelError, got %v", err)
	}
}

func TestCompleteMissingAPIKey(t *testing.T) {
	svc := NewLLMService(config.Config{LLMBaseURL: "http://localhost:0"})

	if _, err := svc.Complete(context.Background(), "s", "u", false); !errors.Is(err, ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}
