package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"eduvid/internal/config"
)

const requestTimeout = 2 * time.Minute

var (
	// ErrModelUnavailable covers transport-level failures: the call never
	// produced a usable HTTP response.
	ErrModelUnavailable = errors.New("model endpoint unavailable")
	// ErrModelError covers calls that reached the endpoint but came back
	// unusable (API error status, empty choices, undecodable body).
	ErrModelError = errors.New("model returned an unusable response")
)

// ChatCompleter is the boundary to the text-generation model. Every response
// is an opaque string; callers validate before trusting it.
type ChatCompleter interface {
	Complete(ctx context.Context, system, user string, jsonOnly bool) (string, error)
}

// LLMService talks to an OpenAI-compatible chat completions endpoint. The
// base URL is configurable so the same client serves Gemini's compatibility
// surface or any other provider.
type LLMService struct {
	apiKey     string
	baseURL    string
	model      string
	reqTimeout time.Duration
	httpClient *http.Client
}

func NewLLMService(cfg config.Config) *LLMService {
	return &LLMService{
		apiKey:     cfg.LLMAPIKey,
		baseURL:    strings.TrimRight(cfg.LLMBaseURL, "/"),
		model:      cfg.LLMModel,
		reqTimeout: requestTimeout,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (s *LLMService) Complete(ctx context.Context, system, user string, jsonOnly bool) (string, error) {
	if err := s.ensureAPIKey(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	payload := map[string]any{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	if jsonOnly {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", buf)
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: %v", ErrModelError, s.decodeAPIError(resp))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("%w: decode chat response: %v", ErrModelError, err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrModelError)
	}

	return response.Choices[0].Message.Content, nil
}

// do performs the request without wrapping the context: the client's
// Timeout already bounds the whole exchange including the body read, and a
// context cancelled here would kill body bytes still in flight.
func (s *LLMService) do(req *http.Request) (*http.Response, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	return resp, nil
}

func (s *LLMService) decodeAPIError(resp *http.Response) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    any    `json:"code"`
		} `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)

	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("api error: status %d type %s message %s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
	}

	return fmt.Errorf("api error: status %d body %s", resp.StatusCode, string(body))
}

func (s *LLMService) ensureAPIKey() error {
	if strings.TrimSpace(s.apiKey) == "" {
		return errors.New("model api key is not configured")
	}
	return nil
}
