package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

// Client is the external-model surface the core depends on: deterministic
// text embedding for indexing and querying, and the opaque generation
// service used by synthesis. Both are fallible remote calls.
type Client interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)

	// Structured outputs (json_schema)
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)

	// Plain text (no schema)
	GenerateText(ctx context.Context, system string, user string) (string, error)
}

type client struct {
	log        *logger.Logger
	http       *http.Client
	baseURL    string
	apiKey     string
	embedModel string
	genModel   string
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	embedModel := strings.TrimSpace(os.Getenv("OPENAI_EMBED_MODEL"))
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}
	genModel := strings.TrimSpace(os.Getenv("OPENAI_GEN_MODEL"))
	if genModel == "" {
		genModel = "gpt-4o-mini"
	}
	return &client{
		log:        log.With("service", "OpenAIClient"),
		http:       &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		embedModel: embedModel,
		genModel:   genModel,
		maxRetries: 3,
	}, nil
}

// -------------------- Embeddings --------------------

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	body := map[string]any{
		"model": c.embedModel,
		"input": inputs,
	}
	raw, err := c.post(ctx, "/embeddings", body)
	if err != nil {
		return nil, err
	}
	var resp embeddingResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apierr.UpstreamUnavailable("embedding service", fmt.Errorf("decode embeddings: %w", err))
	}
	out := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(inputs) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			vec[i] = float32(f)
		}
		out[d.Index] = vec
	}
	for i, v := range out {
		if len(v) == 0 {
			return nil, apierr.UpstreamUnavailable("embedding service", fmt.Errorf("missing embedding for input %d", i))
		}
	}
	return out, nil
}

// -------------------- Generation --------------------

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	body := map[string]any{
		"model": c.genModel,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	raw, err := c.post(ctx, "/chat/completions", body)
	if err != nil {
		return "", err
	}
	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", apierr.UpstreamUnavailable("generation service", fmt.Errorf("decode completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", apierr.UpstreamUnavailable("generation service", fmt.Errorf("empty completion"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	body := map[string]any{
		"model": c.genModel,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   schemaName,
				"strict": true,
				"schema": schema,
			},
		},
	}
	raw, err := c.post(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}
	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apierr.UpstreamUnavailable("generation service", fmt.Errorf("decode completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, apierr.UpstreamUnavailable("generation service", fmt.Errorf("empty completion"))
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &obj); err != nil {
		return nil, apierr.UpstreamUnavailable("generation service", fmt.Errorf("completion is not valid JSON: %w", err))
	}
	return obj, nil
}

// post retries transient upstream failures with capped exponential backoff.
// Context cancellation and deadline expiry are surfaced as Timeout and are
// never retried locally.
func (c *client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	var lastErr error
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apierr.Timeout("openai "+path, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		raw, retryable, err := c.once(ctx, path, buf)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		c.log.Warn("OpenAI request failed, retrying", "path", path, "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (c *client) once(ctx context.Context, path string, body []byte) (json.RawMessage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, false, apierr.Timeout("openai "+path, err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, false, ctx.Err()
		}
		return nil, true, apierr.UpstreamUnavailable("openai", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, apierr.UpstreamUnavailable("openai", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, apierr.UpstreamUnavailable("openai", fmt.Errorf("%s: status=%d", path, resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, apierr.UpstreamUnavailable("openai", fmt.Errorf("%s: status=%d body=%s", path, resp.StatusCode, truncate(string(raw), 512)))
	}
	return raw, false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
