package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OllamaOracle implements Oracle using a local Ollama server.
type OllamaOracle struct {
	baseURL     string
	model       string
	client      *http.Client
	opts        Options
	rateLimiter *RateLimiter
}

// NewOllamaOracle creates a new Ollama-backed oracle.
func NewOllamaOracle(opts Options) (*OllamaOracle, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model := opts.Model
	if model == "" {
		model = "llama3.2"
	}

	var limiter *RateLimiter
	if opts.RateLimitRPS > 0 {
		limiter = NewRateLimiter(opts.RateLimitRPS)
	}

	return &OllamaOracle{
		baseURL:     baseURL,
		model:       model,
		opts:        opts,
		client:      &http.Client{Timeout: opts.Timeout},
		rateLimiter: limiter,
	}, nil
}

func (o *OllamaOracle) Name() string { return "ollama" }

// Decide implements Oracle.
func (o *OllamaOracle) Decide(ctx context.Context, req *Request) (*Decision, error) {
	text, err := o.generate(ctx, buildDecisionPrompt(req), true)
	if err != nil {
		return nil, err
	}

	var decision Decision
	if err := json.Unmarshal([]byte(extractJSON(text)), &decision); err != nil {
		return nil, &ContractError{Reason: "unparseable decision: " + err.Error(), Raw: text}
	}
	if err := decision.Validate(); err != nil {
		return nil, err
	}
	return &decision, nil
}

// Reflect implements Oracle.
func (o *OllamaOracle) Reflect(ctx context.Context, memories []string) (string, error) {
	return o.generate(ctx, buildReflectionPrompt(memories), false)
}

func (o *OllamaOracle) generate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	if o.rateLimiter != nil {
		if err := o.rateLimiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	ollamaReq := map[string]interface{}{
		"model":  o.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": o.opts.Temperature,
			"num_predict": o.opts.MaxTokens,
		},
	}
	if jsonMode {
		ollamaReq["format"] = "json"
	}

	body, err := json.Marshal(ollamaReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: ollama request failed: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body) //nolint:errcheck // best effort for error message
		if IsRetryableStatusCode(resp.StatusCode) {
			return "", fmt.Errorf("%w: ollama status %d: %s", ErrUnavailable, resp.StatusCode, bodyBytes)
		}
		return "", fmt.Errorf("ollama error %d: %s", resp.StatusCode, bodyBytes)
	}

	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return ollamaResp.Response, nil
}

// HealthCheck implements Oracle.
func (o *OllamaOracle) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", o.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health check failed: %d", resp.StatusCode)
	}
	return nil
}

func (o *OllamaOracle) Close() error { return nil }
