package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GeminiOracle implements Oracle using the Google Gemini API.
type GeminiOracle struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	opts    Options
}

// NewGeminiOracle creates a new Gemini-backed oracle.
func NewGeminiOracle(opts Options) (*GeminiOracle, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key required (get free at aistudio.google.com)")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &GeminiOracle{
		apiKey:  opts.APIKey,
		baseURL: baseURL,
		model:   model,
		opts:    opts,
		client:  &http.Client{Timeout: opts.Timeout},
	}, nil
}

func (o *GeminiOracle) Name() string { return "gemini" }

// Decide implements Oracle.
func (o *GeminiOracle) Decide(ctx context.Context, req *Request) (*Decision, error) {
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
func (o *GeminiOracle) Reflect(ctx context.Context, memories []string) (string, error) {
	return o.generate(ctx, buildReflectionPrompt(memories), false)
}

func (o *GeminiOracle) generate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	genConfig := map[string]interface{}{
		"temperature":     o.opts.Temperature,
		"maxOutputTokens": o.opts.MaxTokens,
	}
	if jsonMode {
		genConfig["responseMimeType"] = "application/json"
	}
	geminiReq := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": genConfig,
	}

	body, err := json.Marshal(geminiReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", o.baseURL, o.model, o.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: gemini request failed: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if IsRetryableStatusCode(resp.StatusCode) {
		return "", fmt.Errorf("%w: gemini status %d", ErrUnavailable, resp.StatusCode)
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		Error *struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("gemini error %d: %s", result.Error.Code, result.Error.Message)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty gemini response", ErrUnavailable)
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// HealthCheck implements Oracle.
func (o *GeminiOracle) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/models/%s?key=%s", o.baseURL, o.model, o.apiKey)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gemini health check failed: %d", resp.StatusCode)
	}
	return nil
}

func (o *GeminiOracle) Close() error { return nil }
