package fal

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

	"weav/internal/ai"
	"weav/internal/domain"
)

const providerName = "fal"

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("fal: api key is required")

// Options configures the fal.run client.
type Options struct {
	APIKey           string
	BaseURL          string
	TextEndpoint     string
	DefaultTextModel string
	HTTPClient       *http.Client
	RequestTimeout   time.Duration
}

// Client performs HTTP calls to the fal.run synchronous generation API.
// Text generation goes to a fixed endpoint; for image and video the model
// identifier itself names the pipeline endpoint.
type Client struct {
	apiKey           string
	baseURL          string
	textEndpoint     string
	defaultTextModel string
	httpClient       *http.Client
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://fal.run"
	}
	textEndpoint := strings.TrimLeft(opts.TextEndpoint, "/")
	if textEndpoint == "" {
		textEndpoint = "fal-ai/any-llm"
	}
	defaultTextModel := strings.TrimSpace(opts.DefaultTextModel)
	if defaultTextModel == "" {
		defaultTextModel = "openai/gpt-4o-mini"
	}
	return &Client{
		apiKey:           apiKey,
		baseURL:          baseURL,
		textEndpoint:     textEndpoint,
		defaultTextModel: defaultTextModel,
		httpClient:       httpClient,
	}, nil
}

// GenerateText posts the prompt to the fixed text endpoint and extracts the
// generated text plus usage metadata.
func (c *Client) GenerateText(ctx context.Context, req *ai.TextRequest) (*domain.GenerationResult, error) {
	model := req.Model
	if model == "" {
		model = c.defaultTextModel
	}
	payload := map[string]any{
		"prompt": req.InputText,
		"model":  model,
	}
	if req.SystemPrompt != "" {
		payload["system_prompt"] = req.SystemPrompt
	}
	if req.Temperature != nil {
		payload["temperature"] = *req.Temperature
	}
	if req.MaxOutputTokens != nil {
		payload["max_tokens"] = *req.MaxOutputTokens
	}

	data, err := c.post(ctx, c.textEndpoint, payload)
	if err != nil {
		return nil, err
	}
	output := stringField(data, "output")
	if output == "" {
		output = stringField(data, "text")
	}
	if output == "" {
		return nil, &ai.RequestError{Provider: providerName, Message: "empty text response", StatusCode: http.StatusInternalServerError}
	}
	result := &domain.GenerationResult{
		Provider:     providerName,
		Model:        model,
		Text:         output,
		FinishReason: stringField(data, "finish_reason"),
	}
	if usage, ok := data["usage"]; ok && usage != nil {
		if raw, err := json.Marshal(usage); err == nil {
			result.Usage = raw
		}
	}
	return result, nil
}

// GenerateImage posts the prompt to the pipeline named by the request model
// and extracts the produced image URL.
func (c *Client) GenerateImage(ctx context.Context, req *ai.ImageRequest) (*domain.GenerationResult, error) {
	endpoint := strings.TrimLeft(req.Model, "/")
	if endpoint == "" {
		return nil, &ai.RequestError{Provider: providerName, Message: "unsupported image model", StatusCode: http.StatusBadRequest}
	}
	data, err := c.post(ctx, endpoint, map[string]any{"prompt": req.Prompt})
	if err != nil {
		return nil, err
	}
	url, err := extractMediaURL(data, "images", "image")
	if err != nil {
		return nil, err
	}
	return &domain.GenerationResult{Provider: providerName, Model: endpoint, URL: url}, nil
}

// GenerateVideo posts the prompt to the pipeline named by the request model
// and extracts the produced video URL.
func (c *Client) GenerateVideo(ctx context.Context, req *ai.VideoRequest) (*domain.GenerationResult, error) {
	endpoint := strings.TrimLeft(req.Model, "/")
	if endpoint == "" {
		return nil, &ai.RequestError{Provider: providerName, Message: "unsupported video model", StatusCode: http.StatusBadRequest}
	}
	data, err := c.post(ctx, endpoint, map[string]any{"prompt": req.Prompt})
	if err != nil {
		return nil, err
	}
	url, err := extractMediaURL(data, "videos", "video")
	if err != nil {
		return nil, err
	}
	return &domain.GenerationResult{Provider: providerName, Model: endpoint, URL: url}, nil
}

// post issues one synchronous call and maps the response status onto the
// error taxonomy: 401 authentication, 429 quota, any other >=400 request
// failure carrying the body.
func (c *Client) post(ctx context.Context, endpoint string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ai.RequestError{Provider: providerName, Message: fmt.Sprintf("encode request: %v", err)}
	}
	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ai.RequestError{Provider: providerName, Message: fmt.Sprintf("build request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Key "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ai.RequestError{Provider: providerName, Message: fmt.Sprintf("http request: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ai.RequestError{Provider: providerName, Message: fmt.Sprintf("read response: %v", err), StatusCode: resp.StatusCode}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &ai.ProviderError{Provider: providerName, Message: "invalid api key", StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ai.QuotaExceededError{Provider: providerName}
	case resp.StatusCode >= 400:
		return nil, &ai.RequestError{
			Provider:   providerName,
			Message:    strings.TrimSpace(string(raw)),
			StatusCode: resp.StatusCode,
		}
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &ai.RequestError{Provider: providerName, Message: "response is not valid JSON", StatusCode: http.StatusInternalServerError}
	}
	if data == nil {
		return nil, &ai.RequestError{Provider: providerName, Message: "empty response body", StatusCode: http.StatusBadGateway}
	}
	return data, nil
}

// extractMediaURL probes the response for a result URL: a list field
// (images/videos) holding url objects or plain strings, then the singular
// object form, then a generic urls list, then a string output that looks
// like a URL. The probe order matches the shapes the fal pipelines return.
func extractMediaURL(data map[string]any, listField, singularField string) (string, error) {
	if items, ok := data[listField].([]any); ok && len(items) > 0 {
		switch first := items[0].(type) {
		case map[string]any:
			if url := stringField(first, "url"); url != "" {
				return url, nil
			}
		case string:
			if first != "" {
				return first, nil
			}
		}
	}
	if obj, ok := data[singularField].(map[string]any); ok {
		if url := stringField(obj, "url"); url != "" {
			return url, nil
		}
	}
	if urls, ok := data["urls"].([]any); ok && len(urls) > 0 {
		if url, ok := urls[0].(string); ok && url != "" {
			return url, nil
		}
	}
	if output := stringField(data, "output"); strings.HasPrefix(output, "http") {
		return output, nil
	}
	return "", &ai.RequestError{
		Provider:   providerName,
		Message:    fmt.Sprintf("no %s url in response", singularField),
		StatusCode: http.StatusInternalServerError,
	}
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
