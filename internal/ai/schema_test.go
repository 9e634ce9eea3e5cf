package ai

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func mustArgs(t *testing.T, v map[string]any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	return raw
}

func TestDecodeTextRequestDefaults(t *testing.T) {
	req, err := DecodeTextRequest(mustArgs(t, map[string]any{"input_text": "  hello  "}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.InputText != "hello" {
		t.Errorf("InputText = %q, want trimmed %q", req.InputText, "hello")
	}
	if req.Temperature == nil || *req.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want default 0.7", req.Temperature)
	}
	if req.MaxOutputTokens == nil || *req.MaxOutputTokens != 1024 {
		t.Errorf("MaxOutputTokens = %v, want default 1024", req.MaxOutputTokens)
	}
}

func TestDecodeTextRequestRejections(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing input_text", map[string]any{"model": "m"}},
		{"too long input_text", map[string]any{"input_text": strings.Repeat("a", 8001)}},
		{"temperature above cap", map[string]any{"input_text": "hi", "temperature": 2.5}},
		{"zero max tokens", map[string]any{"input_text": "hi", "max_output_tokens": 0}},
		{"oversized model name", map[string]any{"input_text": "hi", "model": strings.Repeat("m", 101)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTextRequest(mustArgs(t, tt.args))
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestDecodeImageRequest(t *testing.T) {
	req, err := DecodeImageRequest(mustArgs(t, map[string]any{"prompt": "a cat"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Size != "1024x1024" || req.Quality != "standard" {
		t.Errorf("defaults = (%q, %q), want (1024x1024, standard)", req.Size, req.Quality)
	}

	if _, err := DecodeImageRequest(mustArgs(t, map[string]any{"prompt": "a cat", "size": "big"})); err == nil {
		t.Fatal("expected size pattern rejection")
	}
	if _, err := DecodeImageRequest(mustArgs(t, map[string]any{"prompt": "a cat", "quality": "ultra"})); err == nil {
		t.Fatal("expected quality enum rejection")
	}
}

func TestDecodeVideoRequest(t *testing.T) {
	req, err := DecodeVideoRequest(mustArgs(t, map[string]any{"prompt": "waves"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Duration != "8s" || req.Resolution != "720p" || req.AspectRatio != "16:9" || req.Style != "realistic" {
		t.Errorf("defaults = %+v", req)
	}

	rejects := []map[string]any{
		{"prompt": "waves", "duration": "8"},
		{"prompt": "waves", "resolution": "8K"},
		{"prompt": "waves", "aspect_ratio": "2:1"},
		{"prompt": "waves", "style": "abstract"},
		{"prompt": strings.Repeat("w", 1001)},
	}
	for i, args := range rejects {
		if _, err := DecodeVideoRequest(mustArgs(t, args)); err == nil {
			t.Errorf("case %d: expected rejection for %v", i, args)
		}
	}
}

func TestDecodeRequestMalformedArguments(t *testing.T) {
	if _, err := DecodeTextRequest(json.RawMessage(`not json`)); err == nil {
		t.Fatal("expected malformed arguments rejection")
	}
	if _, err := DecodeTextRequest(nil); err == nil {
		t.Fatal("expected empty arguments rejection")
	}
}
