package domain

import "encoding/json"

// GenerationResult is the provider-agnostic result shape every provider
// client must produce. Text results carry Text plus usage metadata; binary
// results carry URL plus optional MIME type and size. Text and URL are never
// both populated for a single result.
type GenerationResult struct {
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	Text         string          `json:"text,omitempty"`
	URL          string          `json:"url,omitempty"`
	MIMEType     string          `json:"mime_type,omitempty"`
	SizeBytes    int64           `json:"size_bytes,omitempty"`
	Usage        json.RawMessage `json:"usage,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
}
