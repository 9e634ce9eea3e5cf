package ai

import "strings"

// MediaType is the category of generation requested.
type MediaType string

const (
	MediaTypeText  MediaType = "text"
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

var (
	videoTokens = []string{"sora", "video"}
	imageTokens = []string{"flux", "banana", "image"}
)

// ClassifyModel derives the media type from a model name by substring
// matching. Video tokens are checked before image tokens; the tie-break
// order is load-bearing (a model named "sora-image" is a video model).
// Unrecognized names default to text.
func ClassifyModel(model string) MediaType {
	m := strings.ToLower(model)
	for _, token := range videoTokens {
		if strings.Contains(m, token) {
			return MediaTypeVideo
		}
	}
	for _, token := range imageTokens {
		if strings.Contains(m, token) {
			return MediaTypeImage
		}
	}
	return MediaTypeText
}
