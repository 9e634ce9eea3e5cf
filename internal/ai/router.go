package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"weav/internal/domain"
)

// Client is implemented once per external provider. Each method receives an
// already-validated request and returns the normalized result shape or one
// of the taxonomy errors.
type Client interface {
	GenerateText(ctx context.Context, req *TextRequest) (*domain.GenerationResult, error)
	GenerateImage(ctx context.Context, req *ImageRequest) (*domain.GenerationResult, error)
	GenerateVideo(ctx context.Context, req *VideoRequest) (*domain.GenerationResult, error)
}

// Router dispatches generation requests to the client registered for a
// provider. The registry is populated at construction and read-only
// afterwards, so concurrent executors share it without locking.
type Router struct {
	clients map[string]Client
}

// NewRouter builds a router over the given provider registry.
func NewRouter(clients map[string]Client) *Router {
	reg := make(map[string]Client, len(clients))
	for name, client := range clients {
		reg[name] = client
	}
	return &Router{clients: reg}
}

func (r *Router) client(provider string) (Client, error) {
	client, ok := r.clients[provider]
	if !ok {
		return nil, &ProviderError{Provider: provider, Message: "unsupported provider"}
	}
	return client, nil
}

// RouteAndRun validates arguments against the media type's schema and
// invokes the matching client method. Taxonomy errors pass through
// unchanged; anything else is wrapped as a ProviderError carrying the
// original message.
func (r *Router) RouteAndRun(ctx context.Context, provider string, mediaType MediaType, args json.RawMessage) (*domain.GenerationResult, error) {
	switch mediaType {
	case MediaTypeText:
		return r.GenerateText(ctx, provider, args)
	case MediaTypeImage:
		return r.GenerateImage(ctx, provider, args)
	case MediaTypeVideo:
		return r.GenerateVideo(ctx, provider, args)
	default:
		return nil, &ValidationError{Field: "media_type", Reason: fmt.Sprintf("unsupported media type %q", mediaType)}
	}
}

// GenerateText routes a text generation request.
func (r *Router) GenerateText(ctx context.Context, provider string, args json.RawMessage) (*domain.GenerationResult, error) {
	req, err := DecodeTextRequest(args)
	if err != nil {
		return nil, err
	}
	client, err := r.client(provider)
	if err != nil {
		return nil, err
	}
	result, err := client.GenerateText(ctx, req)
	if err != nil {
		return nil, classifyClientError(provider, err)
	}
	return result, nil
}

// GenerateImage routes an image generation request.
func (r *Router) GenerateImage(ctx context.Context, provider string, args json.RawMessage) (*domain.GenerationResult, error) {
	req, err := DecodeImageRequest(args)
	if err != nil {
		return nil, err
	}
	client, err := r.client(provider)
	if err != nil {
		return nil, err
	}
	result, err := client.GenerateImage(ctx, req)
	if err != nil {
		return nil, classifyClientError(provider, err)
	}
	return result, nil
}

// GenerateVideo routes a video generation request.
func (r *Router) GenerateVideo(ctx context.Context, provider string, args json.RawMessage) (*domain.GenerationResult, error) {
	req, err := DecodeVideoRequest(args)
	if err != nil {
		return nil, err
	}
	client, err := r.client(provider)
	if err != nil {
		return nil, err
	}
	result, err := client.GenerateVideo(ctx, req)
	if err != nil {
		return nil, classifyClientError(provider, err)
	}
	return result, nil
}

// classifyClientError re-raises taxonomy errors unchanged and wraps
// everything else as a generic provider error.
func classifyClientError(provider string, err error) error {
	var (
		validationErr *ValidationError
		providerErr   *ProviderError
		requestErr    *RequestError
		quotaErr      *QuotaExceededError
	)
	if errors.As(err, &validationErr) || errors.As(err, &providerErr) ||
		errors.As(err, &requestErr) || errors.As(err, &quotaErr) {
		return err
	}
	return &ProviderError{Provider: provider, Message: err.Error()}
}
