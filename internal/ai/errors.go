package ai

import "fmt"

// ValidationError reports malformed or out-of-range request input. It is
// raised before any provider call and is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// ProviderError reports an authentication or configuration failure with a
// provider. It is not user-recoverable.
type ProviderError struct {
	Provider   string
	Message    string
	StatusCode int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
}

// RequestError reports a single failed provider call: a non-2xx response, a
// malformed body, or a transport failure. Eligible for redelivery-based
// retry by the surrounding task queue.
type RequestError struct {
	Provider   string
	Message    string
	StatusCode int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s failed: %s", e.Provider, e.Message)
}

// QuotaExceededError reports a rate or quota limit hit at the provider. It
// is distinguished from RequestError so operators can apply backoff policy
// differently.
type QuotaExceededError struct {
	Provider string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("provider %s quota exceeded", e.Provider)
}
