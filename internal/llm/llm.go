package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"
)

// Client abstracts LLM providers for tender requirement extraction.
type Client interface {
	ExtractRequirements(ctx context.Context, input ExtractInput) (json.RawMessage, error)
}

// ExtractInput captures the inputs needed to extract requirements.
type ExtractInput struct {
	DocumentText  string
	ProjectName   string
	PromptVersion string
}

type fixJSONKey struct{}

// WithFixJSON returns a context signaling a fix-JSON retry with the given raw output.
func WithFixJSON(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, fixJSONKey{}, raw)
}

// FixJSONFromContext returns the raw JSON to repair, if any.
func FixJSONFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(fixJSONKey{})
	raw, ok := val.(string)
	return raw, ok
}

type promptHashKey struct{}

// WithPromptHashCapture asks the provider to write the prompt hash into sink.
func WithPromptHashCapture(ctx context.Context, sink *string) context.Context {
	return context.WithValue(ctx, promptHashKey{}, sink)
}

// PromptHashSinkFromContext returns the sink registered by WithPromptHashCapture.
func PromptHashSinkFromContext(ctx context.Context) (*string, bool) {
	sink, ok := ctx.Value(promptHashKey{}).(*string)
	return sink, ok
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// ExtractRequirements returns ErrNotImplemented.
func (PlaceholderClient) ExtractRequirements(ctx context.Context, input ExtractInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotImplemented
}

const retryBaseDelay = 300 * time.Millisecond

// OnRetry is called before the single retry attempt.
type OnRetry func(err error)

type retrying struct {
	base    Client
	delay   time.Duration
	onRetry OnRetry
}

// WithRetry wraps base so transient provider failures are retried once.
func WithRetry(base Client, onRetry OnRetry) Client {
	if base == nil {
		return nil
	}
	return retrying{base: base, delay: retryBaseDelay, onRetry: onRetry}
}

func (r retrying) ExtractRequirements(ctx context.Context, input ExtractInput) (json.RawMessage, error) {
	resp, err := r.base.ExtractRequirements(ctx, input)
	if err == nil || !ShouldRetry(err) {
		return resp, err
	}
	if r.onRetry != nil {
		r.onRetry(err)
	}
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return r.base.ExtractRequirements(ctx, input)
}

// ShouldRetry reports whether err looks like a transient transport failure.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") || strings.Contains(msg, "http status 429") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "llm") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	for _, marker := range []string{"connection reset", "connection refused", "connection closed", "broken pipe", "tls handshake timeout", "eof"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
