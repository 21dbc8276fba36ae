// Package asrclient hands rendered condensed chunks to a downstream ASR
// backend. It is a thin pass-through, not a transcription engine: a
// single model, no diarization, no streaming. Operators wanting those
// belong downstream of this core, per the pipeline's scope boundary.
// Transient failures are retried with the same exponential backoff the
// teacher's transcription client uses.
package asrclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/duskwave/condense/internal/asrretry"
	"github.com/duskwave/condense/internal/segment"
)

const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Client transcribes rendered chunks via an OpenAI-compatible
// audio-transcriptions endpoint.
type Client struct {
	api        *openai.Client
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides the transcription model name. Defaults to
// openai.Whisper1.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint other
// than api.openai.com, for local or self-hosted ASR servers.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithMaxRetries sets the maximum number of retry attempts for transient
// failures (rate limits, timeouts).
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// New creates a Client authenticated with apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		model:      openai.Whisper1,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := openai.DefaultConfig(c.apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	c.api = openai.NewClientWithConfig(cfg)

	return c
}

// Transcript pairs a rendered chunk's position with its transcribed
// text, so a caller can reassemble chunk order without re-deriving it
// from filenames.
type Transcript struct {
	Index int
	Text  string
}

// TranscribeChunk sends a single rendered chunk's audio file to the
// configured backend and returns the transcribed text, retrying
// transient failures with exponential backoff.
func (c *Client) TranscribeChunk(ctx context.Context, chunk segment.RenderedChunk) (Transcript, error) {
	cfg := asrretry.BackoffPolicy{MaxRetries: c.maxRetries, BaseDelay: c.baseDelay, MaxDelay: c.maxDelay}

	resp, err := asrretry.WithBackoff(ctx, cfg, func() (openai.AudioResponse, error) {
		resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
			Model:    c.model,
			FilePath: chunk.Path,
		})
		if err != nil {
			return openai.AudioResponse{}, classifyError(err)
		}
		return resp, nil
	}, isRetryableError)
	if err != nil {
		return Transcript{}, fmt.Errorf("transcribe chunk %d: %w", chunk.Index, err)
	}

	return Transcript{Index: chunk.Index, Text: resp.Text}, nil
}

// TranscribeAll transcribes every chunk sequentially and returns the
// results in chunk order. It stops at the first failure: a caller that
// needs partial-result tolerance should call TranscribeChunk directly.
func (c *Client) TranscribeAll(ctx context.Context, chunks []segment.RenderedChunk) ([]Transcript, error) {
	out := make([]Transcript, 0, len(chunks))
	for _, chunk := range chunks {
		t, err := c.TranscribeChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// classifyError maps an OpenAI API error to an asrretry sentinel so
// isRetryableError can decide without knowing provider-specific types.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 400:
			return fmt.Errorf("%s: %w", apiErr.Message, asrretry.ErrBadRequest)
		case 429:
			return fmt.Errorf("%s: %w", apiErr.Message, asrretry.ErrRateLimit)
		case 401:
			return fmt.Errorf("%s: %w", apiErr.Message, asrretry.ErrAuthFailed)
		case 402:
			return fmt.Errorf("%s: %w", apiErr.Message, asrretry.ErrQuotaExceeded)
		case 408, 504:
			return fmt.Errorf("%s: %w", apiErr.Message, asrretry.ErrTimeout)
		case 500, 502, 503:
			return fmt.Errorf("%s: %w", apiErr.Message, asrretry.ErrTimeout)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", asrretry.ErrTimeout)
	}

	return err
}

// isRetryableError reports whether a classified transcription failure is
// worth retrying. A bad request (malformed or unsupported chunk audio)
// never improves by resubmitting the same file, so it is deliberately
// excluded even though it reaches this client as a 4xx like rate limiting.
func isRetryableError(err error) bool {
	return errors.Is(err, asrretry.ErrRateLimit) || errors.Is(err, asrretry.ErrTimeout)
}
