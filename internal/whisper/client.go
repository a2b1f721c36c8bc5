package whisper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"audioscribe/internal/audio"
	"audioscribe/internal/config"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
)

const stageName = "transcribing"

// Backend is the subset of the go-openai client used for transcription.
type Backend interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// Options pins the request parameters sent for every unit.
type Options struct {
	Model          string
	Language       string
	MaxUploadBytes int64
}

// Client transcribes single audio units.
type Client struct {
	backend Backend
	opts    Options
	logger  *slog.Logger
}

// New builds a Client backed by the OpenAI API using cfg credentials.
func New(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "init", "config is required", nil)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "init", "", err)
	}
	clientConfig := openai.DefaultConfig(cfg.Transcription.APIKey)
	if cfg.Transcription.BaseURL != "" {
		clientConfig.BaseURL = cfg.Transcription.BaseURL
	}
	backend := openai.NewClientWithConfig(clientConfig)
	return NewWithBackend(backend, Options{
		Model:          cfg.Transcription.Model,
		Language:       cfg.Transcription.Language,
		MaxUploadBytes: cfg.Transcription.MaxUploadBytes,
	}, logger), nil
}

// NewWithBackend builds a Client around an arbitrary backend.
func NewWithBackend(backend Backend, opts Options, logger *slog.Logger) *Client {
	if strings.TrimSpace(opts.Model) == "" {
		opts.Model = openai.Whisper1
	}
	if strings.TrimSpace(opts.Language) == "" {
		opts.Language = "en"
	}
	return &Client{
		backend: backend,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "whisper"),
	}
}

// Model returns the model name sent with each request.
func (c *Client) Model() string { return c.opts.Model }

// Transcribe submits unit and returns its result. The caller bounds the call
// with a deadline on ctx.
func (c *Client) Transcribe(ctx context.Context, unit audio.Unit) audio.Result {
	started := time.Now()
	result := c.transcribe(ctx, unit)
	result.Elapsed = time.Since(started)
	result.Attempts = 1
	return result
}

func (c *Client) transcribe(ctx context.Context, unit audio.Unit) audio.Result {
	logger := logging.WithContext(ctx, c.logger).With(logging.Int(logging.FieldOrdinal, unit.Ordinal))

	info, err := os.Stat(unit.Path)
	if err != nil {
		return audio.Failed(unit.Ordinal, services.Wrap(services.ErrTranscription, stageName, "stat unit", unit.Path, err))
	}
	if c.opts.MaxUploadBytes > 0 && info.Size() > c.opts.MaxUploadBytes {
		return audio.Failed(unit.Ordinal, services.Wrap(services.ErrTranscription, stageName, "upload",
			fmt.Sprintf("%s is %d bytes, above the %d byte limit", unit.Path, info.Size(), c.opts.MaxUploadBytes), nil))
	}
	if c.backend == nil {
		return audio.Failed(unit.Ordinal, services.Wrap(services.ErrTranscription, stageName, "upload", "no backend configured", nil))
	}

	logger.Debug("submitting unit",
		logging.String("path", unit.Path),
		logging.Int64("size_bytes", info.Size()),
		logging.String("model", c.opts.Model),
		logging.String("language", c.opts.Language),
	)
	response, err := c.backend.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.opts.Model,
		FilePath: unit.Path,
		Language: c.opts.Language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		classified := classify(ctx, err)
		logging.WarnWithContext(logger, "unit transcription failed", "transcription_failed",
			logging.Error(classified),
			logging.Bool("retryable", services.IsRetryable(classified)),
			logging.String(logging.FieldErrorHint, hintFor(classified)),
			logging.String(logging.FieldImpact, "unit text missing from transcript"),
		)
		return audio.Failed(unit.Ordinal, classified)
	}

	text := strings.TrimSpace(response.Text)
	logger.Debug("unit transcribed", logging.Int("chars", len(text)))
	return audio.Succeeded(unit.Ordinal, text)
}

// classify wraps a backend error in ErrTranscription, adding ErrTimeout or
// ErrTransient when the failure is worth retrying.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTranscription, stageName, "upload", "unit deadline exceeded", fmt.Errorf("%w: %w", services.ErrTimeout, err))
	case errors.Is(err, context.Canceled):
		return services.Wrap(services.ErrTranscription, stageName, "upload", "cancelled", err)
	}

	if status := statusCode(err); status != 0 {
		message := fmt.Sprintf("backend returned HTTP %d", status)
		switch {
		case status == http.StatusRequestTimeout:
			return services.Wrap(services.ErrTranscription, stageName, "upload", message, fmt.Errorf("%w: %w", services.ErrTimeout, err))
		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			return services.Wrap(services.ErrTranscription, stageName, "upload", message, fmt.Errorf("%w: %w", services.ErrTransient, err))
		default:
			return services.Wrap(services.ErrTranscription, stageName, "upload", message, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return services.Wrap(services.ErrTranscription, stageName, "upload", "network timeout", fmt.Errorf("%w: %w", services.ErrTimeout, err))
		}
		return services.Wrap(services.ErrTranscription, stageName, "upload", "network failure", fmt.Errorf("%w: %w", services.ErrTransient, err))
	}
	return services.Wrap(services.ErrTranscription, stageName, "upload", "", err)
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrTimeout):
		return "raise transcription.timeout_seconds or check network latency"
	case errors.Is(err, services.ErrTransient):
		return "backend is rate limiting or unavailable; raise transcription.max_attempts to retry"
	case statusCode(err) == http.StatusUnauthorized:
		return "check transcription.api_key or OPENAI_API_KEY"
	default:
		return "check logs for details"
	}
}
