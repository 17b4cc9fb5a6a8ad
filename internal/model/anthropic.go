package model

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ProviderAnthropic selects the Anthropic Messages API.
const ProviderAnthropic = "anthropic"

type anthropicClassifier struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    *slog.Logger
}

// New creates a Classifier for the configured provider.
func New(cfg *Config, logger *slog.Logger) (Classifier, error) {
	switch cfg.Provider {
	case ProviderAnthropic:
		return newAnthropic(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}

func newAnthropic(cfg *Config, logger *slog.Logger) *anthropicClassifier {
	// Retries are owned by the retry controller, not the SDK.
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &anthropicClassifier{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Name,
		maxTokens: cfg.MaxTokens,
		logger:    logger.With("system", "model", "provider", ProviderAnthropic),
	}
}

func (a *anthropicClassifier) Name() string {
	return a.model
}

func (a *anthropicClassifier) Classify(
	ctx context.Context,
	images ImagePair,
	descriptors []Descriptor,
) ([]Prediction, error) {
	mediaType := images.MediaType
	if mediaType == "" {
		mediaType = "image/png"
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock("PRE-DISASTER IMAGE:"),
				anthropic.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(images.Pre)),
				anthropic.NewTextBlock("POST-DISASTER IMAGE:"),
				anthropic.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(images.Post)),
				anthropic.NewTextBlock(Prompt(descriptors)),
			),
		},
	})
	if err != nil {
		return nil, classifyError(ctx, err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	a.logger.InfoContext(
		ctx, "model response",
		"buildings", len(descriptors),
		"size", text.Len(),
		"tokens_in", message.Usage.InputTokens,
		"tokens_out", message.Usage.OutputTokens,
		"stop_reason", message.StopReason,
	)

	return Validate(text.String())
}

// classifyError maps SDK failures onto the retryable error kinds.
// Context cancellation and client errors other than 408 and 429 pass through
// unchanged and are not retried.
func classifyError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return &RateLimitError{RetryAfter: retryAfter(apiErr.Response), Err: err}
		case apiErr.StatusCode == http.StatusRequestTimeout, apiErr.StatusCode >= 500:
			return &TransportError{StatusCode: apiErr.StatusCode, Err: err}
		default:
			return err
		}
	}

	return &TransportError{Err: err}
}

func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(time.Until(t), 0)
	}
	return 0
}
