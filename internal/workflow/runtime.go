package workflow

import (
	"log/slog"
	"time"

	"github.com/JaimeStill/vantage/internal/config"
	"github.com/JaimeStill/vantage/internal/geometry"
	"github.com/JaimeStill/vantage/internal/model"
	"github.com/JaimeStill/vantage/internal/retry"
	"github.com/JaimeStill/vantage/pkg/storage"
)

// Runtime bundles the dependencies an assessment run requires.
// It is constructed by higher-level composition code and shared across runs.
type Runtime struct {
	Classifier    model.Classifier
	Storage       storage.System
	Projector     *geometry.Projector
	Retry         *retry.Controller
	BatchSize     int
	Concurrency   int
	BatchInterval time.Duration
	CallTimeout   time.Duration
	Logger        *slog.Logger
}

// NewRuntime builds a Runtime from the pipeline and model configuration.
func NewRuntime(
	cfg *config.Config,
	classifier model.Classifier,
	store storage.System,
	logger *slog.Logger,
) *Runtime {
	p := &cfg.Pipeline
	rc := &p.Retry

	controller := retry.New(
		retry.Policy{
			MaxAttempts:       rc.MaxAttempts,
			ValidationRetries: rc.ValidationRetriesValue(),
		},
		retry.WithBackoff(retry.Exponential{
			Base:             rc.BaseDelayDuration(),
			Max:              rc.MaxDelayDuration(),
			RateLimitPad:     rc.RateLimitPadDuration(),
			RateLimitDefault: rc.RateLimitDefaultDuration(),
			RateLimitMax:     rc.RateLimitMaxDuration(),
		}),
	)

	return &Runtime{
		Classifier:    classifier,
		Storage:       store,
		Projector:     geometry.NewProjector(p.MarginValue(), p.MinBoxPixelsValue()),
		Retry:         controller,
		BatchSize:     p.BatchSize,
		Concurrency:   p.Concurrency,
		BatchInterval: p.BatchIntervalDuration(),
		CallTimeout:   cfg.Model.TimeoutDuration(),
		Logger:        logger.With("workflow", "assess"),
	}
}
