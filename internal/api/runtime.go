package api

import (
	"fmt"

	"github.com/JaimeStill/vantage/internal/config"
	"github.com/JaimeStill/vantage/internal/infrastructure"
	"github.com/JaimeStill/vantage/internal/model"
	"github.com/JaimeStill/vantage/internal/workflow"
	"github.com/JaimeStill/vantage/pkg/pagination"
)

// Runtime extends Infrastructure with API settings and the assessment
// pipeline. The classifier is built once and shared by every request.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination    pagination.Config
	MaxUploadSize int64
	Workflow      *workflow.Runtime
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	logger := infra.Logger.With("module", "api")

	classifier, err := model.New(&cfg.Model, logger)
	if err != nil {
		return nil, fmt.Errorf("model init failed: %w", err)
	}

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
		},
		Pagination:    cfg.API.Pagination,
		MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
		Workflow:      workflow.NewRuntime(cfg, classifier, infra.Storage, logger),
	}, nil
}
