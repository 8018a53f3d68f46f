package commands

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/querymodel/internal/cli/config"
	"github.com/conduit-lang/querymodel/internal/orm/planner"
	"github.com/conduit-lang/querymodel/internal/orm/schema"
)

// environment is what every model command needs
type environment struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *schema.Registry
	planner  *planner.Planner
}

func loadEnvironment() (*environment, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	path := cfg.ModelPath()
	if modelPath != "" {
		path = modelPath
	}

	registry, err := schema.LoadModelFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", path, err)
	}
	logger.Debug("loaded model",
		zap.String("path", path),
		zap.Int("entities", len(registry.EntityNames())),
		zap.Int("collections", len(registry.CollectionRoles())))

	p, err := planner.New(registry, cfg.PlannerOptions(), logger)
	if err != nil {
		return nil, err
	}

	return &environment{cfg: cfg, logger: logger, registry: registry, planner: p}, nil
}

func (e *environment) close() {
	_ = e.logger.Sync()
}
