package provider

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sarahdemo/config"
	"sarahdemo/model"
)

// pingTimeout bounds the start-up reachability check.
const pingTimeout = 10 * time.Second

// Initialize creates the completion provider for the application from the
// [completion] section of the configuration.
//
// The backend is pinged once. A failed ping is logged as a warning and does
// not stop start-up: the demo routes still serve board listings and speech.
func Initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger) (model.Provider, error) {
	providerType := MapProviderIDToType(cfg.Completion.Provider)

	p, err := NewProvider(Config{
		Type:      providerType,
		BaseURL:   cfg.Completion.BaseURL,
		Model:     cfg.Completion.Model,
		APIKey:    cfg.Completion.APIKey,
		MaxTokens: cfg.Completion.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize %s provider: %w", providerType, err)
	}

	fields := []zap.Field{
		zap.String("provider", string(providerType)),
		zap.String("model", p.GetModel()),
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := p.Ping(pingCtx); err != nil {
		logger.Warn("completion provider unreachable, chat routes will fail until it recovers",
			append(fields, zap.Error(err))...)
		return p, nil
	}

	logger.Info("completion provider ready", fields...)
	return p, nil
}
