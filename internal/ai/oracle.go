package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/ObiAU/techpulse/internal/cache"
	"github.com/ObiAU/techpulse/internal/config"
	"github.com/ObiAU/techpulse/internal/logger"
)

var (
	ErrOracleDisabled    = errors.New("oracle disabled: no credential configured")
	ErrMalformedResponse = errors.New("malformed oracle response")
	ErrEmptyResponse     = errors.New("empty oracle response")
)

// Oracle turns an instruction plus a payload into a JSON object. Answers are
// untrusted: callers validate the shape they expect on the returned Result.
type Oracle interface {
	Classify(ctx context.Context, instruction, payload string) (*Result, error)
}

// New builds the oracle selected by cfg. It returns a nil Oracle and no error
// when the provider has no credential; callers treat that as "disabled".
func New(ctx context.Context, cfg *config.Config, store cache.Store, log *logger.Logger) (Oracle, error) {
	if !cfg.OracleEnabled() {
		log.Warn("oracle credential missing, oracle-dependent charts will be empty",
			logger.String("provider", cfg.Oracle.Provider))
		return nil, nil
	}

	var oracle Oracle
	switch cfg.Oracle.Provider {
	case "gemini":
		gc, err := NewGeminiClient(ctx, cfg.Oracle.GeminiAPIKey, cfg.Oracle.GeminiModel, cfg.Oracle.Timeout)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		oracle = gc
	default:
		oracle = NewOpenAIClient(cfg.Oracle.OpenAIAPIKey, cfg.Oracle.OpenAIModel, cfg.Oracle.Timeout)
	}

	if store != nil {
		oracle = NewCachedOracle(oracle, store, cfg.Cache.TTL, log)
	}

	log.Info("oracle ready", logger.String("provider", cfg.Oracle.Provider), logger.Bool("cached", store != nil))
	return oracle, nil
}
