package ai

import (
	"strings"
	"time"

	"github.com/fdg312/food-advisor/internal/config"
	"github.com/rs/zerolog"
)

const (
	ModeMock   = "mock"
	ModeGemini = "gemini"
)

func NewClient(cfg config.AIConfig, logger zerolog.Logger) Client {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = ModeMock
	}

	switch mode {
	case ModeGemini:
		return NewGeminiClient(GeminiOptions{
			URL:         cfg.GeminiAPIURL,
			Timeout:     cfg.Timeout(),
			MinInterval: orDisabled(cfg.MinInterval()),
			MaxAttempts: cfg.MaxAttempts,
			BackoffBase: orDisabled(cfg.BackoffBase()),
			Validator:   PrefixValidator(cfg.KeyPrefix),
		}, logger)
	default:
		return NewMockClient()
	}
}

// orDisabled keeps an explicit AI_*_MS=0 meaning "no wait".
func orDisabled(d time.Duration) time.Duration {
	if d <= 0 {
		return Disabled
	}
	return d
}
