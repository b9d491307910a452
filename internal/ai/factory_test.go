package ai

import (
	"testing"
	"time"

	"github.com/fdg312/food-advisor/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewClientSelectsByMode(t *testing.T) {
	_, isMock := NewClient(config.AIConfig{Mode: ""}, zerolog.Nop()).(*MockClient)
	assert.True(t, isMock)

	c := NewClient(config.AIConfig{
		Mode:          "gemini",
		GeminiAPIURL:  config.DefaultGeminiAPIURL,
		KeyPrefix:     "AIza",
		MinIntervalMS: 1000,
		MaxAttempts:   3,
		BackoffBaseMS: 1000,
	}, zerolog.Nop())
	g, ok := c.(*GeminiClient)
	if assert.True(t, ok) {
		assert.Equal(t, 3, g.maxAttempts)
		assert.Equal(t, config.DefaultGeminiAPIURL, g.url)
		assert.Equal(t, time.Second, g.backoffBase)
	}
}

func TestNewClientZeroWaitsMeanDisabled(t *testing.T) {
	c := NewClient(config.AIConfig{Mode: "gemini", GeminiAPIURL: "https://gemini.test", KeyPrefix: "AIza"}, zerolog.Nop())
	g, ok := c.(*GeminiClient)
	if assert.True(t, ok) {
		assert.Zero(t, g.backoffBase)
	}
}
