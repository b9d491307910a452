package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const maxResponseBytes = 1 << 20

// Doer is the subset of *http.Client the Gemini client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// KeyValidator checks a credential locally before any network call.
type KeyValidator interface {
	ValidateKey(key string) error
}

// KeyValidatorFunc adapts a plain function to KeyValidator.
type KeyValidatorFunc func(key string) error

func (f KeyValidatorFunc) ValidateKey(key string) error { return f(key) }

// PrefixValidator accepts keys that start with the given prefix.
type PrefixValidator string

func (p PrefixValidator) ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return &CredentialError{Reason: CredentialMissing, Message: "API key is not configured"}
	}
	if !strings.HasPrefix(key, string(p)) {
		return &CredentialError{Reason: CredentialMalformed, Message: "API key has an unexpected format"}
	}
	return nil
}

// Disabled turns off MinInterval or BackoffBase; zero means the default.
const Disabled time.Duration = -1

const (
	defaultMinInterval = time.Second
	defaultBackoffBase = time.Second
)

// GeminiOptions configures a GeminiClient. Zero values fall back to defaults:
// one call per second, backoff of 2^k seconds, three attempts.
type GeminiOptions struct {
	URL         string
	Timeout     time.Duration
	MinInterval time.Duration
	MaxAttempts int
	BackoffBase time.Duration
	Validator   KeyValidator
	Clock       Clock
	HTTPClient  Doer
}

// GeminiClient calls the generateContent endpoint with throttling and retry.
type GeminiClient struct {
	url         string
	maxAttempts int
	backoffBase time.Duration
	validator   KeyValidator
	clock       Clock
	throttle    *Throttle
	httpClient  Doer
	logger      zerolog.Logger
}

func NewGeminiClient(opts GeminiOptions, logger zerolog.Logger) *GeminiClient {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	opts.MinInterval = durationOr(opts.MinInterval, defaultMinInterval)
	opts.BackoffBase = durationOr(opts.BackoffBase, defaultBackoffBase)
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Validator == nil {
		opts.Validator = PrefixValidator("AIza")
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	return &GeminiClient{
		url:         opts.URL,
		maxAttempts: opts.MaxAttempts,
		backoffBase: opts.BackoffBase,
		validator:   opts.Validator,
		clock:       opts.Clock,
		throttle:    NewThrottle(opts.MinInterval, opts.Clock),
		httpClient:  opts.HTTPClient,
		logger:      logger.With().Str("component", "gemini").Logger(),
	}
}

// durationOr maps zero to def and Disabled (any negative) to no wait.
func durationOr(d, def time.Duration) time.Duration {
	switch {
	case d == 0:
		return def
	case d < 0:
		return 0
	}
	return d
}

// Generate sends the prompt and returns the model's text verbatim.
//
// Only rate-limited attempts are retried; the wait after failed attempt k is
// 2^k backoff units.
func (c *GeminiClient) Generate(ctx context.Context, prompt, credential string) (string, error) {
	if err := c.validator.ValidateKey(credential); err != nil {
		return "", err
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	var last *ProviderError
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.throttle.Acquire(ctx); err != nil {
			return "", &TransportError{Kind: TransportNetwork, Message: "throttle wait interrupted", Cause: err}
		}

		text, err := c.send(ctx, body, credential)
		if err == nil {
			c.logger.Debug().Int("attempt", attempt).Int("chars", len(text)).Msg("gemini reply received")
			return text, nil
		}

		var pe *ProviderError
		if !errors.As(err, &pe) {
			return "", err
		}
		if pe.Reason != ReasonRateLimited {
			c.logger.Warn().Int("status", pe.StatusCode).Str("reason", string(pe.Reason)).Msg("gemini request failed")
			return "", mapProviderError(pe)
		}

		last = pe
		if attempt == c.maxAttempts {
			break
		}
		wait := c.backoffBase * time.Duration(1<<attempt)
		c.logger.Warn().Int("attempt", attempt).Dur("backoff", wait).Msg("gemini rate limited, retrying")
		if err := c.clock.Sleep(ctx, wait); err != nil {
			return "", &TransportError{Kind: TransportNetwork, Message: "backoff wait interrupted", Cause: err}
		}
	}

	return "", &RateLimitError{Attempts: c.maxAttempts, Last: last}
}

// send performs one HTTP exchange. Non-2xx replies come back as *ProviderError.
func (c *GeminiClient) send(ctx context.Context, body []byte, credential string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Kind: TransportNetwork, Message: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-goog-api-key", credential)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Kind: TransportNetwork, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &TransportError{Kind: TransportNetwork, StatusCode: resp.StatusCode, Message: "read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classifyResponse(resp.StatusCode, respBody)
	}

	return extractText(respBody)
}

func extractText(body []byte) (string, error) {
	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &TransportError{Kind: TransportEnvelope, Message: "response is not valid JSON", Cause: err}
	}
	if len(parsed.Candidates) == 0 {
		return "", &TransportError{Kind: TransportEnvelope, Message: "response has no candidates"}
	}
	parts := parsed.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == nil {
		return "", &TransportError{Kind: TransportEnvelope, Message: "candidate has no text part"}
	}
	return *parts[0].Text, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}
