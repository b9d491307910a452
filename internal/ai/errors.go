package ai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// maxProviderMessage caps the provider message kept on a ProviderError, in runes.
const maxProviderMessage = 300

// CredentialReason tells why a credential was refused.
type CredentialReason string

const (
	CredentialMissing   CredentialReason = "missing"
	CredentialMalformed CredentialReason = "malformed"
	CredentialRejected  CredentialReason = "rejected"
)

// CredentialError is returned when the key is absent, malformed or refused by the provider.
type CredentialError struct {
	Reason  CredentialReason
	Message string
}

func (e *CredentialError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("credential %s: %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("credential %s", e.Reason)
}

// RateLimitError is returned once the retry budget is spent on rate-limited attempts.
type RateLimitError struct {
	Attempts int
	Last     error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded after %d attempts", e.Attempts)
}

func (e *RateLimitError) Unwrap() error { return e.Last }

// TransportKind classifies non-retryable provider failures.
type TransportKind string

const (
	TransportQuota    TransportKind = "quota"
	TransportEnvelope TransportKind = "envelope"
	TransportNetwork  TransportKind = "network"
	TransportStatus   TransportKind = "status"
)

// TransportError covers every provider failure that is neither a credential nor a rate-limit problem.
type TransportError struct {
	Kind       TransportKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("gemini %s error (status %d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("gemini %s error: %s", e.Kind, msg)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// ProviderReason is the classification of a non-2xx provider reply.
type ProviderReason string

const (
	ReasonRateLimited    ProviderReason = "rate_limited"
	ReasonInvalidKey     ProviderReason = "invalid_key"
	ReasonQuotaExhausted ProviderReason = "quota_exhausted"
	ReasonUnavailable    ProviderReason = "unavailable"
	ReasonUnknown        ProviderReason = "unknown"
)

// ProviderError is the typed form of a failed HTTP exchange with the provider.
type ProviderError struct {
	StatusCode int
	Reason     ProviderReason
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("gemini error (status %d, %s): %s", e.StatusCode, e.Reason, e.Message)
}

// errorEnvelope mirrors the google.rpc.Status body returned by Gemini on failure.
type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}

// classifyResponse turns a non-2xx status and body into a ProviderError.
// 429 wins over any quota wording in the message.
func classifyResponse(statusCode int, body []byte) *ProviderError {
	var env errorEnvelope
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		message = env.Error.Message
	}
	if r := []rune(message); len(r) > maxProviderMessage {
		message = string(r[:maxProviderMessage])
	}

	keyInvalid := false
	for _, d := range env.Error.Details {
		if d.Reason == "API_KEY_INVALID" {
			keyInvalid = true
			break
		}
	}

	reason := ReasonUnknown
	switch {
	case statusCode == http.StatusTooManyRequests:
		reason = ReasonRateLimited
	case statusCode == http.StatusForbidden || keyInvalid:
		reason = ReasonInvalidKey
	case strings.Contains(strings.ToLower(message), "quota"):
		reason = ReasonQuotaExhausted
	case statusCode >= 500:
		reason = ReasonUnavailable
	}

	return &ProviderError{StatusCode: statusCode, Reason: reason, Message: message}
}

// mapProviderError converts a classified provider failure into the public error taxonomy.
func mapProviderError(pe *ProviderError) error {
	switch pe.Reason {
	case ReasonInvalidKey:
		return &CredentialError{Reason: CredentialRejected, Message: pe.Message}
	case ReasonQuotaExhausted:
		return &TransportError{Kind: TransportQuota, StatusCode: pe.StatusCode, Message: pe.Message, Cause: pe}
	default:
		return &TransportError{Kind: TransportStatus, StatusCode: pe.StatusCode, Message: pe.Message, Cause: pe}
	}
}
