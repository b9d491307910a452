package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "AIzaTestKey123"

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

type scriptedReply struct {
	status int
	body   string
	err    error
}

// scriptedDoer replays canned replies in order and records each request.
type scriptedDoer struct {
	replies  []scriptedReply
	requests []*http.Request
	bodies   []string
}

func (d *scriptedDoer) Do(req *http.Request) (*http.Response, error) {
	d.requests = append(d.requests, req)
	raw, _ := io.ReadAll(req.Body)
	d.bodies = append(d.bodies, string(raw))

	i := len(d.requests) - 1
	if i >= len(d.replies) {
		i = len(d.replies) - 1
	}
	r := d.replies[i]
	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(strings.NewReader(r.body)),
		Header:     make(http.Header),
	}, nil
}

func okBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return string(b)
}

func newTestClient(doer Doer, clock Clock) *GeminiClient {
	return NewGeminiClient(GeminiOptions{
		URL:         "https://gemini.test/v1beta/models/x:generateContent",
		MinInterval: time.Second,
		MaxAttempts: 3,
		BackoffBase: time.Second,
		Clock:       clock,
		HTTPClient:  doer,
	}, zerolog.Nop())
}

func TestGenerateSuccess(t *testing.T) {
	doer := &scriptedDoer{replies: []scriptedReply{{status: 200, body: okBody("SUITABILITY: GOOD")}}}
	clock := newFakeClock()
	c := newTestClient(doer, clock)

	text, err := c.Generate(context.Background(), "analyze \"this\"\nplease", testKey)
	require.NoError(t, err)
	assert.Equal(t, "SUITABILITY: GOOD", text)

	require.Len(t, doer.requests, 1)
	req := doer.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, testKey, req.Header.Get("X-goog-api-key"))
	assert.JSONEq(t, `{"contents":[{"parts":[{"text":"analyze \"this\"\nplease"}]}]}`, doer.bodies[0])
	assert.Empty(t, clock.Sleeps())
}

func TestGenerateRetriesRateLimitWithExponentialBackoff(t *testing.T) {
	doer := &scriptedDoer{replies: []scriptedReply{
		{status: 429, body: `{"error":{"code":429,"message":"Resource exhausted","status":"RESOURCE_EXHAUSTED"}}`},
		{status: 429, body: `{"error":{"code":429,"message":"Resource exhausted","status":"RESOURCE_EXHAUSTED"}}`},
		{status: 200, body: okBody("done")},
	}}
	clock := newFakeClock()
	c := newTestClient(doer, clock)

	text, err := c.Generate(context.Background(), "p", testKey)
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Len(t, doer.requests, 3)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, clock.Sleeps())
}

func TestGenerateRateLimitExhausted(t *testing.T) {
	doer := &scriptedDoer{replies: []scriptedReply{{status: 429, body: `{"error":{"message":"slow down"}}`}}}
	clock := newFakeClock()
	c := newTestClient(doer, clock)

	_, err := c.Generate(context.Background(), "p", testKey)

	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 3, rl.Attempts)
	assert.Len(t, doer.requests, 3)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, clock.Sleeps())

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ReasonRateLimited, pe.Reason)
}

func TestGenerateCredentialRejectedIsNotRetried(t *testing.T) {
	doer := &scriptedDoer{replies: []scriptedReply{{status: 403, body: `{"error":{"code":403,"message":"Permission denied"}}`}}}
	clock := newFakeClock()
	c := newTestClient(doer, clock)

	_, err := c.Generate(context.Background(), "p", testKey)

	var ce *CredentialError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, CredentialRejected, ce.Reason)
	assert.Len(t, doer.requests, 1)
	assert.Empty(t, clock.Sleeps())
}

func TestGenerateAPIKeyInvalidReason(t *testing.T) {
	body := `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT",
		"details":[{"@type":"type.googleapis.com/google.rpc.ErrorInfo","reason":"API_KEY_INVALID"}]}}`
	doer := &scriptedDoer{replies: []scriptedReply{{status: 400, body: body}}}
	c := newTestClient(doer, newFakeClock())

	_, err := c.Generate(context.Background(), "p", testKey)

	var ce *CredentialError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, CredentialRejected, ce.Reason)
	assert.Len(t, doer.requests, 1)
}

func TestGenerateLocalCredentialChecks(t *testing.T) {
	cases := []struct {
		name string
		key  string
		want CredentialReason
	}{
		{"blank", "   ", CredentialMissing},
		{"empty", "", CredentialMissing},
		{"wrong prefix", "sk-123", CredentialMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doer := &scriptedDoer{replies: []scriptedReply{{status: 200, body: okBody("x")}}}
			c := newTestClient(doer, newFakeClock())

			_, err := c.Generate(context.Background(), "p", tc.key)

			var ce *CredentialError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.want, ce.Reason)
			assert.Empty(t, doer.requests, "no request may be sent")
		})
	}
}

func TestGenerateCustomValidator(t *testing.T) {
	doer := &scriptedDoer{replies: []scriptedReply{{status: 200, body: okBody("ok")}}}
	c := NewGeminiClient(GeminiOptions{
		URL:        "https://gemini.test",
		Clock:      newFakeClock(),
		HTTPClient: doer,
		Validator:  KeyValidatorFunc(func(string) error { return nil }),
	}, zerolog.Nop())

	text, err := c.Generate(context.Background(), "p", "any-key")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestGenerateQuotaAndStatusErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		kind   TransportKind
	}{
		{"quota", 400, `{"error":{"message":"You exceeded your current quota"}}`, TransportQuota},
		{"server", 500, `{"error":{"message":"internal"}}`, TransportStatus},
		{"not found", 404, `not found`, TransportStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doer := &scriptedDoer{replies: []scriptedReply{{status: tc.status, body: tc.body}}}
			c := newTestClient(doer, newFakeClock())

			_, err := c.Generate(context.Background(), "p", testKey)

			var te *TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tc.kind, te.Kind)
			assert.Equal(t, tc.status, te.StatusCode)
			assert.Len(t, doer.requests, 1)
		})
	}
}

func TestGenerate429WithQuotaTextIsRateLimit(t *testing.T) {
	doer := &scriptedDoer{replies: []scriptedReply{
		{status: 429, body: `{"error":{"message":"Quota exceeded for requests per minute"}}`},
		{status: 200, body: okBody("fine")},
	}}
	c := newTestClient(doer, newFakeClock())

	text, err := c.Generate(context.Background(), "p", testKey)
	require.NoError(t, err)
	assert.Equal(t, "fine", text)
}

func TestGenerateEnvelopeErrors(t *testing.T) {
	bodies := map[string]string{
		"not json":      `<html>`,
		"no candidates": `{"candidates":[]}`,
		"no parts":      `{"candidates":[{"content":{"parts":[]}}]}`,
		"no text":       `{"candidates":[{"content":{"parts":[{"inlineData":{}}]}}]}`,
		"no content":    `{"candidates":[{}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			doer := &scriptedDoer{replies: []scriptedReply{{status: 200, body: body}}}
			c := newTestClient(doer, newFakeClock())

			_, err := c.Generate(context.Background(), "p", testKey)

			var te *TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, TransportEnvelope, te.Kind)
		})
	}
}

func TestGenerateNetworkError(t *testing.T) {
	boom := errors.New("connection reset")
	doer := &scriptedDoer{replies: []scriptedReply{{err: boom}}}
	c := newTestClient(doer, newFakeClock())

	_, err := c.Generate(context.Background(), "p", testKey)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, TransportNetwork, te.Kind)
	assert.ErrorIs(t, err, boom)
}

func TestGenerateThrottlesConsecutiveCalls(t *testing.T) {
	doer := &scriptedDoer{replies: []scriptedReply{{status: 200, body: okBody("x")}}}
	clock := newFakeClock()
	c := newTestClient(doer, clock)

	for i := 0; i < 3; i++ {
		_, err := c.Generate(context.Background(), "p", testKey)
		require.NoError(t, err)
	}

	assert.Equal(t, []time.Duration{time.Second, time.Second}, clock.Sleeps())
}

func TestGenerateZeroOptionsKeepThrottleAndBackoff(t *testing.T) {
	rateLimited := scriptedReply{status: 429, body: `{"error":{"code":429,"status":"RESOURCE_EXHAUSTED"}}`}
	doer := &scriptedDoer{replies: []scriptedReply{rateLimited, rateLimited, {status: 200, body: okBody("ok")}}}
	clock := newFakeClock()
	c := NewGeminiClient(GeminiOptions{
		URL:        "https://gemini.test/v1beta/models/x:generateContent",
		Clock:      clock,
		HTTPClient: doer,
	}, zerolog.Nop())

	_, err := c.Generate(context.Background(), "p", testKey)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, clock.Sleeps())

	_, err = c.Generate(context.Background(), "p", testKey)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, time.Second}, clock.Sleeps())
}

func TestGenerateDisabledWaits(t *testing.T) {
	rateLimited := scriptedReply{status: 429, body: `{"error":{"code":429}}`}
	doer := &scriptedDoer{replies: []scriptedReply{rateLimited, {status: 200, body: okBody("ok")}}}
	clock := newFakeClock()
	c := NewGeminiClient(GeminiOptions{
		URL:         "https://gemini.test/v1beta/models/x:generateContent",
		MinInterval: Disabled,
		BackoffBase: Disabled,
		Clock:       clock,
		HTTPClient:  doer,
	}, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := c.Generate(context.Background(), "p", testKey)
		require.NoError(t, err)
	}
	for _, d := range clock.Sleeps() {
		assert.Zero(t, d)
	}
}

func TestGenerateCancelledContext(t *testing.T) {
	doer := &scriptedDoer{replies: []scriptedReply{{status: 200, body: okBody("x")}}}
	c := newTestClient(doer, newFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Generate(ctx, "p", testKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, doer.requests)
}

func TestGenerateAgainstHTTPServer(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-goog-api-key")
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Contents) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, okBody("echo: "+req.Contents[0].Parts[0].Text))
	}))
	defer srv.Close()

	c := NewGeminiClient(GeminiOptions{URL: srv.URL, MinInterval: Disabled}, zerolog.Nop())

	text, err := c.Generate(context.Background(), "hello", testKey)
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", text)
	assert.Equal(t, testKey, gotKey)
}
