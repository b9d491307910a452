package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fdg312/food-advisor/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:                 "local",
		Port:                8080,
		AuthMode:            "none",
		ReportsMaxItems:     50,
		PortionDefaultGrams: 100,
		Blob:                config.BlobConfig{Mode: config.BlobModeLocal},
		AI:                  config.AIConfig{Mode: "mock"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	srv, err := New(context.Background(), cfg, zerolog.Nop(), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv.Handler()
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}

func registerBody(email string) map[string]any {
	return map[string]any{
		"email":             email,
		"name":              "Anna",
		"age":               30,
		"gender":            "FEMALE",
		"weight_kg":         60,
		"height_cm":         165,
		"activity_level":    "LIGHTLY_ACTIVE",
		"health_conditions": []string{"lactose intolerance"},
		"gemini_api_key":    "AIzaTestKey",
	}
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, testConfig())

	rr := call(t, h, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decode[map[string]string](t, rr)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "mock", resp["ai_mode"])
	assert.Equal(t, config.BlobModeLocal, resp["blob"])
}

func TestHealthzMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, testConfig())

	rr := call(t, h, http.MethodPost, "/healthz", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestAnalyzeHistoryReportFlow(t *testing.T) {
	h := newTestServer(t, testConfig())

	rr := call(t, h, http.MethodPost, "/v1/users", "", registerBody("anna@example.com"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	user := decode[struct {
		ID string `json:"id"`
	}](t, rr)
	require.NotEmpty(t, user.ID)

	rr = call(t, h, http.MethodPost, "/v1/analyses", "", map[string]any{
		"user_id":       user.ID,
		"food_name":     "Grilled chicken salad",
		"portion_grams": 250,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rec := decode[struct {
		FoodName    string   `json:"food_name"`
		Suitability string   `json:"suitability_score"`
		Benefits    []string `json:"benefits"`
	}](t, rr)
	assert.Equal(t, "Grilled chicken salad", rec.FoodName)
	assert.NotEmpty(t, rec.Suitability)
	assert.NotNil(t, rec.Benefits)

	rr = call(t, h, http.MethodGet, "/v1/analyses?user_id="+user.ID, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	history := decode[struct {
		Items []json.RawMessage `json:"items"`
	}](t, rr)
	assert.Len(t, history.Items, 1)

	rr = call(t, h, http.MethodPost, "/v1/reports", "", map[string]any{"user_id": user.ID, "format": "csv"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	report := decode[struct {
		ID          string `json:"id"`
		DownloadURL string `json:"download_url"`
		ItemsCount  int    `json:"items_count"`
	}](t, rr)
	assert.Equal(t, 1, report.ItemsCount)
	assert.True(t, strings.HasSuffix(report.DownloadURL, "/v1/reports/"+report.ID+"/download"))

	rr = call(t, h, http.MethodGet, "/v1/reports/"+report.ID+"/download", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Grilled chicken salad")

	rr = call(t, h, http.MethodDelete, "/v1/reports/"+report.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = call(t, h, http.MethodGet, "/v1/reports/"+report.ID+"/download", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAnalyzeUnknownUser(t *testing.T) {
	h := newTestServer(t, testConfig())

	rr := call(t, h, http.MethodPost, "/v1/analyses", "", map[string]any{
		"user_id":   "8a4c1f9e-5d4e-4b1a-9a43-0d5c1f7e2b11",
		"food_name": "Apple",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLoginDisabledWithoutJWT(t *testing.T) {
	h := newTestServer(t, testConfig())

	rr := call(t, h, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "anna@example.com"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestJWTRequiredFlow(t *testing.T) {
	cfg := testConfig()
	cfg.AuthMode = "jwt"
	cfg.AuthRequired = true
	cfg.JWTSecret = "test-secret"
	cfg.JWTIssuer = "food-advisor-test"
	cfg.JWTTTLMinutes = 60
	h := newTestServer(t, cfg)

	rr := call(t, h, http.MethodPost, "/v1/users", "", registerBody("bob@example.com"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodPost, "/v1/analyses", "", map[string]any{"food_name": "Apple"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = call(t, h, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "Bob@Example.com"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	login := decode[struct {
		AccessToken string `json:"access_token"`
		UserID      string `json:"user_id"`
	}](t, rr)
	require.NotEmpty(t, login.AccessToken)

	rr = call(t, h, http.MethodGet, "/v1/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}](t, rr)
	assert.Equal(t, login.UserID, me.ID)
	assert.Equal(t, "bob@example.com", me.Email)

	rr = call(t, h, http.MethodPost, "/v1/analyses", login.AccessToken, map[string]any{"food_name": "Apple", "portion_grams": 150})
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = call(t, h, http.MethodGet, "/v1/analyses", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	history := decode[struct {
		Items []json.RawMessage `json:"items"`
	}](t, rr)
	assert.Len(t, history.Items, 1)

	rr = call(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
