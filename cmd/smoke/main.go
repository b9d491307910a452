package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase = "http://localhost:8080"
)

var (
	apiBase      string
	token        string
	userID       string
	geminiKey    string
	client       = &http.Client{Timeout: 60 * time.Second}
	reportFormat string
	createdIDs   = make(map[string]string) // created resources for later steps
)

func main() {
	fmt.Println("=== Food Advisor E2E Smoke Test ===")
	fmt.Println()

	apiBase = strings.TrimRight(getEnv("API_BASE_URL", defaultAPIBase), "/")
	token = getEnv("SMOKE_TOKEN", "")
	userID = getEnv("SMOKE_USER_ID", "")
	geminiKey = getEnv("SMOKE_GEMINI_API_KEY", "AIzaSmokeTestKey")
	reportFormat = getEnv("SMOKE_REPORT_FORMAT", "csv")

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Printf("User ID: %s\n", maskString(userID))
	fmt.Printf("Gemini key: %s\n", maskString(geminiKey))
	fmt.Println()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Register User", testRegisterUser},
		{"Login", testLogin},
		{"Analyze Food", testAnalyze},
		{"History", testHistory},
		{"Create Report (" + reportFormat + ")", testCreateReport},
		{"List Reports", testListReports},
		{"Download Report", testDownloadReport},
		{"Delete Report", testDeleteReport},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	var out struct {
		Status string `json:"status"`
		AIMode string `json:"ai_mode"`
	}
	if err := doJSON(http.MethodGet, "/healthz", nil, http.StatusOK, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("status=%q", out.Status)
	}
	fmt.Printf("(ai_mode=%s) ", out.AIMode)
	return nil
}

func testRegisterUser() error {
	// Reuse an existing user when provided via env
	if userID != "" {
		return nil
	}

	email := fmt.Sprintf("smoke-%s@example.com", uuid.NewString()[:8])
	payload := map[string]interface{}{
		"email":             email,
		"name":              "Smoke Test",
		"age":               30,
		"gender":            "MALE",
		"weight_kg":         70,
		"height_cm":         175,
		"activity_level":    "MODERATELY_ACTIVE",
		"health_conditions": []string{"none"},
		"gemini_api_key":    geminiKey,
	}

	var out struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := doJSON(http.MethodPost, "/v1/users", payload, http.StatusCreated, &out); err != nil {
		return err
	}
	if out.ID == "" {
		return fmt.Errorf("empty user id")
	}
	userID = out.ID
	createdIDs["email"] = out.Email
	return nil
}

func testLogin() error {
	if token != "" || createdIDs["email"] == "" {
		return nil
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := doJSON(http.MethodPost, "/v1/auth/login", map[string]string{"email": createdIDs["email"]}, http.StatusOK, &out)
	if err != nil {
		// AUTH_MODE=none disables login; the rest runs with explicit user_id
		if strings.Contains(err.Error(), "status=404") {
			fmt.Printf("(auth disabled) ")
			return nil
		}
		return err
	}
	token = out.AccessToken
	return nil
}

func testAnalyze() error {
	payload := map[string]interface{}{
		"user_id":       userID,
		"food_name":     "Grilled chicken breast",
		"portion_grams": 200,
	}

	var out struct {
		Suitable               bool     `json:"suitable"`
		Suitability            string   `json:"suitability_score"`
		Recommended            float64  `json:"recommended_portion_grams"`
		PercentOfDailyCalories float64  `json:"percent_of_daily_calories"`
		Benefits               []string `json:"benefits"`
	}
	if err := doJSON(http.MethodPost, "/v1/analyses", payload, http.StatusOK, &out); err != nil {
		return err
	}
	if out.Suitability == "" {
		return fmt.Errorf("empty suitability_score")
	}
	fmt.Printf("(%s, %.0fg, %.1f%%) ", out.Suitability, out.Recommended, out.PercentOfDailyCalories)
	return nil
}

func testHistory() error {
	var out struct {
		Items []struct {
			ID       string `json:"id"`
			FoodName string `json:"food_name"`
		} `json:"items"`
	}
	if err := doJSON(http.MethodGet, "/v1/analyses?user_id="+userID+"&limit=5", nil, http.StatusOK, &out); err != nil {
		return err
	}
	if len(out.Items) == 0 {
		return fmt.Errorf("history is empty")
	}
	return nil
}

func testCreateReport() error {
	payload := map[string]interface{}{
		"user_id": userID,
		"format":  reportFormat,
	}

	var out struct {
		ID          string `json:"id"`
		DownloadURL string `json:"download_url"`
		ItemsCount  int    `json:"items_count"`
	}
	if err := doJSON(http.MethodPost, "/v1/reports", payload, http.StatusCreated, &out); err != nil {
		return err
	}
	if out.ID == "" {
		return fmt.Errorf("empty report id")
	}
	createdIDs["report"] = out.ID
	fmt.Printf("(items=%d) ", out.ItemsCount)
	return nil
}

func testListReports() error {
	var out struct {
		Reports []struct {
			ID string `json:"id"`
		} `json:"reports"`
	}
	if err := doJSON(http.MethodGet, "/v1/reports?user_id="+userID, nil, http.StatusOK, &out); err != nil {
		return err
	}
	for _, r := range out.Reports {
		if r.ID == createdIDs["report"] {
			return nil
		}
	}
	return fmt.Errorf("report %s not listed", createdIDs["report"])
}

func testDownloadReport() error {
	reportID := createdIDs["report"]
	if reportID == "" {
		return fmt.Errorf("no report ID to download")
	}

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/v1/reports/%s/download", apiBase, reportID), nil)
	if err != nil {
		return err
	}
	addAuth(req)

	// The client follows S3 redirects transparently
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("empty report body")
	}
	if reportFormat == "pdf" && !bytes.HasPrefix(data, []byte("%PDF")) {
		return fmt.Errorf("body is not a PDF")
	}
	fmt.Printf("(%d bytes) ", len(data))
	return nil
}

func testDeleteReport() error {
	reportID := createdIDs["report"]
	if reportID == "" {
		return fmt.Errorf("no report ID to delete")
	}
	return doJSON(http.MethodDelete, "/v1/reports/"+reportID, nil, http.StatusNoContent, nil)
}

// Helper functions

// doJSON sends payload as JSON and decodes the response into out when non-nil.
func doJSON(method, path string, payload interface{}, wantStatus int, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
