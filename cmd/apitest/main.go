// Command apitest runs a smoke suite against a running manseryeok API.
//
// Usage:
//
//	go run ./cmd/apitest -url http://localhost:8080 -key $API_KEY
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status     string `json:"status"`
	Convention struct {
		Zi           string `json:"zi"`
		YearBoundary string `json:"yearBoundary"`
	} `json:"convention"`
}

type Pillar struct {
	Label string `json:"label"`
	Hanja string `json:"hanja"`
}

// ChartResponse is the part of POST /api/v1/saju the suite checks.
type ChartResponse struct {
	SolarDateUsed      string            `json:"solarDateUsed"`
	LunarDateConverted string            `json:"lunarDateConverted"`
	Pillars            map[string]Pillar `json:"pillars"`
	Balance            string            `json:"balance"`
	Interpretation     string            `json:"interpretation"`
	CrossReference     *struct {
		SourceName string `json:"sourceName"`
		Agrees     bool   `json:"agrees"`
	} `json:"crossReference"`
}

// ConversionResponse is the response for the /lunar endpoints
type ConversionResponse struct {
	Solar     string `json:"solar"`
	Weekday   string `json:"weekday"`
	LunarText string `json:"lunarText"`
	DayPillar Pillar `json:"dayPillar"`
}

// TermsResponse is the response for /solar-terms/{year}
type TermsResponse struct {
	Year  int `json:"year"`
	Terms []struct {
		Name string    `json:"name"`
		Time time.Time `json:"time"`
	} `json:"terms"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	out          io.Writer
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL, apiKey string, verbose bool, out io.Writer) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		out:     out,
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Manseryeok API Smoke Suite")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "Base URL: %s\n", tr.baseURL)

	tr.testHealth()
	tr.testReferenceCharts()
	tr.testConversions()
	tr.testSolarTerms()
	tr.testEdgeCases()

	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health HealthResponse
	if err := tr.get("/health", &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	if health.Status == "healthy" {
		tr.recordSuccess(fmt.Sprintf("Health check passed (zi=%s, year=%s)",
			health.Convention.Zi, health.Convention.YearBoundary))
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testReferenceCharts() {
	tr.printSection("Reference Charts")

	testCases := []struct {
		name     string
		body     map[string]interface{}
		wantUsed string
		want     [4]string
	}{
		{
			name:     "solar 1990-01-27 12:00",
			body:     map[string]interface{}{"date": "1990-01-27", "time": "12:00"},
			wantUsed: "1990-01-27",
			want:     [4]string{"기사", "정축", "임진", "병오"},
		},
		{
			name:     "lunar 1990-01-01 12:00",
			body:     map[string]interface{}{"date": "1990-01-01", "time": "12:00", "calendarSystem": "lunar"},
			wantUsed: "1990-01-27",
			want:     [4]string{"기사", "정축", "임진", "병오"},
		},
		{
			name:     "설날 2024 noon",
			body:     map[string]interface{}{"date": "2024-02-10", "time": "12:00"},
			wantUsed: "2024-02-10",
			want:     [4]string{"갑진", "병인", "갑진", "경오"},
		},
	}

	for _, tc := range testCases {
		var chart ChartResponse
		if err := tr.post("/api/v1/saju", tc.body, &chart); err != nil {
			tr.recordError(tc.name, err.Error())
			continue
		}

		got := [4]string{
			chart.Pillars["year"].Label,
			chart.Pillars["month"].Label,
			chart.Pillars["day"].Label,
			chart.Pillars["hour"].Label,
		}
		if got != tc.want || chart.SolarDateUsed != tc.wantUsed {
			tr.recordError(tc.name, fmt.Sprintf("got %v on %s, want %v on %s", got, chart.SolarDateUsed, tc.want, tc.wantUsed))
			continue
		}
		tr.recordSuccess(fmt.Sprintf("%s: %s", tc.name, strings.Join(got[:], " ")))

		if tr.verbose {
			tr.printChartDetail(&chart)
		}
	}
}

func (tr *TestRunner) testConversions() {
	tr.printSection("Lunar Conversions")

	testCases := []struct {
		path      string
		wantSolar string
		wantLunar string
	}{
		{"/api/v1/lunar/to-solar?date=1990-01-01", "1990-01-27", "1990-01-01"},
		{"/api/v1/lunar/to-solar?date=2020-04-01&leap=true", "2020-05-23", "2020-04-01(윤)"},
		{"/api/v1/lunar/from-solar?date=2024-02-10", "2024-02-10", "2024-01-01"},
	}

	for _, tc := range testCases {
		var conv ConversionResponse
		if err := tr.get(tc.path, &conv); err != nil {
			tr.recordError(tc.path, err.Error())
			continue
		}
		if conv.Solar != tc.wantSolar || conv.LunarText != tc.wantLunar {
			tr.recordError(tc.path, fmt.Sprintf("got %s / %s, want %s / %s", conv.Solar, conv.LunarText, tc.wantSolar, tc.wantLunar))
			continue
		}
		tr.recordSuccess(fmt.Sprintf("solar %s (%s) = lunar %s, day %s",
			conv.Solar, conv.Weekday, conv.LunarText, conv.DayPillar.Label))
	}
}

func (tr *TestRunner) testSolarTerms() {
	tr.printSection("Solar Terms")

	var terms TermsResponse
	if err := tr.get("/api/v1/solar-terms/2024", &terms); err != nil {
		tr.recordError("Solar terms 2024", err.Error())
		return
	}
	if len(terms.Terms) != 12 {
		tr.recordError("Solar terms 2024", fmt.Sprintf("got %d terms, want 12", len(terms.Terms)))
		return
	}
	tr.recordSuccess(fmt.Sprintf("2024 has 12 month-opening terms, %s at %s",
		terms.Terms[1].Name, terms.Terms[1].Time.Format(time.RFC3339)))
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	testCases := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		wantCode string
	}{
		{"Impossible date rejected", "POST", "/api/v1/saju", map[string]string{"date": "1990-02-30", "time": "12:00"}, "InvalidDateTime"},
		{"Unknown timezone rejected", "POST", "/api/v1/saju", map[string]string{"date": "1990-01-27", "time": "12:00", "timezone": "Mars/Olympus"}, "InvalidTimezone"},
		{"Missing leap month rejected", "GET", "/api/v1/lunar/to-solar?date=2021-04-01&leap=true", nil, "UnsupportedLunarDate"},
		{"Date before table rejected", "GET", "/api/v1/lunar/from-solar?date=1899-12-31", nil, "OutOfSupportedRange"},
		{"Bad year rejected", "GET", "/api/v1/solar-terms/abc", nil, "BAD_REQUEST"},
	}

	for _, tc := range testCases {
		status, resp, err := tr.do(tc.method, tc.path, tc.body)
		if err != nil {
			tr.recordError(tc.name, err.Error())
			continue
		}
		if status != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != tc.wantCode {
			tr.recordError(tc.name, fmt.Sprintf("got HTTP %d %+v, want 400 %s", status, resp.Error, tc.wantCode))
			continue
		}
		tr.recordSuccess(tc.name)
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func (tr *TestRunner) get(path string, target interface{}) error {
	return tr.expectOK(http.MethodGet, path, nil, target)
}

func (tr *TestRunner) post(path string, body, target interface{}) error {
	return tr.expectOK(http.MethodPost, path, body, target)
}

func (tr *TestRunner) expectOK(method, path string, body, target interface{}) error {
	_, resp, err := tr.do(method, path, body)
	if err != nil {
		return err
	}

	if !resp.Success {
		errMsg := "unknown error"
		if resp.Error != nil {
			errMsg = resp.Error.Message
		}
		return fmt.Errorf("API error: %s", errMsg)
	}

	if err := json.Unmarshal(resp.Data, target); err != nil {
		return fmt.Errorf("parse data: %w", err)
	}
	return nil
}

func (tr *TestRunner) do(method, path string, body interface{}) (int, *APIResponse, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal error: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, tr.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if tr.apiKey != "" {
		req.Header.Set("X-API-Key", tr.apiKey)
	}

	resp, err := tr.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("parse error: %w", err)
	}
	return resp.StatusCode, &apiResp, nil
}

func (tr *TestRunner) printSection(name string) {
	fmt.Fprintln(tr.out)
	fmt.Fprintf(tr.out, "--- %s ---\n", name)
	fmt.Fprintln(tr.out)
}

func (tr *TestRunner) printChartDetail(c *ChartResponse) {
	fmt.Fprintf(tr.out, "    Lunar: %s\n", c.LunarDateConverted)
	fmt.Fprintf(tr.out, "    Balance: %s\n", c.Balance)
	fmt.Fprintf(tr.out, "    %s\n", c.Interpretation)
	if c.CrossReference != nil {
		fmt.Fprintf(tr.out, "    Cross reference: %s (agrees=%t)\n", c.CrossReference.SourceName, c.CrossReference.Agrees)
	}
	fmt.Fprintln(tr.out)
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Fprintf(tr.out, "  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Fprintf(tr.out, "  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Fprintln(tr.out)
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Summary")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "  Passed: %d\n", tr.successCount)
	fmt.Fprintf(tr.out, "  Failed: %d\n", tr.errorCount)
	fmt.Fprintln(tr.out)

	if tr.errorCount > 0 {
		fmt.Fprintln(tr.out, "Failures:")
		for _, err := range tr.errors {
			fmt.Fprintf(tr.out, "  • %s\n", err)
		}
		fmt.Fprintln(tr.out)
		fmt.Fprintf(tr.out, "Tests completed with %d failure(s)\n", tr.errorCount)
		return
	}
	fmt.Fprintln(tr.out, "All tests passed! ✓")
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	apiKey := flag.String("key", os.Getenv("API_KEY"), "API key for /api/v1 routes")
	verbose := flag.Bool("v", false, "Verbose output (show chart details)")
	flag.Parse()

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, *apiKey, *verbose, os.Stdout)
	runner.Run()

	// Exit with error code if tests failed
	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
