package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
)

type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type GraphQLResponse struct {
	Data   map[string]interface{}   `json:"data"`
	Errors []map[string]interface{} `json:"errors"`
}

// serverURL returns the base URL of a running server, skipping the test
// when none is configured. These tests exercise a live deployment with the
// seed data loaded; unit coverage lives next to the packages.
func serverURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("SORTABLE_E2E_URL")
	if url == "" {
		t.Skip("SORTABLE_E2E_URL not set, skipping end-to-end test")
	}
	return strings.TrimRight(url, "/")
}

// Helper to execute GraphQL queries
func gqlRequest(t *testing.T, query string, variables map[string]interface{}) GraphQLResponse {
	t.Helper()

	resp := gqlRequestRaw(t, query, variables, nil)
	if len(resp.Errors) > 0 {
		t.Fatalf("GraphQL returned errors: %+v", resp.Errors)
	}
	return resp
}

// gqlRequestRaw executes a query without failing on GraphQL errors, so
// tests can assert on the error payload itself.
func gqlRequestRaw(t *testing.T, query string, variables map[string]interface{}, headers map[string]string) GraphQLResponse {
	t.Helper()

	reqBody, err := json.Marshal(GraphQLRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, serverURL(t)+"/query", bytes.NewBuffer(reqBody))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to make request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}

	var gqlResp GraphQLResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		t.Fatalf("failed to parse response: %v\nRaw: %s", err, string(body))
	}
	return gqlResp
}
