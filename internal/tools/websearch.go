package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/terminal-alpha-beta/hivebot/internal/conversation"
	"github.com/terminal-alpha-beta/hivebot/internal/textutil"
)

const (
	webSearchHTTPTimeout       = 10 * time.Second
	maxSearchDescriptionLength = 20
	maxWebSearchResults        = 3
	simplifiedResultPartition  = 1

	defaultBraveSearchBaseURL = "https://api.search.brave.com/res/v1/web/search"
)

type braveSearchResponse struct {
	Query braveSearchQuery `json:"query"`
	Web   braveWebResults  `json:"web"`
}

type braveSearchQuery struct {
	Original string `json:"original"`
}

type braveWebResults struct {
	Results []braveSearchResult `json:"results"`
}

type braveSearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// WebSearch queries the Brave Search API and formats up to 3 results as
// Title/URL/Description, exactly as fetch_web_search does: the first
// result's block is duplicated into both actual and simplified, the
// remaining two appear only in actual.
func WebSearch(ctx context.Context, client *http.Client, braveToken, query string) (conversation.ToolResultData, error) {
	return webSearch(ctx, client, defaultBraveSearchBaseURL, braveToken, query)
}

// webSearch is WebSearch parameterized over the Brave Search base URL so
// tests can point it at an httptest server.
func webSearch(ctx context.Context, client *http.Client, baseURL, braveToken, query string) (conversation.ToolResultData, error) {
	if client == nil {
		client = &http.Client{Timeout: webSearchHTTPTimeout}
	}

	searchURL := fmt.Sprintf("%s?q=%s", baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return conversation.ToolResultData{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", braveToken)

	resp, err := client.Do(req)
	if err != nil {
		return conversation.ToolResultData{}, fmt.Errorf("failed to connect to Brave Search API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return conversation.ToolResultData{}, fmt.Errorf("Brave Search API returned error status %s: %s", resp.Status, body)
	}

	var parsed braveSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return conversation.ToolResultData{}, fmt.Errorf("failed to parse Brave Search response: %w (check BRAVE_SEARCH_TOKEN)", err)
	}

	results := parsed.Web.Results
	if len(results) > maxWebSearchResults {
		results = results[:maxWebSearchResults]
	}

	formatted := make([]string, 0, len(results))
	for _, r := range results {
		title, u, desc := orNull(r.Title), orNull(r.URL), orNull(r.Description)
		desc = textutil.Truncate(desc, maxSearchDescriptionLength)
		formatted = append(formatted, fmt.Sprintf("Title: %s\nURL to visit: %s\nDescription: %s\n\n", title, u, desc))
	}

	var primary, secondary []string
	if len(formatted) > simplifiedResultPartition {
		primary, secondary = formatted[:simplifiedResultPartition], formatted[simplifiedResultPartition:]
	} else {
		primary = formatted
	}

	simplified := fmt.Sprintf("WEB SEARCH TOOL RESULT: Search Results for %s:\n%s", parsed.Query.Original, strings.Join(primary, "\n"))
	actual := fmt.Sprintf("%s\n%s", simplified, strings.Join(secondary, "\n"))

	return conversation.ToolResultData{Actual: actual, Simplified: simplified}, nil
}

func orNull(s string) string {
	if s == "" {
		return "null"
	}
	return s
}
