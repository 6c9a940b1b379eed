package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/lyftr/models"
)

func main() {
	apiURL := os.Getenv("LYFTR_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("LYFTR_API_KEY")

	s := newServer(apiURL, apiKey, &http.Client{Timeout: 120 * time.Second})
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(apiURL, apiKey string, client *http.Client) *server.MCPServer {
	s := server.NewMCPServer(
		"lyftr",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	tool := mcp.NewTool("scrape_sections",
		mcp.WithDescription("Scrape a web page into classified sections (hero, nav, pricing, faq, ...) with headings, text, links, lists and tables. Thin or JavaScript-driven pages are rendered in a headless browser, with tabs, load-more buttons and scrolling exercised automatically."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The http(s) URL of the page to scrape"),
		),
		mcp.WithString("css_selector",
			mcp.Description("Only build sections from elements matching this CSS selector"),
		),
		mcp.WithBoolean("include_markdown",
			mcp.Description("Return each section as Markdown instead of plain text"),
		),
		mcp.WithString("format",
			mcp.Description("'summary' (default) for a readable digest, 'json' for the full result"),
			mcp.Enum("summary", "json"),
		),
	)
	s.AddTool(tool, handleScrapeSections(apiURL, apiKey, client))
	return s
}

func handleScrapeSections(apiURL, apiKey string, client *http.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := models.ScrapeRequest{
			URL:             url,
			CSSSelector:     request.GetString("css_selector", ""),
			IncludeMarkdown: request.GetBool("include_markdown", false),
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.ScrapeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if resp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)), nil
		}
		if resp.Result == nil {
			return mcp.NewToolResultError("empty response from API"), nil
		}

		if request.GetString("format", "summary") == "json" {
			out, err := json.MarshalIndent(resp.Result, "", "  ")
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
			}
			return mcp.NewToolResultText(string(out)), nil
		}
		return mcp.NewToolResultText(summarize(resp.Result, payload.IncludeMarkdown)), nil
	}
}

// apiPost sends a POST request to the lyftr API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// summarize renders a result as a compact, model-friendly digest.
func summarize(res *models.ScrapeResult, markdown bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nSource: %s\n", res.Meta.Title, res.URL)
	if res.Meta.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", res.Meta.Description)
	}
	if n := len(res.Interactions.Clicks); n > 0 || res.Interactions.Scrolls > 0 {
		fmt.Fprintf(&b, "Rendered: %d clicks, %d scrolls\n", n, res.Interactions.Scrolls)
	}

	for _, sec := range res.Sections {
		fmt.Fprintf(&b, "\n## [%s] %s\n\n", sec.Type, sec.Label)
		body := sec.Content.Text
		if markdown && sec.Markdown != "" {
			body = sec.Markdown
		}
		b.WriteString(strings.TrimSpace(body))
		b.WriteString("\n")
	}

	if len(res.Errors) > 0 {
		b.WriteString("\n---\nErrors:\n")
		for _, e := range res.Errors {
			fmt.Fprintf(&b, "- (%s) %s\n", e.Phase, e.Message)
		}
	}
	return b.String()
}
