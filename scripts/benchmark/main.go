package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/lyftr/models"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "lyftr API base URL")
	apiKey = flag.String("api-key", "", "API key for authenticated requests")
	runs   = flag.Int("runs", 3, "Number of runs per URL for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Test URLs spanning static and script-heavy pages.
var testURLs = []struct {
	Label string
	URL   string
}{
	{"Static", "https://example.com"},
	{"Docs", "https://go.dev/doc/effective_go"},
	{"Blog", "https://go.dev/blog/go1.21"},
	{"News", "https://www.bbc.com/news"},
	{"SPA", "https://github.com/go-rod/rod"},
}

type runResult struct {
	Run       int    `json:"run"`
	TotalMs   int64  `json:"total_ms"`
	Sections  int    `json:"sections"`
	TextChars int    `json:"text_chars"`
	Rendered  bool   `json:"rendered"`
	Clicks    int    `json:"clicks"`
	Errors    int    `json:"errors"`
	OK        bool   `json:"ok"`
	Failure   string `json:"failure,omitempty"`
}

type urlAverages struct {
	TotalMs      float64 `json:"total_ms"`
	Sections     float64 `json:"sections"`
	TextChars    float64 `json:"text_chars"`
	RenderedRate float64 `json:"rendered_rate"`
}

type urlResult struct {
	URL      string       `json:"url"`
	Label    string       `json:"label"`
	Runs     []runResult  `json:"runs"`
	Averages *urlAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	fmt.Println("=== lyftr benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	client := &http.Client{Timeout: 3 * time.Minute}
	for _, t := range testURLs {
		fmt.Printf("Benchmarking [%s] %s ...\n", t.Label, t.URL)
		ur := urlResult{URL: t.URL, Label: t.Label}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkURL(client, t.URL, i)
			if rr.OK {
				fmt.Printf("OK  %dms  %d sections  rendered=%v\n", rr.TotalMs, rr.Sections, rr.Rendered)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Failure)
			}
			ur.Runs = append(ur.Runs, rr)
		}

		ur.Averages = computeAverages(ur.Runs)
		report.Results = append(report.Results, ur)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkURL(client *http.Client, url string, run int) runResult {
	rr := runResult{Run: run}

	body, err := json.Marshal(models.ScrapeRequest{URL: url})
	if err != nil {
		rr.Failure = fmt.Sprintf("marshal error: %v", err)
		return rr
	}
	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/scrape", bytes.NewReader(body))
	if err != nil {
		rr.Failure = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Failure = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var sr models.ScrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Failure = fmt.Sprintf("decode error: %v", err)
		return rr
	}
	rr.TotalMs = time.Since(start).Milliseconds()
	if sr.Error != nil {
		rr.Failure = sr.Error.Message
		return rr
	}
	if sr.Result == nil {
		rr.Failure = "empty result"
		return rr
	}
	fillRun(&rr, sr.Result)
	return rr
}

func fillRun(rr *runResult, res *models.ScrapeResult) {
	rr.OK = true
	rr.Sections = len(res.Sections)
	for _, s := range res.Sections {
		rr.TextChars += len([]rune(s.Content.Text))
	}
	rr.Clicks = len(res.Interactions.Clicks)
	rr.Rendered = res.Interactions.Scrolls > 0 || rr.Clicks > 0
	rr.Errors = len(res.Errors)
}

func computeAverages(runs []runResult) *urlAverages {
	var n float64
	var avg urlAverages
	for _, r := range runs {
		if !r.OK {
			continue
		}
		n++
		avg.TotalMs += float64(r.TotalMs)
		avg.Sections += float64(r.Sections)
		avg.TextChars += float64(r.TextChars)
		if r.Rendered {
			avg.RenderedRate++
		}
	}
	if n == 0 {
		return nil
	}
	avg.TotalMs /= n
	avg.Sections /= n
	avg.TextChars /= n
	avg.RenderedRate /= n
	return &avg
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tAvg Latency\tSections\tText Chars\tRendered\n")
	fmt.Fprintf(w, "───\t───────────\t────────\t──────────\t────────\n")
	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\n", truncateURL(r.URL, 40))
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%.1f\t%.0f\t%.0f%%\n",
			truncateURL(r.URL, 40),
			int64(r.Averages.TotalMs),
			r.Averages.Sections,
			r.Averages.TextChars,
			r.Averages.RenderedRate*100,
		)
	}
	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
