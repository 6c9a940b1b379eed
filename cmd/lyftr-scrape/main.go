package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/use-agent/lyftr/config"
	"github.com/use-agent/lyftr/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewMain().Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct{}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	URL       string `arg:"" required:"" help:"Page to scrape (http or https)"`
	Selector  string `short:"s" help:"Restrict sections to elements matching this CSS selector"`
	Markdown  bool   `short:"m" help:"Include a Markdown rendering of each section"`
	NoBrowser bool   `help:"Never launch a browser; thin pages keep their static result"`
	Config    string `short:"c" type:"existingfile" help:"YAML configuration file"`
	Pretty    bool   `short:"p" help:"Indent the JSON output"`
	Verbose   bool   `short:"v" help:"Log progress to stderr"`
}

// Run parses args, scrapes one page and writes the result as JSON to
// stdout. Scrape failures are part of the result, not an error.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("lyftr-scrape"),
		kong.Description("Extract structured sections from a web page"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	if u, err := url.Parse(cli.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("only absolute http(s) URLs are supported: %q", cli.URL)
	}

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.LoadFrom(cli.Config)
	if err != nil {
		return err
	}
	if cli.NoBrowser {
		cfg.Browser.Enabled = false
	}

	p, browser := pipeline.Build(cfg)
	if browser != nil {
		defer browser.Close()
	}

	result := p.Run(ctx, pipeline.Request{
		URL:             cli.URL,
		CSSSelector:     cli.Selector,
		IncludeMarkdown: cli.Markdown,
	})

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	if cli.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
