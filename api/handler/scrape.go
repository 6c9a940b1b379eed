package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/lyftr/models"
	"github.com/use-agent/lyftr/pipeline"
)

// Runner executes one scrape. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) *models.ScrapeResult
}

// Scrape returns a handler for POST /api/v1/scrape.
//
// Malformed requests are rejected with 400. Anything that gets past
// validation is answered with 200 and a result, whatever went wrong while
// scraping; those failures are listed in result.errors.
func Scrape(runner Runner) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}
		if err := validateURL(req.URL); err != nil {
			respondError(c, err)
			return
		}

		result := runner.Run(c.Request.Context(), pipeline.Request{
			URL:             req.URL,
			CSSSelector:     strings.TrimSpace(req.CSSSelector),
			IncludeMarkdown: req.IncludeMarkdown,
		})

		slog.Info("scrape done",
			"url", req.URL,
			"sections", len(result.Sections),
			"errors", len(result.Errors),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"),
		)
		c.JSON(http.StatusOK, models.ScrapeResponse{Result: result})
	}
}

// validateURL accepts absolute http and https URLs only.
func validateURL(raw string) *models.ScrapeError {
	u, err := url.Parse(raw)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "invalid url", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "only http(s) URLs are supported", nil)
	}
	if u.Host == "" {
		return models.NewScrapeError(models.ErrCodeInvalidInput, "url has no host", nil)
	}
	return nil
}

// respondError maps a ScrapeError to its HTTP status and writes the
// structured error body.
func respondError(c *gin.Context, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}
	c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeResponse{Error: scrapeErr.ToDetail()})
}

func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
