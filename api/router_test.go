package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/use-agent/lyftr/config"
	"github.com/use-agent/lyftr/models"
	"github.com/use-agent/lyftr/pipeline"
)

type stubRunner struct{}

func (stubRunner) Run(_ context.Context, req pipeline.Request) *models.ScrapeResult {
	return &models.ScrapeResult{URL: req.URL}
}

func TestRouter_AuthGuardsScrapeNotHealth(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Defaults()
	cfg.Server.Mode = "test"
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = []string{"k"}
	r := NewRouter(ctx, stubRunner{}, nil, cfg, time.Now())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	body := `{"url":"https://example.com/"}`
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/scrape", strings.NewReader(body)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scrape", strings.NewReader(body))
	req.Header.Set("X-API-Key", "k")
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"result"`)
}
