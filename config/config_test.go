package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LYFTR_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2000, cfg.Scraper.RawHTMLLimit)
	assert.Equal(t, 500, cfg.Scraper.StaticTextThreshold)
	assert.Equal(t, 20*time.Second, cfg.Scraper.HTTPTimeout)
	assert.Equal(t, 30*time.Second, cfg.Scraper.NavigationTimeout)
	assert.Equal(t, 3, cfg.Scraper.ScrollDepth)
	assert.Equal(t, 3, cfg.Scraper.MaxTabClicks)
	assert.Equal(t, 20, cfg.Scraper.MaxLoadMoreScan)
	assert.Equal(t, 1500*time.Millisecond, cfg.Scraper.ScrollSettle)
	assert.True(t, cfg.Browser.Enabled)
	assert.Equal(t, []string{"Font", "Media"}, cfg.Browser.BlockedResourceTypes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LYFTR_CONFIG_FILE", "")
	t.Setenv("LYFTR_RAW_HTML_LIMIT", "500")
	t.Setenv("LYFTR_HTTP_TIMEOUT", "5")
	t.Setenv("LYFTR_NAV_TIMEOUT", "1500ms")
	t.Setenv("LYFTR_API_KEYS", " a, ,b ")
	t.Setenv("LYFTR_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Scraper.RawHTMLLimit)
	assert.Equal(t, 5*time.Second, cfg.Scraper.HTTPTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Scraper.NavigationTimeout)
	assert.Equal(t, []string{"a", "b"}, cfg.Auth.APIKeys)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lyftr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
scraper:
  scrollDepth: 5
  tabSettle: 250ms
browser:
  maxSessions: 2
`), 0o600))

	t.Setenv("LYFTR_CONFIG_FILE", path)
	t.Setenv("LYFTR_SCROLL_DEPTH", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 1, cfg.Scraper.ScrollDepth)
	assert.Equal(t, 250*time.Millisecond, cfg.Scraper.TabSettle)
	assert.Equal(t, 2, cfg.Browser.MaxSessions)
	// Untouched fields keep their defaults.
	assert.Equal(t, 2000, cfg.Scraper.RawHTMLLimit)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("LYFTR_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.yaml")
}
