package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/dailynews-crawler/internal/extract"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.Crawler.RequestTimeout)
	require.Equal(t, 500*time.Millisecond, cfg.Crawler.ArticleDelay)
	require.Equal(t, "Asia/Shanghai", cfg.Crawler.Timezone)
	require.Equal(t, extract.DefaultLayout(), cfg.Layout)
	require.Equal(t, "news_articles", cfg.DB.Table)
	require.Equal(t, BackendNone, cfg.Archive.Backend)
	require.Equal(t, 3*time.Second, cfg.Batch.Gap)
	require.Equal(t, 8080, cfg.Server.Port)

	hour, minute, err := cfg.Schedule.Clock()
	require.NoError(t, err)
	require.Equal(t, 20, hour)
	require.Equal(t, 30, minute)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, "Asia/Shanghai", loc.String())
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
logging:
  development: false
crawler:
  request_timeout: 10s
  article_delay: 1s
  timezone: UTC
layout:
  index_url: "https://mirror.example/xwlb/%s.html"
  content:
    selector: "article.body"
db:
  dsn: postgres://localhost/news
  max_conns: 8
archive:
  backend: local
  base_dir: /tmp/xwlb
notify:
  backend: pubsub
  project_id: news-project
  topic: crawls
batch:
  gap: 5s
schedule:
  at: "21:15"
server:
  port: 9090
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.False(t, cfg.Logging.Development)
	require.Equal(t, 10*time.Second, cfg.Crawler.RequestTimeout)
	require.Equal(t, time.Second, cfg.Crawler.ArticleDelay)
	require.Equal(t, "https://mirror.example/xwlb/%s.html", cfg.Layout.IndexURL)
	require.Equal(t, "article.body", cfg.Layout.Content.Selector)
	require.Equal(t, extract.DefaultLayout().Content.Fallback, cfg.Layout.Content.Fallback)
	require.Equal(t, extract.DefaultLayout().Title, cfg.Layout.Title)
	require.Equal(t, int32(8), cfg.DB.MaxConns)
	require.Equal(t, "/tmp/xwlb", cfg.Archive.BaseDir)
	require.Equal(t, "crawls", cfg.Notify.Topic)
	require.Equal(t, 5*time.Second, cfg.Batch.Gap)
	require.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "timezone", body: "crawler:\n  timezone: Mars/Olympus\n", want: "crawler.timezone"},
		{name: "schedule", body: "schedule:\n  at: \"25:99\"\n", want: "schedule.at"},
		{name: "archive backend", body: "archive:\n  backend: s3\n", want: "archive.backend"},
		{name: "local archive dir", body: "archive:\n  backend: local\n", want: "archive.base_dir"},
		{name: "gcs bucket", body: "archive:\n  backend: gcs\n", want: "archive.bucket"},
		{name: "pubsub project", body: "notify:\n  backend: pubsub\n", want: "notify.project_id"},
		{name: "layout", body: "layout:\n  index_url: http://tv.cctv.com/today.shtml\n", want: "layout.index_url"},
		{name: "port", body: "server:\n  port: 0\n", want: "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.body))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")
}
