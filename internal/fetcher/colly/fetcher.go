// Package collyfetcher implements news.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/dailynews-crawler/internal/news"
)

// DefaultUserAgent mimics a desktop Chrome build.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher implements news.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	// Index pages and articles share URLs across runs.
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	c.ParseHTTPErrorResponse = true
	c.DetectCharset = true
	// Clones share the backend client, so the timeout is set once here.
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// FetchHTML executes a single GET and returns the body as text.
func (f *Fetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	var (
		body     string
		fetchErr error
	)
	collector := f.buildCollector(url, &body, &fetchErr)
	if err := f.runCollector(ctx, collector, url, &fetchErr); err != nil {
		return "", err
	}
	return body, nil
}

func (f *Fetcher) buildCollector(url string, body *string, fetchErr *error) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.UserAgent = f.cfg.UserAgent
	collector.AllowURLRevisit = true
	collector.IgnoreRobotsTxt = true
	collector.ParseHTTPErrorResponse = true
	collector.DetectCharset = true
	f.configureCollectorHooks(collector, url, body, fetchErr)
	return collector
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	url string,
	body *string,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		setBrowserHeaders(r.Headers, url, f.cfg.UserAgent)
	})

	hooks.OnResponse(func(r *colly.Response) {
		if r.StatusCode < http.StatusOK || r.StatusCode >= http.StatusMultipleChoices {
			*fetchErr = &news.FetchError{
				URL:        url,
				StatusCode: r.StatusCode,
				Err:        fmt.Errorf("unexpected status %s", http.StatusText(r.StatusCode)),
			}
			return
		}
		*body = string(r.Body)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		*fetchErr = &news.FetchError{URL: url, StatusCode: status, Err: err}
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return &news.FetchError{URL: url, Err: fmt.Errorf("colly fetch canceled: %w", ctx.Err())}
	case err := <-done:
		if *fetchErr != nil {
			return *fetchErr
		}
		if err != nil {
			return &news.FetchError{URL: url, Err: fmt.Errorf("colly visit failed: %w", err)}
		}
		return nil
	}
}

// setBrowserHeaders applies the header set the origin expects from a browser.
func setBrowserHeaders(h *http.Header, url, userAgent string) {
	if h == nil {
		return
	}
	h.Set("Accept", "text/html, */*; q=0.01")
	h.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("User-Agent", userAgent)
	h.Set("Referer", url)
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
	}
}
