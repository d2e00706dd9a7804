// Package crawler drives one day's crawl of the transcript origin and the
// runners built on top of it. All origin requests within a run are issued
// one at a time.
package crawler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dailynews-crawler/internal/extract"
	"github.com/JakeFAU/dailynews-crawler/internal/markdown"
	"github.com/JakeFAU/dailynews-crawler/internal/metrics"
	"github.com/JakeFAU/dailynews-crawler/internal/news"
)

// Stage names one step of a crawl run.
type Stage string

// Run stages, in order.
const (
	StageListFetch     Stage = "list_fetch"
	StageAbstractFetch Stage = "abstract_fetch"
	StageArticleLoop   Stage = "article_loop"
	StageAssemble      Stage = "assemble"
	StageDone          Stage = "done"
)

// Config holds the settings for a crawl run.
type Config struct {
	// ArticleDelay is waited between article fetches, never after the last.
	ArticleDelay time.Duration
	// Location is used for the document footer timestamp.
	Location *time.Location
}

// Crawler runs the list, abstract, and article stages for one date.
type Crawler struct {
	fetcher   news.Fetcher
	extractor *extract.Extractor
	clock     news.Clock
	pauser    pauseController
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Crawler.
func New(
	fetcher news.Fetcher,
	extractor *extract.Extractor,
	clock news.Clock,
	cfg Config,
	logger *zap.Logger,
) *Crawler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{
		fetcher:   fetcher,
		extractor: extractor,
		clock:     clock,
		pauser:    &timerPauseController{},
		cfg:       cfg,
		logger:    logger,
	}
}

// Crawl fetches the index, abstract, and every article for date and
// assembles the document. Only index failures abort the run; abstract and
// article failures become sentinels.
func (c *Crawler) Crawl(ctx context.Context, date news.CrawlDate) (news.CrawlResult, error) {
	logger := c.logger.With(zap.String("date", date.String()))
	logger.Info("crawl started")

	links, err := c.FetchLinks(ctx, date)
	if err != nil {
		logger.Error("crawl failed", zap.String("stage", string(StageListFetch)), zap.Error(err))
		return news.CrawlResult{}, err
	}

	abstract, err := c.FetchAbstract(ctx, links.Abstract)
	if err != nil {
		logger.Error("crawl failed", zap.String("stage", string(StageAbstractFetch)), zap.Error(err))
		return news.CrawlResult{}, err
	}

	results, err := c.FetchArticles(ctx, links.Articles)
	if err != nil {
		logger.Error("crawl failed", zap.String("stage", string(StageArticleLoop)), zap.Error(err))
		return news.CrawlResult{}, err
	}
	records := make([]news.ArticleRecord, len(results))
	for i, r := range results {
		records[i] = r.Record
	}

	doc := markdown.Assemble(date, abstract, records, links.Articles, c.clock.Now().In(c.cfg.Location))
	if got := markdown.CountArticles(doc); got != len(records) {
		logger.Warn("document outline does not match article count",
			zap.Int("headings", got),
			zap.Int("articles", len(records)),
		)
	}

	logger.Info("crawl finished", zap.Int("article_count", len(records)))
	return news.CrawlResult{
		Date:         date,
		Abstract:     abstract,
		Content:      doc,
		ArticleCount: len(records),
	}, nil
}

// FetchLinks fetches the index page for date and splits its links.
func (c *Crawler) FetchLinks(ctx context.Context, date news.CrawlDate) (news.LinkSet, error) {
	if err := ctx.Err(); err != nil {
		return news.LinkSet{}, err
	}
	indexURL := c.extractor.Layout().IndexURLFor(date)
	html, err := c.fetch(ctx, "list", indexURL)
	if err != nil {
		return news.LinkSet{}, err
	}
	links, err := c.extractor.Links(indexURL, html)
	if err != nil {
		return news.LinkSet{}, err
	}
	c.logger.Info("fetched news list",
		zap.String("url", indexURL),
		zap.Int("article_links", len(links.Articles)),
	)
	return links, nil
}

// FetchAbstract fetches the summary page. A failed fetch or a missing summary
// node yields the fallback sentinel; only cancellation is returned.
func (c *Crawler) FetchAbstract(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fallback := c.extractor.Layout().Abstract.Fallback
	html, err := c.fetch(ctx, "abstract", url)
	if err != nil {
		metrics.ObserveFallback("abstract")
		c.logger.Warn("abstract fetch failed", zap.String("url", url), zap.Error(err))
		return fallback, nil
	}
	abstract, found, err := c.extractor.Abstract(html)
	if err != nil {
		metrics.ObserveFallback("abstract")
		c.logger.Warn("abstract parse failed", zap.String("url", url), zap.Error(err))
		return fallback, nil
	}
	if !found {
		metrics.ObserveFallback("abstract")
		c.logger.Warn("abstract node not found, page structure may have changed", zap.String("url", url))
	}
	return abstract, nil
}

// FetchArticle fetches one article. It never fails; failures are carried in
// the result next to sentinel values.
func (c *Crawler) FetchArticle(ctx context.Context, url string) news.ArticleResult {
	html, err := c.fetch(ctx, "article", url)
	if err != nil {
		c.logger.Warn("article fetch failed", zap.String("url", url), zap.Error(err))
		return news.FailedArticle(url, err)
	}
	rec, err := c.extractor.Article(url, html)
	if err != nil {
		c.logger.Warn("article parse failed", zap.String("url", url), zap.Error(err))
		return news.FailedArticle(url, err)
	}
	layout := c.extractor.Layout()
	if rec.Title == layout.Title.Fallback {
		metrics.ObserveFallback("title")
	}
	if rec.Content == layout.Content.Fallback {
		metrics.ObserveFallback("content")
	}
	return news.ArticleResult{Record: rec}
}

// FetchArticles walks links in order with the configured delay between
// fetches. Only cancellation stops the walk early.
func (c *Crawler) FetchArticles(ctx context.Context, links []string) ([]news.ArticleResult, error) {
	total := len(links)
	results := make([]news.ArticleResult, 0, total)
	for i, url := range links {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res := c.FetchArticle(context.WithoutCancel(ctx), url)
		metrics.ObserveArticle(res.OK())
		results = append(results, res)
		c.logger.Debug("article fetched", zap.Int("index", i+1), zap.Int("total", total), zap.Bool("ok", res.OK()))

		if i < total-1 {
			if err := c.pauser.Pause(ctx, c.cfg.ArticleDelay); err != nil {
				return nil, err
			}
		}
	}
	return results, nil
}

// fetch runs one GET detached from cancellation; the request timeout bounds it.
func (c *Crawler) fetch(ctx context.Context, stage, url string) (string, error) {
	html, err := c.fetcher.FetchHTML(context.WithoutCancel(ctx), url)
	if err != nil {
		metrics.ObserveFetch(stage, "error")
		return "", err
	}
	metrics.ObserveFetch(stage, "ok")
	return html, nil
}
