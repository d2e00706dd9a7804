package crawler

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/dailynews-crawler/internal/markdown"
	"github.com/JakeFAU/dailynews-crawler/internal/metrics"
	"github.com/JakeFAU/dailynews-crawler/internal/news"
)

// Run outcome labels.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// RunnerConfig controls where finished documents are announced.
type RunnerConfig struct {
	Location      *time.Location
	ArchivePrefix string
	Topic         string
}

// Outcome describes a single Runner.Run.
type Outcome struct {
	RunID       string
	Date        news.CrawlDate
	Status      string
	Record      news.Record
	ArchiveURIs []string
	MessageID   string
}

// Notification is the payload published after a successful upsert.
type Notification struct {
	Date         string `json:"date"`
	ArticleCount int    `json:"article_count"`
	RunID        string `json:"run_id"`
}

// Runner wraps a Crawler with the skip check, persistence, and the optional
// archive and notification side effects.
type Runner struct {
	crawler   *Crawler
	store     news.Store
	archive   news.Archive
	publisher news.Publisher
	ids       news.IDGenerator
	clock     news.Clock
	cfg       RunnerConfig
	logger    *zap.Logger
}

// NewRunner constructs a Runner. archive and publisher may be nil.
func NewRunner(
	crawler *Crawler,
	store news.Store,
	archive news.Archive,
	publisher news.Publisher,
	ids news.IDGenerator,
	clock news.Clock,
	cfg RunnerConfig,
	logger *zap.Logger,
) *Runner {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		crawler:   crawler,
		store:     store,
		archive:   archive,
		publisher: publisher,
		ids:       ids,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Today is the current date in the runner's timezone.
func (r *Runner) Today() news.CrawlDate {
	return news.DateOf(r.clock.Now().In(r.cfg.Location))
}

// Run crawls rawDate (today when empty) unless a record already exists and
// force is false. Archive and notification failures are logged only.
func (r *Runner) Run(ctx context.Context, rawDate string, force bool) (Outcome, error) {
	date := r.Today()
	if rawDate != "" {
		parsed, err := news.ParseCrawlDate(rawDate)
		if err != nil {
			return Outcome{}, err
		}
		date = parsed
	}

	runID, err := r.ids.NewID()
	if err != nil {
		return Outcome{}, fmt.Errorf("generate run id: %w", err)
	}
	out := Outcome{RunID: runID, Date: date}
	logger := r.logger.With(zap.String("run_id", runID), zap.String("date", date.String()))
	start := r.clock.Now()

	if !force {
		exists, err := r.store.ExistsForDate(ctx, date)
		if err != nil {
			metrics.ObserveRun(OutcomeFailed, r.clock.Now().Sub(start))
			out.Status = OutcomeFailed
			return out, fmt.Errorf("check existing record: %w", err)
		}
		if exists {
			logger.Info("record already exists, skipping")
			metrics.ObserveRun(OutcomeSkipped, 0)
			out.Status = OutcomeSkipped
			return out, nil
		}
	}

	result, err := r.crawler.Crawl(ctx, date)
	if err != nil {
		metrics.ObserveRun(OutcomeFailed, r.clock.Now().Sub(start))
		out.Status = OutcomeFailed
		return out, err
	}

	rec, err := r.store.Upsert(ctx, result)
	if err != nil {
		metrics.ObserveRun(OutcomeFailed, r.clock.Now().Sub(start))
		out.Status = OutcomeFailed
		return out, fmt.Errorf("upsert %s: %w", date, err)
	}
	out.Record = rec
	out.Status = OutcomeSucceeded
	logger.Info("record stored", zap.Int64("id", rec.ID), zap.Int("article_count", rec.ArticleCount))

	out.ArchiveURIs = r.archiveDocument(ctx, logger, result)
	out.MessageID = r.notify(ctx, logger, runID, result)

	metrics.ObserveRun(OutcomeSucceeded, r.clock.Now().Sub(start))
	return out, nil
}

func (r *Runner) archiveDocument(ctx context.Context, logger *zap.Logger, result news.CrawlResult) []string {
	if r.archive == nil {
		return nil
	}
	base := path.Join(r.cfg.ArchivePrefix, result.Date.String())
	var uris []string

	uri, err := r.archive.PutObject(ctx, base+".md", "text/markdown; charset=utf-8", []byte(result.Content))
	if err != nil {
		logger.Warn("archive markdown failed", zap.Error(err))
		return uris
	}
	uris = append(uris, uri)

	html, err := markdown.ToHTML(result.Content)
	if err != nil {
		logger.Warn("render html failed", zap.Error(err))
		return uris
	}
	uri, err = r.archive.PutObject(ctx, base+".html", "text/html; charset=utf-8", html)
	if err != nil {
		logger.Warn("archive html failed", zap.Error(err))
		return uris
	}
	return append(uris, uri)
}

func (r *Runner) notify(ctx context.Context, logger *zap.Logger, runID string, result news.CrawlResult) string {
	if r.publisher == nil {
		return ""
	}
	id, err := r.publisher.Publish(ctx, r.cfg.Topic, Notification{
		Date:         result.Date.String(),
		ArticleCount: result.ArticleCount,
		RunID:        runID,
	})
	if err != nil {
		logger.Warn("publish notification failed", zap.Error(err))
		return ""
	}
	return id
}

// IsExtractionFailure reports whether err came from a page that yielded no
// usable content.
func IsExtractionFailure(err error) bool {
	var extractionErr *news.ExtractionError
	return errors.As(err, &extractionErr)
}
