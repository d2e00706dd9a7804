package crawler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/JakeFAU/dailynews-crawler/internal/news"
)

// DefaultBatchGap separates consecutive dates in a batch.
const DefaultBatchGap = 3 * time.Second

// DateResult is the outcome of one date within a batch.
type DateResult struct {
	Date   news.CrawlDate
	Status string
	Count  int
	Err    error
}

// BatchSummary tallies a batch run.
type BatchSummary struct {
	Results   []DateResult
	Succeeded int
	Skipped   int
	Failed    int
}

func (s *BatchSummary) add(res DateResult) {
	s.Results = append(s.Results, res)
	switch res.Status {
	case OutcomeSucceeded:
		s.Succeeded++
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// DateRange lists every date from start to end inclusive.
func DateRange(start, end string) ([]news.CrawlDate, error) {
	from, err := news.ParseCrawlDate(start)
	if err != nil {
		return nil, err
	}
	to, err := news.ParseCrawlDate(end)
	if err != nil {
		return nil, err
	}
	fromT, err := from.Time(time.UTC)
	if err != nil {
		return nil, err
	}
	toT, err := to.Time(time.UTC)
	if err != nil {
		return nil, err
	}
	if toT.Before(fromT) {
		return nil, fmt.Errorf("%w: end %s is before start %s", news.ErrInvalidDate, to, from)
	}
	var dates []news.CrawlDate
	for d := fromT; !d.After(toT); d = d.AddDate(0, 0, 1) {
		dates = append(dates, news.DateOf(d))
	}
	return dates, nil
}

// runFunc matches Runner.Run.
type runFunc func(ctx context.Context, rawDate string, force bool) (Outcome, error)

// Batch runs a Runner over a date range one date at a time.
type Batch struct {
	run    runFunc
	gap    time.Duration
	logger *zap.Logger
}

// NewBatch constructs a Batch; gap <= 0 disables pacing.
func NewBatch(runner *Runner, gap time.Duration, logger *zap.Logger) *Batch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batch{run: runner.Run, gap: gap, logger: logger}
}

// Run crawls each date in [start, end]. Individual failures are recorded and
// never stop the batch; only cancellation does.
func (b *Batch) Run(ctx context.Context, start, end string, force bool) (BatchSummary, error) {
	dates, err := DateRange(start, end)
	if err != nil {
		return BatchSummary{}, err
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if b.gap > 0 {
		limiter = rate.NewLimiter(rate.Every(b.gap), 1)
	}

	var summary BatchSummary
	for i, date := range dates {
		if err := limiter.Wait(ctx); err != nil {
			return summary, fmt.Errorf("batch interrupted before %s: %w", date, err)
		}
		logger := b.logger.With(zap.String("date", date.String()), zap.Int("index", i+1), zap.Int("total", len(dates)))

		out, err := b.run(ctx, date.String(), force)
		res := DateResult{Date: date, Status: out.Status, Count: out.Record.ArticleCount, Err: err}
		if err != nil {
			res.Status = OutcomeFailed
			logger.Error("date failed", zap.Error(err))
		} else {
			logger.Info("date finished", zap.String("status", res.Status))
		}
		summary.add(res)

		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
	}
	b.logger.Info("batch finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}
