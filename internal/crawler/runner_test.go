package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/dailynews-crawler/internal/news"
	pubmemory "github.com/JakeFAU/dailynews-crawler/internal/publisher/memory"
	"github.com/JakeFAU/dailynews-crawler/internal/storage/memory"
)

type runnerFixture struct {
	runner  *Runner
	fetcher *stubFetcher
	store   *memory.NewsStore
	archive *memory.BlobStore
	pub     *pubmemory.Publisher
}

func newRunnerFixture(t *testing.T, date news.CrawlDate, articles int) runnerFixture {
	t.Helper()
	pages, _ := dayPages(testOrigin, date, articles)
	fetcher := &stubFetcher{pages: pages}
	c, _ := newTestCrawler(fetcher, testOrigin)

	f := runnerFixture{
		fetcher: fetcher,
		store:   memory.NewNewsStore(),
		archive: memory.NewBlobStore(),
		pub:     pubmemory.New(),
	}
	f.runner = NewRunner(c, f.store, f.archive, f.pub, &seqIDs{}, fixedClock{t: testNow},
		RunnerConfig{Location: time.UTC, ArchivePrefix: "xwlb", Topic: "crawls"}, zap.NewNop())
	return f
}

func TestRunStoresArchivesAndNotifies(t *testing.T) {
	t.Parallel()
	f := newRunnerFixture(t, "20240115", 3)

	out, err := f.runner.Run(context.Background(), "20240115", false)
	require.NoError(t, err)
	require.Equal(t, OutcomeSucceeded, out.Status)
	require.Equal(t, "run-1", out.RunID)
	require.Equal(t, 3, out.Record.ArticleCount)
	require.Equal(t, []string{"memory://xwlb/20240115.md", "memory://xwlb/20240115.html"}, out.ArchiveURIs)
	require.Equal(t, "memory-1", out.MessageID)

	rec, err := f.store.GetByDate(context.Background(), "20240115")
	require.NoError(t, err)
	md, ok := f.archive.Object("xwlb/20240115.md")
	require.True(t, ok)
	require.Equal(t, rec.Content, string(md))
	html, ok := f.archive.Object("xwlb/20240115.html")
	require.True(t, ok)
	require.Contains(t, string(html), "<h3>新闻1</h3>")

	msgs := f.pub.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "crawls", msgs[0].Topic)
	var note Notification
	require.NoError(t, json.Unmarshal(msgs[0].Data, &note))
	require.Equal(t, Notification{Date: "20240115", ArticleCount: 3, RunID: "run-1"}, note)
}

func TestRunSkipsExistingUnlessForced(t *testing.T) {
	t.Parallel()
	f := newRunnerFixture(t, "20240115", 2)
	ctx := context.Background()

	_, err := f.runner.Run(ctx, "20240115", false)
	require.NoError(t, err)
	calls := len(f.fetcher.calls)

	out, err := f.runner.Run(ctx, "20240115", false)
	require.NoError(t, err)
	require.Equal(t, OutcomeSkipped, out.Status)
	require.Len(t, f.fetcher.calls, calls, "skip must not touch the origin")

	out, err = f.runner.Run(ctx, "20240115", true)
	require.NoError(t, err)
	require.Equal(t, OutcomeSucceeded, out.Status)
	require.Equal(t, 1, f.store.Len())
	require.Greater(t, len(f.fetcher.calls), calls)
}

func TestRunDefaultsToToday(t *testing.T) {
	t.Parallel()
	f := newRunnerFixture(t, "20240115", 1)

	out, err := f.runner.Run(context.Background(), "", false)
	require.NoError(t, err)
	require.Equal(t, news.CrawlDate("20240115"), out.Date)
}

func TestTodayUsesConfiguredLocation(t *testing.T) {
	t.Parallel()

	shanghai := time.FixedZone("CST", 8*60*60)
	late := time.Date(2024, 1, 15, 17, 0, 0, 0, time.UTC)
	r := NewRunner(nil, nil, nil, nil, &seqIDs{}, fixedClock{t: late}, RunnerConfig{Location: shanghai}, nil)
	require.Equal(t, news.CrawlDate("20240116"), r.Today())
}

func TestRunRejectsInvalidDate(t *testing.T) {
	t.Parallel()
	f := newRunnerFixture(t, "20240115", 1)

	_, err := f.runner.Run(context.Background(), "2024-01-15", false)
	require.ErrorIs(t, err, news.ErrInvalidDate)
	require.Empty(t, f.fetcher.calls)
}

func TestRunFailedCrawlLeavesStoreUntouched(t *testing.T) {
	t.Parallel()
	f := newRunnerFixture(t, "20240115", 1)
	f.fetcher.pages[testOrigin+"/day/20240116.shtml"] = "<div>今日无节目</div>"

	out, err := f.runner.Run(context.Background(), "20240116", false)
	require.ErrorIs(t, err, news.ErrEmptyResult)
	require.Equal(t, OutcomeFailed, out.Status)
	require.Zero(t, f.store.Len())
	require.Empty(t, f.pub.Messages())
}

func TestRunNotificationFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	f := newRunnerFixture(t, "20240115", 1)
	f.pub.FailWith(errors.New("topic missing"))

	out, err := f.runner.Run(context.Background(), "20240115", false)
	require.NoError(t, err)
	require.Equal(t, OutcomeSucceeded, out.Status)
	require.Empty(t, out.MessageID)
	require.Equal(t, 1, f.store.Len())
}

func TestRunWithoutSideEffects(t *testing.T) {
	t.Parallel()

	pages, _ := dayPages(testOrigin, "20240115", 1)
	c, _ := newTestCrawler(&stubFetcher{pages: pages}, testOrigin)
	store := memory.NewNewsStore()
	r := NewRunner(c, store, nil, nil, &seqIDs{}, fixedClock{t: testNow}, RunnerConfig{}, nil)

	out, err := r.Run(context.Background(), "20240115", false)
	require.NoError(t, err)
	require.Empty(t, out.ArchiveURIs)
	require.Empty(t, out.MessageID)
}
