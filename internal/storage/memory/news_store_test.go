package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/dailynews-crawler/internal/news"
)

func TestNewsStoreUpsertReplacesSameDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewNewsStore()

	first, err := store.Upsert(ctx, news.CrawlResult{Date: "20240115", Abstract: "a", Content: "v1", ArticleCount: 3})
	require.NoError(t, err)
	second, err := store.Upsert(ctx, news.CrawlResult{Date: "20240115", Abstract: "b", Content: "v2", ArticleCount: 4})
	require.NoError(t, err)

	require.Equal(t, 1, store.Len())
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.CreatedAt, second.CreatedAt)
	require.Equal(t, "v2", second.Content)
	require.Equal(t, 4, second.ArticleCount)
}

func TestNewsStoreReads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewNewsStore()

	exists, err := store.ExistsForDate(ctx, "20240115")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = store.GetByDate(ctx, "20240115")
	require.ErrorIs(t, err, news.ErrNotFound)

	_, err = store.Upsert(ctx, news.CrawlResult{Date: "20240114", ArticleCount: 10})
	require.NoError(t, err)
	_, err = store.Upsert(ctx, news.CrawlResult{Date: "20240115", ArticleCount: 12})
	require.NoError(t, err)

	exists, err = store.ExistsForDate(ctx, "20240115")
	require.NoError(t, err)
	require.True(t, exists)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, news.Stats{TotalCount: 2, LatestDate: "20240115", TotalNews: 22}, stats)
}

func TestNewsStoreLatestAndSearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewNewsStore()

	for _, r := range []news.CrawlResult{
		{Date: "20240113", Abstract: "经济数据", Content: "# GDP"},
		{Date: "20240115", Abstract: "外事活动", Content: "# 会见"},
		{Date: "20240114", Abstract: "农业", Content: "# 春耕 gdp"},
	} {
		_, err := store.Upsert(ctx, r)
		require.NoError(t, err)
	}

	latest, err := store.Latest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Equal(t, news.CrawlDate("20240115"), latest[0].Date)
	require.Equal(t, news.CrawlDate("20240114"), latest[1].Date)
	require.Empty(t, latest[0].Content)

	all, err := store.Latest(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	found, err := store.Search(ctx, "GdP")
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, news.CrawlDate("20240114"), found[0].Date)
	require.Equal(t, news.CrawlDate("20240113"), found[1].Date)

	found, err = store.Search(ctx, "外事")
	require.NoError(t, err)
	require.Len(t, found, 1)

	// Stored records keep their content.
	rec, err := store.GetByDate(ctx, "20240115")
	require.NoError(t, err)
	require.Equal(t, "# 会见", rec.Content)
}
