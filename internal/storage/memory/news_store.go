package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JakeFAU/dailynews-crawler/internal/news"
)

// NewsStore keeps records keyed by date in memory.
type NewsStore struct {
	mu      sync.RWMutex
	records map[news.CrawlDate]news.Record
	nextID  int64
	now     func() time.Time
}

// NewNewsStore constructs an empty NewsStore.
func NewNewsStore() *NewsStore {
	return &NewsStore{
		records: make(map[news.CrawlDate]news.Record),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Upsert inserts result or replaces the record for the same date, keeping
// its ID and creation time.
func (s *NewsStore) Upsert(_ context.Context, result news.CrawlResult) (news.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.records[result.Date]
	if !ok {
		s.nextID++
		rec = news.Record{ID: s.nextID, Date: result.Date, CreatedAt: now}
	}
	rec.Abstract = result.Abstract
	rec.Content = result.Content
	rec.ArticleCount = result.ArticleCount
	rec.UpdatedAt = now
	s.records[result.Date] = rec
	return rec, nil
}

// ExistsForDate reports whether a record exists for date.
func (s *NewsStore) ExistsForDate(_ context.Context, date news.CrawlDate) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[date]
	return ok, nil
}

// GetByDate returns the record for date or news.ErrNotFound.
func (s *NewsStore) GetByDate(_ context.Context, date news.CrawlDate) (news.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[date]
	if !ok {
		return news.Record{}, fmt.Errorf("%w: %s", news.ErrNotFound, date)
	}
	return rec, nil
}

// Stats aggregates every stored record.
func (s *NewsStore) Stats(_ context.Context) (news.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stats news.Stats
	for date, rec := range s.records {
		stats.TotalCount++
		stats.TotalNews += rec.ArticleCount
		if date > stats.LatestDate {
			stats.LatestDate = date
		}
	}
	return stats, nil
}

// Latest returns up to limit summaries, newest date first.
func (s *NewsStore) Latest(_ context.Context, limit int) ([]news.Record, error) {
	out := s.summaries(func(news.Record) bool { return true })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Search matches keyword case-insensitively against abstract and content.
func (s *NewsStore) Search(_ context.Context, keyword string) ([]news.Record, error) {
	needle := strings.ToLower(keyword)
	return s.summaries(func(rec news.Record) bool {
		return strings.Contains(strings.ToLower(rec.Abstract), needle) ||
			strings.Contains(strings.ToLower(rec.Content), needle)
	}), nil
}

func (s *NewsStore) summaries(keep func(news.Record) bool) []news.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]news.Record, 0, len(s.records))
	for _, rec := range s.records {
		if !keep(rec) {
			continue
		}
		rec.Content = ""
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// Len returns the number of stored records.
func (s *NewsStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
