// Package news defines the core types shared by the daily transcript pipeline.
package news

import (
	"fmt"
	"time"
)

// Sentinel values substituted when extraction degrades.
const (
	NoAbstract      = "暂无简介"
	NoTitle         = "无标题"
	NoContent       = "无内容"
	FailedTitle     = "获取失败"
	FailedContent   = "内容获取失败"
	crawlDateLayout = "20060102"
)

// CrawlDate is an eight digit YYYYMMDD day key.
type CrawlDate string

// ParseCrawlDate validates raw as exactly eight ASCII digits.
func ParseCrawlDate(raw string) (CrawlDate, error) {
	if len(raw) != 8 {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	for i := 0; i < len(raw); i++ {
		if raw[i] < '0' || raw[i] > '9' {
			return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
		}
	}
	return CrawlDate(raw), nil
}

// DateOf formats t as a CrawlDate in t's location.
func DateOf(t time.Time) CrawlDate {
	return CrawlDate(t.Format(crawlDateLayout))
}

// Time parses the date as midnight in loc.
func (d CrawlDate) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(crawlDateLayout, string(d), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, string(d))
	}
	return t, nil
}

// Dashed renders the date as YYYY-MM-DD.
func (d CrawlDate) Dashed() string {
	s := string(d)
	if len(s) != 8 {
		return s
	}
	return s[0:4] + "-" + s[4:6] + "-" + s[6:8]
}

func (d CrawlDate) String() string { return string(d) }

// LinkSet is the deduplicated anchor list of one index page.
type LinkSet struct {
	Abstract string
	Articles []string
}

// ArticleRecord is one extracted article.
type ArticleRecord struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	SourceURL string `json:"source_url"`
}

// ArticleResult is the tagged outcome of a single article fetch. Record always
// holds renderable values; Err is set when the sentinels came from a failure.
type ArticleResult struct {
	Record ArticleRecord
	Err    error
}

// OK reports whether the article was fetched.
func (r ArticleResult) OK() bool { return r.Err == nil }

// FailedArticle builds the fallback result for url.
func FailedArticle(url string, err error) ArticleResult {
	return ArticleResult{
		Record: ArticleRecord{Title: FailedTitle, Content: FailedContent, SourceURL: url},
		Err:    err,
	}
}

// CrawlResult is the unit handed to storage.
type CrawlResult struct {
	Date         CrawlDate `json:"date"`
	Abstract     string    `json:"abstract"`
	Content      string    `json:"content"`
	ArticleCount int       `json:"article_count"`
}

// Record is a persisted CrawlResult.
type Record struct {
	ID           int64     `json:"id"`
	Date         CrawlDate `json:"date"`
	Abstract     string    `json:"abstract"`
	Content      string    `json:"content"`
	ArticleCount int       `json:"news_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Stats summarizes the stored archive.
type Stats struct {
	TotalCount int       `json:"total_count"`
	LatestDate CrawlDate `json:"latest_date"`
	TotalNews  int       `json:"total_news"`
}
