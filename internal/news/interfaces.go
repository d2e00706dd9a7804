package news

import (
	"context"
	"time"
)

// Fetcher returns the body of a GET against url.
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// Store persists one record per date.
type Store interface {
	Upsert(ctx context.Context, result CrawlResult) (Record, error)
	ExistsForDate(ctx context.Context, date CrawlDate) (bool, error)
	GetByDate(ctx context.Context, date CrawlDate) (Record, error)
	Stats(ctx context.Context) (Stats, error)
	// Latest and Search return summaries, newest first, with Content left empty.
	Latest(ctx context.Context, limit int) ([]Record, error)
	Search(ctx context.Context, keyword string) ([]Record, error)
}

// Archive keeps a copy of the rendered document outside the database.
type Archive interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher announces completed crawls.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
