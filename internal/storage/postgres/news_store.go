// Package postgres provides the Postgres-backed news store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/dailynews-crawler/internal/news"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const (
	defaultTable = "news_articles"
	defaultLimit = 10
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// Store keeps one row per broadcast date.
type Store struct {
	pool  pool
	table string
}

// New connects a pool and returns a Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: p, table: table}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(p pool, table string) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &Store{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	date VARCHAR(8) NOT NULL UNIQUE,
	abstract TEXT NOT NULL,
	content TEXT NOT NULL,
	news_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_date ON %s (date DESC)`, s.table, s.table)
	if _, err := s.pool.Exec(ctx, index); err != nil {
		return fmt.Errorf("create index on %s: %w", s.table, err)
	}
	return nil
}

// Upsert inserts the result or replaces the row with the same date.
func (s *Store) Upsert(ctx context.Context, result news.CrawlResult) (news.Record, error) {
	query := fmt.Sprintf(`
INSERT INTO %s (date, abstract, content, news_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
ON CONFLICT (date) DO UPDATE SET
	abstract = EXCLUDED.abstract,
	content = EXCLUDED.content,
	news_count = EXCLUDED.news_count,
	updated_at = NOW()
RETURNING id, date, abstract, content, news_count, created_at, updated_at`, s.table)

	row := s.pool.QueryRow(ctx, query, result.Date.String(), result.Abstract, result.Content, result.ArticleCount)
	rec, err := scanRecord(row)
	if err != nil {
		return news.Record{}, fmt.Errorf("upsert %s: %w", result.Date, err)
	}
	return rec, nil
}

// ExistsForDate reports whether a row exists for date.
func (s *Store) ExistsForDate(ctx context.Context, date news.CrawlDate) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE date = $1)`, s.table)
	var exists bool
	if err := s.pool.QueryRow(ctx, query, date.String()).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s: %w", date, err)
	}
	return exists, nil
}

// GetByDate loads the row for date or returns news.ErrNotFound.
func (s *Store) GetByDate(ctx context.Context, date news.CrawlDate) (news.Record, error) {
	query := fmt.Sprintf(`
SELECT id, date, abstract, content, news_count, created_at, updated_at
FROM %s WHERE date = $1`, s.table)
	rec, err := scanRecord(s.pool.QueryRow(ctx, query, date.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return news.Record{}, fmt.Errorf("%w: %s", news.ErrNotFound, date)
	}
	if err != nil {
		return news.Record{}, fmt.Errorf("get %s: %w", date, err)
	}
	return rec, nil
}

// Stats aggregates the whole table.
func (s *Store) Stats(ctx context.Context) (news.Stats, error) {
	query := fmt.Sprintf(`
SELECT COUNT(*), COALESCE(MAX(date), ''), COALESCE(SUM(news_count), 0)
FROM %s`, s.table)
	var (
		total  int64
		latest string
		items  int64
	)
	if err := s.pool.QueryRow(ctx, query).Scan(&total, &latest, &items); err != nil {
		return news.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return news.Stats{
		TotalCount: int(total),
		LatestDate: news.CrawlDate(latest),
		TotalNews:  int(items),
	}, nil
}

// Latest returns up to limit summaries, newest date first. A non-positive
// limit means 10.
func (s *Store) Latest(ctx context.Context, limit int) ([]news.Record, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	query := fmt.Sprintf(`
SELECT id, date, abstract, news_count, created_at, updated_at
FROM %s ORDER BY date DESC LIMIT $1`, s.table)
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	return collectSummaries(rows)
}

// Search matches keyword case-insensitively against abstract and content.
// LIKE wildcards in keyword match literally.
func (s *Store) Search(ctx context.Context, keyword string) ([]news.Record, error) {
	query := fmt.Sprintf(`
SELECT id, date, abstract, news_count, created_at, updated_at
FROM %s WHERE abstract ILIKE $1 OR content ILIKE $1
ORDER BY date DESC`, s.table)
	rows, err := s.pool.Query(ctx, query, "%"+likeEscaper.Replace(keyword)+"%")
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}
	return collectSummaries(rows)
}

func collectSummaries(rows pgx.Rows) ([]news.Record, error) {
	defer rows.Close()

	var out []news.Record
	for rows.Next() {
		var (
			rec   news.Record
			date  string
			count int32
		)
		if err := rows.Scan(&rec.ID, &date, &rec.Abstract, &count, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		rec.Date = news.CrawlDate(date)
		rec.ArticleCount = int(count)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (news.Record, error) {
	var (
		rec   news.Record
		date  string
		count int32
	)
	if err := row.Scan(&rec.ID, &date, &rec.Abstract, &rec.Content, &count, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return news.Record{}, err
	}
	rec.Date = news.CrawlDate(date)
	rec.ArticleCount = int(count)
	return rec, nil
}
