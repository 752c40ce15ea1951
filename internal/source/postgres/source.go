// Package postgres reads link rows from a Postgres mirror of the table store.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/aka-exporter/internal/links"
	"github.com/JakeFAU/aka-exporter/internal/source"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for link rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
	Mapper          source.Mapper
}

type queryCloser interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Source implements links.Source over a Postgres table whose columns mirror the entity fields.
type Source struct {
	pool   queryCloser
	table  string
	mapper source.Mapper
}

// New creates a Postgres-backed Source using the provided config.
func New(ctx context.Context, cfg Config) (*Source, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	if !validTableName.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid table name %q", cfg.Table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Source{pool: pool, table: cfg.Table, mapper: cfg.Mapper}, nil
}

// NewWithPool constructs a source from an existing pool (primarily for testing).
func NewWithPool(pool queryCloser, table string, mapper source.Mapper) (*Source, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &Source{pool: pool, table: table, mapper: mapper}, nil
}

// Close releases the underlying pool resources.
func (s *Source) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Scan streams every row of the table and forwards exported records to fn.
func (s *Source) Scan(ctx context.Context, fn func(links.Record) error) error {
	query := fmt.Sprintf(`SELECT "RowKey", "Url", "Clicks", "Title", "IsArchived" FROM %s`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rowKey, url, title *string
			clicks             *int32
			archived           *bool
		)
		if err := rows.Scan(&rowKey, &url, &clicks, &title, &archived); err != nil {
			return fmt.Errorf("scan %s row: %w", s.table, err)
		}
		entity := source.MapEntity{
			source.FieldRowKey:   rowKey,
			source.FieldURL:      url,
			source.FieldClicks:   clicks,
			source.FieldTitle:    title,
			source.FieldArchived: archived,
		}
		if err := s.mapper.Emit(entity, fn); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s rows: %w", s.table, err)
	}
	return nil
}
