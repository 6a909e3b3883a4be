// Package postgres stores the rows of each run in Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/election-results-scraper/internal/dataset"
)

const defaultTable = "election_results"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var resultColumns = []string{"run_id", "row_number", "source_url", "area", "sub_area", "cells"}

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type copier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
	Close()
}

// ResultsStore bulk loads dataset rows into one table.
type ResultsStore struct {
	pool  copier
	table string
}

// New connects to Postgres.
func New(ctx context.Context, cfg Config) (*ResultsStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
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
	store, err := NewWithPool(pool, cfg.Table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewWithPool builds a store on an existing pool.
func NewWithPool(pool copier, table string) (*ResultsStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ResultsStore{pool: pool, table: table}, nil
}

// Close releases the pool.
func (s *ResultsStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the results table when it does not exist.
func (s *ResultsStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	run_id text NOT NULL,
	row_number integer NOT NULL,
	source_url text NOT NULL,
	area text NOT NULL,
	sub_area text NOT NULL,
	cells jsonb NOT NULL,
	PRIMARY KEY (run_id, row_number)
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

type cell struct {
	Column string  `json:"column"`
	Value  *string `json:"value"`
}

// SaveRun copies every row of ds under runID and returns the number of rows
// written. Cells keep column order and null markers.
func (s *ResultsStore) SaveRun(ctx context.Context, runID string, ds *dataset.Dataset) (int64, error) {
	if runID == "" {
		return 0, fmt.Errorf("run id is required")
	}
	if ds == nil || ds.Len() == 0 {
		return 0, nil
	}
	src := pgx.CopyFromSlice(ds.Len(), func(i int) ([]any, error) {
		return encodeRow(runID, ds, i)
	})
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{s.table}, resultColumns, src)
	if err != nil {
		return 0, fmt.Errorf("copy rows into %s: %w", s.table, err)
	}
	return n, nil
}

func encodeRow(runID string, ds *dataset.Dataset, i int) ([]any, error) {
	row := ds.Rows[i]
	cells := make([]cell, len(row.Values))
	for j, v := range row.Values {
		cells[j].Column = ds.Columns[j]
		if v.Valid {
			text := v.Text
			cells[j].Value = &text
		}
	}
	payload, err := json.Marshal(cells)
	if err != nil {
		return nil, fmt.Errorf("marshal row %d: %w", i, err)
	}
	key := ds.Key(i)
	return []any{runID, i, row.Source, key.Area, key.SubArea, payload}, nil
}
