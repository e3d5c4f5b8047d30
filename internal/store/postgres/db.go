package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DB is a bun handle on top of a pgx pool. Closing it closes both.
type DB struct {
	*bun.DB
	pool *pgxpool.Pool
}

func Open(ctx context.Context, databaseURL string, pool PoolConfig) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if pool.MaxConns > 0 {
		cfg.MaxConns = pool.MaxConns
	}
	if pool.MinConns > 0 {
		cfg.MinConns = pool.MinConns
	}
	if pool.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = pool.ConnMaxLifetime
	}
	if pool.ConnMaxIdleTime > 0 {
		cfg.MaxConnIdleTime = pool.ConnMaxIdleTime
	}

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(p)
	return &DB{DB: bun.NewDB(sqlDB, pgdialect.New()), pool: p}, nil
}

// SQL exposes the database/sql handle for tools that need one, such as goose.
func (db *DB) SQL() *sql.DB {
	return db.DB.DB
}

func Close(db *DB) error {
	if db == nil {
		return nil
	}
	err := db.DB.Close()
	db.pool.Close()
	return err
}
