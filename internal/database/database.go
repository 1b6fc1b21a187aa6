package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/safeguardai/console/internal/config"
	"github.com/safeguardai/console/internal/directory"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Database struct {
	pool  *pgxpool.Pool
	users *directory.PostgresStore
}

func New(cfg *config.DatabaseConfig) (*Database, error) {
	pool, err := pgxpool.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Activate and test the connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{
		pool:  pool,
		users: directory.NewPostgresStore(pool),
	}, nil
}

// Migrate applies the embedded goose migrations.
func (d *Database) Migrate() error {
	sqlDB := stdlib.OpenDBFromPool(d.pool)
	defer sqlDB.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (d *Database) Close() {
	if d.pool != nil {
		d.pool.Close()
	}
}

func (d *Database) Users() *directory.PostgresStore {
	return d.users
}

func (d *Database) Pool() *pgxpool.Pool {
	return d.pool
}
