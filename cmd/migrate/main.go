package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/tripplanner/internal/pkg/config"
	"github.com/samirrijal/tripplanner/internal/pkg/logging"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding NNN_*.sql files and down.sql")
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatal("usage: migrate [-dir migrations] <up|down>")
	}

	cfg, err := config.Load("tripplanner-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text")

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	switch flag.Arg(0) {
	case "up":
		if err := up(ctx, pool, *dir); err != nil {
			log.Fatalf("up: %v", err)
		}
	case "down":
		if err := down(ctx, pool, *dir); err != nil {
			log.Fatalf("down: %v", err)
		}
	default:
		log.Fatalf("unknown command: %s", flag.Arg(0))
	}
}

// up applies every numbered migration not yet recorded in schema_migrations,
// each in its own transaction.
func up(ctx context.Context, pool *pgxpool.Pool, dir string) error {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "[0-9][0-9][0-9]_*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	applied := 0
	for _, f := range files {
		name := filepath.Base(f)
		var exists bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name).Scan(&exists); err != nil {
			return fmt.Errorf("check %s: %w", name, err)
		}
		if exists {
			slog.Debug("skip", "migration", name)
			continue
		}

		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f, err)
		}
		err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(data)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		slog.Info("applied", "migration", name)
		applied++
	}

	slog.Info("migrations up to date", "applied", applied, "total", len(files))
	return nil
}

// down drops the whole schema.
func down(ctx context.Context, pool *pgxpool.Pool, dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, "down.sql"))
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, string(data)); err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS schema_migrations`); err != nil {
		return err
	}
	slog.Info("schema dropped")
	return nil
}
