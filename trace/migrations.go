package trace

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"
)

//go:embed migrations/*.sql
var migrations embed.FS

// runMigrations applies the trace schema with goose over a stdlib
// handle borrowed from the pgx pool.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return eris.Wrap(err, "trace: set dialect")
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return eris.Wrap(err, "trace: run migrations")
	}
	return nil
}
