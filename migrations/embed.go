package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var FS embed.FS

// Up накатывает все миграции журнала на базу по DSN.
func Up(dsn string) error {
	return run(dsn, func(db *sql.DB) error { return goose.Up(db, ".") })
}

func Down(dsn string) error {
	return run(dsn, func(db *sql.DB) error { return goose.Down(db, ".") })
}

func Status(dsn string) error {
	return run(dsn, func(db *sql.DB) error { return goose.Status(db, ".") })
}

func run(dsn string, fn func(db *sql.DB) error) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("не удалось открыть БД для миграций: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return fn(db)
}
