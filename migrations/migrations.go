package migrations

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/juju/errors"
)

//go:embed *.sql
var files embed.FS

// Up applies pending migrations. Safe to call on every boot; an already
// current schema is not an error.
func Up(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return errors.Annotate(err, "opening migration connection")
	}
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return errors.Trace(err)
	}
	src, err := iofs.New(files, ".")
	if err != nil {
		return errors.Trace(err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx", driver)
	if err != nil {
		return errors.Trace(err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Annotate(err, "applying migrations")
	}
	return nil
}
