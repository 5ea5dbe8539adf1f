package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/smallbiznis/cafepos/pkg/db"
)

//go:embed migrations
var embeddedMigrations embed.FS

// RunMigrations creates the sessions and products tables when they are absent.
// Running it again is a no-op, including against a database whose tables were
// created before version tracking existed.
func RunMigrations(conn *sql.DB, dbType string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	dir, driverName, driver, release, err := driverFor(context.Background(), conn, dbType)
	if err != nil {
		return err
	}
	defer func() { _ = release() }()

	sub, err := fs.Sub(embeddedMigrations, "migrations/"+dir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	return nil
}

// driverFor builds the migrate driver for dbType. release hands any connection
// the driver checked out back to the pool without closing conn itself.
func driverFor(ctx context.Context, conn *sql.DB, dbType string) (string, string, database.Driver, func() error, error) {
	switch dbType {
	case db.TypeSQLite, db.TypeSQLite3:
		driver, err := sqlite3.WithInstance(conn, &sqlite3.Config{})
		if err != nil {
			return "", "", nil, nil, fmt.Errorf("create migration driver: %w", err)
		}
		// sqlite3 runs on conn directly and its Close would close the shared handle.
		return "sqlite", "sqlite3", driver, func() error { return nil }, nil
	case db.TypePostgres, db.TypeMySQL:
		session, err := conn.Conn(ctx)
		if err != nil {
			return "", "", nil, nil, fmt.Errorf("checkout migration connection: %w", err)
		}

		var driver database.Driver
		if dbType == db.TypePostgres {
			driver, err = postgres.WithConnection(ctx, session, &postgres.Config{})
		} else {
			driver, err = mysql.WithConnection(ctx, session, &mysql.Config{})
		}
		if err != nil {
			_ = session.Close()
			return "", "", nil, nil, fmt.Errorf("create migration driver: %w", err)
		}
		// Built from a single connection, the driver's Close releases only that connection.
		return dbType, dbType, driver, driver.Close, nil
	default:
		return "", "", nil, nil, fmt.Errorf("unsupported %s type", dbType)
	}
}
