package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	// Registers the "sqlite" database/sql driver used below.
	_ "modernc.org/sqlite"
)

// Connect opens the catalog database. A postgres:// DSN selects PostgreSQL;
// anything else (a file path or ":memory:") is treated as a SQLite database
// backed by the CGO-free modernc driver.
func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return db, nil
	}

	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{},
	)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	return db, nil
}
