package database

import (
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Supported dialects
const (
	SQLite   = "sqlite3"
	Postgres = "postgres"
)

// Open initializes the database connection for driver
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "", "sqlite", SQLite:
		driver = SQLite
	case Postgres, "postgresql":
		driver = Postgres
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	if driver == SQLite {
		// every sqlite connection gets its own :memory: database
		if dsn == ":memory:" {
			db.DB().SetMaxOpenConns(1)
		}
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring sqlite: %w", err)
		}
	}
	return db, nil
}

// Ping checks the connection is alive
func Ping(db *gorm.DB) error {
	return db.DB().Ping()
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
