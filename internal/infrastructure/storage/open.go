package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// OpenDB opens and pings a database for the given driver ("sqlite" or "postgres").
func OpenDB(driver, dsn string) (*sql.DB, error) {
	connStr := dsn
	if driver == "sqlite" && dsn == ":memory:" {
		// Every pooled connection must see the same in-memory database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if driver == "sqlite" && dsn != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	return db, nil
}
