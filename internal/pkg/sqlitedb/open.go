// Package sqlitedb opens the single-file SQLite databases used for local
// persistence (client state, checkout journal, backend saga log).
//
// WAL mode is enabled on Open so that readers never block the single writer.
package sqlitedb

import (
	"database/sql"
	"fmt"

	// Pure-Go driver, no CGO.
	_ "modernc.org/sqlite"
)

// Open opens (or creates) the SQLite database at path and applies schema.
//
//	db, err := sqlitedb.Open("./storefront.db", schema)
func Open(path, schema string) (*sql.DB, error) {
	// busy_timeout waits for locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	// "sqlite", not "sqlite3", for the modernc driver.
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if err := ApplySchema(db, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ApplySchema runs the DDL statements once. Idempotent when the DDL uses IF NOT EXISTS.
func ApplySchema(db *sql.DB, schema string) error {
	if schema == "" {
		return nil
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}
