package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Dates are stored as YYYY-MM-DD text;
// the rowid keeps insertion order for searches.
const schema = `
CREATE TABLE IF NOT EXISTS items (
    id                 INTEGER PRIMARY KEY,
    item_code          TEXT NOT NULL UNIQUE,
    name               TEXT NOT NULL CHECK (name <> ''),
    image              TEXT,
    description        TEXT,
    quantity           INTEGER NOT NULL CHECK (quantity > 0),
    procurement_date   TEXT NOT NULL,
    manufacturing_date TEXT,
    expiry_date        TEXT
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
