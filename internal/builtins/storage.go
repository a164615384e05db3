package builtins

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	v8 "github.com/tommie/v8go"

	// Pure-Go SQLite driver for database/sql.
	_ "github.com/glebarez/sqlite"
)

// Storage returns the module function for the "storage" module: a small
// persistent key/value store backed by an isolated SQLite database under
// dir. The database is opened when the module is first materialized into a
// context and lives for the process.
func Storage(dir string) func(iso *v8.Isolate, ctx *v8.Context) (*v8.Value, error) {
	return func(iso *v8.Isolate, ctx *v8.Context) (*v8.Value, error) {
		db, err := openStorageDB(dir)
		if err != nil {
			return nil, err
		}
		return exportsObject(iso, ctx, map[string]any{
			"getItem": func(key string) (any, error) {
				var value string
				err := db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
				if err == sql.ErrNoRows {
					return nil, nil
				}
				if err != nil {
					return nil, fmt.Errorf("reading %q: %w", key, err)
				}
				return value, nil
			},
			"setItem": func(key, value string) (bool, error) {
				_, err := db.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)
					ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
				if err != nil {
					return false, fmt.Errorf("writing %q: %w", key, err)
				}
				return true, nil
			},
			"removeItem": func(key string) (bool, error) {
				_, err := db.Exec(`DELETE FROM kv WHERE key = ?`, key)
				if err != nil {
					return false, fmt.Errorf("deleting %q: %w", key, err)
				}
				return true, nil
			},
			"keys": func() (string, error) {
				rows, err := db.Query(`SELECT key FROM kv ORDER BY key`)
				if err != nil {
					return "", fmt.Errorf("listing keys: %w", err)
				}
				defer rows.Close()
				keys := []string{}
				for rows.Next() {
					var k string
					if err := rows.Scan(&k); err != nil {
						return "", fmt.Errorf("scanning key: %w", err)
					}
					keys = append(keys, k)
				}
				if err := rows.Err(); err != nil {
					return "", fmt.Errorf("listing keys: %w", err)
				}
				data, _ := json.Marshal(keys)
				return string(data), nil
			},
		})
	}
}

// openStorageDB opens (or creates) the storage database at
// {dir}/modules/storage.sqlite3 and makes sure the kv table exists.
func openStorageDB(dir string) (*sql.DB, error) {
	moduleDir := filepath.Join(dir, "modules")
	if err := os.MkdirAll(moduleDir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	dbPath := filepath.Join(moduleDir, "storage.sqlite3")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening storage database: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv table: %w", err)
	}
	return db, nil
}
