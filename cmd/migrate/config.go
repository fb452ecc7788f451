package main

import (
	"io/fs"
	"os"

	"bookcatalog/db"
)

// migrationSource returns the filesystem and directory goose reads from.
// MIGRATIONS_DIR switches from the embedded files to a directory on disk,
// which "create" always needs.
func migrationSource() (fs.FS, string) {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return nil, v
	}
	return db.Migrations, db.Dir
}
