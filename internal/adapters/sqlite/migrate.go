package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	migrationTable = "schema_migrations"
	upMarker       = "-- +migrate Up"
	downMarker     = "-- +migrate Down"
)

// migrate applies every embedded migration at most once, each in its own
// transaction together with its schema_migrations row.
func migrate(ctx context.Context, db *sql.DB) ([]string, error) {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationTable+` (
    name       TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`)
	if err != nil {
		return nil, errors.WithMessage(err, "ensure migration table")
	}
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, errors.WithMessage(err, "list migrations")
	}
	sort.Strings(names)
	var applied []string
	for _, name := range names {
		ok, err := isApplied(ctx, db, name)
		if err != nil {
			return applied, err
		}
		if ok {
			continue
		}
		content, err := migrationsFS.ReadFile(name)
		if err != nil {
			return applied, errors.WithMessagef(err, "read migration '%s'", name)
		}
		if err := applyMigration(ctx, db, name, upSection(string(content))); err != nil {
			return applied, err
		}
		applied = append(applied, name)
	}
	return applied, nil
}

func isApplied(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM `+migrationTable+` WHERE name = ?`, name).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, errors.WithMessagef(err, "check migration '%s'", name)
	}
	return true, nil
}

func applyMigration(ctx context.Context, db *sql.DB, name, upSQL string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WithMessagef(err, "begin migration '%s'", name)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if strings.TrimSpace(upSQL) != "" {
		if _, err := tx.ExecContext(ctx, upSQL); err != nil {
			return errors.WithMessagef(err, "exec migration '%s'", name)
		}
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
		name, time.Now().UTC().UnixMilli())
	if err != nil {
		return errors.WithMessagef(err, "record migration '%s'", name)
	}
	if err := tx.Commit(); err != nil {
		return errors.WithMessagef(err, "commit migration '%s'", name)
	}
	return nil
}

func upSection(content string) string {
	start := strings.Index(content, upMarker)
	if start < 0 {
		return content
	}
	content = content[start+len(upMarker):]
	if end := strings.Index(content, downMarker); end >= 0 {
		content = content[:end]
	}
	return content
}
