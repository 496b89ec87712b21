package users

import (
	"context"
	"database/sql"
	"io/fs"
	"sort"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// OpenDB opens the backing database for the given DSN
func OpenDB(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	db.RegisterModel((*User)(nil))

	return db, nil
}

// RunMigrations applies the embedded schema migrations in lexical order.
// Statements are idempotent so re-running at every boot is safe.
func RunMigrations(ctx context.Context, db *bun.DB) error {
	dir := "data/sql/migrations"

	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, name := range names {
			raw, err := fs.ReadFile(migrationsFS, dir+"/"+name)
			if err != nil {
				return err
			}

			for _, stmt := range strings.Split(string(raw), ";") {
				stmt = strings.TrimSpace(stmt)
				if stmt == "" {
					continue
				}
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
