package database

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

// Segments are the logical databases the application writes to.
const (
	SegmentCore = "core"
	SegmentPG   = "pg"
)

//go:embed migrations/core/*.sql migrations/pg/*.sql
var migrationsFS embed.FS

// Migrate runs the embedded SQL migrations of one segment in order (001_schema.sql, 002_..., etc.).
// Every migration is written to be re-runnable.
func Migrate(ctx context.Context, db DB, segment string) error {
	dir := path.Join("migrations", segment)
	entries, err := migrationsFS.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		sql, err := migrationsFS.ReadFile(path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s/%s: %w", segment, name, err)
		}
		if _, err = db.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("execute migration %s/%s: %w", segment, name, err)
		}
	}
	return nil
}
