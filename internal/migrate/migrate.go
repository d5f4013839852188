// Package migrate applies the embedded tracking store schema.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/emiliopalmerini/poisonbench/migrations"
)

// Migration is one numbered schema change with its optional rollback.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

var upPattern = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)

// Migrator runs migrations from an fs.FS against a database.
type Migrator struct {
	db     *sql.DB
	source fs.FS
	log    *slog.Logger
}

// New returns a Migrator over the embedded tracking schema.
func New(db *sql.DB, log *slog.Logger) *Migrator {
	if log == nil {
		log = slog.Default()
	}
	return &Migrator{db: db, source: migrations.FS, log: log}
}

// ensureTable creates schema_migrations, rebuilding it when a legacy table
// without the dirty column is found.
func (m *Migrator) ensureTable(ctx context.Context) error {
	var count int
	err := m.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM pragma_table_info('schema_migrations') WHERE name = 'dirty'
	`).Scan(&count)
	if err == nil && count > 0 {
		return nil
	}
	if err == nil {
		if _, err := m.db.ExecContext(ctx, `DROP TABLE IF EXISTS schema_migrations`); err != nil {
			return err
		}
	}
	_, err = m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			dirty INTEGER NOT NULL DEFAULT 0
		)
	`)
	return err
}

// Version returns the current schema version and dirty state.
func (m *Migrator) Version(ctx context.Context) (int, bool, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, false, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var version, dirty int
	err := m.db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return version, dirty == 1, nil
}

func (m *Migrator) setVersion(ctx context.Context, version int, dirty bool) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM schema_migrations`); err != nil {
		return err
	}
	if version == 0 {
		return nil
	}
	d := 0
	if dirty {
		d = 1
	}
	_, err := m.db.ExecContext(ctx, `INSERT INTO schema_migrations (version, dirty) VALUES (?, ?)`, version, d)
	return err
}

// Load reads all migrations sorted by version.
func (m *Migrator) Load() ([]Migration, error) {
	var result []Migration

	err := fs.WalkDir(m.source, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		matches := upPattern.FindStringSubmatch(path.Base(p))
		if matches == nil {
			return nil
		}

		version, _ := strconv.Atoi(matches[1])
		up, err := fs.ReadFile(m.source, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		down, _ := fs.ReadFile(m.source, path.Join(path.Dir(p), fmt.Sprintf("%s_%s.down.sql", matches[1], matches[2])))

		result = append(result, Migration{
			Version: version,
			Name:    matches[2],
			UpSQL:   string(up),
			DownSQL: string(down),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Version < result[j].Version })
	return result, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	return m.To(ctx, -1)
}

// To migrates up or down to target. A negative target means the latest version.
func (m *Migrator) To(ctx context.Context, target int) error {
	current, dirty, err := m.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d", current)
	}

	all, err := m.Load()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if target < 0 {
		target = 0
		if len(all) > 0 {
			target = all[len(all)-1].Version
		}
	}

	switch {
	case target > current:
		for _, mg := range all {
			if mg.Version <= current || mg.Version > target {
				continue
			}
			if err := m.apply(ctx, mg, true); err != nil {
				return err
			}
		}
	case target < current:
		for i := len(all) - 1; i >= 0; i-- {
			mg := all[i]
			if mg.Version > current || mg.Version <= target {
				continue
			}
			if mg.DownSQL == "" {
				return fmt.Errorf("no down migration for version %d", mg.Version)
			}
			if err := m.apply(ctx, mg, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Migrator) apply(ctx context.Context, mg Migration, up bool) error {
	direction, content, after := "up", mg.UpSQL, mg.Version
	if !up {
		direction, content, after = "down", mg.DownSQL, mg.Version-1
	}
	m.log.Info("applying migration", "direction", direction, "version", mg.Version, "name", mg.Name)

	if err := m.setVersion(ctx, mg.Version, true); err != nil {
		return fmt.Errorf("failed to set dirty flag: %w", err)
	}
	for _, stmt := range SplitSQL(content) {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration %d %s: %w\nSQL: %s", mg.Version, direction, err, stmt)
		}
	}
	if err := m.setVersion(ctx, after, false); err != nil {
		return fmt.Errorf("failed to clear dirty flag: %w", err)
	}
	return nil
}

// SplitSQL splits a script on semicolons, dropping empty statements.
// Semicolons inside string literals are not supported.
func SplitSQL(script string) []string {
	var out []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// RunAll applies every pending migration on db.
func RunAll(ctx context.Context, db *sql.DB) error {
	return New(db, nil).Up(ctx)
}
