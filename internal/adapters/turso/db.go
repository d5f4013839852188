package turso

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/emiliopalmerini/poisonbench/internal/migrate"
)

// DB wraps the tracking store connection.
type DB struct {
	*sql.DB
	URI string
}

// Open connects to the tracking store at uri and applies pending migrations.
// Local paths and file: URIs open an embedded database file; libsql:// and
// http(s):// URIs reach a remote server, authenticated with authToken.
func Open(ctx context.Context, uri, authToken string) (*DB, error) {
	db, err := Connect(ctx, uri, authToken)
	if err != nil {
		return nil, err
	}
	if err := migrate.RunAll(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate tracking store: %w", err)
	}
	return db, nil
}

// Connect opens the tracking store without touching its schema.
func Connect(ctx context.Context, uri, authToken string) (*DB, error) {
	dsn, err := dataSourceName(uri, authToken)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracking store: %w", err)
	}

	// Remote streams are closed aggressively server-side; keep no idle
	// connections around.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(0)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping tracking store: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil && isLocal(uri) {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{DB: db, URI: uri}, nil
}

func dataSourceName(uri, authToken string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("tracking URI is required")
	}
	if isLocal(uri) {
		path := strings.TrimPrefix(uri, "file:")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return "", fmt.Errorf("failed to create tracking store directory: %w", err)
			}
		}
		if strings.HasPrefix(uri, "file:") {
			return uri, nil
		}
		return "file:" + uri, nil
	}
	if authToken == "" {
		return uri, nil
	}
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + "authToken=" + authToken, nil
}

func isLocal(uri string) bool {
	for _, scheme := range []string{"libsql://", "http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(uri, scheme) {
			return false
		}
	}
	return true
}
