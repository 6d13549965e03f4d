// Package db is the sqlite results store for scan runs.
package db

import (
	"compress/gzip"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/banshee-data/sympol2d/internal/httputil"
	"github.com/banshee-data/sympol2d/internal/monitoring"
	"github.com/banshee-data/sympol2d/internal/timeutil"
)

// DB wraps the results database.
type DB struct {
	*sql.DB
	path  string
	clock timeutil.Clock
}

// pragmas are applied to every pooled connection.
const pragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=temp_store(MEMORY)"

// OpenDB opens path without touching the schema. Use it for migration
// commands; everything else should use NewDB.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", "file:"+path+"?"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &DB{DB: sqlDB, path: path, clock: timeutil.RealClock{}}, nil
}

// NewDB opens path and migrates it to the latest schema.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(MigrationsFS()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Path is the file the database was opened from.
func (db *DB) Path() string { return db.path }

// SetClock replaces the clock used to stamp runs and name backups.
func (db *DB) SetClock(c timeutil.Clock) { db.clock = c }

// AttachAdminRoutes mounts the tsweb debug index on mux with a live SQL
// console, a JSON list of recent runs and an on-demand backup.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://"+filepath.Base(db.path), db.DB, &tailsql.DBOptions{
		Label: "Scan results",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("runs", "Recent scan runs (JSON)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, err := httputil.QueryInt(r, "limit", defaultRunLimit)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		runs, err := db.ListRuns(limit)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSONOK(w, runs)
	}))

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(db.serveBackup))
	return nil
}

func (db *DB) serveBackup(w http.ResponseWriter, r *http.Request) {
	dir, err := os.MkdirTemp("", "sympol2d-backup-")
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			monitoring.Warnf("failed to remove backup dir: %v", err)
		}
	}()

	name := fmt.Sprintf("backup-%d.db", db.clock.Now().Unix())
	backupPath := filepath.Join(dir, name)
	if _, err := db.Exec("VACUUM INTO ?", backupPath); err != nil {
		http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
		return
	}
	f, err := os.Open(backupPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", name))
	w.Header().Set("Content-Type", "application/gzip")
	gz := gzip.NewWriter(w)
	if _, err := io.Copy(gz, f); err != nil {
		monitoring.Warnf("backup: failed to stream %s: %v", name, err)
	}
	if err := gz.Close(); err != nil {
		monitoring.Warnf("backup: failed to finish %s: %v", name, err)
	}
}
