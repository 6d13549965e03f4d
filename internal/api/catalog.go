package api

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/banshee-data/sympol2d/internal/monitoring"
	"github.com/banshee-data/sympol2d/internal/symmetry"
)

// CatalogSnapshot describes the catalog currently served.
type CatalogSnapshot struct {
	Source   string    `json:"source"`
	Groups   int       `json:"groups"`
	LoadedAt time.Time `json:"loaded_at"`
	Reloads  int       `json:"reloads"`
}

// CatalogReloadResult is returned to API clients when a reload request is
// processed.
type CatalogReloadResult struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Catalog *CatalogSnapshot `json:"catalog,omitempty"`
}

type catalogState struct {
	catalog  *symmetry.Catalog
	snapshot CatalogSnapshot
}

// CatalogManager serves a layer-group catalog that can be swapped while
// scans are running. It implements symmetry.Provider; each call resolves
// against whichever catalog is current, and a catalog is never mutated
// once published.
//
// With an empty path the built-in catalog is served and Reload and Watch
// are no-ops.
type CatalogManager struct {
	path    string
	current atomic.Pointer[catalogState]

	reloadMu sync.Mutex
	reloads  int
}

// NewCatalogManager loads path (or the built-in catalog when path is
// empty). A broken file is an error here; later reloads keep the last good
// catalog instead.
func NewCatalogManager(path string) (*CatalogManager, error) {
	m := &CatalogManager{path: path}
	cat, err := m.load()
	if err != nil {
		return nil, err
	}
	m.publish(cat)
	return m, nil
}

func (m *CatalogManager) load() (*symmetry.Catalog, error) {
	if m.path == "" {
		return symmetry.Builtin(), nil
	}
	return symmetry.LoadCatalogFile(m.path)
}

func (m *CatalogManager) publish(cat *symmetry.Catalog) {
	source := m.path
	if source == "" {
		source = "builtin"
	}
	m.current.Store(&catalogState{
		catalog: cat,
		snapshot: CatalogSnapshot{
			Source:   source,
			Groups:   cat.Len(),
			LoadedAt: time.Now().UTC(),
			Reloads:  m.reloads,
		},
	})
}

// Catalog returns the catalog in use.
func (m *CatalogManager) Catalog() *symmetry.Catalog { return m.current.Load().catalog }

// Snapshot returns a copy of the active catalog description.
func (m *CatalogManager) Snapshot() CatalogSnapshot { return m.current.Load().snapshot }

// Group implements symmetry.GroupProvider.
func (m *CatalogManager) Group(label string) (symmetry.LayerGroup, error) {
	return m.Catalog().Group(label)
}

// OperationsFor implements symmetry.Provider.
func (m *CatalogManager) OperationsFor(label string) ([]symmetry.Operation, error) {
	return m.Catalog().OperationsFor(label)
}

// Reload re-reads the catalog file. On failure the previous catalog stays
// active and the error is returned.
func (m *CatalogManager) Reload() (CatalogReloadResult, error) {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	if m.path == "" {
		snap := m.Snapshot()
		return CatalogReloadResult{Success: true, Message: "built-in catalog has nothing to reload", Catalog: &snap}, nil
	}
	cat, err := m.load()
	if err != nil {
		monitoring.Warnf("catalog reload from %s failed, keeping previous catalog: %v", m.path, err)
		return CatalogReloadResult{Success: false, Message: err.Error()}, err
	}
	m.reloads++
	m.publish(cat)
	snap := m.Snapshot()
	monitoring.Logf("catalog reloaded from %s: %d layer groups", m.path, snap.Groups)
	return CatalogReloadResult{Success: true, Message: "catalog reloaded", Catalog: &snap}, nil
}

// Watch reloads the catalog whenever its file is written, created or
// renamed into place, until ctx is done. Events are debounced so an
// editor's write-rename sequence causes one reload.
func (m *CatalogManager) Watch(ctx context.Context) error {
	if m.path == "" {
		<-ctx.Done()
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create catalog watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory so files replaced by rename are still seen.
	if err := fw.Add(filepath.Dir(m.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(m.path), err)
	}
	target := filepath.Clean(m.path)

	const debounce = 100 * time.Millisecond
	var pending time.Time
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < debounce {
				continue
			}
			pending = time.Time{}
			if _, err := m.Reload(); err != nil {
				monitoring.ObserveAdvisory("catalog_reload_failed")
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			monitoring.Warnf("catalog watcher: %v", err)
		}
	}
}
