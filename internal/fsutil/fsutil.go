// Package fsutil writes scan artefacts through an afero filesystem so that
// tests can swap in memory for disk.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrUnsafeName is returned for artefact names that are not a single
// path element.
var ErrUnsafeName = errors.New("unsafe artefact name")

// OS returns the host filesystem.
func OS() afero.Fs { return afero.NewOsFs() }

// Memory returns an empty in-memory filesystem.
func Memory() afero.Fs { return afero.NewMemMapFs() }

// SafeName maps s onto a token usable as a file name: every rune outside
// [A-Za-z0-9._-] becomes '_'. Leading dots are replaced too.
func SafeName(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == '.' && i > 0:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// Writer writes artefacts into one directory of a filesystem.
type Writer struct {
	fs  afero.Fs
	dir string
}

// NewWriter returns a Writer rooted at dir on fsys.
func NewWriter(fsys afero.Fs, dir string) *Writer {
	return &Writer{fs: fsys, dir: filepath.Clean(dir)}
}

// Dir is the directory artefacts are written to.
func (w *Writer) Dir() string { return w.dir }

// Path returns where name would be written.
func (w *Writer) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeName, name)
	}
	return filepath.Join(w.dir, name), nil
}

// Write renders an artefact called name. Output goes to a temporary file
// that is renamed into place once render succeeds, so a failed render
// never leaves a partial artefact behind. It returns the final path.
func (w *Writer) Write(name string, render func(io.Writer) error) (string, error) {
	path, err := w.Path(name)
	if err != nil {
		return "", err
	}
	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", w.dir, err)
	}
	if err := w.checkContained(); err != nil {
		return "", err
	}

	tmp, err := afero.TempFile(w.fs, w.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if err := render(tmp); err != nil {
		tmp.Close()
		w.fs.Remove(tmpName)
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		w.fs.Remove(tmpName)
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := w.fs.Rename(tmpName, path); err != nil {
		w.fs.Remove(tmpName)
		return "", fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	if err := w.fs.Chmod(path, 0o644); err != nil {
		return "", fmt.Errorf("failed to set mode on %s: %w", name, err)
	}
	return path, nil
}

// WriteFile writes data as artefact name.
func (w *Writer) WriteFile(name string, data []byte) (string, error) {
	return w.Write(name, func(out io.Writer) error {
		_, err := out.Write(data)
		return err
	})
}

// ReadFile reads artefact name back.
func (w *Writer) ReadFile(name string) ([]byte, error) {
	path, err := w.Path(name)
	if err != nil {
		return nil, err
	}
	return afero.ReadFile(w.fs, path)
}

// Exists reports whether artefact name is present.
func (w *Writer) Exists(name string) bool {
	path, err := w.Path(name)
	if err != nil {
		return false
	}
	ok, err := afero.Exists(w.fs, path)
	return err == nil && ok
}

// checkContained rejects an output directory that resolves through a
// symlink to somewhere other than where it appears to be. Only the host
// filesystem has symlinks.
func (w *Writer) checkContained() error {
	if _, ok := w.fs.(*afero.OsFs); !ok {
		return nil
	}
	abs, err := filepath.Abs(w.dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", w.dir, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", w.dir, err)
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%w: output directory %s is a symlink to %s", ErrUnsafeName, w.dir, resolved)
	}
	return nil
}
