package storage

import (
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"

	"beecam/internal/logger"
)

// Tree performs directory scaffolding and recursive cleanup on a filesystem.
type Tree struct {
	fs     afero.Fs
	logger *logger.Logger
}

// NewTree creates a Tree over fs.
func NewTree(fs afero.Fs, logger *logger.Logger) *Tree {
	return &Tree{fs: fs, logger: logger}
}

// Exists reports whether any entry exists at p.
func (t *Tree) Exists(p string) bool {
	ok, err := afero.Exists(t.fs, p)
	return err == nil && ok
}

// IsDir reports whether p exists and is a directory.
func (t *Tree) IsDir(p string) bool {
	ok, err := afero.IsDir(t.fs, p)
	return err == nil && ok
}

// Ensure creates directory p when it is missing. It reports whether p exists afterwards.
func (t *Tree) Ensure(p string) bool {
	if p == "" {
		return false
	}
	if t.Exists(p) {
		return true
	}
	if err := t.fs.Mkdir(p, 0755); err != nil {
		t.logger.Error("mkdir %s failed: %v", p, err)
		return false
	}
	return true
}

// WipeContents removes every entry below p, recursively, keeping p itself.
// The first failed removal aborts the wipe and whatever was already deleted
// stays deleted. Entries whose name cannot form a child path are skipped.
func (t *Tree) WipeContents(p string) bool {
	if p == "" {
		return false
	}

	dir, err := t.fs.Open(p)
	if err != nil {
		return false
	}
	info, err := dir.Stat()
	if err != nil || !info.IsDir() {
		dir.Close()
		return false
	}
	entries, err := dir.Readdir(-1)
	dir.Close()
	if err != nil {
		t.logger.Error("readdir %s failed: %v", p, err)
		return false
	}

	for _, entry := range entries {
		child := childPath(p, entry.Name())
		if child == "" {
			continue
		}

		if entry.IsDir() {
			if !t.DeleteTree(child) {
				return false
			}
			continue
		}
		if err := t.fs.Remove(child); err != nil && !os.IsNotExist(err) {
			t.logger.Error("remove %s failed: %v", child, err)
			return false
		}
	}
	return true
}

// DeleteTree wipes p and then removes it.
func (t *Tree) DeleteTree(p string) bool {
	if p == "" {
		return false
	}
	if !t.WipeContents(p) {
		return false
	}
	if err := t.fs.Remove(p); err != nil {
		t.logger.Error("rmdir %s failed: %v", p, err)
		return false
	}
	return true
}

// childPath joins a directory entry name onto its parent. It returns "" when
// the name cannot address a direct child.
func childPath(parent, name string) string {
	if parent == "" || name == "" || name == "." || name == ".." {
		return ""
	}
	if strings.ContainsAny(name, "/\\") {
		return ""
	}
	return path.Join(parent, name)
}
