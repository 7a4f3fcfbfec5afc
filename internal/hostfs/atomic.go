package hostfs

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/afero"

	"github.com/hnrobert/umgmt/internal/logger"
)

var globalMu sync.Mutex
var fileMu = map[string]*sync.Mutex{}

func muFor(path string) *sync.Mutex {
	globalMu.Lock()
	defer globalMu.Unlock()
	if m := fileMu[path]; m != nil {
		return m
	}
	m := &sync.Mutex{}
	fileMu[path] = m
	return m
}

func (h *Host) ReadFile(path string) ([]byte, error) {
	m := muFor(path)
	m.Lock()
	defer m.Unlock()
	return afero.ReadFile(h.fs, path)
}

// Exists reports whether path exists. Errors other than "not exist" count as
// existing so callers do not overwrite something they failed to inspect.
func (h *Host) Exists(path string) bool {
	_, err := h.fs.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// WriteFileAtomic replaces path with data via a temp file in the same
// directory followed by a rename.
func (h *Host) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	m := muFor(path)
	m.Lock()
	defer m.Unlock()

	dir := filepath.Dir(path)
	tmp, err := afero.TempFile(h.fs, dir, ".umgmt-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = h.fs.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := h.fs.Chmod(tmpName, perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := h.fs.Rename(tmpName, path); err != nil {
		// If the target path is a bind-mounted file, replacing it via rename
		// fails with errors like EBUSY/EXDEV. Fall back to an in-place rewrite.
		if errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.EXDEV) || errors.Is(err, syscall.EPERM) {
			logger.Warn("rename onto %s failed (%v); falling back to in-place rewrite", path, err)
			return h.rewriteInPlace(path, data, perm)
		}
		return err
	}
	if d, err := h.fs.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

func (h *Host) rewriteInPlace(path string, data []byte, perm os.FileMode) error {
	f, err := h.fs.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	_ = f.Sync()
	return f.Close()
}

func (h *Host) EnsureDir(path string, perm os.FileMode) error {
	m := muFor(path)
	m.Lock()
	defer m.Unlock()
	return h.fs.MkdirAll(path, perm)
}

// Chown is best effort on filesystems that do not track ownership.
func (h *Host) Chown(path string, uid, gid int) error {
	return h.fs.Chown(path, uid, gid)
}

// RemoveTree deletes a directory tree below the root. Removing the root
// itself is refused.
func (h *Host) RemoveTree(path string) error {
	clean := filepath.Clean(path)
	if clean == h.root || clean == "/" {
		return ErrInvalidPath
	}
	m := muFor(clean)
	m.Lock()
	defer m.Unlock()
	return h.fs.RemoveAll(clean)
}
