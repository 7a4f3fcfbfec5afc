package hostfs

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultRoot is used when the tool runs directly on the host.
const DefaultRoot = "/"

var ErrInvalidPath = errors.New("invalid host path")

// Host resolves host paths below a root directory on a filesystem.
type Host struct {
	root string
	fs   afero.Fs
}

// New returns a Host rooted at root. An empty root means DefaultRoot and a nil
// fs means the operating system filesystem.
func New(root string, fs afero.Fs) *Host {
	if strings.TrimSpace(root) == "" {
		root = DefaultRoot
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Host{root: filepath.Clean(root), fs: fs}
}

func (h *Host) Root() string { return h.root }

func (h *Host) Fs() afero.Fs { return h.fs }

// Path joins the root with a relative path (no leading slash).
// Example: Path("etc/passwd") -> /host/etc/passwd
func (h *Host) Path(rel string) (string, error) {
	rel = strings.TrimPrefix(rel, "/")
	clean := filepath.Clean(rel)
	if clean == "." || clean == "" {
		return "", ErrInvalidPath
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	return filepath.Join(h.root, clean), nil
}

// Abs maps an absolute host path (e.g. /home/alice) into the rooted path
// (e.g. /host/home/alice).
func (h *Host) Abs(abs string) (string, error) {
	if abs == "" || !strings.HasPrefix(abs, "/") {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(abs)
	if clean == "/" {
		return "", ErrInvalidPath
	}
	return filepath.Join(h.root, strings.TrimPrefix(clean, "/")), nil
}
