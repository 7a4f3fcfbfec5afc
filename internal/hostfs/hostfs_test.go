package hostfs

import (
	"os"
	"syscall"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	h := New("/host", afero.NewMemMapFs())

	p, err := h.Path(EtcShadowRel)
	require.NoError(t, err)
	require.Equal(t, "/host/etc/shadow", p)

	p, err = h.Path("/etc/group")
	require.NoError(t, err)
	require.Equal(t, "/host/etc/group", p)

	for _, bad := range []string{"", ".", "..", "../etc/passwd", "etc/../../x"} {
		_, err := h.Path(bad)
		require.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}

func TestAbs(t *testing.T) {
	h := New("/host", afero.NewMemMapFs())

	p, err := h.Abs("/home/alice/../bob")
	require.NoError(t, err)
	require.Equal(t, "/host/home/bob", p)

	for _, bad := range []string{"", "home/alice", "/", "/.."} {
		_, err := h.Abs(bad)
		require.ErrorIs(t, err, ErrInvalidPath, bad)
	}

	require.Equal(t, DefaultRoot, New("", nil).Root())
}

func TestWriteFileAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/host/etc", 0755))
	require.NoError(t, afero.WriteFile(fs, "/host/etc/shadow", []byte("old\n"), 0644))
	h := New("/host", fs)

	require.NoError(t, h.WriteFileAtomic("/host/etc/shadow", []byte("new\n"), 0600))

	b, err := h.ReadFile("/host/etc/shadow")
	require.NoError(t, err)
	require.Equal(t, "new\n", string(b))
	st, err := fs.Stat("/host/etc/shadow")
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), st.Mode().Perm())

	ents, err := afero.ReadDir(fs, "/host/etc")
	require.NoError(t, err)
	require.Len(t, ents, 1, "temp file left behind")
}

type busyRenameFs struct {
	afero.Fs
}

func (busyRenameFs) Rename(string, string) error { return syscall.EBUSY }

func TestWriteFileAtomic_FallsBackInPlace(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/host/etc/passwd", []byte("a long old line\n"), 0644))
	h := New("/host", busyRenameFs{mem})

	require.NoError(t, h.WriteFileAtomic("/host/etc/passwd", []byte("short\n"), 0644))
	b, err := afero.ReadFile(mem, "/host/etc/passwd")
	require.NoError(t, err)
	require.Equal(t, "short\n", string(b))
}

func TestRemoveTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/host/home/alice/.profile", []byte("x"), 0644))
	h := New("/host", fs)

	require.ErrorIs(t, h.RemoveTree("/host"), ErrInvalidPath)
	require.ErrorIs(t, h.RemoveTree("/"), ErrInvalidPath)

	require.NoError(t, h.EnsureDir("/host/home/bob", 0755))
	require.True(t, h.Exists("/host/home/bob"))
	require.NoError(t, h.RemoveTree("/host/home/alice"))
	require.False(t, h.Exists("/host/home/alice"))
}
