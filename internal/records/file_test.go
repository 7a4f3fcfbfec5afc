package records

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/umgmt/internal/hostfs"
)

func newHost(t *testing.T, files map[string]string) *hostfs.Host {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/host/etc", 0755))
	for rel, content := range files {
		require.NoError(t, afero.WriteFile(fs, "/host/"+rel, []byte(content), 0644))
	}
	return hostfs.New("/host", fs)
}

func collect[T any](t *testing.T, src Source[T]) ([]T, error) {
	t.Helper()
	var out []T
	for rec, err := range src.Records() {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func TestFileSource_SkipsCommentsAndRestarts(t *testing.T) {
	h := newHost(t, map[string]string{
		"etc/passwd": "# system\nroot:x:0:0:root:/root:/bin/sh\n\nalice:x:1000:1000::/home/alice:/bin/bash\n",
	})
	src := NewFileSet(h).Sources().Passwd

	first, err := collect(t, src)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, "root", first[0].Name)
	require.Equal(t, "alice", first[1].Name)

	second, err := collect(t, src)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestFileSource_ParseErrorHasContext(t *testing.T) {
	h := newHost(t, map[string]string{
		"etc/group": "root:x:0:\nbroken:x:zero:\n",
	})
	got, err := collect(t, NewFileSet(h).Sources().Group)
	require.Len(t, got, 1)
	require.ErrorIs(t, err, ErrMalformed)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, KindGroup, pe.Kind)
	require.Equal(t, 2, pe.Line)
	require.Equal(t, "broken", pe.Name)
}

func TestFileSource_Missing(t *testing.T) {
	h := newHost(t, nil)
	set := NewFileSet(h)

	_, err := collect(t, set.Sources().Gshadow)
	require.ErrorIs(t, err, ErrSourceUnavailable)

	set.MissingOK = true
	got, err := collect(t, set.Sources().Gshadow)
	require.NoError(t, err)
	require.Empty(t, got)

	// passwd is never optional.
	_, err = collect(t, set.Sources().Passwd)
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestFileSink_CommitRewrites(t *testing.T) {
	h := newHost(t, map[string]string{"etc/group": "old:x:1:\n"})
	w, err := NewFileSet(h).Sinks().Group.Open()
	require.NoError(t, err)
	require.NoError(t, w.Write(Group{Name: "wheel", Passwd: "x", GID: 10, Members: []string{"alice"}}))
	require.NoError(t, w.Write(Group{Name: "users", Passwd: "x", GID: 100}))

	b, err := afero.ReadFile(h.Fs(), "/host/etc/group")
	require.NoError(t, err)
	require.Equal(t, "old:x:1:\n", string(b), "nothing is written before Commit")

	require.NoError(t, w.Commit())
	b, err = afero.ReadFile(h.Fs(), "/host/etc/group")
	require.NoError(t, err)
	require.Equal(t, "wheel:x:10:alice\nusers:x:100:\n", string(b))
}

func TestFileSink_RejectsNewlines(t *testing.T) {
	h := newHost(t, nil)
	w, err := NewFileSet(h).Sinks().Passwd.Open()
	require.NoError(t, err)
	err = w.Write(Passwd{Name: "eve", Gecos: "x\nroot::0:0::/:/bin/sh"})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestFileSink_RejectsColons(t *testing.T) {
	h := newHost(t, map[string]string{"etc/passwd": "root:x:0:0:root:/root:/bin/sh\n"})
	w, err := NewFileSet(h).Sinks().Passwd.Open()
	require.NoError(t, err)
	err = w.Write(Passwd{Name: "bob", Passwd: "x", UID: 1001, GID: 1001, Gecos: "Bob:Admin", Home: "/home/bob", Shell: "/bin/bash"})
	require.ErrorIs(t, err, ErrMalformed)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, KindPasswd, pe.Kind)
	require.Equal(t, "bob", pe.Name)
	require.Zero(t, pe.Line)
	require.Equal(t, `passwd (bob): malformed record: gecos "Bob:Admin" contains ':' or a newline`, pe.Error())

	w.Discard()
	b, err := afero.ReadFile(h.Fs(), "/host/etc/passwd")
	require.NoError(t, err)
	require.Equal(t, "root:x:0:0:root:/root:/bin/sh\n", string(b))
}

func TestFileSink_MissingDirectory(t *testing.T) {
	h := hostfs.New("/nowhere", afero.NewMemMapFs())
	_, err := NewFileSet(h).Sinks().Shadow.Open()
	require.ErrorIs(t, err, ErrSinkUnavailable)
}

func TestMemoryTable(t *testing.T) {
	var m Memory
	w, err := m.Sinks().Passwd.Open()
	require.NoError(t, err)
	require.NoError(t, w.Write(Passwd{Name: "a"}))
	w.Discard()
	require.NoError(t, w.Commit())
	require.Empty(t, m.Passwd.Rows)

	require.NoError(t, w.Write(Passwd{Name: "b"}))
	require.NoError(t, w.Commit())
	got, err := collect(t, m.Sources().Passwd)
	require.NoError(t, err)
	require.Equal(t, []Passwd{{Name: "b"}}, got)
}
