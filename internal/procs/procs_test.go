package procs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func fakeProc(t *testing.T, entries map[int][2]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/proc/self", 0755))
	require.NoError(t, afero.WriteFile(fs, "/proc/uptime", []byte("1.0 1.0\n"), 0444))
	for pid, e := range entries {
		status := fmt.Sprintf("Name:\t%s\nState:\tS (sleeping)\nUid:\t%s\t%s\t%s\t%s\nVmRSS:\t    100 kB\n", e[0], e[1], e[1], e[1], e[1])
		require.NoError(t, afero.WriteFile(fs, fmt.Sprintf("/proc/%d/status", pid), []byte(status), 0444))
	}
	return fs
}

type signal struct {
	pid int
	sig unix.Signal
}

func TestOwnedAndUsage(t *testing.T) {
	s := New(fakeProc(t, map[int][2]string{
		1:   {"init", "0"},
		200: {"bash", "1000"},
		150: {"sleep", "1000"},
		300: {"nginx", "33"},
	}), "/proc")

	ps, err := s.Owned(1000)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	require.Equal(t, 150, ps[0].PID)
	require.Equal(t, "bash", ps[1].Name)

	running, err := s.Running(1001)
	require.NoError(t, err)
	require.False(t, running)

	n, rss, err := s.Usage(1000)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.EqualValues(t, 2*100*1024, rss)
}

func TestTerminate_FallsBackToKill(t *testing.T) {
	s := New(fakeProc(t, map[int][2]string{
		10: {"a", "1000"},
		11: {"b", "1000"},
		12: {"gone", "1000"},
		13: {"other", "1001"},
	}), "/proc")
	s.self = -1

	var sent []signal
	s.kill = func(pid int, sig unix.Signal) error {
		sent = append(sent, signal{pid, sig})
		switch {
		case pid == 11 && sig == unix.SIGTERM:
			return unix.EPERM
		case pid == 12:
			return unix.ESRCH
		}
		return nil
	}

	n, err := s.Terminate(1000)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []signal{
		{10, unix.SIGTERM},
		{11, unix.SIGTERM},
		{11, unix.SIGKILL},
		{12, unix.SIGTERM},
	}, sent)
}

func TestTerminate_ReportsFailures(t *testing.T) {
	s := New(fakeProc(t, map[int][2]string{10: {"a", "1000"}}), "/proc")
	s.self = -1
	s.kill = func(int, unix.Signal) error { return unix.EPERM }

	n, err := s.Terminate(1000)
	require.Zero(t, n)
	require.True(t, errors.Is(err, unix.EPERM))
}

func TestTerminate_RefusesRoot(t *testing.T) {
	s := New(fakeProc(t, nil), "/proc")
	s.kill = func(int, unix.Signal) error {
		t.Fatal("no signal expected")
		return nil
	}
	_, err := s.Terminate(0)
	require.Error(t, err)
}

func TestList_MissingRoot(t *testing.T) {
	_, err := New(afero.NewMemMapFs(), "/nope").List()
	require.Error(t, err)
}
