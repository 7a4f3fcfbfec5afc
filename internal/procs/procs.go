// Package procs finds and signals the processes owned by a uid by scanning
// /proc.
package procs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"

	"github.com/hnrobert/umgmt/internal/logger"
)

const DefaultProcRoot = "/proc"

// Process is one entry of the process table.
type Process struct {
	PID      int
	UID      int // real uid
	Name     string
	RSSBytes uint64
}

// Scanner reads a proc filesystem. The zero value is not usable; use New.
type Scanner struct {
	fs       afero.Fs
	procRoot string
	self     int

	// kill delivers signals; replaced in tests.
	kill func(pid int, sig unix.Signal) error
}

func New(fs afero.Fs, procRoot string) *Scanner {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if strings.TrimSpace(procRoot) == "" {
		procRoot = DefaultProcRoot
	}
	return &Scanner{fs: fs, procRoot: procRoot, self: os.Getpid(), kill: unix.Kill}
}

// SetKill replaces the function used to deliver signals.
func (s *Scanner) SetKill(fn func(pid int, sig unix.Signal) error) {
	s.kill = fn
}

// List returns every readable process, in pid order. Processes that exit
// while being read are skipped.
func (s *Scanner) List() ([]Process, error) {
	ents, err := afero.ReadDir(s.fs, s.procRoot)
	if err != nil {
		return nil, err
	}
	var out []Process
	for _, ent := range ents {
		if !ent.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(ent.Name())
		if err != nil {
			continue
		}
		b, err := afero.ReadFile(s.fs, filepath.Join(s.procRoot, ent.Name(), "status"))
		if err != nil {
			continue
		}
		p, ok := parseStatus(pid, string(b))
		if !ok {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Process) int { return a.PID - b.PID })
	return out, nil
}

func parseStatus(pid int, status string) (Process, bool) {
	p := Process{PID: pid, UID: -1}
	for _, ln := range strings.Split(status, "\n") {
		f := strings.Fields(ln)
		if len(f) < 2 {
			continue
		}
		switch f[0] {
		case "Name:":
			p.Name = f[1]
		case "Uid:":
			if n, err := strconv.Atoi(f[1]); err == nil {
				p.UID = n
			}
		case "VmRSS:":
			v, _ := strconv.ParseUint(f[1], 10, 64)
			p.RSSBytes = v * 1024
		}
	}
	return p, p.UID >= 0
}

// Owned returns the processes whose real uid is uid.
func (s *Scanner) Owned(uid int) ([]Process, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(p Process) bool { return p.UID != uid }), nil
}

// Running reports whether uid owns any process.
func (s *Scanner) Running(uid int) (bool, error) {
	ps, err := s.Owned(uid)
	return len(ps) > 0, err
}

// Usage sums the process count and resident memory of uid.
func (s *Scanner) Usage(uid int) (count int, rssBytes uint64, err error) {
	ps, err := s.Owned(uid)
	if err != nil {
		return 0, 0, err
	}
	for _, p := range ps {
		rssBytes += p.RSSBytes
	}
	return len(ps), rssBytes, nil
}

// Terminate sends SIGTERM to every process of uid, and SIGKILL where SIGTERM
// cannot be delivered. Processes that are already gone are ignored. uid 0 is
// refused. It returns the number of processes signalled.
func (s *Scanner) Terminate(uid int) (int, error) {
	if uid == 0 {
		return 0, fmt.Errorf("refusing to terminate processes of uid 0")
	}
	ps, err := s.Owned(uid)
	if err != nil {
		return 0, err
	}
	var (
		errs []error
		n    int
	)
	for _, p := range ps {
		if p.PID == s.self {
			continue
		}
		err := s.kill(p.PID, unix.SIGTERM)
		if err != nil && !errors.Is(err, unix.ESRCH) {
			logger.Warn("SIGTERM pid %d (%s): %v, sending SIGKILL", p.PID, p.Name, err)
			err = s.kill(p.PID, unix.SIGKILL)
		}
		switch {
		case err == nil:
			n++
		case errors.Is(err, unix.ESRCH):
		default:
			errs = append(errs, fmt.Errorf("kill pid %d: %w", p.PID, err))
		}
	}
	return n, errors.Join(errs...)
}
