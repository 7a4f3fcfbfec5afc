// Package accounts implements the administrative workflows on top of the
// account database: every change loads the host files, edits the graph and
// stores it back.
package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/hnrobert/umgmt/internal/hostfs"
	"github.com/hnrobert/umgmt/internal/logger"
	"github.com/hnrobert/umgmt/internal/procs"
	"github.com/hnrobert/umgmt/internal/records"
	"github.com/hnrobert/umgmt/internal/umdb"
)

// AutoID asks AddGroup to allocate the gid.
const AutoID = -1

type Options struct {
	// IDs handed out by CreateUser and AddGroup stay in [IDMin, IDMax).
	IDMin int
	IDMax int

	HashAlgorithm string // md5, sha256, sha512, blowfish or bcrypt
	DefaultShell  string
	HomeBase      string
}

func DefaultOptions() Options {
	return Options{
		IDMin:         umdb.MinRegularID,
		IDMax:         60000,
		HashAlgorithm: "sha512",
		DefaultShell:  "/bin/bash",
		HomeBase:      "/home",
	}
}

type Manager struct {
	host  *hostfs.Host
	files *records.FileSet
	procs *procs.Scanner
	opts  Options

	now      func() time.Time
	suVerify func(ctx context.Context, username, password string) (bool, error)
}

// New returns a Manager for the account files below h. p may be nil, in which
// case process termination is unavailable.
func New(h *hostfs.Host, p *procs.Scanner, opts Options) *Manager {
	def := DefaultOptions()
	if opts.IDMin <= 0 {
		opts.IDMin = def.IDMin
	}
	if opts.IDMax <= opts.IDMin {
		opts.IDMax = def.IDMax
	}
	if opts.HashAlgorithm == "" {
		opts.HashAlgorithm = def.HashAlgorithm
	}
	if opts.DefaultShell == "" {
		opts.DefaultShell = def.DefaultShell
	}
	if opts.HomeBase == "" {
		opts.HomeBase = def.HomeBase
	}
	files := records.NewFileSet(h)
	files.MissingOK = true
	return &Manager{
		host:     h,
		files:    files,
		procs:    p,
		opts:     opts,
		now:      time.Now,
		suVerify: verifyWithSu,
	}
}

func (m *Manager) Options() Options { return m.opts }

// Load reads the host files into a fresh database.
func (m *Manager) Load() (*umdb.Database, error) {
	db, _, err := m.LoadWithReport()
	return db, err
}

func (m *Manager) LoadWithReport() (*umdb.Database, *umdb.LoadReport, error) {
	db := umdb.New()
	report, err := db.LoadWithReport(m.files.Sources())
	if err != nil {
		return nil, nil, err
	}
	return db, report, nil
}

// update runs fn on a freshly loaded database and stores the result when fn
// succeeds.
func (m *Manager) update(op string, fn func(db *umdb.Database) error) error {
	db, err := m.Load()
	if err != nil {
		return err
	}
	if err := fn(db); err != nil {
		return err
	}
	if err := db.Store(m.files.Sinks()); err != nil {
		logger.Error("%s: store failed: %v", op, err)
		return err
	}
	logger.Info("%s", op)
	return nil
}

// NextIDs returns the uid and gid the next CreateUser would use for a new
// primary group.
func (m *Manager) NextIDs() (uid, gid int, err error) {
	db, err := m.Load()
	if err != nil {
		return 0, 0, err
	}
	if uid, err = m.allocate(db.NewUID()); err != nil {
		return 0, 0, err
	}
	if gid, err = m.allocate(db.NewGID()); err != nil {
		return 0, 0, err
	}
	return uid, gid, nil
}

func (m *Manager) allocate(next int) (int, error) {
	next = max(next, m.opts.IDMin)
	if next >= m.opts.IDMax {
		return 0, fmt.Errorf("%w: [%d, %d)", ErrIDExhausted, m.opts.IDMin, m.opts.IDMax)
	}
	return next, nil
}

// days since the epoch, as stored in shadow(5)
func (m *Manager) today() int64 {
	return m.now().Unix() / 86400
}
