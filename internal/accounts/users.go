package accounts

import (
	"fmt"
	"path"
	"strings"

	"github.com/hnrobert/umgmt/internal/logger"
	"github.com/hnrobert/umgmt/internal/shadow"
	"github.com/hnrobert/umgmt/internal/umdb"
)

type CreateUserRequest struct {
	Username string
	// Password is hashed with the configured algorithm. PasswordHash, when
	// set, is stored as is. With neither the account is created locked.
	Password     string
	PasswordHash string
	Gecos        string
	Home         string
	Shell        string
	AddToSudo    bool
	ExtraGroups  []string
	CreateHome   bool
}

type DeleteUserOptions struct {
	RemoveHome    bool
	KillProcesses bool
}

// CreateUser adds a user, creating a primary group of the same name when
// none exists.
func (m *Manager) CreateUser(req CreateUserRequest) (*umdb.User, error) {
	if err := checkName(req.Username); err != nil {
		return nil, err
	}
	if err := checkField("gecos", req.Gecos); err != nil {
		return nil, err
	}
	if err := checkField("password hash", req.PasswordHash); err != nil {
		return nil, err
	}
	if req.Home != "" {
		if err := checkPath("home", req.Home); err != nil {
			return nil, err
		}
	}
	if req.Shell != "" {
		if err := checkPath("shell", req.Shell); err != nil {
			return nil, err
		}
	}
	hash := req.PasswordHash
	if hash == "" && req.Password != "" {
		h, err := shadow.Crypt(req.Password, m.opts.HashAlgorithm)
		if err != nil {
			return nil, err
		}
		hash = h
	}
	if hash == "" {
		hash = "!"
	}

	var created *umdb.User
	err := m.update("created user "+req.Username, func(db *umdb.Database) error {
		if _, ok := db.GetUser(req.Username); ok {
			return fmt.Errorf("user %q: %w", req.Username, umdb.ErrExists)
		}

		primary, ok := db.GetGroup(req.Username)
		if !ok {
			gid, err := m.allocate(db.NewGID())
			if err != nil {
				return err
			}
			primary = umdb.NewGroup(req.Username, gid)
			if err := db.AddGroup(primary); err != nil {
				return err
			}
		}
		uid, err := m.allocate(db.NewUID())
		if err != nil {
			return err
		}

		u := umdb.NewUser(req.Username)
		u.UID = uid
		u.GID = primary.GID
		u.Gecos = req.Gecos
		u.Home = req.Home
		if u.Home == "" {
			u.Home = path.Join(m.opts.HomeBase, req.Username)
		}
		u.Shell = req.Shell
		if u.Shell == "" {
			u.Shell = m.opts.DefaultShell
		}
		u.Shadow.PasswordHash = hash
		u.Shadow.LastChange = m.today()
		u.Shadow.Min = 0
		u.Shadow.Max = 99999
		u.Shadow.Warn = 7
		if err := db.AddUser(u); err != nil {
			return err
		}

		for _, name := range req.ExtraGroups {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			g, ok := db.GetGroup(name)
			if !ok {
				return fmt.Errorf("%w: %s", ErrGroupNotFound, name)
			}
			if !g.HasMember(u) {
				g.AddMember(u)
			}
		}
		if req.AddToSudo {
			if err := m.grantSudo(db, u); err != nil {
				return err
			}
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.CreateHome {
		if err := m.makeHome(created); err != nil {
			return created, fmt.Errorf("create home: %w", err)
		}
	}
	return created, nil
}

// grantSudo adds u to sudo, or wheel, creating sudo when neither exists.
func (m *Manager) grantSudo(db *umdb.Database, u *umdb.User) error {
	for _, name := range adminGroups {
		if g, ok := db.GetGroup(name); ok {
			if !g.HasMember(u) {
				g.AddMember(u)
			}
			return nil
		}
	}
	gid, err := m.allocate(db.NewGID())
	if err != nil {
		return err
	}
	g := umdb.NewGroup(adminGroups[0], gid)
	g.AddMember(u)
	return db.AddGroup(g)
}

func (m *Manager) makeHome(u *umdb.User) error {
	abs, err := m.host.Abs(u.Home)
	if err != nil {
		return err
	}
	if err := m.host.EnsureDir(abs, 0755); err != nil {
		return err
	}
	if err := m.host.Chown(abs, u.UID, u.GID); err != nil {
		logger.Warn("chown %s: %v", abs, err)
	}
	return nil
}

// DeleteUser removes a user from the account files and from every group.
// A primary group named after the user is removed too once nothing else
// uses it.
func (m *Manager) DeleteUser(username string, opts DeleteUserOptions) error {
	var home string
	err := m.update("deleted user "+username, func(db *umdb.Database) error {
		u, ok := db.GetUser(username)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		if u.UID == 0 {
			return ErrProtected
		}
		if opts.KillProcesses {
			if m.procs == nil {
				return fmt.Errorf("process termination is not configured")
			}
			n, err := m.procs.Terminate(u.UID)
			if err != nil {
				return fmt.Errorf("terminate processes of %s: %w", username, err)
			}
			if n > 0 {
				logger.Info("signalled %d processes of %s", n, username)
			}
		}
		home = u.Home
		gid := u.GID
		db.DeleteUser(username)

		if g, ok := db.GetGroup(username); ok && g.GID == gid && !primaryInUse(db, gid) &&
			len(g.MemberNames()) == 0 && len(g.AdminNames()) == 0 {
			db.DeleteGroup(username)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if opts.RemoveHome && home != "" {
		abs, err := m.host.Abs(home)
		if err != nil {
			return fmt.Errorf("remove home: %w", err)
		}
		if err := m.host.RemoveTree(abs); err != nil {
			return fmt.Errorf("remove home: %w", err)
		}
	}
	return nil
}

// SetShell changes the login shell of a user.
func (m *Manager) SetShell(username, shell string) error {
	if err := checkPath("shell", shell); err != nil {
		return err
	}
	return m.update("changed shell of "+username, func(db *umdb.Database) error {
		u, ok := db.GetUser(username)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		u.Shell = shell
		return nil
	})
}

// IsAdmin reports whether the user is in the sudo or wheel group.
func (m *Manager) IsAdmin(username string) (bool, error) {
	db, err := m.Load()
	if err != nil {
		return false, err
	}
	u, ok := db.GetUser(username)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	for _, name := range adminGroups {
		if g, ok := db.GetGroup(name); ok && g.HasMember(u) {
			return true, nil
		}
	}
	return false, nil
}

var adminGroups = []string{"sudo", "wheel"}

func primaryInUse(db *umdb.Database, gid int) bool {
	for u := range db.Users() {
		if u.GID == gid {
			return true
		}
	}
	return false
}
