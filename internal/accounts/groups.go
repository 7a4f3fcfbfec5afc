package accounts

import (
	"fmt"

	"github.com/hnrobert/umgmt/internal/umdb"
)

// AddGroup creates an empty group. Pass AutoID to allocate the gid.
func (m *Manager) AddGroup(name string, gid int) (*umdb.Group, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	var created *umdb.Group
	err := m.update("created group "+name, func(db *umdb.Database) error {
		if _, ok := db.GetGroup(name); ok {
			return fmt.Errorf("group %q: %w", name, umdb.ErrExists)
		}
		if gid == AutoID {
			next, err := m.allocate(db.NewGID())
			if err != nil {
				return err
			}
			gid = next
		} else if gid < 0 {
			return fmt.Errorf("invalid gid %d", gid)
		}
		if g, ok := db.GetGroupByGID(gid); ok {
			return fmt.Errorf("gid %d used by %q: %w", gid, g.Name, umdb.ErrExists)
		}
		created = umdb.NewGroup(name, gid)
		return db.AddGroup(created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteGroup removes a group. Primary groups of existing users are kept.
func (m *Manager) DeleteGroup(name string) error {
	return m.update("deleted group "+name, func(db *umdb.Database) error {
		g, ok := db.GetGroup(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrGroupNotFound, name)
		}
		if primaryInUse(db, g.GID) {
			return fmt.Errorf("%s: %w", name, ErrGroupInUse)
		}
		db.DeleteGroup(name)
		return nil
	})
}

// AddMember is a no-op when the user is already a member.
func (m *Manager) AddMember(group, username string) error {
	return m.editMembership("added "+username+" to "+group, group, username, func(g *umdb.Group, u *umdb.User) error {
		if !g.HasMember(u) {
			g.AddMember(u)
		}
		return nil
	})
}

func (m *Manager) RemoveMember(group, username string) error {
	return m.editMembership("removed "+username+" from "+group, group, username, func(g *umdb.Group, u *umdb.User) error {
		if !g.RemoveMember(u) {
			return fmt.Errorf("%s in %s members: %w", username, group, ErrNotMember)
		}
		return nil
	})
}

// AddAdmin is a no-op when the user is already an administrator.
func (m *Manager) AddAdmin(group, username string) error {
	return m.editMembership("made "+username+" admin of "+group, group, username, func(g *umdb.Group, u *umdb.User) error {
		if !g.HasAdmin(u) {
			g.AddAdmin(u)
		}
		return nil
	})
}

func (m *Manager) RemoveAdmin(group, username string) error {
	return m.editMembership("removed "+username+" as admin of "+group, group, username, func(g *umdb.Group, u *umdb.User) error {
		if !g.RemoveAdmin(u) {
			return fmt.Errorf("%s in %s admins: %w", username, group, ErrNotMember)
		}
		return nil
	})
}

func (m *Manager) editMembership(op, group, username string, fn func(*umdb.Group, *umdb.User) error) error {
	return m.update(op, func(db *umdb.Database) error {
		g, ok := db.GetGroup(group)
		if !ok {
			return fmt.Errorf("%w: %s", ErrGroupNotFound, group)
		}
		u, ok := db.GetUser(username)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return fn(g, u)
	})
}
