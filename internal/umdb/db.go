package umdb

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
)

// Regular account ids are allocated from [MinRegularID, MaxRegularID).
const (
	MinRegularID = 1000
	MaxRegularID = 65534
)

// Database owns every User and Group, kept in discovery order.
//
// Lookups go by the current Name. Rename through RenameUser and RenameGroup
// to have collisions rejected; assigning Name directly still works but skips
// that check.
type Database struct {
	users  []*User
	groups []*Group

	// caches keyed by the name at insert or rename time
	userByName  map[string]*User
	groupByName map[string]*Group
}

func New() *Database {
	return &Database{
		userByName:  map[string]*User{},
		groupByName: map[string]*Group{},
	}
}

// Reset releases all users and groups.
func (db *Database) Reset() {
	db.users = nil
	db.groups = nil
	clear(db.userByName)
	clear(db.groupByName)
}

func (db *Database) Users() iter.Seq[*User] {
	return func(yield func(*User) bool) {
		for _, u := range db.users {
			if !yield(u) {
				return
			}
		}
	}
}

func (db *Database) Groups() iter.Seq[*Group] {
	return func(yield func(*Group) bool) {
		for _, g := range db.groups {
			if !yield(g) {
				return
			}
		}
	}
}

func (db *Database) UserCount() int  { return len(db.users) }
func (db *Database) GroupCount() int { return len(db.groups) }

// AddUser transfers ownership of u to the database.
func (db *Database) AddUser(u *User) error {
	if u == nil || u.Name == "" {
		return fmt.Errorf("%w: user has no name", ErrMalformedRecord)
	}
	if _, ok := db.GetUser(u.Name); ok {
		return fmt.Errorf("user %q: %w", u.Name, ErrExists)
	}
	db.users = append(db.users, u)
	db.userByName[u.Name] = u
	return nil
}

// AddGroup transfers ownership of g to the database.
func (db *Database) AddGroup(g *Group) error {
	if g == nil || g.Name == "" {
		return fmt.Errorf("%w: group has no name", ErrMalformedRecord)
	}
	if _, ok := db.GetGroup(g.Name); ok {
		return fmt.Errorf("group %q: %w", g.Name, ErrExists)
	}
	db.groups = append(db.groups, g)
	db.groupByName[g.Name] = g
	return nil
}

func (db *Database) GetUser(name string) (*User, bool) {
	if u, ok := db.userByName[name]; ok && u.Name == name {
		return u, true
	}
	for _, u := range db.users {
		if u.Name == name {
			db.userByName[name] = u
			return u, true
		}
	}
	return nil, false
}

func (db *Database) GetGroup(name string) (*Group, bool) {
	if g, ok := db.groupByName[name]; ok && g.Name == name {
		return g, true
	}
	for _, g := range db.groups {
		if g.Name == name {
			db.groupByName[name] = g
			return g, true
		}
	}
	return nil, false
}

// RenameUser changes a user's name. Group relations follow automatically.
func (db *Database) RenameUser(from, to string) error {
	if to == "" {
		return fmt.Errorf("%w: user has no name", ErrMalformedRecord)
	}
	u, ok := db.GetUser(from)
	if !ok {
		return fmt.Errorf("user %q: %w", from, ErrNotFound)
	}
	if v, ok := db.GetUser(to); ok && v != u {
		return fmt.Errorf("user %q: %w", to, ErrExists)
	}
	maps.DeleteFunc(db.userByName, func(_ string, v *User) bool { return v == u })
	u.Name = to
	db.userByName[to] = u
	return nil
}

func (db *Database) RenameGroup(from, to string) error {
	if to == "" {
		return fmt.Errorf("%w: group has no name", ErrMalformedRecord)
	}
	g, ok := db.GetGroup(from)
	if !ok {
		return fmt.Errorf("group %q: %w", from, ErrNotFound)
	}
	if v, ok := db.GetGroup(to); ok && v != g {
		return fmt.Errorf("group %q: %w", to, ErrExists)
	}
	maps.DeleteFunc(db.groupByName, func(_ string, v *Group) bool { return v == g })
	g.Name = to
	db.groupByName[to] = g
	return nil
}

// GetUserByUID returns the first user with uid.
func (db *Database) GetUserByUID(uid int) (*User, bool) {
	for _, u := range db.users {
		if u.UID == uid {
			return u, true
		}
	}
	return nil, false
}

// GetGroupByGID returns the first group with gid.
func (db *Database) GetGroupByGID(gid int) (*Group, bool) {
	for _, g := range db.groups {
		if g.GID == gid {
			return g, true
		}
	}
	return nil, false
}

// DeleteUser removes the named user and drops it from every group's member
// and admin lists. It reports whether the user existed.
func (db *Database) DeleteUser(name string) bool {
	u, ok := db.GetUser(name)
	if !ok {
		return false
	}
	for _, g := range db.groups {
		g.RemoveMember(u)
		g.RemoveAdmin(u)
	}
	maps.DeleteFunc(db.userByName, func(_ string, v *User) bool { return v == u })
	db.users = slices.DeleteFunc(db.users, func(v *User) bool { return v == u })
	return true
}

// DeleteGroup removes the named group. Users are not affected.
func (db *Database) DeleteGroup(name string) bool {
	g, ok := db.GetGroup(name)
	if !ok {
		return false
	}
	maps.DeleteFunc(db.groupByName, func(_ string, v *Group) bool { return v == g })
	db.groups = slices.DeleteFunc(db.groups, func(v *Group) bool { return v == g })
	return true
}

// GroupsOf lists the groups u is a member of, in group order.
func (db *Database) GroupsOf(u *User) []*Group {
	var out []*Group
	for _, g := range db.groups {
		if g.HasMember(u) {
			out = append(out, g)
		}
	}
	return out
}

// NewUID returns one past the highest regular uid, or MinRegularID. Gaps are
// never reused.
func (db *Database) NewUID() int {
	next := MinRegularID
	for _, u := range db.users {
		next = watermark(next, u.UID)
	}
	return next
}

// NewGID returns one past the highest regular gid among users' primary
// groups and the groups themselves, or MinRegularID.
func (db *Database) NewGID() int {
	next := MinRegularID
	for _, u := range db.users {
		next = watermark(next, u.GID)
	}
	for _, g := range db.groups {
		next = watermark(next, g.GID)
	}
	return next
}

func watermark(next, id int) int {
	if id >= MinRegularID && id < MaxRegularID && id >= next {
		return id + 1
	}
	return next
}

// CheckIntegrity reports member or admin references to users the database
// does not own, and names held by more than one user or group.
func (db *Database) CheckIntegrity() error {
	var errs []error
	seen := map[string]bool{}
	for _, u := range db.users {
		if seen[u.Name] {
			errs = append(errs, fmt.Errorf("user %q: %w", u.Name, ErrExists))
		}
		seen[u.Name] = true
	}
	clear(seen)
	for _, g := range db.groups {
		if seen[g.Name] {
			errs = append(errs, fmt.Errorf("group %q: %w", g.Name, ErrExists))
		}
		seen[g.Name] = true
	}
	for _, g := range db.groups {
		for _, rel := range []struct {
			what string
			list []*User
		}{{"member", g.members}, {"admin", g.admins}} {
			for _, u := range rel.list {
				if u == nil {
					errs = append(errs, fmt.Errorf("group %q: nil %s: %w", g.Name, rel.what, ErrDanglingReference))
					continue
				}
				if !slices.Contains(db.users, u) {
					errs = append(errs, fmt.Errorf("group %q: %s %q: %w", g.Name, rel.what, u.Name, ErrDanglingReference))
				}
			}
		}
	}
	return errors.Join(errs...)
}
