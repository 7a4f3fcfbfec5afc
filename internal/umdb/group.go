package umdb

import (
	"iter"
	"slices"

	"github.com/hnrobert/umgmt/internal/records"
)

// Group carries group(5) and gshadow(5) fields. Members and admins are
// references to Users owned by the Database; a Group never owns them.
type Group struct {
	Name         string
	Password     string
	GID          int
	PasswordHash string

	members []*User
	admins  []*User
}

func NewGroup(name string, gid int) *Group {
	return &Group{Name: name, Password: "x", GID: gid}
}

// AddMember appends u. Duplicates are kept; use HasMember first for set
// semantics.
func (g *Group) AddMember(u *User) { g.members = append(g.members, u) }

// AddAdmin appends u. Duplicates are kept.
func (g *Group) AddAdmin(u *User) { g.admins = append(g.admins, u) }

// Members yields members in insertion order.
func (g *Group) Members() iter.Seq[*User] { return seq(g.members) }

// Admins yields admins in insertion order.
func (g *Group) Admins() iter.Seq[*User] { return seq(g.admins) }

func (g *Group) MemberNames() []string { return names(g.members) }

func (g *Group) AdminNames() []string { return names(g.admins) }

func (g *Group) HasMember(u *User) bool { return slices.Contains(g.members, u) }

func (g *Group) HasAdmin(u *User) bool { return slices.Contains(g.admins, u) }

// RemoveMember drops every occurrence of u and reports whether any existed.
func (g *Group) RemoveMember(u *User) bool { return remove(&g.members, u) }

// RemoveAdmin drops every occurrence of u and reports whether any existed.
func (g *Group) RemoveAdmin(u *User) bool { return remove(&g.admins, u) }

func (g *Group) groupRecord() records.Group {
	return records.Group{Name: g.Name, Passwd: g.Password, GID: g.GID, Members: g.MemberNames()}
}

func (g *Group) gshadowRecord() records.Gshadow {
	return records.Gshadow{Name: g.Name, Passwd: g.PasswordHash, Admins: g.AdminNames(), Members: g.MemberNames()}
}

func seq(us []*User) iter.Seq[*User] {
	return func(yield func(*User) bool) {
		for _, u := range us {
			if !yield(u) {
				return
			}
		}
	}
}

func names(us []*User) []string {
	if len(us) == 0 {
		return nil
	}
	out := make([]string, 0, len(us))
	for _, u := range us {
		out = append(out, u.Name)
	}
	return out
}

func remove(list *[]*User, u *User) bool {
	n := len(*list)
	*list = slices.DeleteFunc(*list, func(v *User) bool { return v == u })
	return len(*list) != n
}
