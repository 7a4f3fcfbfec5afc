package umdb

import (
	"github.com/hnrobert/umgmt/internal/logger"
	"github.com/hnrobert/umgmt/internal/records"
)

// Unresolved is a member or admin name that matched no user of the load.
type Unresolved struct {
	Group string `json:"group"`
	User  string `json:"user"`
	Admin bool   `json:"admin,omitempty"`
}

// LoadReport lists the records a successful load skipped.
type LoadReport struct {
	OrphanShadow  []string     `json:"orphan_shadow,omitempty"`  // shadow entries without a passwd entry
	OrphanGshadow []string     `json:"orphan_gshadow,omitempty"` // gshadow entries without a group entry
	Unresolved    []Unresolved `json:"unresolved,omitempty"`
	Duplicates    []string     `json:"duplicates,omitempty"` // "kind:name" of repeated or already loaded names
}

// Clean reports whether nothing was skipped.
func (r *LoadReport) Clean() bool {
	return len(r.OrphanShadow) == 0 && len(r.OrphanGshadow) == 0 &&
		len(r.Unresolved) == 0 && len(r.Duplicates) == 0
}

// Load merges the four record streams into db. See LoadWithReport.
func (db *Database) Load(src records.Sources) error {
	_, err := db.LoadWithReport(src)
	return err
}

// LoadWithReport joins passwd with shadow and group with gshadow by name and
// resolves membership names into references to the users of this load.
//
// The load is all-or-nothing: on error db is unchanged. Names that are
// already present in db are skipped and reported, so a repeated load appends
// only what is new. Skipped records are logged at warn level.
//
// No file locking is done here; callers must hold whatever lock the platform
// uses for the account files.
func (db *Database) LoadWithReport(src records.Sources) (*LoadReport, error) {
	if src.Passwd == nil || src.Shadow == nil || src.Group == nil || src.Gshadow == nil {
		return nil, &RecordError{Op: "load", Err: ErrSourceUnavailable}
	}

	st := &staging{
		db:          db,
		report:      &LoadReport{},
		userByName:  map[string]*User{},
		groupByName: map[string]*Group{},
		unresolved:  map[Unresolved]bool{},
	}
	if err := st.users(src.Passwd); err != nil {
		return nil, err
	}
	if err := st.shadows(src.Shadow); err != nil {
		return nil, err
	}
	if err := st.groups(src.Group); err != nil {
		return nil, err
	}
	if err := st.gshadows(src.Gshadow); err != nil {
		return nil, err
	}

	for _, u := range st.userList {
		db.users = append(db.users, u)
		db.userByName[u.Name] = u
	}
	for _, g := range st.groupList {
		db.groups = append(db.groups, g)
		db.groupByName[g.Name] = g
	}
	logger.Debug("loaded %d users and %d groups", len(st.userList), len(st.groupList))
	return st.report, nil
}

type staging struct {
	db     *Database
	report *LoadReport

	userList    []*User
	groupList   []*Group
	userByName  map[string]*User
	groupByName map[string]*Group
	unresolved  map[Unresolved]bool
}

func (st *staging) duplicate(kind records.Kind, name string) {
	logger.Warn("%s: duplicate entry %q skipped", kind, name)
	st.report.Duplicates = append(st.report.Duplicates, kind.String()+":"+name)
}

func (st *staging) users(src records.Source[records.Passwd]) error {
	for p, err := range src.Records() {
		if err != nil {
			return loadError(records.KindPasswd, err)
		}
		if p.Name == "" {
			return &RecordError{Op: "load", Kind: records.KindPasswd, Err: ErrMalformedRecord}
		}
		if _, ok := st.userByName[p.Name]; ok {
			st.duplicate(records.KindPasswd, p.Name)
			continue
		}
		if _, ok := st.db.GetUser(p.Name); ok {
			st.duplicate(records.KindPasswd, p.Name)
			continue
		}
		u := userFromRecord(p)
		st.userList = append(st.userList, u)
		st.userByName[u.Name] = u
	}
	return nil
}

func (st *staging) shadows(src records.Source[records.Shadow]) error {
	seen := map[string]bool{}
	for s, err := range src.Records() {
		if err != nil {
			return loadError(records.KindShadow, err)
		}
		if s.Name == "" {
			return &RecordError{Op: "load", Kind: records.KindShadow, Err: ErrMalformedRecord}
		}
		u, ok := st.userByName[s.Name]
		if !ok {
			logger.Warn("shadow: entry %q has no passwd entry, skipped", s.Name)
			st.report.OrphanShadow = append(st.report.OrphanShadow, s.Name)
			continue
		}
		if seen[s.Name] {
			st.duplicate(records.KindShadow, s.Name)
			continue
		}
		seen[s.Name] = true
		u.applyShadow(s)
	}
	return nil
}

func (st *staging) groups(src records.Source[records.Group]) error {
	for r, err := range src.Records() {
		if err != nil {
			return loadError(records.KindGroup, err)
		}
		if r.Name == "" {
			return &RecordError{Op: "load", Kind: records.KindGroup, Err: ErrMalformedRecord}
		}
		if _, ok := st.groupByName[r.Name]; ok {
			st.duplicate(records.KindGroup, r.Name)
			continue
		}
		if _, ok := st.db.GetGroup(r.Name); ok {
			st.duplicate(records.KindGroup, r.Name)
			continue
		}
		g := &Group{Name: r.Name, Password: r.Passwd, GID: r.GID}
		// group(5) carries the member list too; hosts without gshadow rely on it.
		st.resolve(g, r.Members, false)
		st.groupList = append(st.groupList, g)
		st.groupByName[g.Name] = g
	}
	return nil
}

func (st *staging) gshadows(src records.Source[records.Gshadow]) error {
	seen := map[string]bool{}
	for r, err := range src.Records() {
		if err != nil {
			return loadError(records.KindGshadow, err)
		}
		if r.Name == "" {
			return &RecordError{Op: "load", Kind: records.KindGshadow, Err: ErrMalformedRecord}
		}
		g, ok := st.groupByName[r.Name]
		if !ok {
			logger.Warn("gshadow: entry %q has no group entry, skipped", r.Name)
			st.report.OrphanGshadow = append(st.report.OrphanGshadow, r.Name)
			continue
		}
		if seen[r.Name] {
			st.duplicate(records.KindGshadow, r.Name)
			continue
		}
		seen[r.Name] = true
		g.PasswordHash = r.Passwd
		st.resolve(g, r.Members, false)
		st.resolve(g, r.Admins, true)
	}
	return nil
}

// resolve adds each named user to g once, in list order.
func (st *staging) resolve(g *Group, names []string, admin bool) {
	for _, name := range names {
		u, ok := st.userByName[name]
		if !ok {
			key := Unresolved{Group: g.Name, User: name, Admin: admin}
			if st.unresolved[key] {
				continue
			}
			st.unresolved[key] = true
			role := "member"
			if admin {
				role = "admin"
			}
			logger.Warn("group %q: %s %q is not a known user, skipped", g.Name, role, name)
			st.report.Unresolved = append(st.report.Unresolved, key)
			continue
		}
		switch {
		case admin && !g.HasAdmin(u):
			g.AddAdmin(u)
		case !admin && !g.HasMember(u):
			g.AddMember(u)
		}
	}
}
