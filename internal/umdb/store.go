package umdb

import (
	"fmt"

	"github.com/hnrobert/umgmt/internal/records"
)

// Store writes the whole database to dst, replacing every file. Member and
// admin name lists are derived from the current relations.
//
// All records are written before anything is committed, so a bad record
// leaves every destination untouched. Commits then run in the order passwd,
// shadow, group, gshadow; if one fails the later ones are discarded and the
// earlier ones stay written. There is no cross-file rollback.
//
// A database failing CheckIntegrity is refused before any sink is opened.
func (db *Database) Store(dst records.Sinks) error {
	if dst.Passwd == nil || dst.Shadow == nil || dst.Group == nil || dst.Gshadow == nil {
		return &RecordError{Op: "store", Err: ErrSinkUnavailable}
	}
	if err := db.CheckIntegrity(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	var (
		pw  records.Writer[records.Passwd]
		sh  records.Writer[records.Shadow]
		gr  records.Writer[records.Group]
		gsh records.Writer[records.Gshadow]
		err error
	)
	var opened []interface{ Discard() }
	discard := func() {
		for _, w := range opened {
			w.Discard()
		}
	}

	if pw, err = dst.Passwd.Open(); err != nil {
		return storeError(records.KindPasswd, "", err)
	}
	opened = append(opened, pw)
	if sh, err = dst.Shadow.Open(); err != nil {
		discard()
		return storeError(records.KindShadow, "", err)
	}
	opened = append(opened, sh)
	if gr, err = dst.Group.Open(); err != nil {
		discard()
		return storeError(records.KindGroup, "", err)
	}
	opened = append(opened, gr)
	if gsh, err = dst.Gshadow.Open(); err != nil {
		discard()
		return storeError(records.KindGshadow, "", err)
	}
	opened = append(opened, gsh)

	for _, u := range db.users {
		if err := pw.Write(u.passwdRecord()); err != nil {
			discard()
			return writeError(records.KindPasswd, u.Name, err)
		}
		if err := sh.Write(u.shadowRecord()); err != nil {
			discard()
			return writeError(records.KindShadow, u.Name, err)
		}
	}
	for _, g := range db.groups {
		if err := gr.Write(g.groupRecord()); err != nil {
			discard()
			return writeError(records.KindGroup, g.Name, err)
		}
		if err := gsh.Write(g.gshadowRecord()); err != nil {
			discard()
			return writeError(records.KindGshadow, g.Name, err)
		}
	}

	commits := []struct {
		kind   records.Kind
		commit func() error
	}{
		{records.KindPasswd, pw.Commit},
		{records.KindShadow, sh.Commit},
		{records.KindGroup, gr.Commit},
		{records.KindGshadow, gsh.Commit},
	}
	for i, c := range commits {
		if err := c.commit(); err != nil {
			for _, w := range opened[i+1:] {
				w.Discard()
			}
			return writeError(c.kind, "", err)
		}
	}
	return nil
}

func storeError(kind records.Kind, name string, err error) error {
	return &RecordError{Op: "store", Kind: kind, Name: name, Err: err}
}

func writeError(kind records.Kind, name string, err error) error {
	return storeError(kind, name, fmt.Errorf("%w: %w", ErrWriteFailure, err))
}
