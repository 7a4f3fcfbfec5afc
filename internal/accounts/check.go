package accounts

import (
	"github.com/hnrobert/umgmt/internal/shadow"
	"github.com/hnrobert/umgmt/internal/umdb"
)

type CredentialStatus string

const (
	CredentialLocked   CredentialStatus = "locked"
	CredentialOK       CredentialStatus = "ok"
	CredentialUnknown  CredentialStatus = "unknown-algorithm"
	CredentialExtended CredentialStatus = "extended-format" // extra $-fields such as rounds= or yescrypt params
)

type CredentialInfo struct {
	User      string           `json:"user"`
	Status    CredentialStatus `json:"status"`
	Algorithm string           `json:"algorithm,omitempty"`
}

// CheckReport describes the consistency of the account files.
type CheckReport struct {
	Load        *umdb.LoadReport `json:"load"`
	Integrity   error            `json:"-"`
	Credentials []CredentialInfo `json:"credentials"`
}

// Clean reports whether the files loaded without skipped records and the
// graph has no dangling references.
func (r *CheckReport) Clean() bool {
	return r.Load.Clean() && r.Integrity == nil
}

// Check loads the account files without writing anything and classifies
// every user's password hash.
func (m *Manager) Check() (*CheckReport, error) {
	db, report, err := m.LoadWithReport()
	if err != nil {
		return nil, err
	}
	out := &CheckReport{Load: report, Integrity: db.CheckIntegrity()}
	for u := range db.Users() {
		out.Credentials = append(out.Credentials, classify(u))
	}
	return out, nil
}

func classify(u *umdb.User) CredentialInfo {
	info := CredentialInfo{User: u.Name}
	if shadow.Locked(u.Shadow.PasswordHash) {
		info.Status = CredentialLocked
		return info
	}
	c, err := u.Credential()
	if err != nil {
		info.Status = CredentialExtended
		return info
	}
	id := shadow.AlgorithmFromTag(c.Algorithm)
	if id == shadow.Unknown {
		info.Status = CredentialUnknown
		info.Algorithm = c.Algorithm
		return info
	}
	info.Status = CredentialOK
	info.Algorithm = id.String()
	return info
}
