package umdb

import (
	"github.com/hnrobert/umgmt/internal/records"
	"github.com/hnrobert/umgmt/internal/shadow"
)

// ShadowData is the shadow(5) part of a user. Numeric fields are records.Unset
// when empty.
type ShadowData struct {
	PasswordHash string
	LastChange   int64
	Min          int64
	Max          int64
	Warn         int64
	Inactive     int64
	Expire       int64
	Flags        int64
}

func unsetShadow() ShadowData {
	u := records.Unset
	return ShadowData{LastChange: u, Min: u, Max: u, Warn: u, Inactive: u, Expire: u, Flags: u}
}

type User struct {
	Name     string
	Password string
	UID      int
	GID      int
	Gecos    string
	Home     string
	Shell    string
	Shadow   ShadowData
}

// NewUser returns a user with the "x" placeholder password and unset aging
// fields.
func NewUser(name string) *User {
	return &User{Name: name, Password: "x", Shadow: unsetShadow()}
}

func userFromRecord(p records.Passwd) *User {
	return &User{
		Name:     p.Name,
		Password: p.Passwd,
		UID:      p.UID,
		GID:      p.GID,
		Gecos:    p.Gecos,
		Home:     p.Home,
		Shell:    p.Shell,
		Shadow:   unsetShadow(),
	}
}

func (u *User) applyShadow(s records.Shadow) {
	u.Shadow = ShadowData{
		PasswordHash: s.Hash,
		LastChange:   s.LastChange,
		Min:          s.Min,
		Max:          s.Max,
		Warn:         s.Warn,
		Inactive:     s.Inactive,
		Expire:       s.Expire,
		Flags:        s.Flags,
	}
}

func (u *User) passwdRecord() records.Passwd {
	return records.Passwd{
		Name:   u.Name,
		Passwd: u.Password,
		UID:    u.UID,
		GID:    u.GID,
		Gecos:  u.Gecos,
		Home:   u.Home,
		Shell:  u.Shell,
	}
}

func (u *User) shadowRecord() records.Shadow {
	s := u.Shadow
	return records.Shadow{
		Name:       u.Name,
		Hash:       s.PasswordHash,
		LastChange: s.LastChange,
		Min:        s.Min,
		Max:        s.Max,
		Warn:       s.Warn,
		Inactive:   s.Inactive,
		Expire:     s.Expire,
		Flags:      s.Flags,
	}
}

// Credential parses the stored password hash.
func (u *User) Credential() (*shadow.Credential, error) {
	return shadow.ParseEncoded(u.Shadow.PasswordHash)
}

// SetCredential encodes c into the password hash field.
func (u *User) SetCredential(c *shadow.Credential) error {
	enc, err := c.Encode()
	if err != nil {
		return err
	}
	u.Shadow.PasswordHash = enc
	return nil
}
