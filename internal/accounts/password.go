package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/hnrobert/umgmt/internal/logger"
	"github.com/hnrobert/umgmt/internal/shadow"
	"github.com/hnrobert/umgmt/internal/umdb"
)

// SetPassword hashes password with the configured algorithm and resets the
// last-change day.
func (m *Manager) SetPassword(username, password string) error {
	if password == "" {
		return fmt.Errorf("empty password")
	}
	hash, err := shadow.Crypt(password, m.opts.HashAlgorithm)
	if err != nil {
		return err
	}
	return m.update("changed password of "+username, func(db *umdb.Database) error {
		u, ok := db.GetUser(username)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		u.Shadow.PasswordHash = hash
		u.Shadow.LastChange = m.today()
		return nil
	})
}

// Lock disables password login by prefixing the hash with '!'.
func (m *Manager) Lock(username string) error {
	return m.update("locked "+username, func(db *umdb.Database) error {
		u, ok := db.GetUser(username)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		if len(u.Shadow.PasswordHash) == 0 || u.Shadow.PasswordHash[0] != '!' {
			u.Shadow.PasswordHash = "!" + u.Shadow.PasswordHash
		}
		return nil
	})
}

// VerifyPassword checks password against the user's shadow hash. Hash
// formats the crypt package cannot handle are checked through su(1).
func (m *Manager) VerifyPassword(ctx context.Context, username, password string) error {
	db, err := m.Load()
	if err != nil {
		return err
	}
	u, ok := db.GetUser(username)
	if !ok {
		return ErrInvalidCredentials
	}
	hash := u.Shadow.PasswordHash
	if shadow.Locked(hash) {
		return ErrUserLocked
	}

	ok, err = shadow.VerifyCrypt(hash, password)
	if errors.Is(err, shadow.ErrUnsupportedHash) {
		logger.Debug("hash of %s not supported, falling back to su", username)
		ok, err = m.suVerify(ctx, username, password)
	}
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}
