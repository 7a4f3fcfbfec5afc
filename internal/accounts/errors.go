package accounts

import (
	"errors"
	"fmt"

	"github.com/hnrobert/umgmt/internal/umdb"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserLocked         = errors.New("user is locked")
	ErrGroupInUse         = errors.New("group is the primary group of a user")
	ErrNotMember          = errors.New("user is not in the group list")
	ErrProtected          = errors.New("refusing to modify the superuser")
	ErrIDExhausted        = errors.New("no free id in the configured range")
	ErrAuthBackend        = errors.New("auth backend error")
)

// HumanError turns an error from this package into a sentence for an
// operator.
func HumanError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, ErrUserLocked):
		return "This account is locked."
	case errors.Is(err, ErrUserNotFound):
		return "No such user."
	case errors.Is(err, ErrGroupNotFound):
		return "No such group."
	case errors.Is(err, umdb.ErrExists):
		return "The name or id is already taken."
	case errors.Is(err, umdb.ErrMalformedRecord):
		return fmt.Sprintf("An account file is malformed: %v", err)
	default:
		return fmt.Sprintf("Operation failed: %v", err)
	}
}
