package accounts

import (
	"fmt"
	"regexp"
	"strings"
)

var nameRe = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

// ValidName enforces Debian-style user and group names: lowercase letters,
// digits, underscore and dash, starting with a letter or underscore, at most
// 32 characters.
func ValidName(s string) bool {
	return nameRe.MatchString(s)
}

func checkName(s string) error {
	if !ValidName(s) {
		return fmt.Errorf("%w: %q", ErrInvalidName, s)
	}
	return nil
}

// checkField rejects values that would split a colon-separated record.
func checkField(what, v string) error {
	if strings.ContainsAny(v, ":\n") {
		return fmt.Errorf("invalid %s %q: contains ':' or a newline", what, v)
	}
	return nil
}

func checkPath(what, v string) error {
	if !strings.HasPrefix(v, "/") {
		return fmt.Errorf("invalid %s %q: not absolute", what, v)
	}
	return checkField(what, v)
}
