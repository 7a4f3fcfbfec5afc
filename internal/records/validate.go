package records

import (
	"fmt"
	"strings"
)

// Validate reports a field that would not read back as written: a colon or
// newline anywhere, an empty name, or a comma or empty entry in a name list.
func (e Passwd) Validate() error {
	return check(KindPasswd, e.Name,
		field{"passwd", e.Passwd}, field{"gecos", e.Gecos},
		field{"home", e.Home}, field{"shell", e.Shell})
}

func (e Shadow) Validate() error {
	return check(KindShadow, e.Name, field{"hash", e.Hash})
}

func (e Group) Validate() error {
	if err := check(KindGroup, e.Name, field{"passwd", e.Passwd}); err != nil {
		return err
	}
	return checkList(KindGroup, e.Name, "member", e.Members)
}

func (e Gshadow) Validate() error {
	if err := check(KindGshadow, e.Name, field{"passwd", e.Passwd}); err != nil {
		return err
	}
	if err := checkList(KindGshadow, e.Name, "admin", e.Admins); err != nil {
		return err
	}
	return checkList(KindGshadow, e.Name, "member", e.Members)
}

type field struct {
	name, value string
}

func check(kind Kind, name string, fs ...field) error {
	if name == "" {
		return &ParseError{Kind: kind, Err: fmt.Errorf("%w: empty name", ErrMalformed)}
	}
	for _, f := range append([]field{{"name", name}}, fs...) {
		if strings.ContainsAny(f.value, ":\n") {
			return &ParseError{Kind: kind, Name: name,
				Err: fmt.Errorf("%w: %s %q contains ':' or a newline", ErrMalformed, f.name, f.value)}
		}
	}
	if strings.Contains(name, ",") {
		return &ParseError{Kind: kind, Name: name, Err: fmt.Errorf("%w: name contains ','", ErrMalformed)}
	}
	return nil
}

func checkList(kind Kind, name, role string, list []string) error {
	for _, v := range list {
		if v == "" || strings.ContainsAny(v, ":,\n") || strings.TrimSpace(v) != v {
			return &ParseError{Kind: kind, Name: name,
				Err: fmt.Errorf("%w: %s %q cannot be listed", ErrMalformed, role, v)}
		}
	}
	return nil
}
