package records

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var ErrMalformed = errors.New("malformed record")

// ParseError locates a record that could not be parsed, or one that could
// not be written. Line is 0 for the latter.
type ParseError struct {
	Kind Kind
	Line int
	Name string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		if e.Name != "" {
			return fmt.Sprintf("%s (%s): %v", e.Kind, e.Name, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Name != "" {
		return fmt.Sprintf("%s line %d (%s): %v", e.Kind, e.Line, e.Name, e.Err)
	}
	return fmt.Sprintf("%s line %d: %v", e.Kind, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseColonLine(line string) []string {
	// Keep trailing empty fields.
	return strings.Split(line, ":")
}

func readLines(r io.Reader) ([]string, error) {
	s := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 1024*1024)
	var lines []string
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// skipLine reports blank and comment lines.
func skipLine(line string) bool {
	trim := strings.TrimSpace(line)
	return trim == "" || strings.HasPrefix(trim, "#")
}

func atoi(field, ctx string) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrMalformed, ctx, field)
	}
	return n, nil
}

func optionalInt(field, ctx string) (int64, error) {
	if field == "" {
		return Unset, nil
	}
	n, err := strconv.ParseInt(field, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrMalformed, ctx, field)
	}
	return n, nil
}

func splitList(field string) []string {
	if field == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(field, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func fields(line string, want int, kind Kind) ([]string, error) {
	parts := parseColonLine(line)
	if len(parts) < want {
		return parts, fmt.Errorf("%w: %d fields, %s needs %d", ErrMalformed, len(parts), kind, want)
	}
	if parts[0] == "" {
		return parts, fmt.Errorf("%w: empty name", ErrMalformed)
	}
	return parts, nil
}

func ParsePasswd(line string) (Passwd, error) {
	parts, err := fields(line, 7, KindPasswd)
	if err != nil {
		return Passwd{}, err
	}
	uid, err := atoi(parts[2], "uid")
	if err != nil {
		return Passwd{}, err
	}
	gid, err := atoi(parts[3], "gid")
	if err != nil {
		return Passwd{}, err
	}
	return Passwd{
		Name:   parts[0],
		Passwd: parts[1],
		UID:    uid,
		GID:    gid,
		Gecos:  parts[4],
		Home:   parts[5],
		// Extra colons belong to the shell field.
		Shell: strings.Join(parts[6:], ":"),
	}, nil
}

// ParseShadow accepts short lines; missing trailing fields are Unset.
func ParseShadow(line string) (Shadow, error) {
	parts, err := fields(line, 2, KindShadow)
	if err != nil {
		return Shadow{}, err
	}
	for len(parts) < 9 {
		parts = append(parts, "")
	}
	e := Shadow{Name: parts[0], Hash: parts[1]}
	targets := []struct {
		dst *int64
		ctx string
	}{
		{&e.LastChange, "last change"},
		{&e.Min, "minimum age"},
		{&e.Max, "maximum age"},
		{&e.Warn, "warning period"},
		{&e.Inactive, "inactivity period"},
		{&e.Expire, "expiration date"},
		{&e.Flags, "reserved field"},
	}
	for i, t := range targets {
		if *t.dst, err = optionalInt(parts[i+2], t.ctx); err != nil {
			return Shadow{}, err
		}
	}
	return e, nil
}

func ParseGroup(line string) (Group, error) {
	parts, err := fields(line, 4, KindGroup)
	if err != nil {
		return Group{}, err
	}
	gid, err := atoi(parts[2], "gid")
	if err != nil {
		return Group{}, err
	}
	return Group{Name: parts[0], Passwd: parts[1], GID: gid, Members: splitList(parts[3])}, nil
}

func ParseGshadow(line string) (Gshadow, error) {
	parts, err := fields(line, 4, KindGshadow)
	if err != nil {
		return Gshadow{}, err
	}
	return Gshadow{
		Name:    parts[0],
		Passwd:  parts[1],
		Admins:  splitList(parts[2]),
		Members: splitList(parts[3]),
	}, nil
}

// nameOf extracts the first field for error context.
func nameOf(line string) string {
	name, _, _ := strings.Cut(line, ":")
	return name
}
