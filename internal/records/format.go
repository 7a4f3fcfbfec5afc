package records

import (
	"strconv"
	"strings"
)

func optional(n int64) string {
	if n == Unset {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

// Line renders the record without a trailing newline.
func (e Passwd) Line() string {
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteByte(':')
	b.WriteString(e.Passwd)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(e.UID))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(e.GID))
	b.WriteByte(':')
	b.WriteString(e.Gecos)
	b.WriteByte(':')
	b.WriteString(e.Home)
	b.WriteByte(':')
	b.WriteString(e.Shell)
	return b.String()
}

func (e Shadow) Line() string {
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteByte(':')
	b.WriteString(e.Hash)
	for _, n := range []int64{e.LastChange, e.Min, e.Max, e.Warn, e.Inactive, e.Expire, e.Flags} {
		b.WriteByte(':')
		b.WriteString(optional(n))
	}
	return b.String()
}

func (e Group) Line() string {
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteByte(':')
	b.WriteString(e.Passwd)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(e.GID))
	b.WriteByte(':')
	b.WriteString(strings.Join(e.Members, ","))
	return b.String()
}

func (e Gshadow) Line() string {
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteByte(':')
	b.WriteString(e.Passwd)
	b.WriteByte(':')
	b.WriteString(strings.Join(e.Admins, ","))
	b.WriteByte(':')
	b.WriteString(strings.Join(e.Members, ","))
	return b.String()
}
