package records

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	good := []interface{ Validate() error }{
		Passwd{Name: "alice", Passwd: "x", Gecos: "Alice Liddell,,,", Home: "/home/alice", Shell: "/bin/bash"},
		Shadow{Name: "alice", Hash: "$6$salt$hash"},
		Group{Name: "devs", Passwd: "x", Members: []string{"alice", "bob"}},
		Gshadow{Name: "devs", Passwd: "!", Admins: []string{"alice"}, Members: []string{"bob"}},
	}
	for _, r := range good {
		require.NoError(t, r.Validate(), "%+v", r)
	}

	bad := []interface{ Validate() error }{
		Passwd{Name: "bob", Gecos: "Bob:Admin"},
		Passwd{Name: "bob", Home: "/home/bob:x"},
		Passwd{Name: "bo:b"},
		Passwd{Name: ""},
		Shadow{Name: "bob", Hash: "a:b"},
		Group{Name: "devs", Members: []string{"alice,root"}},
		Group{Name: "devs", Members: []string{""}},
		Group{Name: "de,vs"},
		Gshadow{Name: "devs", Admins: []string{"alice:x"}},
		Gshadow{Name: "devs", Members: []string{" bob"}},
		Gshadow{Name: "devs", Passwd: "a\nb"},
	}
	for _, r := range bad {
		require.ErrorIs(t, r.Validate(), ErrMalformed, "%+v", r)
	}
}
