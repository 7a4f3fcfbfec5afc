package records

// Unset marks a numeric shadow field that is empty on disk.
const Unset int64 = -1

// Kind names one of the four account files.
type Kind int

const (
	KindPasswd Kind = iota
	KindShadow
	KindGroup
	KindGshadow
)

func (k Kind) String() string {
	switch k {
	case KindPasswd:
		return "passwd"
	case KindShadow:
		return "shadow"
	case KindGroup:
		return "group"
	case KindGshadow:
		return "gshadow"
	default:
		return "unknown"
	}
}

type Passwd struct {
	Name   string
	Passwd string
	UID    int
	GID    int
	Gecos  string
	Home   string
	Shell  string
}

// Shadow holds day counts since the epoch or periods in days. Empty fields
// are Unset.
type Shadow struct {
	Name       string
	Hash       string
	LastChange int64
	Min        int64
	Max        int64
	Warn       int64
	Inactive   int64
	Expire     int64
	Flags      int64
}

type Group struct {
	Name    string
	Passwd  string
	GID     int
	Members []string
}

type Gshadow struct {
	Name    string
	Passwd  string
	Admins  []string
	Members []string
}
