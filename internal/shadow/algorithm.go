package shadow

// Algorithm identifies a password hashing scheme.
type Algorithm int

const (
	Unknown Algorithm = iota
	MD5
	Blowfish
	Bcrypt
	SHA256
	SHA512
)

var algorithms = []struct {
	id   Algorithm
	name string
	tag  string
}{
	{MD5, "md5", "1"},
	{Blowfish, "blowfish", "2a"},
	{Bcrypt, "bcrypt", "2b"},
	{SHA256, "sha256", "5"},
	{SHA512, "sha512", "6"},
}

// AlgorithmToID maps a lowercase algorithm name to its id. Matching is exact
// and case-sensitive; anything unrecognised is Unknown.
func AlgorithmToID(name string) Algorithm {
	for _, a := range algorithms {
		if a.name == name {
			return a.id
		}
	}
	return Unknown
}

// AlgorithmFromTag maps an on-disk tag such as "6" back to its id.
func AlgorithmFromTag(tag string) Algorithm {
	for _, a := range algorithms {
		if a.tag == tag {
			return a.id
		}
	}
	return Unknown
}

// Tag returns the on-disk id written between the first two '$'. Unknown has
// no tag and cannot be encoded.
func (a Algorithm) Tag() (string, bool) {
	for _, e := range algorithms {
		if e.id == a {
			return e.tag, true
		}
	}
	return "", false
}

func (a Algorithm) String() string {
	for _, e := range algorithms {
		if e.id == a {
			return e.name
		}
	}
	return "unknown"
}
