package shadow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnsupportedHash is returned for crypt(3) formats this package cannot
// verify, such as yescrypt ($y$) or scrypt ($7$).
var ErrUnsupportedHash = errors.New("unsupported password hash")

// Crypt hashes password in the crypt(3) format understood by the system
// login stack, with a freshly generated salt.
func Crypt(password, algorithm string) (string, error) {
	switch id := AlgorithmToID(algorithm); id {
	case MD5:
		return md5_crypt.New().Generate([]byte(password), nil)
	case SHA256:
		return sha256_crypt.New().Generate([]byte(password), nil)
	case SHA512:
		return sha512_crypt.New().Generate([]byte(password), nil)
	case Blowfish, Bcrypt:
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		tag, _ := id.Tag()
		// x/crypto always emits $2a$; the 2b revision differs only in how
		// the reference implementation handled long keys.
		return "$" + tag + strings.TrimPrefix(string(h), "$2a"), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
}

// VerifyCrypt checks password against a crypt(3) hash.
// Supported: $1$ (md5-crypt), $5$ (sha256-crypt), $6$ (sha512-crypt) and
// $2a$/$2b$/$2y$ (bcrypt).
func VerifyCrypt(encoded, password string) (bool, error) {
	var c crypt.Crypter
	switch {
	case strings.HasPrefix(encoded, "$1$"):
		c = md5_crypt.New()
	case strings.HasPrefix(encoded, "$5$"):
		c = sha256_crypt.New()
	case strings.HasPrefix(encoded, "$6$"):
		c = sha512_crypt.New()
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	default:
		return false, ErrUnsupportedHash
	}

	err := c.Verify(encoded, []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, crypt.ErrKeyMismatch):
		return false, nil
	default:
		return false, fmt.Errorf("verify %s hash: %w", encoded[:3], err)
	}
}

// Locked reports whether a shadow password field disables password login:
// empty, "*", or anything starting with "!" or "*".
func Locked(hash string) bool {
	return hash == "" || strings.HasPrefix(hash, "!") || strings.HasPrefix(hash, "*")
}
