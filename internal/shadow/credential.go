package shadow

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// SaltLen is the length of generated salts in bytes.
	SaltLen = 16

	delimiter = '$'

	// crypt(3) salt alphabet; keeps generated salts printable and free of the
	// field and framing separators.
	saltAlphabet = "./0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

var (
	ErrMalformedCredential  = errors.New("malformed credential")
	ErrUnsupportedAlgorithm = errors.New("unsupported hash algorithm")
)

// Credential is a parsed $tag$salt$hash password field. Salt and Hash hold
// the printable text found between the delimiters.
type Credential struct {
	Algorithm string
	Salt      ByteBuffer
	Hash      ByteBuffer
}

// ParseEncoded splits s on '$' and expects exactly three non-empty tokens:
// algorithm tag, salt and hash. Forms with extra parameters (for example
// "$6$rounds=5000$salt$hash") are rejected.
func ParseEncoded(s string) (*Credential, error) {
	tokens := strings.FieldsFunc(s, func(r rune) bool { return r == delimiter })
	if len(tokens) != 3 {
		return nil, fmt.Errorf("%w: expected 3 '$'-separated fields, got %d", ErrMalformedCredential, len(tokens))
	}
	return &Credential{
		Algorithm: tokens[0],
		Salt:      ByteBufferFrom([]byte(tokens[1])),
		Hash:      ByteBufferFrom([]byte(tokens[2])),
	}, nil
}

// HashPlaintext derives a credential from a plaintext password. With useSalt
// a random SaltLen salt is drawn first. The digest covers salt || password
// and is stored as lowercase hex. Only sha256 is implemented.
func HashPlaintext(password, algorithm string, useSalt bool) (*Credential, error) {
	id := AlgorithmToID(algorithm)
	tag, ok := id.Tag()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}

	var salt ByteBuffer
	if useSalt {
		s, err := randomSalt(SaltLen)
		if err != nil {
			return nil, err
		}
		salt = s
	}

	sum, err := digest(id, salt.b, password)
	if err != nil {
		return nil, err
	}
	return &Credential{Algorithm: tag, Salt: salt, Hash: sum}, nil
}

// Verify re-derives the digest from password and the stored salt.
func (c *Credential) Verify(password string) (bool, error) {
	id := AlgorithmFromTag(c.Algorithm)
	sum, err := digest(id, c.Salt.b, password)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(sum.b, c.Hash.b) == 1, nil
}

// Encode renders the credential as $tag$salt$hash.
func (c *Credential) Encode() (string, error) {
	if c.Algorithm == "" || c.Salt.Len() == 0 || c.Hash.Len() == 0 {
		return "", fmt.Errorf("%w: algorithm, salt and hash must be non-empty", ErrMalformedCredential)
	}
	for _, part := range []string{c.Algorithm, c.Salt.String(), c.Hash.String()} {
		if strings.ContainsAny(part, "$:\n") {
			return "", fmt.Errorf("%w: field contains a reserved character", ErrMalformedCredential)
		}
	}
	var b strings.Builder
	b.WriteByte(delimiter)
	b.WriteString(c.Algorithm)
	b.WriteByte(delimiter)
	b.Write(c.Salt.b)
	b.WriteByte(delimiter)
	b.Write(c.Hash.b)
	return b.String(), nil
}

func digest(id Algorithm, salt []byte, password string) (ByteBuffer, error) {
	switch id {
	case SHA256:
		h := sha256.New()
		h.Write(salt)
		h.Write([]byte(password))
		sum := h.Sum(nil)
		out := NewByteBuffer(hex.EncodedLen(len(sum)))
		hex.Encode(out.b, sum)
		return out, nil
	default:
		return ByteBuffer{}, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, id)
	}
}

func randomSalt(n int) (ByteBuffer, error) {
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return ByteBuffer{}, err
	}
	out := NewByteBuffer(n)
	for i, v := range raw {
		// 256 is a multiple of 64, so the mapping is unbiased.
		out.b[i] = saltAlphabet[int(v)%len(saltAlphabet)]
	}
	return out, nil
}
