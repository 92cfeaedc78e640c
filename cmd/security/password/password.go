package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
)

const phcPrefix = "$argon2id$v=19$"

var b64 = base64.RawStdEncoding

// phc is a decoded "$argon2id$v=19$m=..,t=..,p=..$salt$key" string.
type phc struct {
	params Argon2idParams
	salt   []byte
	key    []byte
}

func (p phc) String() string {
	var sb strings.Builder
	sb.WriteString(phcPrefix)
	fmt.Fprintf(&sb, "m=%d,t=%d,p=%d", p.params.MemoryKiB, p.params.Iterations, p.params.Parallelism)
	sb.WriteByte('$')
	sb.WriteString(b64.EncodeToString(p.salt))
	sb.WriteByte('$')
	sb.WriteString(b64.EncodeToString(p.key))
	return sb.String()
}

// Hash returns the Argon2id PHC encoding of password under c.Params.
func (c Config) Hash(password string) (string, error) {
	switch {
	case password == "":
		return "", ErrPasswordTooShort
	case c.Policy.MaxLength > 0 && utf8.RuneCountInString(password) > c.Policy.MaxLength:
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("password: salt: %w", err)
	}
	p := phc{params: c.Params, salt: salt}
	p.key = derive(password, p.params, salt, c.Params.KeyLength)
	return p.String(), nil
}

// Verify reports whether password matches encoded. Both Argon2id and bcrypt
// encodings are accepted; anything else yields ErrInvalidHash.
func (c Config) Verify(encoded, password string) (bool, error) {
	if isBcrypt(encoded) {
		return verifyBcrypt(encoded, password)
	}

	p, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	if !c.affordable(p.params) {
		return false, ErrInvalidHash
	}

	got := derive(password, p.params, p.salt, p.params.KeyLength)
	return subtle.ConstantTimeCompare(got, p.key) == 1, nil
}

func derive(password string, p Argon2idParams, salt []byte, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), salt, p.Iterations, p.MemoryKiB, p.Parallelism, keyLen)
}

// affordable rejects stored params more than twice as expensive as ours.
func (c Config) affordable(got Argon2idParams) bool {
	lim := c.Params
	return got.MemoryKiB <= lim.MemoryKiB*2 &&
		got.Iterations <= lim.Iterations*2 &&
		uint32(got.Parallelism) <= uint32(lim.Parallelism)*2 &&
		got.SaltLength >= 8 && got.SaltLength <= 64 &&
		got.KeyLength >= 16 && got.KeyLength <= 128
}

func parsePHC(encoded string) (phc, error) {
	rest, ok := strings.CutPrefix(encoded, phcPrefix)
	if !ok {
		return phc{}, ErrInvalidHash
	}
	fields := strings.Split(rest, "$")
	if len(fields) != 3 {
		return phc{}, ErrInvalidHash
	}

	var p phc
	for _, kv := range strings.Split(fields[0], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return phc{}, ErrInvalidHash
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 {
			return phc{}, ErrInvalidHash
		}
		switch k {
		case "m":
			p.params.MemoryKiB = uint32(n)
		case "t":
			p.params.Iterations = uint32(n)
		case "p":
			if n > 255 {
				return phc{}, ErrInvalidHash
			}
			p.params.Parallelism = uint8(n)
		default:
			return phc{}, ErrInvalidHash
		}
	}
	if p.params.MemoryKiB == 0 || p.params.Iterations == 0 || p.params.Parallelism == 0 {
		return phc{}, ErrInvalidHash
	}

	var err error
	if p.salt, err = b64.DecodeString(fields[1]); err != nil {
		return phc{}, ErrInvalidHash
	}
	if p.key, err = b64.DecodeString(fields[2]); err != nil {
		return phc{}, ErrInvalidHash
	}
	p.params.SaltLength = uint32(len(p.salt)) // #nosec G115 -- bounded by affordable()
	p.params.KeyLength = uint32(len(p.key))   // #nosec G115 -- bounded by affordable()
	return p, nil
}
