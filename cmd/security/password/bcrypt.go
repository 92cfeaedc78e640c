package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// maxBcryptCost bounds the work an imported hash may ask for.
const maxBcryptCost = 14

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func verifyBcrypt(encoded, password string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(encoded))
	if err != nil || cost > maxBcryptCost {
		return false, ErrInvalidHash
	}

	err = bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrInvalidHash
	}
}

// NeedsRehash reports whether encoded was produced by something other than
// Argon2id with the current parameters.
func (c Config) NeedsRehash(encoded string) bool {
	if isBcrypt(encoded) {
		return true
	}
	p, err := parsePHC(encoded)
	if err != nil {
		return true
	}
	params := p.params
	return params.MemoryKiB != c.Params.MemoryKiB ||
		params.Iterations != c.Params.Iterations ||
		params.Parallelism != c.Params.Parallelism ||
		params.KeyLength != c.Params.KeyLength
}
