package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"

	"github.com/hnrobert/nyado/internal/userdb"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserLocked         = errors.New("user is locked")
	ErrUnsupportedHash    = errors.New("unsupported password hash")
)

// CheckPassword verifies password against a shadow entry. With suFallback
// set, hashes crypt cannot handle are checked by su(1) instead of failing.
func CheckPassword(se *userdb.ShadowEntry, password []byte, suFallback bool) error {
	if se.Locked() {
		return ErrUserLocked
	}
	ok, err := verifyCrypt(se.Hash, password)
	if errors.Is(err, ErrUnsupportedHash) && suFallback {
		ok, err = verifyWithSu(se.Name, string(password))
	}
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}

func verifyCrypt(hash string, password []byte) (bool, error) {
	// $1$ (md5-crypt), $5$ (sha256-crypt), $6$ (sha512-crypt).
	// yescrypt ($y$), scrypt ($7$) and bcrypt ($2*$) are not handled here.
	var c crypt.Crypter
	switch {
	case strings.HasPrefix(hash, "$6$"):
		c = sha512_crypt.New()
	case strings.HasPrefix(hash, "$5$"):
		c = sha256_crypt.New()
	case strings.HasPrefix(hash, "$1$"):
		c = md5_crypt.New()
	default:
		return false, fmt.Errorf("%w: %s", ErrUnsupportedHash, hashScheme(hash))
	}
	// Verify returns nil on success; a malformed hash is a mismatch too.
	return c.Verify(hash, password) == nil, nil
}

// hashScheme returns the "$id$" prefix of a crypt hash without the secret
// part, for error messages.
func hashScheme(hash string) string {
	if !strings.HasPrefix(hash, "$") {
		return "legacy"
	}
	if i := strings.IndexByte(hash[1:], '$'); i >= 0 {
		return hash[:i+2]
	}
	return "unknown"
}

func HumanAuthError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Sorry, try again."
	case errors.Is(err, ErrUserLocked):
		return "This account is locked."
	case errors.Is(err, ErrUnsupportedHash):
		return "This host uses a password hash format nyado cannot check."
	default:
		return fmt.Sprintf("Authentication failed: %v", err)
	}
}
