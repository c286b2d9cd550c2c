package hostfs

import (
	"errors"
	"path/filepath"
	"strings"
)

// Root is the fixed root of the host filesystem.
const Root = "/"

var ErrInvalidPath = errors.New("invalid host path")

// Path joins Root with a relative path (no leading slash).
// Example: Path("etc/passwd") -> /etc/passwd
func Path(rel string) (string, error) {
	rel = strings.TrimPrefix(rel, "/")
	clean := filepath.Clean(rel)
	if clean == "." || clean == "" {
		return "", ErrInvalidPath
	}
	if strings.HasPrefix(clean, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(Root, clean), nil
}

// MustPath is Path for the compile-time constants in paths.go.
func MustPath(rel string) string {
	p, err := Path(rel)
	if err != nil {
		panic(err)
	}
	return p
}
