package hostfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

var (
	ErrInsecureFile = errors.New("insecure file")
	ErrFileTooLarge = errors.New("file too large")
)

// maxTrustedSize bounds how much of a trusted file is read into memory.
const maxTrustedSize = 4 << 20

// ReadTrusted reads a regular file that must be owned by owner and must not
// be writable by group or other. The checks run against the opened
// descriptor so the file cannot be swapped between check and read.
func ReadTrusted(path string, owner int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFREG {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrInsecureFile, path)
	}
	if int(st.Uid) != owner {
		return nil, fmt.Errorf("%w: %s is owned by uid %d, want %d", ErrInsecureFile, path, st.Uid, owner)
	}
	if st.Mode&0o022 != 0 {
		return nil, fmt.Errorf("%w: %s is writable by group or other (mode %#o)", ErrInsecureFile, path, st.Mode&0o777)
	}
	b, err := io.ReadAll(io.LimitReader(f, maxTrustedSize+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxTrustedSize {
		return nil, fmt.Errorf("%w: %s is over %d bytes", ErrFileTooLarge, path, maxTrustedSize)
	}
	return b, nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".nyado-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// EnsurePrivateDir creates path (and parents) and tightens its mode to perm.
func EnsurePrivateDir(path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}
