package userdb

import (
	"fmt"

	"github.com/hnrobert/nyado/internal/hostfs"
	"github.com/hnrobert/nyado/internal/identity"
)

// DB is a snapshot of passwd and group taken when it is opened. Shadow is
// read on demand so the hashes stay in memory only while a password is
// being checked.
type DB struct {
	PasswdPath string
	GroupPath  string
	ShadowPath string

	pw *PasswdFile
	gr *GroupFile
}

var _ identity.Provider = (*DB)(nil)

// OpenDefault opens the host database at its well-known paths.
func OpenDefault() (*DB, error) {
	return Open(
		hostfs.MustPath(hostfs.EtcPasswdRel),
		hostfs.MustPath(hostfs.EtcGroupRel),
		hostfs.MustPath(hostfs.EtcShadowRel),
	)
}

func Open(passwdPath, groupPath, shadowPath string) (*DB, error) {
	pw, err := LoadPasswd(passwdPath)
	if err != nil {
		return nil, fmt.Errorf("load passwd: %w", err)
	}
	gr, err := LoadGroup(groupPath)
	if err != nil {
		return nil, fmt.Errorf("load group: %w", err)
	}
	return &DB{PasswdPath: passwdPath, GroupPath: groupPath, ShadowPath: shadowPath, pw: pw, gr: gr}, nil
}

func (db *DB) LookupUser(name string) (int, error) {
	e := db.pw.Find(name)
	if e == nil {
		return 0, fmt.Errorf("%w: %s", identity.ErrUnknownUser, name)
	}
	return e.UID, nil
}

func (db *DB) LookupGroup(name string) (int, error) {
	e := db.gr.Find(name)
	if e == nil {
		return 0, fmt.Errorf("%w: %s", identity.ErrUnknownGroup, name)
	}
	return e.GID, nil
}

func (db *DB) UserName(uid int) (string, error) {
	e := db.pw.FindByUID(uid)
	if e == nil {
		return "", fmt.Errorf("%w: uid %d", identity.ErrUnknownUser, uid)
	}
	return e.Name, nil
}

func (db *DB) PrimaryGID(uid int) (int, error) {
	e := db.pw.FindByUID(uid)
	if e == nil {
		return 0, fmt.Errorf("%w: uid %d", identity.ErrUnknownUser, uid)
	}
	return e.GID, nil
}

func (db *DB) HomeDir(uid int) (string, error) {
	e := db.pw.FindByUID(uid)
	if e == nil {
		return "", fmt.Errorf("%w: uid %d", identity.ErrUnknownUser, uid)
	}
	return e.Home, nil
}

// GroupIDs returns the primary gid followed by every supplementary group
// that lists the user, like getgrouplist(3).
func (db *DB) GroupIDs(uid int) ([]int, error) {
	e := db.pw.FindByUID(uid)
	if e == nil {
		return nil, fmt.Errorf("%w: uid %d", identity.ErrUnknownUser, uid)
	}
	return append([]int{e.GID}, db.gr.MemberOf(e.Name)...), nil
}

// Shadow returns the shadow entry for name, reading the file afresh.
func (db *DB) Shadow(name string) (*ShadowEntry, error) {
	sh, err := LoadShadow(db.ShadowPath)
	if err != nil {
		return nil, fmt.Errorf("load shadow: %w", err)
	}
	e := sh.Find(name)
	if e == nil {
		return nil, fmt.Errorf("%w: %s has no shadow entry", identity.ErrUnknownUser, name)
	}
	return e, nil
}
