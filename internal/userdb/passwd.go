package userdb

import (
	"bytes"
	"os"
)

type PasswdFile struct {
	entries []PasswdEntry
}

func LoadPasswd(path string) (*PasswdFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parsePasswd(b)
}

func parsePasswd(b []byte) (*PasswdFile, error) {
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	var f PasswdFile
	for i, line := range lines {
		parts := fields(line)
		if len(parts) < 7 {
			// Comments, blanks and NIS "+" lines carry no entry.
			continue
		}
		uid, err := atoi(parts[2], "passwd.uid", i+1)
		if err != nil {
			return nil, err
		}
		gid, err := atoi(parts[3], "passwd.gid", i+1)
		if err != nil {
			return nil, err
		}
		f.entries = append(f.entries, PasswdEntry{
			Name:   parts[0],
			Passwd: parts[1],
			UID:    uid,
			GID:    gid,
			Gecos:  parts[4],
			Home:   parts[5],
			Shell:  parts[6],
		})
	}
	return &f, nil
}

// Find returns the first entry named name, like getpwnam(3).
func (f *PasswdFile) Find(name string) *PasswdEntry {
	for i := range f.entries {
		if f.entries[i].Name == name {
			return &f.entries[i]
		}
	}
	return nil
}

// FindByUID returns the first entry with uid, like getpwuid(3).
func (f *PasswdFile) FindByUID(uid int) *PasswdEntry {
	for i := range f.entries {
		if f.entries[i].UID == uid {
			return &f.entries[i]
		}
	}
	return nil
}

func (f *PasswdFile) List() []PasswdEntry {
	return append([]PasswdEntry(nil), f.entries...)
}
