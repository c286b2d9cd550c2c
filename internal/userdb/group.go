package userdb

import (
	"bytes"
	"os"
	"strings"
)

type GroupFile struct {
	entries []GroupEntry
}

func LoadGroup(path string) (*GroupFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseGroup(b)
}

func parseGroup(b []byte) (*GroupFile, error) {
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	var f GroupFile
	for i, line := range lines {
		parts := fields(line)
		if len(parts) < 4 {
			continue
		}
		gid, err := atoi(parts[2], "group.gid", i+1)
		if err != nil {
			return nil, err
		}
		members := []string{}
		if parts[3] != "" {
			for _, m := range strings.Split(parts[3], ",") {
				if m = strings.TrimSpace(m); m != "" {
					members = append(members, m)
				}
			}
		}
		f.entries = append(f.entries, GroupEntry{Name: parts[0], Passwd: parts[1], GID: gid, Members: members})
	}
	return &f, nil
}

func (f *GroupFile) Find(name string) *GroupEntry {
	for i := range f.entries {
		if f.entries[i].Name == name {
			return &f.entries[i]
		}
	}
	return nil
}

func (f *GroupFile) FindByGID(gid int) *GroupEntry {
	for i := range f.entries {
		if f.entries[i].GID == gid {
			return &f.entries[i]
		}
	}
	return nil
}

// MemberOf returns the gids of every group listing user as a member.
func (f *GroupFile) MemberOf(user string) []int {
	var out []int
	for _, g := range f.entries {
		for _, m := range g.Members {
			if m == user {
				out = append(out, g.GID)
				break
			}
		}
	}
	return out
}
