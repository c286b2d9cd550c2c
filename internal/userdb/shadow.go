package userdb

import (
	"bytes"
	"os"
)

type ShadowFile struct {
	entries []ShadowEntry
}

func LoadShadow(path string) (*ShadowFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseShadow(b)
}

func parseShadow(b []byte) (*ShadowFile, error) {
	lines, err := readLines(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	var f ShadowFile
	for _, line := range lines {
		parts := fields(line)
		if len(parts) < 2 {
			continue
		}
		for len(parts) < 8 {
			parts = append(parts, "")
		}
		f.entries = append(f.entries, ShadowEntry{
			Name:       parts[0],
			Hash:       parts[1],
			LastChange: parts[2],
			Min:        parts[3],
			Max:        parts[4],
			Warn:       parts[5],
			Inactive:   parts[6],
			Expire:     parts[7],
		})
	}
	return &f, nil
}

func (f *ShadowFile) Find(name string) *ShadowEntry {
	for i := range f.entries {
		if f.entries[i].Name == name {
			return &f.entries[i]
		}
	}
	return nil
}
