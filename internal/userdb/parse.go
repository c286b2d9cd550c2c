package userdb

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// fields splits a colon separated database line. Blank lines and comments
// yield nil.
func fields(line string) []string {
	trim := strings.TrimSpace(line)
	if trim == "" || strings.HasPrefix(trim, "#") {
		return nil
	}
	// Keep trailing empty fields.
	return strings.Split(line, ":")
}

func readLines(r io.Reader) ([]string, error) {
	s := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 1024*1024)
	var lines []string
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func atoi(field, ctx string, line int) (int, error) {
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("invalid int %q in %s (line %d): %w", field, ctx, line, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative id %d in %s (line %d)", n, ctx, line)
	}
	return n, nil
}
