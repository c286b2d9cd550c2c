package auth

import (
	"os"
	"strconv"
	"strings"
)

const procStat = "/proc/self/stat"

// TerminalScope identifies the caller's terminal session as
// "<tty device>-<session id>", so a ticket earned on one terminal is not
// honoured on another, nor after a new login on the same one. It returns
// "" when there is no controlling terminal.
func TerminalScope() string {
	b, err := os.ReadFile(procStat)
	if err != nil {
		return ""
	}
	return parseTerminalScope(string(b))
}

func parseTerminalScope(stat string) string {
	// The command name is parenthesised and may itself contain spaces or
	// parentheses; the fixed fields start after the last ')'.
	i := strings.LastIndexByte(stat, ')')
	if i < 0 {
		return ""
	}
	// state ppid pgrp session tty_nr ...
	f := strings.Fields(stat[i+1:])
	if len(f) < 5 {
		return ""
	}
	sid, err := strconv.Atoi(f[3])
	if err != nil || sid <= 0 {
		return ""
	}
	tty, err := strconv.Atoi(f[4])
	if err != nil || tty == 0 {
		return ""
	}
	return strconv.Itoa(tty) + "-" + strconv.Itoa(sid)
}
