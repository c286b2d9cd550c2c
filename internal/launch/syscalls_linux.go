//go:build linux

package launch

import "golang.org/x/sys/unix"

type unixSyscalls struct{}

// System performs the real credential transition.
var System Syscalls = unixSyscalls{}

func (unixSyscalls) Setgroups(gids []int) error { return unix.Setgroups(gids) }

func (unixSyscalls) Setgid(gid int) error { return unix.Setresgid(gid, gid, gid) }

func (unixSyscalls) Setuid(uid int) error { return unix.Setresuid(uid, uid, uid) }

func (unixSyscalls) Getresuid() (int, int, int) { return unix.Getresuid() }

func (unixSyscalls) Getresgid() (int, int, int) { return unix.Getresgid() }

func (unixSyscalls) Exec(path string, argv, env []string) error { return unix.Exec(path, argv, env) }
