package launch

// Syscalls are the credential and exec primitives a Transition performs.
// The real implementation wraps golang.org/x/sys/unix; tests record calls.
type Syscalls interface {
	Setgroups(gids []int) error
	// Setgid sets the real, effective and saved group ids.
	Setgid(gid int) error
	// Setuid sets the real, effective and saved user ids.
	Setuid(uid int) error
	Getresuid() (ruid, euid, suid int)
	Getresgid() (rgid, egid, sgid int)
	// Exec replaces the process image. It returns only on failure.
	Exec(path string, argv, env []string) error
}
