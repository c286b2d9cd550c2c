//go:build !linux

package launch

type unsupportedSyscalls struct{}

// System refuses every step: saved-id semantics are only implemented for
// Linux.
var System Syscalls = unsupportedSyscalls{}

func (unsupportedSyscalls) Setgroups([]int) error                 { return ErrUnsupported }
func (unsupportedSyscalls) Setgid(int) error                      { return ErrUnsupported }
func (unsupportedSyscalls) Setuid(int) error                      { return ErrUnsupported }
func (unsupportedSyscalls) Getresuid() (int, int, int)            { return -1, -1, -1 }
func (unsupportedSyscalls) Getresgid() (int, int, int)            { return -1, -1, -1 }
func (unsupportedSyscalls) Exec(string, []string, []string) error { return ErrUnsupported }
