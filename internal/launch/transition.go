package launch

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/hnrobert/nyado/internal/identity"
)

// SuperuserUID is the target when the caller names no one.
const SuperuserUID = 0

// Target is the identity the caller asked to become. The zero value means
// the superuser.
type Target struct {
	// User is a login name (-u). Empty when unset.
	User string
	// UID is a numeric uid (-U); only meaningful when HasUID is set.
	UID    int
	HasUID bool
}

// Transition is a resolved, not yet performed change of process
// credentials. It can be used once: Exec consumes it whether or not it
// succeeds, and there is no way back to the credentials held before.
type Transition struct {
	name   string
	uid    int
	gid    int
	groups []int
	sys    Syscalls
	spent  bool
}

// Resolve turns t into a Transition. The primary gid always comes from the
// provider; an unknown uid is an error, never a guess.
func Resolve(p identity.Provider, t Target, sys Syscalls) (*Transition, error) {
	uid := SuperuserUID
	switch {
	case t.User != "" && t.HasUID:
		return nil, fmt.Errorf("%w: both a user name and a uid were given", ErrUnresolvedTarget)
	case t.User != "":
		u, err := p.LookupUser(t.User)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnresolvedTarget, err)
		}
		uid = u
	case t.HasUID:
		if t.UID < 0 {
			return nil, fmt.Errorf("%w: invalid uid %d", ErrUnresolvedTarget, t.UID)
		}
		uid = t.UID
	}

	gid, err := p.PrimaryGID(uid)
	if err != nil {
		return nil, fmt.Errorf("%w: primary group of uid %d: %v", ErrUnresolvedTarget, uid, err)
	}
	groups, err := p.GroupIDs(uid)
	if err != nil {
		return nil, fmt.Errorf("%w: groups of uid %d: %v", ErrUnresolvedTarget, uid, err)
	}
	name, err := p.UserName(uid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolvedTarget, err)
	}
	groups = append([]int{gid}, groups...)
	slices.Sort(groups)
	return &Transition{name: name, uid: uid, gid: gid, groups: slices.Compact(groups), sys: sys}, nil
}

func (t *Transition) Name() string { return t.name }
func (t *Transition) UID() int     { return t.uid }
func (t *Transition) GID() int     { return t.gid }

// Groups returns a copy of the supplementary groups that will be set.
func (t *Transition) Groups() []int { return slices.Clone(t.groups) }

// Exec drops to the target credentials and replaces the process image with
// path. The order is fixed: supplementary groups, then gid, then uid, each
// while the process still holds the privilege to change it. The result is
// checked before exec.
//
// On success Exec does not return. Any returned error means the process
// must exit without running anything else under whatever credentials it
// now holds.
func (t *Transition) Exec(path string, argv, env []string) error {
	if t.spent {
		return ErrTransitionSpent
	}
	t.spent = true

	// Credential changes and exec must land on the same OS thread. The
	// thread is never unlocked: either the image is replaced or the process
	// exits.
	runtime.LockOSThread()

	cmd := path
	if len(argv) > 0 {
		cmd = argv[0]
	}
	if err := t.sys.Setgroups(t.groups); err != nil {
		return &ExecError{Stage: StageGroups, Command: cmd, Err: err}
	}
	if err := t.sys.Setgid(t.gid); err != nil {
		return &ExecError{Stage: StageGID, Command: cmd, Err: err}
	}
	if err := t.sys.Setuid(t.uid); err != nil {
		return &ExecError{Stage: StageUID, Command: cmd, Err: err}
	}
	if err := t.verify(); err != nil {
		return &ExecError{Stage: StageVerify, Command: cmd, Err: err}
	}
	err := t.sys.Exec(path, argv, env)
	return &ExecError{Stage: StageExec, Command: cmd, Err: err}
}

func (t *Transition) verify() error {
	ruid, euid, suid := t.sys.Getresuid()
	if ruid != t.uid || euid != t.uid || suid != t.uid {
		return fmt.Errorf("uids are %d/%d/%d, want %d", ruid, euid, suid, t.uid)
	}
	rgid, egid, sgid := t.sys.Getresgid()
	if rgid != t.gid || egid != t.gid || sgid != t.gid {
		return fmt.Errorf("gids are %d/%d/%d, want %d", rgid, egid, sgid, t.gid)
	}
	return nil
}
