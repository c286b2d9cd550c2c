// Package identity defines the caller and target identities nyado reasons
// about, and the read-only provider that resolves names and ids.
package identity

import (
	"errors"
	"slices"
)

var (
	ErrUnknownUser  = errors.New("unknown user")
	ErrUnknownGroup = errors.New("unknown group")
)

// Identity is an immutable snapshot of a user for one invocation.
type Identity struct {
	Name string
	UID  int
	GID  int
	// Groups holds every gid the user belongs to, primary included, in
	// ascending order.
	Groups []int
}

func (id Identity) InGroup(gid int) bool {
	return slices.Contains(id.Groups, gid)
}

// Provider is the identity oracle: the host's user and group database.
type Provider interface {
	LookupUser(name string) (uid int, err error)
	LookupGroup(name string) (gid int, err error)
	UserName(uid int) (string, error)
	PrimaryGID(uid int) (int, error)
	GroupIDs(uid int) ([]int, error)
}

// Resolve builds the Identity snapshot for uid.
func Resolve(p Provider, uid int) (Identity, error) {
	name, err := p.UserName(uid)
	if err != nil {
		return Identity{}, err
	}
	gid, err := p.PrimaryGID(uid)
	if err != nil {
		return Identity{}, err
	}
	groups, err := p.GroupIDs(uid)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Name: name, UID: uid, GID: gid, Groups: normalize(gid, groups)}, nil
}

func normalize(primary int, groups []int) []int {
	out := append([]int{primary}, groups...)
	slices.Sort(out)
	return slices.Compact(out)
}
