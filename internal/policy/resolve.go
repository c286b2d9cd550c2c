package policy

import (
	"fmt"

	"github.com/hnrobert/nyado/internal/identity"
)

// Decision is the outcome of resolving one command for one caller.
type Decision struct {
	Allowed          bool
	PasswordRequired bool
}

// deny is both the evaluation seed and the answer when no rule applies.
var deny = Decision{Allowed: false, PasswordRequired: true}

// Resolve decides whether id may run command and whether a password is
// needed first.
//
// A rule for the caller's uid is used alone; groups are then ignored.
// Without one, every group rule whose gid the caller belongs to is
// evaluated in declaration order and the last evaluation is the answer.
// Earlier group results are discarded, not merged, so a later group with
// no matching clause denies even when an earlier one allowed.
func (s *Store) Resolve(id identity.Identity, command string) (Decision, error) {
	if e, ok := s.users[id.UID]; ok {
		return e.rule.Evaluate(command)
	}

	result := deny
	for _, gid := range s.groupOrder {
		if !id.InGroup(gid) {
			continue
		}
		d, err := s.groups[gid].rule.Evaluate(command)
		if err != nil {
			return deny, fmt.Errorf("group %d: %w", gid, err)
		}
		result = d
	}
	return result, nil
}

// Evaluate scans the rule's clauses in order, starting from a denial that
// requires a password.
func (r Rule) Evaluate(command string) (Decision, error) {
	d := deny
	for _, c := range r {
		switch c := c.(type) {
		case AllCommands:
			d.Allowed = true
			return d, nil
		case CommandList:
			if c.Commands.Contains(command) {
				d.Allowed = true
			}
		case NoPasswordCommandList:
			if c.Commands.Contains(command) {
				d.Allowed = true
				d.PasswordRequired = false
				return d, nil
			}
			d.PasswordRequired = true
		case NoPasswordFlag:
			d.PasswordRequired = false
		case RegexMatch:
			return deny, fmt.Errorf("%w: %q", ErrRegexUnsupported, c.Pattern)
		default:
			return deny, fmt.Errorf("unhandled clause %T", c)
		}
	}
	return d, nil
}
