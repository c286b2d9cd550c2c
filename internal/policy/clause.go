package policy

import (
	"sort"
	"strings"
)

// Clause is one permission directive of a rule. The concrete types below
// are the only implementations.
type Clause interface {
	clause()
	String() string
}

// AllCommands permits every command and ends the scan.
type AllCommands struct{}

// CommandList permits the listed commands. The password requirement is
// left as it is.
type CommandList struct {
	Commands CommandSet
}

// NoPasswordCommandList permits the listed commands without a password and
// ends the scan. A command outside the list puts the password requirement
// back in force.
type NoPasswordCommandList struct {
	Commands CommandSet
}

// NoPasswordFlag lifts the password requirement without permitting
// anything.
type NoPasswordFlag struct{}

// RegexMatch is reserved. Loading or evaluating it fails.
type RegexMatch struct {
	Pattern string
}

func (AllCommands) clause()           {}
func (CommandList) clause()           {}
func (NoPasswordCommandList) clause() {}
func (NoPasswordFlag) clause()        {}
func (RegexMatch) clause()            {}

func (AllCommands) String() string             { return keyPermit + ":" + valueAll }
func (c CommandList) String() string           { return keyPermit + ":" + c.Commands.String() }
func (c NoPasswordCommandList) String() string { return keyPermitNoPasswd + ":" + c.Commands.String() }
func (NoPasswordFlag) String() string          { return keyNoPasswd }
func (c RegexMatch) String() string            { return keyPermitRegex + ":" + c.Pattern }

// CommandSet is a set of command strings compared verbatim.
type CommandSet map[string]struct{}

func NewCommandSet(cmds ...string) CommandSet {
	s := make(CommandSet, len(cmds))
	for _, c := range cmds {
		s[c] = struct{}{}
	}
	return s
}

func (s CommandSet) Contains(cmd string) bool {
	_, ok := s[cmd]
	return ok
}

func (s CommandSet) String() string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

// Rule is the ordered clause list of one subject. Order matters: see
// Evaluate.
type Rule []Clause

func (r Rule) String() string {
	parts := make([]string, len(r))
	for i, c := range r {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
