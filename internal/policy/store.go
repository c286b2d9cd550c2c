package policy

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/hnrobert/nyado/internal/hostfs"
)

const (
	kindUser  = "user"
	kindGroup = "group"

	keyPermit         = "permit"
	keyPermitNoPasswd = "permit_nopasswd"
	keyPermitRegex    = "permit_regex"
	keyNoPasswd       = "nopasswd"
	valueAll          = "all"
)

// Names resolves the subject names used in a policy file.
type Names interface {
	LookupUser(name string) (int, error)
	LookupGroup(name string) (int, error)
}

type SubjectKind int

const (
	UserSubject SubjectKind = iota
	GroupSubject
)

// Subject is the user or group a rule applies to.
type Subject struct {
	Kind SubjectKind
	ID   int
}

func User(uid int) Subject  { return Subject{Kind: UserSubject, ID: uid} }
func Group(gid int) Subject { return Subject{Kind: GroupSubject, ID: gid} }

func (s Subject) String() string {
	if s.Kind == GroupSubject {
		return fmt.Sprintf("group(%d)", s.ID)
	}
	return fmt.Sprintf("user(%d)", s.ID)
}

type entry struct {
	rule Rule
	// line is the declaration that won for this subject.
	line int
}

// Store is the parsed policy. It is immutable once Parse returns.
type Store struct {
	path   string
	users  map[int]entry
	groups map[int]entry
	// groupOrder lists group subjects by ascending declaration line; it is
	// the order Resolve evaluates matching groups in.
	groupOrder []int
}

// Load parses the policy file at path.
func Load(path string, names Names) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, readError(path, err)
	}
	return Parse(bytes.NewReader(b), path, names)
}

// LoadTrusted is Load for a file that must be owned by owner and not
// writable by group or other.
func LoadTrusted(path string, owner int, names Names) (*Store, error) {
	b, err := hostfs.ReadTrusted(path, owner)
	if err != nil {
		return nil, readError(path, err)
	}
	return Parse(bytes.NewReader(b), path, names)
}

func readError(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return &ParseError{Path: path, Err: fmt.Errorf("%w: %v", ErrNotFound, err)}
	}
	return &ParseError{Path: path, Err: err}
}

// Parse reads policy directives from r. name labels errors. Any failure
// discards everything parsed so far.
func Parse(r io.Reader, name string, names Names) (*Store, error) {
	s := &Store{path: name, users: map[int]entry{}, groups: map[int]entry{}}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := s.parseLine(sc.Text(), lineNo, names); err != nil {
			return nil, &ParseError{Path: name, Line: lineNo, Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Path: name, Line: lineNo + 1, Err: err}
	}

	for gid := range s.groups {
		s.groupOrder = append(s.groupOrder, gid)
	}
	sort.Slice(s.groupOrder, func(i, j int) bool {
		return s.groups[s.groupOrder[i]].line < s.groups[s.groupOrder[j]].line
	})
	return s, nil
}

func (s *Store) parseLine(line string, lineNo int, names Names) error {
	trim := strings.TrimSpace(line)
	if trim == "" || strings.HasPrefix(trim, "#") {
		return nil
	}
	f := strings.Fields(trim)
	kind := f[0]
	if kind != kindUser && kind != kindGroup {
		return fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
	if len(f) < 2 {
		return fmt.Errorf("%w: %s directive without a name", ErrMalformedLine, kind)
	}

	rule, err := parseClauses(f[2:])
	if err != nil {
		return err
	}

	// A repeated subject replaces the earlier rule outright.
	if kind == kindUser {
		uid, err := names.LookupUser(f[1])
		if err != nil {
			return fmt.Errorf("%w: user %q: %v", ErrUnknownSubject, f[1], err)
		}
		s.users[uid] = entry{rule: rule, line: lineNo}
		return nil
	}
	gid, err := names.LookupGroup(f[1])
	if err != nil {
		return fmt.Errorf("%w: group %q: %v", ErrUnknownSubject, f[1], err)
	}
	s.groups[gid] = entry{rule: rule, line: lineNo}
	return nil
}

func parseClauses(tokens []string) (Rule, error) {
	rule := make(Rule, 0, len(tokens))
	for _, tok := range tokens {
		c, err := parseClause(tok)
		if err != nil {
			return nil, err
		}
		rule = append(rule, c)
	}
	return rule, nil
}

func parseClause(tok string) (Clause, error) {
	key, value, hasValue := strings.Cut(tok, ":")
	if !hasValue {
		if tok == keyNoPasswd {
			return NoPasswordFlag{}, nil
		}
		return nil, fmt.Errorf("%w %q", ErrUnknownClause, tok)
	}
	if key == "" || value == "" {
		return nil, fmt.Errorf("%w %q: want key:value", ErrMalformedClause, tok)
	}
	switch key {
	case keyPermit:
		if value == valueAll {
			return AllCommands{}, nil
		}
		cmds, err := splitCommands(tok, value)
		if err != nil {
			return nil, err
		}
		return CommandList{Commands: cmds}, nil
	case keyPermitNoPasswd:
		cmds, err := splitCommands(tok, value)
		if err != nil {
			return nil, err
		}
		return NoPasswordCommandList{Commands: cmds}, nil
	case keyPermitRegex:
		return nil, fmt.Errorf("%w: %q", ErrRegexUnsupported, tok)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownClause, tok)
	}
}

func splitCommands(tok, value string) (CommandSet, error) {
	items := strings.Split(value, ",")
	for _, it := range items {
		if it == "" {
			return nil, fmt.Errorf("%w %q: empty command in list", ErrMalformedClause, tok)
		}
	}
	return NewCommandSet(items...), nil
}

// Path is the file the store was parsed from.
func (s *Store) Path() string {
	return s.path
}

// Rule returns the rule stored for subject.
func (s *Store) Rule(subject Subject) (Rule, bool) {
	var e entry
	var ok bool
	if subject.Kind == GroupSubject {
		e, ok = s.groups[subject.ID]
	} else {
		e, ok = s.users[subject.ID]
	}
	return e.rule, ok
}

// Len is the number of subjects with a rule.
func (s *Store) Len() int {
	return len(s.users) + len(s.groups)
}
