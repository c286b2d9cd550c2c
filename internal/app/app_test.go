package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/nyado/internal/auth"
	"github.com/hnrobert/nyado/internal/config"
	"github.com/hnrobert/nyado/internal/hostfs"
	"github.com/hnrobert/nyado/internal/identity"
	"github.com/hnrobert/nyado/internal/launch"
	"github.com/hnrobert/nyado/internal/logger"
	"github.com/hnrobert/nyado/internal/policy"
)

var errReplaced = errors.New("image replaced")

type user struct {
	name   string
	gid    int
	groups []int
}

// hostDB is a small in-memory user database.
type hostDB struct {
	users  map[int]user
	groups map[string]int
}

func newHostDB() *hostDB {
	return &hostDB{
		users: map[int]user{
			0:    {name: "root", gid: 0},
			1001: {name: "bob", gid: 1001},
			1002: {name: "carol", gid: 1002, groups: []int{2000, 2001}},
		},
		groups: map[string]int{"root": 0, "bob": 1001, "carol": 1002, "ops": 2000, "audit": 2001},
	}
}

func (h *hostDB) LookupUser(name string) (int, error) {
	for uid, u := range h.users {
		if u.name == name {
			return uid, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", identity.ErrUnknownUser, name)
}

func (h *hostDB) LookupGroup(name string) (int, error) {
	if gid, ok := h.groups[name]; ok {
		return gid, nil
	}
	return 0, fmt.Errorf("%w: %s", identity.ErrUnknownGroup, name)
}

func (h *hostDB) UserName(uid int) (string, error) {
	if u, ok := h.users[uid]; ok {
		return u.name, nil
	}
	return "", fmt.Errorf("%w: uid %d", identity.ErrUnknownUser, uid)
}

func (h *hostDB) PrimaryGID(uid int) (int, error) {
	if u, ok := h.users[uid]; ok {
		return u.gid, nil
	}
	return 0, fmt.Errorf("%w: uid %d", identity.ErrUnknownUser, uid)
}

func (h *hostDB) GroupIDs(uid int) ([]int, error) {
	if u, ok := h.users[uid]; ok {
		return append([]int{u.gid}, u.groups...), nil
	}
	return nil, fmt.Errorf("%w: uid %d", identity.ErrUnknownUser, uid)
}

// journal records verifier and syscall events in the order they happen.
type journal struct {
	events []string

	ruid, euid, suid int
	rgid, egid, sgid int

	execPath string
	execArgv []string
	execEnv  []string
}

func (j *journal) Setgroups(gids []int) error {
	j.events = append(j.events, "setgroups")
	return nil
}

func (j *journal) Setgid(gid int) error {
	j.events = append(j.events, "setgid")
	j.rgid, j.egid, j.sgid = gid, gid, gid
	return nil
}

func (j *journal) Setuid(uid int) error {
	j.events = append(j.events, "setuid")
	j.ruid, j.euid, j.suid = uid, uid, uid
	return nil
}

func (j *journal) Getresuid() (int, int, int) { return j.ruid, j.euid, j.suid }
func (j *journal) Getresgid() (int, int, int) { return j.rgid, j.egid, j.sgid }

func (j *journal) Exec(path string, argv, env []string) error {
	j.events = append(j.events, "exec")
	j.execPath, j.execArgv, j.execEnv = path, argv, env
	return errReplaced
}

func (j *journal) verifier(answer bool) auth.Verifier {
	return auth.VerifierFunc(func(id identity.Identity) bool {
		j.events = append(j.events, "verify:"+id.Name)
		return answer
	})
}

// secureBin creates executables named after cmds in a fresh directory and
// returns it for use as secure_path.
func secureBin(t *testing.T, cmds ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, c := range cmds {
		require.NoError(t, os.WriteFile(filepath.Join(dir, c), []byte("#!/bin/sh\n"), 0755))
	}
	return dir
}

func newTestApp(t *testing.T, policyText string, caller int, answer bool, cmds ...string) (*App, *journal) {
	t.Helper()
	db := newHostDB()
	store, err := policy.Parse(strings.NewReader(policyText), "nyado.conf", db)
	require.NoError(t, err)

	settings := config.Default()
	settings.SecurePath = secureBin(t, cmds...)

	u := db.users[caller]
	j := &journal{ruid: caller, euid: 0, suid: 0, rgid: u.gid, egid: u.gid, sgid: u.gid}
	a := New(settings, db, store, j.verifier(answer), j)
	a.CallerUID = caller
	a.Environ = func() []string { return []string{"HOME=/home/" + u.name, "NYADO_USER=mallory"} }
	return a, j
}

func quietLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf, zerolog.InfoLevel)
	t.Cleanup(logger.Close)
	return &buf
}

func TestRunVerifiesBeforeExec(t *testing.T) {
	logs := quietLogs(t)
	a, j := newTestApp(t, "user bob permit:ls,cat\n", 1001, true, "ls", "cat")

	err := a.Run(Invocation{Argv: []string{"ls", "-l", "/root"}})
	require.ErrorIs(t, err, errReplaced)

	assert.Equal(t, []string{"verify:bob", "setgroups", "setgid", "setuid", "exec"}, j.events)
	assert.Equal(t, filepath.Join(a.Settings.SecurePath, "ls"), j.execPath)
	assert.Equal(t, []string{"ls", "-l", "/root"}, j.execArgv)
	assert.Equal(t, []string{
		"PATH=" + a.Settings.SecurePath,
		"USER=root",
		"LOGNAME=root",
		"NYADO_USER=bob",
		"NYADO_UID=1001",
		"NYADO_GID=1001",
	}, j.execEnv)
	assert.Contains(t, logs.String(), `"password_required":true`)
	assert.Contains(t, logs.String(), `"target":"root"`)
}

// homedDB adds home directories to hostDB.
type homedDB struct{ *hostDB }

func (h homedDB) HomeDir(uid int) (string, error) {
	name, err := h.UserName(uid)
	if err != nil {
		return "", err
	}
	if uid == 0 {
		return "/root", nil
	}
	return "/home/" + name, nil
}

func TestRunEnvironmentIsReset(t *testing.T) {
	quietLogs(t)
	a, j := newTestApp(t, "user bob permit_nopasswd:ls\n", 1001, true, "ls")
	a.Users = homedDB{newHostDB()}
	a.Environ = func() []string {
		return []string{
			"LD_PRELOAD=/tmp/evil.so",
			"LD_LIBRARY_PATH=/tmp",
			"GCONV_PATH=/tmp/gconv",
			"PATH=/tmp/evil",
			"IFS= ",
			"BASH_ENV=/tmp/rc",
			"HOME=/home/bob",
			"TERM=xterm-256color",
			"LANG=en_US.UTF-8",
			"LC_ALL=../../tmp/locale/x",
			"LC_TIME=C",
			"TZ=:/tmp/zone",
			"TERM=dumb",
			"NYADO_UID=0",
		}
	}

	err := a.Run(Invocation{Argv: []string{"ls"}})
	require.ErrorIs(t, err, errReplaced)
	assert.Equal(t, []string{
		"TERM=xterm-256color",
		"LANG=en_US.UTF-8",
		"LC_TIME=C",
		"PATH=" + a.Settings.SecurePath,
		"HOME=/root",
		"USER=root",
		"LOGNAME=root",
		"NYADO_USER=bob",
		"NYADO_UID=1001",
		"NYADO_GID=1001",
	}, j.execEnv)
}

func TestRunNoPasswordSkipsVerifier(t *testing.T) {
	quietLogs(t)
	a, j := newTestApp(t, "user bob permit_nopasswd:ls\n", 1001, false, "ls")

	err := a.Run(Invocation{Argv: []string{"ls"}})
	require.ErrorIs(t, err, errReplaced)
	assert.Equal(t, []string{"setgroups", "setgid", "setuid", "exec"}, j.events)
}

func TestRunLastGroupWins(t *testing.T) {
	quietLogs(t)
	policyText := "group ops permit:all\ngroup audit permit:cat\n"
	a, j := newTestApp(t, policyText, 1002, true, "ls")

	err := a.Run(Invocation{Argv: []string{"ls"}})
	require.ErrorIs(t, err, ErrDenied)
	assert.Empty(t, j.events)
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestRunDenied(t *testing.T) {
	logs := quietLogs(t)
	a, j := newTestApp(t, "user carol permit:all\n", 1001, true, "ls")

	err := a.Run(Invocation{Argv: []string{"ls"}})
	require.ErrorIs(t, err, ErrDenied)
	assert.Empty(t, j.events)
	assert.Contains(t, logs.String(), `"allowed":false`)
}

func TestRunAuthFailureNeverLaunches(t *testing.T) {
	quietLogs(t)
	a, j := newTestApp(t, "user bob permit:all\n", 1001, false, "ls")

	err := a.Run(Invocation{Argv: []string{"ls"}})
	require.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, []string{"verify:bob"}, j.events)
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestRunTargetUser(t *testing.T) {
	quietLogs(t)
	a, j := newTestApp(t, "user bob nopasswd permit:all\n", 1001, false, "id")

	err := a.Run(Invocation{Target: launch.Target{User: "carol"}, Argv: []string{"id"}})
	require.ErrorIs(t, err, errReplaced)
	uid, _, _ := j.Getresuid()
	gid, _, _ := j.Getresgid()
	assert.Equal(t, 1002, uid)
	assert.Equal(t, 1002, gid)
}

func TestRunUnresolvedTarget(t *testing.T) {
	quietLogs(t)
	a, j := newTestApp(t, "user bob nopasswd permit:all\n", 1001, true, "ls")

	err := a.Run(Invocation{Target: launch.Target{User: "nobody"}, Argv: []string{"ls"}})
	require.ErrorIs(t, err, launch.ErrUnresolvedTarget)
	assert.Empty(t, j.events)

	err = a.Run(Invocation{Target: launch.Target{UID: 4242, HasUID: true}, Argv: []string{"ls"}})
	require.ErrorIs(t, err, launch.ErrUnresolvedTarget)
	assert.Empty(t, j.events)
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestRunCommandNotFound(t *testing.T) {
	quietLogs(t)
	a, j := newTestApp(t, "user bob nopasswd permit:all\n", 1001, true)

	err := a.Run(Invocation{Argv: []string{"nosuchcmd"}})
	require.ErrorIs(t, err, launch.ErrCommandNotFound)
	assert.Empty(t, j.events)
	assert.Equal(t, ExitNotFound, ExitCode(err))
}

func TestRunUnknownCaller(t *testing.T) {
	quietLogs(t)
	a, _ := newTestApp(t, "user bob permit:all\n", 1001, true, "ls")
	a.CallerUID = 4242

	err := a.Run(Invocation{Argv: []string{"ls"}})
	require.ErrorIs(t, err, ErrIdentity)
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestRunNoCommand(t *testing.T) {
	quietLogs(t)
	a, _ := newTestApp(t, "", 1001, true)
	err := a.Run(Invocation{})
	require.ErrorIs(t, err, ErrUsage)
	assert.Equal(t, ExitUsage, ExitCode(err))
}

func TestRunLoginIsIgnored(t *testing.T) {
	logs := quietLogs(t)
	a, j := newTestApp(t, "user bob nopasswd permit:all\n", 1001, true, "ls")

	err := a.Run(Invocation{Login: true, Argv: []string{"ls"}})
	require.ErrorIs(t, err, errReplaced)
	assert.Contains(t, j.events, "exec")
	assert.Contains(t, logs.String(), "login shells are not supported")
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{ErrDenied, ExitFailure},
		{fmt.Errorf("%w: x", ErrAuthFailed), ExitFailure},
		{fmt.Errorf("%w: bad flag", ErrUsage), ExitUsage},
		{&policy.ParseError{Path: "p", Line: 2, Err: policy.ErrUnknownKind}, ExitConfig},
		{fmt.Errorf("load: %w", config.ErrInvalid), ExitConfig},
		{fmt.Errorf("settings: %w", hostfs.ErrFileTooLarge), ExitConfig},
		{&launch.ExecError{Stage: launch.StageLookup, Command: "x", Err: launch.ErrCommandNotFound}, ExitNotFound},
		{&launch.ExecError{Stage: launch.StageLookup, Command: "x", Err: errors.New("is a directory")}, ExitCannot},
		{&launch.ExecError{Stage: launch.StageUID, Command: "x", Err: errors.New("EPERM")}, ExitCannot},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ExitCode(tc.err), "%v", tc.err)
	}
}

func TestSessionIsStable(t *testing.T) {
	a := &App{}
	s := a.Session()
	assert.Len(t, s, 36)
	assert.Equal(t, s, a.Session())
}
