// Package app runs one nyado invocation: who is asking, may they, are they
// who they claim, and then become the target and run the command.
package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hnrobert/nyado/internal/auth"
	"github.com/hnrobert/nyado/internal/config"
	"github.com/hnrobert/nyado/internal/identity"
	"github.com/hnrobert/nyado/internal/launch"
	"github.com/hnrobert/nyado/internal/logger"
	"github.com/hnrobert/nyado/internal/policy"
)

var (
	ErrUsage      = errors.New("usage")
	ErrConfig     = errors.New("configuration error")
	ErrIdentity   = errors.New("cannot determine caller identity")
	ErrDenied     = errors.New("not permitted")
	ErrAuthFailed = errors.New("authentication failed")
)

// App holds everything an invocation needs. All of it is loaded before Run
// and none of it changes afterwards.
type App struct {
	Settings config.Settings
	Users    identity.Provider
	Policy   *policy.Store
	Verifier auth.Verifier
	Sys      launch.Syscalls

	// CallerUID is the real uid of the process.
	CallerUID int
	// Environ returns the caller's environment. Defaults to os.Environ.
	Environ func() []string

	session string
}

// Invocation is one parsed command line.
type Invocation struct {
	Target launch.Target
	Login  bool
	// Argv is the command and its arguments, passed through verbatim.
	Argv []string
}

func New(settings config.Settings, users identity.Provider, store *policy.Store, verifier auth.Verifier, sys launch.Syscalls) *App {
	return &App{
		Settings:  settings,
		Users:     users,
		Policy:    store,
		Verifier:  verifier,
		Sys:       sys,
		CallerUID: os.Getuid(),
		Environ:   os.Environ,
	}
}

// Session returns the id that tags every log line of this invocation.
func (a *App) Session() string {
	if a.session == "" {
		a.session = uuid.NewString()
	}
	return a.session
}

// Run performs the invocation. On success the process image is replaced
// and Run does not return; every returned error means nothing was run.
func (a *App) Run(inv Invocation) error {
	if len(inv.Argv) == 0 || inv.Argv[0] == "" {
		return fmt.Errorf("%w: no command given", ErrUsage)
	}
	if inv.Login {
		logger.Warn("login shells are not supported, running %s directly", inv.Argv[0])
	}
	command := inv.Argv[0]

	caller, err := identity.Resolve(a.Users, a.CallerUID)
	if err != nil {
		return fmt.Errorf("%w: uid %d: %v", ErrIdentity, a.CallerUID, err)
	}

	decision, err := a.Policy.Resolve(caller, command)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	a.audit(caller, command).
		Str("stage", "policy").
		Bool("allowed", decision.Allowed).
		Bool("password_required", decision.PasswordRequired).
		Msg("policy decision")
	if !decision.Allowed {
		return fmt.Errorf("%w: %s may not run %s", ErrDenied, caller.Name, command)
	}

	if decision.PasswordRequired {
		ok := a.Verifier.Verify(caller)
		a.audit(caller, command).Str("stage", "auth").Bool("ok", ok).Msg("credential check")
		if !ok {
			return fmt.Errorf("%w: %s", ErrAuthFailed, caller.Name)
		}
	}

	tr, err := launch.Resolve(a.Users, inv.Target, a.Sys)
	if err != nil {
		return err
	}
	path, err := launch.LookPath(command, a.Settings.SecurePath)
	if err != nil {
		return err
	}

	a.audit(caller, command).
		Str("stage", "exec").
		Str("path", path).
		Str("target", tr.Name()).
		Int("target_uid", tr.UID()).
		Int("target_gid", tr.GID()).
		Strs("argv", inv.Argv).
		Msg("launching")
	err = tr.Exec(path, inv.Argv, a.environment(caller, tr))

	var ee *launch.ExecError
	if errors.As(err, &ee) && ee.Partial() {
		logger.Error("launch of %s stopped at %s with credentials partly changed", command, ee.Stage)
	}
	return err
}

func (a *App) audit(caller identity.Identity, command string) *zerolog.Event {
	return logger.Audit().
		Str("user", caller.Name).
		Int("uid", caller.UID).
		Str("command", command)
}
