package app

import (
	"os"
	"strconv"
	"strings"

	"github.com/hnrobert/nyado/internal/identity"
	"github.com/hnrobert/nyado/internal/launch"
)

// Variables describing the caller, added to the command's environment.
const (
	EnvUser = "NYADO_USER"
	EnvUID  = "NYADO_UID"
	EnvGID  = "NYADO_GID"
)

// Caller variables that reach the command. Everything else, the dynamic
// loader's LD_* family included, is dropped.
var keptVariables = map[string]bool{
	"TERM":      true,
	"COLORTERM": true,
	"DISPLAY":   true,
	"LANG":      true,
	"LANGUAGE":  true,
	"TZ":        true,
}

// homeDirs is implemented by providers that know home directories.
type homeDirs interface {
	HomeDir(uid int) (string, error)
}

// keepVariable reports whether a caller's name=value pair is passed on.
// Values with a slash or a percent sign are refused: locale and timezone
// variables holding one can make libc load files of the caller's choosing.
func keepVariable(name, value string) bool {
	if !keptVariables[name] && !strings.HasPrefix(name, "LC_") {
		return false
	}
	return !strings.ContainsAny(value, "/%")
}

// environment builds the command's environment from scratch: a short list
// of harmless caller variables, PATH set to secure_path, the target's
// HOME, USER and LOGNAME, and NYADO_* describing the real caller.
func (a *App) environment(caller identity.Identity, tr *launch.Transition) []string {
	environ := a.Environ
	if environ == nil {
		environ = os.Environ
	}
	var env []string
	seen := map[string]bool{}
	for _, kv := range environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || seen[name] || !keepVariable(name, value) {
			continue
		}
		seen[name] = true
		env = append(env, kv)
	}

	env = append(env, "PATH="+a.Settings.SecurePath)
	if hd, ok := a.Users.(homeDirs); ok {
		if home, err := hd.HomeDir(tr.UID()); err == nil && home != "" {
			env = append(env, "HOME="+home)
		}
	}
	return append(env,
		"USER="+tr.Name(),
		"LOGNAME="+tr.Name(),
		EnvUser+"="+caller.Name,
		EnvUID+"="+strconv.Itoa(caller.UID),
		EnvGID+"="+strconv.Itoa(caller.GID),
	)
}
