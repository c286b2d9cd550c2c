package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/hnrobert/nyado/internal/app"
	"github.com/hnrobert/nyado/internal/hostfs"
	"github.com/hnrobert/nyado/internal/launch"
)

type options struct {
	inv          app.Invocation
	resetTicket  bool
	help         bool
	version      bool
	flagSetUsage string
}

// parseArgs reads nyado's own flags. Parsing stops at the first non-flag
// token: it and everything after it are the command, untouched.
func parseArgs(args []string) (options, error) {
	var opts options
	var user string
	var uid int

	flagSet := pflag.NewFlagSet("nyado", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVarP(&user, "user", "u", "", "run the command as this user instead of root")
	flagSet.IntVarP(&uid, "userid", "U", 0, "run the command as this uid instead of root")
	flagSet.BoolVarP(&opts.inv.Login, "login", "l", false, "accepted for compatibility; login shells are not supported")
	flagSet.BoolVarP(&opts.resetTicket, "reset-timestamp", "k", false, "forget the remembered authentication")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")
	flagSet.BoolVarP(&opts.version, "version", "V", false, "print the version")
	opts.flagSetUsage = flagSet.FlagUsages()

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			opts.help = true
			return opts, nil
		}
		return opts, fmt.Errorf("%w: %v", app.ErrUsage, err)
	}

	if flagSet.Changed("user") && flagSet.Changed("userid") {
		return opts, fmt.Errorf("%w: -u and -U cannot be used together", app.ErrUsage)
	}
	if flagSet.Changed("user") && user == "" {
		return opts, fmt.Errorf("%w: -u needs a user name", app.ErrUsage)
	}
	if flagSet.Changed("userid") && uid < 0 {
		return opts, fmt.Errorf("%w: invalid uid %d", app.ErrUsage, uid)
	}
	opts.inv.Target = launch.Target{User: user, UID: uid, HasUID: flagSet.Changed("userid")}
	opts.inv.Argv = flagSet.Args()

	if len(opts.inv.Argv) == 0 && !opts.help && !opts.version && !opts.resetTicket {
		return opts, fmt.Errorf("%w: no command given", app.ErrUsage)
	}
	return opts, nil
}

func printHelp(w io.Writer, flagUsages string) {
	fmt.Fprintf(w, `nyado runs a command as another user, as allowed by %s.

Usage:
  nyado [-u user | -U uid] [-l] [-k] <command> [args...]
  nyado -k
  nyado -h | -V

Flags:
%s`, hostfs.MustPath(hostfs.PolicyRel), flagUsages)
}
