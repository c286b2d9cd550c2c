package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/hnrobert/nyado/internal/app"
	"github.com/hnrobert/nyado/internal/auth"
	"github.com/hnrobert/nyado/internal/config"
	"github.com/hnrobert/nyado/internal/launch"
	"github.com/hnrobert/nyado/internal/logger"
	"github.com/hnrobert/nyado/internal/policy"
	"github.com/hnrobert/nyado/internal/userdb"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

// Files that decide who may do what must belong to root.
const trustedOwner = 0

func main() {
	err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "nyado: %v\n", err)
		if errors.Is(err, app.ErrUsage) {
			fmt.Fprintln(os.Stderr, "Try 'nyado -h' for more information.")
		}
	}
	logger.Close()
	os.Exit(app.ExitCode(err))
}

func run(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}
	if opts.help {
		printHelp(os.Stdout, opts.flagSetUsage)
		return nil
	}
	if opts.version {
		fmt.Printf("nyado %s\n", version)
		return nil
	}

	if os.Geteuid() != 0 {
		logger.Warn("nyado is not running with root privileges; is the setuid bit set?")
	}

	settings, err := config.Load(config.DefaultPath(), trustedOwner)
	if err != nil {
		return fmt.Errorf("%w: %v", app.ErrConfig, err)
	}
	if err := logger.Init(settings.LogDir, settings.Level()); err != nil {
		logger.Warn("audit log disabled: %v", err)
	}

	tickets := auth.NewTicketStore(settings.Auth.TimestampDir, settings.Auth.TimestampTimeout, auth.TerminalScope())
	if opts.resetTicket {
		if err := tickets.Reset(os.Getuid()); err != nil {
			logger.Warn("cannot reset timestamp: %v", err)
		}
		if len(opts.inv.Argv) == 0 {
			return nil
		}
	}

	db, err := userdb.OpenDefault()
	if err != nil {
		return fmt.Errorf("%w: %v", app.ErrIdentity, err)
	}
	store, err := policy.LoadTrusted(settings.PolicyFile, trustedOwner, db)
	if err != nil {
		return err
	}

	verifier := &auth.PasswordVerifier{
		Shadow:     db,
		Prompt:     auth.NewTTYPrompter(),
		Tries:      settings.Auth.Tries,
		SuFallback: settings.Auth.SuFallback,
		Tickets:    tickets,
	}
	a := app.New(settings, db, store, verifier, launch.System)
	logger.SetSession(a.Session())
	logger.Info("nyado %s: uid %d, %d policy rules from %s", version, a.CallerUID, store.Len(), store.Path())

	return a.Run(opts.inv)
}
