package app

import (
	"errors"

	"github.com/hnrobert/nyado/internal/config"
	"github.com/hnrobert/nyado/internal/hostfs"
	"github.com/hnrobert/nyado/internal/launch"
	"github.com/hnrobert/nyado/internal/policy"
)

const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitConfig   = 3
	ExitCannot   = 126
	ExitNotFound = 127
)

// ExitCode maps an error returned by Run, or by the setup before it, to
// the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var pe *policy.ParseError
	var ee *launch.ExecError
	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, ErrConfig), errors.As(err, &pe),
		errors.Is(err, config.ErrInvalid), errors.Is(err, hostfs.ErrInsecureFile),
		errors.Is(err, hostfs.ErrFileTooLarge):
		return ExitConfig
	case errors.As(err, &ee):
		if ee.Stage == launch.StageLookup && errors.Is(ee.Err, launch.ErrCommandNotFound) {
			return ExitNotFound
		}
		return ExitCannot
	}
	// Denied, failed authentication, unknown caller or target.
	return ExitFailure
}
