package launch

import (
	"errors"
	"fmt"
)

var (
	ErrUnresolvedTarget = errors.New("cannot resolve target identity")
	ErrTransitionSpent  = errors.New("credential transition already used")
	ErrCommandNotFound  = errors.New("command not found")
	ErrUnsupported      = errors.New("credential transition not supported on this platform")
)

// Stage names the step of a launch that failed.
type Stage string

const (
	StageLookup Stage = "lookup"
	StageGroups Stage = "setgroups"
	StageGID    Stage = "setgid"
	StageUID    Stage = "setuid"
	StageVerify Stage = "verify"
	StageExec   Stage = "exec"
)

// ExecError reports a launch that did not reach the target command. Any
// stage after StageGroups means the process credentials were already
// partly changed and the process must exit.
type ExecError struct {
	Stage   Stage
	Command string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Command, e.Stage, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Partial reports whether credentials may have changed before the failure.
func (e *ExecError) Partial() bool {
	switch e.Stage {
	case StageLookup, StageGroups:
		return false
	}
	return true
}
