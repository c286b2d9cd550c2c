package launch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LookPath finds command the way a shell would, but searching only
// securePath instead of the caller's $PATH. A command containing a slash
// is used as given.
func LookPath(command, securePath string) (string, error) {
	if command == "" {
		return "", &ExecError{Stage: StageLookup, Command: command, Err: ErrCommandNotFound}
	}
	if strings.Contains(command, "/") {
		if err := executable(command); err != nil {
			return "", &ExecError{Stage: StageLookup, Command: command, Err: err}
		}
		return command, nil
	}
	for _, dir := range filepath.SplitList(securePath) {
		if dir == "" || !filepath.IsAbs(dir) {
			continue
		}
		path := filepath.Join(dir, command)
		if executable(path) == nil {
			return path, nil
		}
	}
	return "", &ExecError{Stage: StageLookup, Command: command, Err: ErrCommandNotFound}
}

func executable(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrCommandNotFound, path)
		}
		return err
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if st.Mode().Perm()&0111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}
