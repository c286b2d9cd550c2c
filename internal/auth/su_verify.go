package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/creack/pty"
)

var ErrAuthBackend = errors.New("auth backend error")

const (
	suPath    = "/bin/su"
	suTimeout = 6 * time.Second
)

func verifyWithSu(username, password string) (bool, error) {
	// su skips the password when its real uid is root, which would accept
	// anything.
	if os.Getuid() == 0 {
		return false, fmt.Errorf("%w: su cannot verify passwords for a root caller", ErrAuthBackend)
	}
	if strings.TrimSpace(username) == "" {
		return false, ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(context.Background(), suTimeout)
	defer cancel()

	// su behind a PTY so it prompts as it would for a person. This works
	// for yescrypt ($y$) and whatever else the host's PAM stack supports.
	cmd := exec.CommandContext(ctx, suPath, "-s", "/bin/sh", "-c", "true", username)
	cmd.Env = []string{"PATH=/usr/sbin:/usr/bin:/sbin:/bin", "LC_ALL=C"}
	f, err := pty.Start(cmd)
	if err != nil {
		return false, fmt.Errorf("%w: start su: %v", ErrAuthBackend, err)
	}
	defer func() { _ = f.Close() }()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		prompted := false
		var out bytes.Buffer
		buf := make([]byte, 4096)
		for {
			_ = f.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
			n, rerr := f.Read(buf)
			if n > 0 && !prompted {
				out.Write(buf[:n])
				if strings.Contains(strings.ToLower(out.String()), "password") {
					prompted = true
					_, _ = io.WriteString(f, password+"\n")
				}
			}
			if errors.Is(rerr, os.ErrDeadlineExceeded) {
				// Keep polling until su exits and the PTY reports EOF/EIO.
				continue
			}
			if rerr != nil {
				return
			}
		}
	}()

	err = cmd.Wait()
	<-readerDone

	if err == nil {
		return true, nil
	}
	if ctx.Err() != nil {
		return false, fmt.Errorf("%w: su timed out", ErrAuthBackend)
	}
	return false, nil
}
