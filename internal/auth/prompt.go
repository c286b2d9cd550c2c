package auth

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var ErrNoTerminal = errors.New("no terminal available for the password prompt")

// Prompter asks the caller for a password.
type Prompter interface {
	ReadPassword(prompt string) ([]byte, error)
	// Notify shows a short message between attempts.
	Notify(msg string)
}

// TTYPrompter prompts on the controlling terminal with echo disabled, so
// the password never travels through the command's stdin or stdout.
type TTYPrompter struct {
	Path string
}

func NewTTYPrompter() *TTYPrompter {
	return &TTYPrompter{Path: "/dev/tty"}
}

func (p *TTYPrompter) ReadPassword(prompt string) ([]byte, error) {
	tty, err := os.OpenFile(p.Path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoTerminal, err)
	}
	defer func() { _ = tty.Close() }()

	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNoTerminal
	}
	if _, err := io.WriteString(tty, prompt); err != nil {
		return nil, err
	}
	pw, err := term.ReadPassword(fd)
	_, _ = io.WriteString(tty, "\n")
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return pw, nil
}

func (p *TTYPrompter) Notify(msg string) {
	tty, err := os.OpenFile(p.Path, os.O_WRONLY, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, msg)
		return
	}
	defer func() { _ = tty.Close() }()
	_, _ = fmt.Fprintln(tty, msg)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
