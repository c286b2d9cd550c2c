package auth

import (
	"errors"
	"fmt"

	"github.com/hnrobert/nyado/internal/identity"
	"github.com/hnrobert/nyado/internal/logger"
	"github.com/hnrobert/nyado/internal/userdb"
)

// Verifier confirms the caller's identity. Its answer is final: nyado
// neither retries nor second-guesses it.
type Verifier interface {
	Verify(id identity.Identity) bool
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(id identity.Identity) bool

func (f VerifierFunc) Verify(id identity.Identity) bool { return f(id) }

// ShadowSource yields the shadow entry of a user. *userdb.DB implements it.
type ShadowSource interface {
	Shadow(name string) (*userdb.ShadowEntry, error)
}

// PasswordVerifier asks for the caller's own password, as sudo does.
type PasswordVerifier struct {
	Shadow     ShadowSource
	Prompt     Prompter
	Tries      int
	SuFallback bool
	// Tickets, when enabled, lets a recent success stand in for a prompt.
	Tickets *TicketStore
}

func (v *PasswordVerifier) Verify(id identity.Identity) bool {
	if v.Tickets.Valid(id) {
		logger.Info("auth: %s (uid %d) accepted by timestamp ticket", id.Name, id.UID)
		return true
	}

	se, err := v.Shadow.Shadow(id.Name)
	if err != nil {
		logger.Error("auth: %v", err)
		return false
	}
	if se.Locked() {
		v.Prompt.Notify(HumanAuthError(ErrUserLocked))
		logger.Warn("auth: %s (uid %d) is locked", id.Name, id.UID)
		return false
	}

	tries := v.Tries
	if tries < 1 {
		tries = 1
	}
	for attempt := 1; attempt <= tries; attempt++ {
		pw, err := v.Prompt.ReadPassword(fmt.Sprintf("[nyado] password for %s: ", id.Name))
		if err != nil {
			logger.Error("auth: %s: %v", id.Name, err)
			return false
		}
		err = CheckPassword(se, pw, v.SuFallback)
		zero(pw)
		if err == nil {
			if terr := v.Tickets.Issue(id); terr != nil {
				logger.Warn("auth: timestamp ticket for %s not written: %v", id.Name, terr)
			}
			return true
		}
		if !errors.Is(err, ErrInvalidCredentials) {
			v.Prompt.Notify(HumanAuthError(err))
			logger.Error("auth: %s: %v", id.Name, err)
			return false
		}
		logger.Warn("auth: wrong password for %s (attempt %d of %d)", id.Name, attempt, tries)
		if attempt < tries {
			v.Prompt.Notify(HumanAuthError(err))
		}
	}
	v.Prompt.Notify(fmt.Sprintf("nyado: %d incorrect password attempts", tries))
	return false
}
