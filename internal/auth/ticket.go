package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hnrobert/nyado/internal/hostfs"
	"github.com/hnrobert/nyado/internal/identity"
)

const (
	ticketIssuer = "nyado"
	keyFile      = ".key"
	keyBytes     = 32
)

type ticketClaims struct {
	Username string `json:"name"`
	UID      int    `json:"uid"`
	Scope    string `json:"tty"`
	jwt.RegisteredClaims
}

// TicketStore remembers successful authentications. A ticket is an
// HS256-signed file under Dir for one caller uid on one terminal session
// (Scope); the signing key lives next to them. Everything in Dir must
// belong to Owner and be private to it.
type TicketStore struct {
	Dir   string
	TTL   time.Duration
	Owner int
	// Scope names the terminal session, see TerminalScope. Without one no
	// ticket is read or written.
	Scope string

	now func() time.Time
}

// NewTicketStore returns a store owned by the effective uid, which is root
// when nyado runs setuid. A zero ttl disables tickets.
func NewTicketStore(dir string, ttl time.Duration, scope string) *TicketStore {
	return &TicketStore{Dir: dir, TTL: ttl, Owner: os.Geteuid(), Scope: scope, now: time.Now}
}

func (s *TicketStore) Enabled() bool {
	return s != nil && s.TTL > 0 && s.Dir != "" && s.Scope != ""
}

func (s *TicketStore) ticketPath(uid int) string {
	return filepath.Join(s.Dir, strconv.Itoa(uid)+"-"+s.Scope)
}

// Valid reports whether id holds an unexpired ticket.
func (s *TicketStore) Valid(id identity.Identity) bool {
	if !s.Enabled() {
		return false
	}
	key, err := s.readKey()
	if err != nil {
		return false
	}
	b, err := hostfs.ReadTrusted(s.ticketPath(id.UID), s.Owner)
	if err != nil {
		return false
	}
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(string(b)), &ticketClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ticketIssuer),
		jwt.WithSubject(strconv.Itoa(id.UID)),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return false
	}
	claims, ok := parsed.Claims.(*ticketClaims)
	if !ok || !parsed.Valid {
		return false
	}
	// A ticket may not outlive the configured timeout, even if it was
	// issued under a longer one.
	if claims.IssuedAt == nil || s.now().Sub(claims.IssuedAt.Time) > s.TTL {
		return false
	}
	return claims.UID == id.UID && claims.Username == id.Name && claims.Scope == s.Scope
}

// Issue records a successful authentication for id.
func (s *TicketStore) Issue(id identity.Identity) error {
	if !s.Enabled() {
		return nil
	}
	if err := hostfs.EnsurePrivateDir(s.Dir, 0700); err != nil {
		return fmt.Errorf("timestamp dir: %w", err)
	}
	key, err := s.readKey()
	if errors.Is(err, os.ErrNotExist) {
		key, err = s.createKey()
	}
	if err != nil {
		return err
	}
	now := s.now()
	claims := ticketClaims{
		Username: id.Name,
		UID:      id.UID,
		Scope:    s.Scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ticketIssuer,
			Subject:   strconv.Itoa(id.UID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return err
	}
	return hostfs.WriteFileAtomic(s.ticketPath(id.UID), []byte(signed+"\n"), 0600)
}

// Reset removes every ticket of uid, on any terminal.
func (s *TicketStore) Reset(uid int) error {
	if s == nil || s.Dir == "" {
		return nil
	}
	paths, err := filepath.Glob(filepath.Join(s.Dir, strconv.Itoa(uid)+"-*"))
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *TicketStore) readKey() ([]byte, error) {
	b, err := hostfs.ReadTrusted(filepath.Join(s.Dir, keyFile), s.Owner)
	if err != nil {
		return nil, err
	}
	key, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(string(b)))
	if err != nil {
		return nil, fmt.Errorf("timestamp key: %w", err)
	}
	if len(key) < keyBytes {
		return nil, errors.New("timestamp key too short")
	}
	return key, nil
}

func (s *TicketStore) createKey() ([]byte, error) {
	key := make([]byte, keyBytes)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	enc := base64.RawURLEncoding.EncodeToString(key)
	if err := hostfs.WriteFileAtomic(filepath.Join(s.Dir, keyFile), []byte(enc+"\n"), 0600); err != nil {
		return nil, fmt.Errorf("timestamp key: %w", err)
	}
	return key, nil
}
