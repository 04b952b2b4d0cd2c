// Package pinsession gates access to vault content behind a short
// numeric PIN checked against the server. The gate fails closed: any
// error during verification leaves the session locked.
package pinsession

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"

	"github.com/akgupta-cs/mediavault/internal/logging"
)

var (
	// ErrInvalidPinFormat means the PIN is not 4 to 6 digits.
	ErrInvalidPinFormat = errors.New("pin must be 4 to 6 digits")
	// ErrPrincipalMismatch means a PIN reset re-authenticated as a
	// different account than the one that requested the reset.
	ErrPrincipalMismatch = errors.New("re-authenticated principal does not match")
)

// maxPinLength caps input so over-long pastes are truncated rather
// than rejected.
const maxPinLength = 6
const minPinLength = 4

// NormalizePin strips every non-digit and truncates to the maximum
// length, mirroring what a numeric input field would accept.
func NormalizePin(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
			if b.Len() == maxPinLength {
				break
			}
		}
	}
	return b.String()
}

// ValidatePin checks a normalized PIN.
func ValidatePin(pin string) error {
	if len(pin) < minPinLength || len(pin) > maxPinLength {
		return ErrInvalidPinFormat
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return ErrInvalidPinFormat
		}
	}
	return nil
}

// PinGateway is the server surface the session needs.
type PinGateway interface {
	VerifyPin(ctx context.Context, pin string) error
	ChangePin(ctx context.Context, currentPin, newPin string) error
	ResetPin(ctx context.Context, newPin string) error
	Principal() string
}

// Session tracks whether the vault is unlocked for the current login.
type Session struct {
	gw  PinGateway
	log logging.Logger

	mu       sync.Mutex
	unlocked bool
}

func New(gw PinGateway, log logging.Logger) *Session {
	return &Session{gw: gw, log: log}
}

func (s *Session) Unlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unlocked
}

// Lock relocks the vault. Called on logout and after PIN changes.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlocked = false
}

// Verify checks the PIN with the server and unlocks on success. A
// malformed PIN is rejected locally without a network call.
func (s *Session) Verify(ctx context.Context, pin string) error {
	pin = NormalizePin(pin)
	if err := ValidatePin(pin); err != nil {
		return err
	}

	if err := s.gw.VerifyPin(ctx, pin); err != nil {
		s.Lock()
		return err
	}

	s.mu.Lock()
	s.unlocked = true
	s.mu.Unlock()
	return nil
}

// Change replaces the PIN, verifying the current one server-side. The
// session relocks on success so the new PIN must be entered once.
func (s *Session) Change(ctx context.Context, currentPin, newPin string) error {
	currentPin = NormalizePin(currentPin)
	newPin = NormalizePin(newPin)
	if err := ValidatePin(newPin); err != nil {
		return err
	}

	if err := s.gw.ChangePin(ctx, currentPin, newPin); err != nil {
		return err
	}

	s.Lock()
	s.log.Info(ctx, "pin changed")
	return nil
}

// Reset sets a new PIN for a user who forgot the old one. The caller
// must re-authenticate first; relogin performs that step. The reset is
// refused when the fresh login resolves to a different principal than
// the session that asked for it.
func (s *Session) Reset(ctx context.Context, priorPrincipal string, relogin func(ctx context.Context) error, newPin string) error {
	newPin = NormalizePin(newPin)
	if err := ValidatePin(newPin); err != nil {
		return err
	}

	if err := relogin(ctx); err != nil {
		return err
	}
	if s.gw.Principal() != priorPrincipal {
		return ErrPrincipalMismatch
	}

	if err := s.gw.ResetPin(ctx, newPin); err != nil {
		return err
	}

	s.Lock()
	s.log.Info(ctx, "pin reset")
	return nil
}
