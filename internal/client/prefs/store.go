package prefs

import (
	"context"
	"errors"

	"github.com/akgupta-cs/mediavault/internal/common"
	"github.com/akgupta-cs/mediavault/internal/i18n"
	"github.com/akgupta-cs/mediavault/internal/logging"
)

const (
	keyLanguage         = "language"
	keyLanguageSelected = "language_selected"
)

// LanguageGateway is the server side of the language preference.
type LanguageGateway interface {
	GetLanguagePreference(ctx context.Context) (string, error)
	SetLanguagePreference(ctx context.Context, lang string) error
}

// Store reads and writes the language preference. Locally it always
// answers, falling back to the default language; the server copy is
// reconciled once per login.
type Store struct {
	kv        *SqliteKV
	principal func() string
	log       logging.Logger
}

func NewStore(kv *SqliteKV, principal func() string, log logging.Logger) *Store {
	return &Store{kv: kv, principal: principal, log: log}
}

// Language returns the stored preference, or the default when none was
// ever chosen.
func (s *Store) Language(ctx context.Context) i18n.Language {
	value, err := s.kv.Get(ctx, s.principal(), keyLanguage)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.log.Warn(ctx, "reading language preference failed", "error", err)
		}
		return i18n.DefaultLanguage
	}
	return i18n.ParseLanguage(value)
}

// HasSelected reports whether the user explicitly picked a language, as
// opposed to running on the default.
func (s *Store) HasSelected(ctx context.Context) bool {
	_, err := s.kv.Get(ctx, s.principal(), keyLanguageSelected)
	return err == nil
}

// SetLanguage records an explicit choice locally.
func (s *Store) SetLanguage(ctx context.Context, lang i18n.Language) error {
	principal := s.principal()
	if err := s.kv.Set(ctx, principal, keyLanguage, string(lang)); err != nil {
		return err
	}
	return s.kv.Set(ctx, principal, keyLanguageSelected, "1")
}

// Reconcile aligns the local and server copies at login. The server
// wins exactly once: a stored server preference overwrites a differing
// local value here, and every later local change pushes to the server
// instead. When the server has no preference yet, a local choice seeds
// it.
func (s *Store) Reconcile(ctx context.Context, gw LanguageGateway) error {
	remote, err := gw.GetLanguagePreference(ctx)
	if err != nil {
		return err
	}

	if remote != "" {
		lang := i18n.ParseLanguage(remote)
		if lang != s.Language(ctx) || !s.HasSelected(ctx) {
			return s.SetLanguage(ctx, lang)
		}
		return nil
	}

	if s.HasSelected(ctx) {
		return gw.SetLanguagePreference(ctx, string(s.Language(ctx)))
	}
	return nil
}
