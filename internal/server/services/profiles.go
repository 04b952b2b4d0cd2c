package services

import (
	"context"
	"errors"
	"unicode"

	"github.com/google/uuid"

	"github.com/akgupta-cs/mediavault/internal/common"
	"github.com/akgupta-cs/mediavault/internal/logging"
	"github.com/akgupta-cs/mediavault/internal/server/blobstore"
	"github.com/akgupta-cs/mediavault/internal/server/models"
	"github.com/akgupta-cs/mediavault/internal/server/repositories/repomanager"
)

// validPin accepts 4 to 6 digits. The empty string is allowed where a
// PIN has not been set up yet.
func validPin(pin string) bool {
	if len(pin) < 4 || len(pin) > 6 {
		return false
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

type ProfileService struct {
	rm    repomanager.RepositoryManager
	blobs blobstore.Store
	log   logging.Logger
}

func NewProfileService(rm repomanager.RepositoryManager, blobs blobstore.Store, log logging.Logger) *ProfileService {
	return &ProfileService{rm: rm, blobs: blobs, log: log}
}

// ProfileView is a profile with the picture key resolved to a URL.
type ProfileView struct {
	models.Profile
	PictureURL string
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*ProfileView, error) {
	p, err := s.rm.Users().GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := &ProfileView{Profile: *p}
	if p.PictureKey != "" {
		url, err := s.blobs.PresignGet(ctx, p.PictureKey)
		if err != nil {
			s.log.Warn(ctx, "presigning profile picture failed", "error", err)
		} else {
			view.PictureURL = url
		}
	}
	return view, nil
}

// Save upserts the caller's profile. A non-empty PIN must be well
// formed; an empty one means setup is still pending.
func (s *ProfileService) Save(ctx context.Context, userID string, name, pin string) error {
	if name == "" {
		return common.ErrNameRequired
	}
	if pin != "" && !validPin(pin) {
		return common.ErrInvalidPinFormat
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return common.ErrNotFound
	}

	existing, err := s.rm.Users().GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}

	profile := &models.Profile{UserID: uid, Name: name, Pin: pin}
	if existing != nil {
		profile.PictureKey = existing.PictureKey
		profile.Language = existing.Language
		// an empty pin in the payload keeps the stored one
		if pin == "" {
			profile.Pin = existing.Pin
		}
	}

	return s.rm.Users().SaveProfile(ctx, profile)
}

func (s *ProfileService) GetLanguage(ctx context.Context, userID string) (string, error) {
	p, err := s.rm.Users().GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return p.Language, nil
}

func (s *ProfileService) SetLanguage(ctx context.Context, userID, language string) error {
	err := s.rm.Users().UpdateLanguage(ctx, userID, language)
	if errors.Is(err, common.ErrNotFound) {
		// no profile yet; remember the language anyway
		uid, perr := uuid.Parse(userID)
		if perr != nil {
			return common.ErrNotFound
		}
		return s.rm.Users().SaveProfile(ctx, &models.Profile{
			UserID:   uid,
			Name:     "",
			Language: language,
		})
	}
	return err
}

// UpdatePicture stores the already-uploaded picture key and returns a
// display URL.
func (s *ProfileService) UpdatePicture(ctx context.Context, userID, storageKey string) (string, error) {
	if storageKey == "" {
		return "", common.ErrNameRequired
	}
	if err := s.rm.Users().UpdatePicture(ctx, userID, storageKey); err != nil {
		return "", err
	}
	return s.blobs.PresignGet(ctx, storageKey)
}

// VerifyPin compares the submitted PIN against the stored one. A
// missing profile or unset PIN counts as a mismatch, never as success.
func (s *ProfileService) VerifyPin(ctx context.Context, userID, pin string) error {
	p, err := s.rm.Users().GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrPinMismatch
		}
		return err
	}
	if p.Pin == "" || p.Pin != pin {
		return common.ErrPinMismatch
	}
	return nil
}

// ChangePin requires the current PIN.
func (s *ProfileService) ChangePin(ctx context.Context, userID, currentPin, newPin string) error {
	if !validPin(newPin) {
		return common.ErrInvalidPinFormat
	}
	if err := s.VerifyPin(ctx, userID, currentPin); err != nil {
		return err
	}
	return s.rm.Users().UpdatePin(ctx, userID, newPin)
}

// ResetPin overwrites the PIN without the old one. Handlers must only
// route freshly re-authenticated callers here.
func (s *ProfileService) ResetPin(ctx context.Context, userID, newPin string) error {
	if !validPin(newPin) {
		return common.ErrInvalidPinFormat
	}
	return s.rm.Users().UpdatePin(ctx, userID, newPin)
}
