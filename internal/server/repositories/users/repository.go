// Package users persists accounts and their profiles.
package users

import (
	"context"

	"github.com/akgupta-cs/mediavault/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Count(ctx context.Context) (int64, error)
	UpdateRole(ctx context.Context, id string, role string) error

	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	SaveProfile(ctx context.Context, profile *models.Profile) error
	UpdateLanguage(ctx context.Context, userID string, language string) error
	UpdatePicture(ctx context.Context, userID string, pictureKey string) error
	UpdatePin(ctx context.Context, userID string, pin string) error
}
