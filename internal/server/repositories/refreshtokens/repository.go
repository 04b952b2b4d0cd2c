// Package refreshtokens persists long-lived session tokens.
package refreshtokens

import (
	"context"

	"github.com/akgupta-cs/mediavault/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, token *models.RefreshToken) error
	Get(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) error
}
