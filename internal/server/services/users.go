// Package services implements the server's business logic over the
// repository and storage layers.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/akgupta-cs/mediavault/internal/common"
	"github.com/akgupta-cs/mediavault/internal/logging"
	"github.com/akgupta-cs/mediavault/internal/server/auth"
	"github.com/akgupta-cs/mediavault/internal/server/models"
	"github.com/akgupta-cs/mediavault/internal/server/repositories/repomanager"
)

// TokenPair is what a successful login or refresh yields.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	UserID       string
}

type UserService struct {
	rm         repomanager.RepositoryManager
	secretKey  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	log        logging.Logger
}

func NewUserService(rm repomanager.RepositoryManager, secretKey string,
	accessTTL, refreshTTL time.Duration, log logging.Logger) *UserService {
	return &UserService{
		rm:         rm,
		secretKey:  secretKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        log,
	}
}

// Register creates an account. The very first account becomes the
// admin; the count check and the insert share a transaction so two
// concurrent first registrations cannot both win.
func (s *UserService) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", common.ErrNameRequired)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.rm.InTx(ctx, func(r repomanager.Repositories) error {
		count, err := r.Users.Count(ctx)
		if err != nil {
			return err
		}
		role := models.RoleUser
		if count == 0 {
			role = models.RoleAdmin
		}

		user := &models.User{
			ID:           uuid.New(),
			Username:     username,
			PasswordHash: string(hash),
			Role:         role,
		}
		if err := r.Users.Add(ctx, user); err != nil {
			return err
		}
		s.log.Info(ctx, "user registered", "user_id", user.ID.String(), "role", role)
		return nil
	})
}

// Login verifies credentials and issues a token pair.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.rm.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrUnauthorized
	}

	return s.issueTokens(ctx, user.ID)
}

func (s *UserService) issueTokens(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	access, err := auth.GenerateToken(s.secretKey, userID.String(), s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, err
	}

	err = s.rm.RefreshTokens().Add(ctx, &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       userID.String(),
	}, nil
}

// Refresh rotates the refresh token and issues a new access token. The
// old token is consumed inside a transaction so it can be used at most
// once.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var userID uuid.UUID

	err := s.rm.InTx(ctx, func(r repomanager.Repositories) error {
		stored, err := r.RefreshTokens.Get(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return common.ErrRefreshTokenExpired
			}
			return err
		}
		if time.Now().After(stored.ExpiresAt) {
			_ = r.RefreshTokens.Delete(ctx, refreshToken)
			return common.ErrRefreshTokenExpired
		}

		userID = stored.UserID
		return r.RefreshTokens.Delete(ctx, refreshToken)
	})
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, userID)
}

// Logout discards the refresh token.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	return s.rm.RefreshTokens().Delete(ctx, refreshToken)
}

// Authenticate resolves an access token to a user id.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (string, error) {
	return auth.GetUserIDFromToken(s.secretKey, accessToken)
}

func (s *UserService) Count(ctx context.Context) (int64, error) {
	return s.rm.Users().Count(ctx)
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.rm.Users().GetByID(ctx, id)
}

// AssignRole lets an admin promote or demote another account.
func (s *UserService) AssignRole(ctx context.Context, callerID, targetID, role string) error {
	if role != models.RoleAdmin && role != models.RoleUser {
		return fmt.Errorf("unknown role %q", role)
	}

	caller, err := s.rm.Users().GetByID(ctx, callerID)
	if err != nil {
		return err
	}
	if caller.Role != models.RoleAdmin {
		return common.ErrUnauthorized
	}

	return s.rm.Users().UpdateRole(ctx, targetID, role)
}
