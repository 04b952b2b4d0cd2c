package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akgupta-cs/mediavault/internal/common"
	"github.com/akgupta-cs/mediavault/internal/server/models"
)

func newUserService(m *fakeManager) *UserService {
	return NewUserService(m, "test-secret", time.Minute, time.Hour, testLogger())
}

func TestUserService_FirstRegistrationBecomesAdmin(t *testing.T) {
	m := newFakeManager()
	s := newUserService(m)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "alice", "pw1"))
	require.NoError(t, s.Register(ctx, "bob", "pw2"))

	alice, err := m.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, alice.Role)

	bob, err := m.users.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, bob.Role)
}

func TestUserService_RegisterValidation(t *testing.T) {
	s := newUserService(newFakeManager())
	ctx := context.Background()

	assert.Error(t, s.Register(ctx, "", "pw"))
	assert.Error(t, s.Register(ctx, "alice", ""))
}

func TestUserService_RegisterDuplicate(t *testing.T) {
	s := newUserService(newFakeManager())
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "alice", "pw"))
	assert.ErrorIs(t, s.Register(ctx, "alice", "pw"), common.ErrAlreadyExists)
}

func TestUserService_LoginAndAuthenticate(t *testing.T) {
	s := newUserService(newFakeManager())
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "alice", "pw"))

	pair, err := s.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	userID, err := s.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, pair.UserID, userID)
}

func TestUserService_LoginRejectsBadCredentials(t *testing.T) {
	s := newUserService(newFakeManager())
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "alice", "pw"))

	_, err := s.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = s.Login(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestUserService_RefreshRotatesToken(t *testing.T) {
	s := newUserService(newFakeManager())
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "alice", "pw"))
	pair, err := s.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	rotated, err := s.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, pair.UserID, rotated.UserID)

	// the consumed token cannot be used again
	_, err = s.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestUserService_RefreshExpiredToken(t *testing.T) {
	m := newFakeManager()
	s := newUserService(m)
	ctx := context.Background()

	uid := uuid.New()
	require.NoError(t, m.tokens.Add(ctx, &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    uid,
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	_, err := s.Refresh(ctx, "stale")
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestUserService_Logout(t *testing.T) {
	s := newUserService(newFakeManager())
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "alice", "pw"))
	pair, err := s.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, pair.RefreshToken))
	_, err = s.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestUserService_AssignRole(t *testing.T) {
	m := newFakeManager()
	s := newUserService(m)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "admin", "pw"))
	require.NoError(t, s.Register(ctx, "user", "pw"))

	admin, err := m.users.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	user, err := m.users.GetByUsername(ctx, "user")
	require.NoError(t, err)

	// a plain user cannot grant roles
	err = s.AssignRole(ctx, user.ID.String(), admin.ID.String(), models.RoleUser)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	// the admin can promote
	require.NoError(t, s.AssignRole(ctx, admin.ID.String(), user.ID.String(), models.RoleAdmin))
	promoted, err := m.users.GetByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	// unknown roles are rejected
	assert.Error(t, s.AssignRole(ctx, admin.ID.String(), user.ID.String(), "superuser"))
}
