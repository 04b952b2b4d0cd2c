package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akgupta-cs/mediavault/internal/common"
)

func newProfileService(m *fakeManager) *ProfileService {
	return NewProfileService(m, &fakeBlobStore{}, testLogger())
}

func TestValidPin(t *testing.T) {
	assert.True(t, validPin("1234"))
	assert.True(t, validPin("123456"))
	assert.False(t, validPin(""))
	assert.False(t, validPin("123"))
	assert.False(t, validPin("1234567"))
	assert.False(t, validPin("12a4"))
}

func TestProfileService_SaveAndGet(t *testing.T) {
	m := newFakeManager()
	s := newProfileService(m)
	ctx := context.Background()
	uid := uuid.New().String()

	require.NoError(t, s.Save(ctx, uid, "Alice", "1234"))

	view, err := s.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "Alice", view.Name)
	assert.Equal(t, "1234", view.Pin)
}

func TestProfileService_SaveValidation(t *testing.T) {
	s := newProfileService(newFakeManager())
	ctx := context.Background()
	uid := uuid.New().String()

	assert.ErrorIs(t, s.Save(ctx, uid, "", "1234"), common.ErrNameRequired)
	assert.ErrorIs(t, s.Save(ctx, uid, "Alice", "12"), common.ErrInvalidPinFormat)
}

func TestProfileService_SaveEmptyPinKeepsStoredPin(t *testing.T) {
	m := newFakeManager()
	s := newProfileService(m)
	ctx := context.Background()
	uid := uuid.New().String()

	require.NoError(t, s.Save(ctx, uid, "Alice", "1234"))
	require.NoError(t, s.Save(ctx, uid, "Alicia", ""))

	view, err := s.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", view.Name)
	assert.Equal(t, "1234", view.Pin)
}

func TestProfileService_GetMissing(t *testing.T) {
	s := newProfileService(newFakeManager())
	_, err := s.Get(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestProfileService_Language(t *testing.T) {
	m := newFakeManager()
	s := newProfileService(m)
	ctx := context.Background()
	uid := uuid.New().String()

	// no profile yet: empty preference, set still works
	lang, err := s.GetLanguage(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, lang)

	require.NoError(t, s.SetLanguage(ctx, uid, "english"))
	lang, err = s.GetLanguage(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "english", lang)
}

func TestProfileService_UpdatePicture(t *testing.T) {
	m := newFakeManager()
	s := newProfileService(m)
	ctx := context.Background()
	uid := uuid.New().String()

	require.NoError(t, s.Save(ctx, uid, "Alice", "1234"))

	url, err := s.UpdatePicture(ctx, uid, "users/2026/8/29/pic")
	require.NoError(t, err)
	assert.Equal(t, "https://blobs.example/get/users/2026/8/29/pic", url)

	view, err := s.Get(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "https://blobs.example/get/users/2026/8/29/pic", view.PictureURL)
}

func TestProfileService_VerifyPin(t *testing.T) {
	m := newFakeManager()
	s := newProfileService(m)
	ctx := context.Background()
	uid := uuid.New().String()

	require.NoError(t, s.Save(ctx, uid, "Alice", "1234"))

	assert.NoError(t, s.VerifyPin(ctx, uid, "1234"))
	assert.ErrorIs(t, s.VerifyPin(ctx, uid, "9999"), common.ErrPinMismatch)

	// no profile means no successful verification
	assert.ErrorIs(t, s.VerifyPin(ctx, uuid.New().String(), "1234"), common.ErrPinMismatch)
}

func TestProfileService_VerifyPin_UnsetPinNeverMatches(t *testing.T) {
	m := newFakeManager()
	s := newProfileService(m)
	ctx := context.Background()
	uid := uuid.New().String()

	require.NoError(t, s.Save(ctx, uid, "Alice", ""))
	assert.ErrorIs(t, s.VerifyPin(ctx, uid, ""), common.ErrPinMismatch)
}

func TestProfileService_ChangePin(t *testing.T) {
	m := newFakeManager()
	s := newProfileService(m)
	ctx := context.Background()
	uid := uuid.New().String()

	require.NoError(t, s.Save(ctx, uid, "Alice", "1234"))

	assert.ErrorIs(t, s.ChangePin(ctx, uid, "0000", "5678"), common.ErrPinMismatch)
	assert.ErrorIs(t, s.ChangePin(ctx, uid, "1234", "1"), common.ErrInvalidPinFormat)

	require.NoError(t, s.ChangePin(ctx, uid, "1234", "567890"))
	assert.NoError(t, s.VerifyPin(ctx, uid, "567890"))
}

func TestProfileService_ResetPin(t *testing.T) {
	m := newFakeManager()
	s := newProfileService(m)
	ctx := context.Background()
	uid := uuid.New().String()

	require.NoError(t, s.Save(ctx, uid, "Alice", "1234"))

	assert.ErrorIs(t, s.ResetPin(ctx, uid, "xyz"), common.ErrInvalidPinFormat)
	require.NoError(t, s.ResetPin(ctx, uid, "9876"))
	assert.NoError(t, s.VerifyPin(ctx, uid, "9876"))
}
