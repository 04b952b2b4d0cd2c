package services

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akgupta-cs/mediavault/internal/common"
	"github.com/akgupta-cs/mediavault/internal/server/models"
)

type fakeInvalidator struct {
	calls atomic.Int64
}

func (f *fakeInvalidator) InvalidateAggregates(context.Context) {
	f.calls.Add(1)
}

func newMediaService(m *fakeManager) (*MediaService, *fakeInvalidator) {
	inv := &fakeInvalidator{}
	return NewMediaService(m, &fakeBlobStore{}, inv, testLogger()), inv
}

func photoMeta(name string, size int64) MediaMetadata {
	return MediaMetadata{
		Filename:    name,
		ContentType: "image/jpeg",
		FileSize:    size,
		StorageKey:  "users/2026/8/29/" + name,
	}
}

func TestMediaService_NewUploadGrant(t *testing.T) {
	s, _ := newMediaService(newFakeManager())

	grant, err := s.NewUploadGrant(context.Background(), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "users/2026/8/29/key-1", grant.StorageKey)
	assert.Equal(t, "https://blobs.example/put/users/2026/8/29/key-1", grant.UploadURL)
}

func TestMediaService_RegisterAndList(t *testing.T) {
	m := newFakeManager()
	s, inv := newMediaService(m)
	ctx := context.Background()
	ownerID := uuid.New()
	owner := ownerID.String()
	require.NoError(t, m.users.Add(ctx, &models.User{ID: ownerID, Username: "o", Role: models.RoleUser}))

	id, err := s.Register(ctx, owner, models.KindPhoto, photoMeta("cat.jpg", 100))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, int64(1), inv.calls.Load())

	views, err := s.List(ctx, owner, models.KindPhoto)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "cat.jpg", views[0].Filename)
	assert.Equal(t, "https://blobs.example/get/users/2026/8/29/cat.jpg", views[0].URL)
	assert.Empty(t, views[0].ThumbnailURL)
}

func TestMediaService_RegisterValidation(t *testing.T) {
	s, _ := newMediaService(newFakeManager())
	ctx := context.Background()
	owner := uuid.New().String()

	_, err := s.Register(ctx, owner, models.KindPhoto, photoMeta("", 100))
	assert.ErrorIs(t, err, common.ErrNameRequired)

	meta := photoMeta("cat.jpg", 100)
	meta.StorageKey = ""
	_, err = s.Register(ctx, owner, models.KindPhoto, meta)
	assert.Error(t, err)

	_, err = s.Register(ctx, owner, models.KindPhoto, photoMeta("cat.jpg", 0))
	assert.Error(t, err)
}

func TestMediaService_RegisterEnforcesCategoryLimit(t *testing.T) {
	s, _ := newMediaService(newFakeManager())
	ctx := context.Background()
	owner := uuid.New().String()

	_, err := s.Register(ctx, owner, models.KindPhoto, photoMeta("big.jpg", categoryLimitBytes-10))
	require.NoError(t, err)

	// the category is nearly full, the next upload pushes it over
	_, err = s.Register(ctx, owner, models.KindPhoto, photoMeta("more.jpg", 11))
	assert.ErrorContains(t, err, "storage limit")

	// a different category still has room
	_, err = s.Register(ctx, owner, models.KindVideo, photoMeta("clip.mp4", 11))
	assert.NoError(t, err)
}

func TestMediaService_UnsupportedKinds(t *testing.T) {
	s, _ := newMediaService(newFakeManager())
	ctx := context.Background()
	owner := uuid.New().String()

	_, err := s.Register(ctx, owner, models.KindDocument, photoMeta("doc.pdf", 10))
	assert.ErrorIs(t, err, common.ErrNotImplemented)

	_, err = s.List(ctx, owner, models.KindMemory)
	assert.ErrorIs(t, err, common.ErrNotImplemented)

	err = s.Delete(ctx, owner, models.KindDocument, 1)
	assert.ErrorIs(t, err, common.ErrNotImplemented)

	_, err = s.Register(ctx, owner, "gif", photoMeta("a.gif", 10))
	assert.ErrorContains(t, err, "unknown media kind")
}

func TestMediaService_RegisterBulkPartialFailure(t *testing.T) {
	s, _ := newMediaService(newFakeManager())
	ctx := context.Background()
	owner := uuid.New().String()

	result, err := s.RegisterBulk(ctx, owner, models.KindPhoto, []MediaMetadata{
		photoMeta("a.jpg", 10),
		photoMeta("", 10),
		photoMeta("c.jpg", 10),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Len(t, result.IDs, 2)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "name")
}

func TestMediaService_DeleteOwnerOrAdmin(t *testing.T) {
	m := newFakeManager()
	s, inv := newMediaService(m)
	ctx := context.Background()
	owner := uuid.New().String()

	id, err := s.Register(ctx, owner, models.KindPhoto, photoMeta("cat.jpg", 100))
	require.NoError(t, err)

	stranger := uuid.New()
	require.NoError(t, m.users.Add(ctx, &models.User{ID: stranger, Username: "s", Role: models.RoleUser}))
	assert.ErrorIs(t, s.Delete(ctx, stranger.String(), models.KindPhoto, id), common.ErrUnauthorized)

	admin := uuid.New()
	require.NoError(t, m.users.Add(ctx, &models.User{ID: admin, Username: "a", Role: models.RoleAdmin}))
	require.NoError(t, s.Delete(ctx, admin.String(), models.KindPhoto, id))
	assert.Equal(t, int64(2), inv.calls.Load())

	_, err = s.Get(ctx, owner, id)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMediaService_DeleteRemovesStoredObjects(t *testing.T) {
	m := newFakeManager()
	blobs := &fakeBlobStore{}
	s := NewMediaService(m, blobs, &fakeInvalidator{}, testLogger())
	ctx := context.Background()
	owner := uuid.New().String()

	meta := photoMeta("clip.mp4", 100)
	meta.ThumbnailKey = meta.StorageKey + ".thumb"
	id, err := s.Register(ctx, owner, models.KindVideo, meta)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, owner, models.KindVideo, id))
	assert.Equal(t, []string{meta.StorageKey, meta.ThumbnailKey}, blobs.deleted)
}

func TestMediaService_AdminListsAllOwners(t *testing.T) {
	m := newFakeManager()
	s, _ := newMediaService(m)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	require.NoError(t, m.users.Add(ctx, &models.User{ID: alice, Username: "alice", Role: models.RoleUser}))
	require.NoError(t, m.users.Add(ctx, &models.User{ID: bob, Username: "bob", Role: models.RoleAdmin}))

	_, err := s.Register(ctx, alice.String(), models.KindPhoto, photoMeta("a.jpg", 10))
	require.NoError(t, err)
	_, err = s.Register(ctx, bob.String(), models.KindPhoto, photoMeta("b.jpg", 10))
	require.NoError(t, err)

	views, err := s.List(ctx, alice.String(), models.KindPhoto)
	require.NoError(t, err)
	assert.Len(t, views, 1)

	views, err = s.List(ctx, bob.String(), models.KindPhoto)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}

func TestMediaService_DeleteChecksKind(t *testing.T) {
	s, _ := newMediaService(newFakeManager())
	ctx := context.Background()
	owner := uuid.New().String()

	id, err := s.Register(ctx, owner, models.KindPhoto, photoMeta("cat.jpg", 100))
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(ctx, owner, models.KindVideo, id), common.ErrNotFound)
}

func TestMediaService_GetRequiresOwnerOrAdmin(t *testing.T) {
	m := newFakeManager()
	s, _ := newMediaService(m)
	ctx := context.Background()
	owner := uuid.New().String()

	id, err := s.Register(ctx, owner, models.KindPhoto, photoMeta("cat.jpg", 100))
	require.NoError(t, err)

	view, err := s.Get(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, "cat.jpg", view.Filename)

	stranger := uuid.New()
	require.NoError(t, m.users.Add(ctx, &models.User{ID: stranger, Username: "s", Role: models.RoleUser}))
	_, err = s.Get(ctx, stranger.String(), id)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestMediaService_StorageUsage(t *testing.T) {
	s, _ := newMediaService(newFakeManager())
	ctx := context.Background()
	owner := uuid.New().String()

	_, err := s.Register(ctx, owner, models.KindPhoto, photoMeta("a.jpg", 100))
	require.NoError(t, err)
	_, err = s.Register(ctx, owner, models.KindPhoto, photoMeta("b.jpg", 50))
	require.NoError(t, err)
	_, err = s.Register(ctx, owner, models.KindVideo, photoMeta("c.mp4", 999))
	require.NoError(t, err)

	used, err := s.StorageUsage(ctx, owner, models.KindPhoto)
	require.NoError(t, err)
	assert.Equal(t, int64(150), used)
}

func TestMediaService_ViewIncludesThumbnail(t *testing.T) {
	s, _ := newMediaService(newFakeManager())
	ctx := context.Background()
	owner := uuid.New().String()

	meta := photoMeta("clip.mp4", 100)
	meta.ThumbnailKey = meta.StorageKey + ".thumb"
	id, err := s.Register(ctx, owner, models.KindVideo, meta)
	require.NoError(t, err)

	view, err := s.Get(ctx, owner, id)
	require.NoError(t, err)
	assert.Equal(t, "https://blobs.example/get/users/2026/8/29/clip.mp4.thumb", view.ThumbnailURL)
}
