package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/akgupta-cs/mediavault/internal/common"
	"github.com/akgupta-cs/mediavault/internal/logging"
	"github.com/akgupta-cs/mediavault/internal/server/models"
	mediarepo "github.com/akgupta-cs/mediavault/internal/server/repositories/media"
	"github.com/akgupta-cs/mediavault/internal/server/repositories/refreshtokens"
	"github.com/akgupta-cs/mediavault/internal/server/repositories/repomanager"
	usersrepo "github.com/akgupta-cs/mediavault/internal/server/repositories/users"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeUsersRepo struct {
	mu       sync.Mutex
	users    map[string]*models.User // by id
	profiles map[string]*models.Profile
	countErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		users:    make(map[string]*models.User),
		profiles: make(map[string]*models.Profile),
	}
}

func (r *fakeUsersRepo) Add(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return common.ErrAlreadyExists
		}
	}
	cp := *user
	r.users[user.ID.String()] = &cp
	return nil
}

func (r *fakeUsersRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsersRepo) Count(_ context.Context) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func (r *fakeUsersRepo) UpdateRole(_ context.Context, id string, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Role = role
	return nil
}

func (r *fakeUsersRepo) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeUsersRepo) SaveProfile(_ context.Context, profile *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *profile
	r.profiles[profile.UserID.String()] = &cp
	return nil
}

func (r *fakeUsersRepo) UpdateLanguage(_ context.Context, userID string, language string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return common.ErrNotFound
	}
	p.Language = language
	return nil
}

func (r *fakeUsersRepo) UpdatePicture(_ context.Context, userID string, pictureKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return common.ErrNotFound
	}
	p.PictureKey = pictureKey
	return nil
}

func (r *fakeUsersRepo) UpdatePin(_ context.Context, userID string, pin string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return common.ErrNotFound
	}
	p.Pin = pin
	return nil
}

type fakeMediaRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*models.MediaItem
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{items: make(map[int64]*models.MediaItem)}
}

func (r *fakeMediaRepo) Add(_ context.Context, item *models.MediaItem) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cp := *item
	cp.ID = r.nextID
	r.items[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeMediaRepo) Get(_ context.Context, id int64) (*models.MediaItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (r *fakeMediaRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeMediaRepo) ListByOwnerKind(_ context.Context, ownerID string, kind models.MediaKind) ([]models.MediaItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.MediaItem, 0)
	for _, item := range r.items {
		if item.OwnerID.String() == ownerID && item.Kind == kind {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeMediaRepo) ListByKind(_ context.Context, kind models.MediaKind) ([]models.MediaItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.MediaItem, 0)
	for _, item := range r.items {
		if item.Kind == kind {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeMediaRepo) SumSizeByOwnerKind(_ context.Context, ownerID string, kind models.MediaKind) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, item := range r.items {
		if item.OwnerID.String() == ownerID && item.Kind == kind {
			total += item.FileSize
		}
	}
	return total, nil
}

func (r *fakeMediaRepo) CountAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

func (r *fakeMediaRepo) SummaryAll(_ context.Context) (*models.StorageSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s models.StorageSummary
	for _, item := range r.items {
		switch item.Kind {
		case models.KindPhoto:
			s.TotalPhotosBytes += item.FileSize
		case models.KindVideo:
			s.TotalVideosBytes += item.FileSize
		}
	}
	return &s, nil
}

func (r *fakeMediaRepo) SummaryByOwner(_ context.Context, ownerID string) (*models.StorageSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s models.StorageSummary
	for _, item := range r.items {
		if item.OwnerID.String() != ownerID {
			continue
		}
		switch item.Kind {
		case models.KindPhoto:
			s.TotalPhotosBytes += item.FileSize
		case models.KindVideo:
			s.TotalVideosBytes += item.FileSize
		}
	}
	return &s, nil
}

type fakeTokensRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func newFakeTokensRepo() *fakeTokensRepo {
	return &fakeTokensRepo{tokens: make(map[string]*models.RefreshToken)}
}

func (r *fakeTokensRepo) Add(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[token.Token] = &cp
	return nil
}

func (r *fakeTokensRepo) Get(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTokensRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *fakeTokensRepo) DeleteByUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.UserID.String() == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

type fakeManager struct {
	users  *fakeUsersRepo
	media  *fakeMediaRepo
	tokens *fakeTokensRepo
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		users:  newFakeUsersRepo(),
		media:  newFakeMediaRepo(),
		tokens: newFakeTokensRepo(),
	}
}

func (m *fakeManager) Users() usersrepo.Repository             { return m.users }
func (m *fakeManager) Media() mediarepo.Repository             { return m.media }
func (m *fakeManager) RefreshTokens() refreshtokens.Repository { return m.tokens }
func (m *fakeManager) DB() *sql.DB                             { return nil }
func (m *fakeManager) Close() error                            { return nil }

func (m *fakeManager) InTx(_ context.Context, fn func(r repomanager.Repositories) error) error {
	return fn(repomanager.Repositories{
		Users:         m.users,
		Media:         m.media,
		RefreshTokens: m.tokens,
	})
}

var _ repomanager.RepositoryManager = (*fakeManager)(nil)

// fakeBlobStore hands out deterministic URLs and records removals.
type fakeBlobStore struct {
	mu      sync.Mutex
	counter int
	deleted []string
}

func (f *fakeBlobStore) PresignPut(_ context.Context, key, _ string) (string, error) {
	return "https://blobs.example/put/" + key, nil
}

func (f *fakeBlobStore) PresignGet(_ context.Context, key string) (string, error) {
	return "https://blobs.example/get/" + key, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBlobStore) RandomKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter++
	return fmt.Sprintf("users/2026/8/29/key-%d", f.counter)
}
