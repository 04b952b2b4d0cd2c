package httpapi

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

// memStore backs every repository with plain maps. Handler tests run
// sequentially per server, one mutex is plenty.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	profiles map[string]*models.Profile
	tokens   map[string]*models.RefreshToken
	items    map[int64]*models.MediaItem
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*models.User),
		profiles: make(map[string]*models.Profile),
		tokens:   make(map[string]*models.RefreshToken),
		items:    make(map[int64]*models.MediaItem),
	}
}

type memUsers struct{ s *memStore }

func (r memUsers) Add(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return common.ErrAlreadyExists
		}
	}
	cp := *user
	r.s.users[user.ID.String()] = &cp
	return nil
}

func (r memUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.users)), nil
}

func (r memUsers) UpdateRole(_ context.Context, id string, role string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Role = role
	return nil
}

func (r memUsers) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memUsers) SaveProfile(_ context.Context, profile *models.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *profile
	r.s.profiles[profile.UserID.String()] = &cp
	return nil
}

func (r memUsers) UpdateLanguage(_ context.Context, userID string, language string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return common.ErrNotFound
	}
	p.Language = language
	return nil
}

func (r memUsers) UpdatePicture(_ context.Context, userID string, pictureKey string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return common.ErrNotFound
	}
	p.PictureKey = pictureKey
	return nil
}

func (r memUsers) UpdatePin(_ context.Context, userID string, pin string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return common.ErrNotFound
	}
	p.Pin = pin
	return nil
}

type memMedia struct{ s *memStore }

func (r memMedia) Add(_ context.Context, item *models.MediaItem) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextID++
	cp := *item
	cp.ID = r.s.nextID
	r.s.items[cp.ID] = &cp
	return cp.ID, nil
}

func (r memMedia) Get(_ context.Context, id int64) (*models.MediaItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	item, ok := r.s.items[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (r memMedia) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.s.items, id)
	return nil
}

func (r memMedia) ListByOwnerKind(_ context.Context, ownerID string, kind models.MediaKind) ([]models.MediaItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.MediaItem, 0)
	for _, item := range r.s.items {
		if item.OwnerID.String() == ownerID && item.Kind == kind {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r memMedia) ListByKind(_ context.Context, kind models.MediaKind) ([]models.MediaItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.MediaItem, 0)
	for _, item := range r.s.items {
		if item.Kind == kind {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r memMedia) SumSizeByOwnerKind(_ context.Context, ownerID string, kind models.MediaKind) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total int64
	for _, item := range r.s.items {
		if item.OwnerID.String() == ownerID && item.Kind == kind {
			total += item.FileSize
		}
	}
	return total, nil
}

func (r memMedia) CountAll(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.items)), nil
}

func (r memMedia) SummaryAll(_ context.Context) (*models.StorageSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var s models.StorageSummary
	for _, item := range r.s.items {
		switch item.Kind {
		case models.KindPhoto:
			s.TotalPhotosBytes += item.FileSize
		case models.KindVideo:
			s.TotalVideosBytes += item.FileSize
		}
	}
	return &s, nil
}

func (r memMedia) SummaryByOwner(_ context.Context, ownerID string) (*models.StorageSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var s models.StorageSummary
	for _, item := range r.s.items {
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

type memTokens struct{ s *memStore }

func (r memTokens) Add(_ context.Context, token *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *token
	r.s.tokens[token.Token] = &cp
	return nil
}

func (r memTokens) Get(_ context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r memTokens) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, token)
	return nil
}

func (r memTokens) DeleteByUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, t := range r.s.tokens {
		if t.UserID.String() == userID {
			delete(r.s.tokens, k)
		}
	}
	return nil
}

type memManager struct{ s *memStore }

func newMemManager() *memManager { return &memManager{s: newMemStore()} }

func (m *memManager) Users() usersrepo.Repository             { return memUsers{m.s} }
func (m *memManager) Media() mediarepo.Repository             { return memMedia{m.s} }
func (m *memManager) RefreshTokens() refreshtokens.Repository { return memTokens{m.s} }
func (m *memManager) DB() *sql.DB                             { return nil }
func (m *memManager) Close() error                            { return nil }

func (m *memManager) InTx(_ context.Context, fn func(r repomanager.Repositories) error) error {
	return fn(repomanager.Repositories{
		Users:         memUsers{m.s},
		Media:         memMedia{m.s},
		RefreshTokens: memTokens{m.s},
	})
}

var _ repomanager.RepositoryManager = (*memManager)(nil)

// memBlobStore presigns against a test blob server so uploads stay
// inside the process.
type memBlobStore struct {
	baseURL string
	mu      sync.Mutex
	counter int
}

func (f *memBlobStore) PresignPut(_ context.Context, key, _ string) (string, error) {
	return f.baseURL + "/put/" + key, nil
}

func (f *memBlobStore) PresignGet(_ context.Context, key string) (string, error) {
	return f.baseURL + "/get/" + key, nil
}

func (f *memBlobStore) Delete(context.Context, string) error { return nil }

func (f *memBlobStore) RandomKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter++
	return fmt.Sprintf("users/2026/8/29/key-%d", f.counter)
}
