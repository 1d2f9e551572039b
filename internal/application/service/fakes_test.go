package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/setuphub/setuphub/internal/domain/models"
	"github.com/setuphub/setuphub/internal/domain/repository"
	domainservice "github.com/setuphub/setuphub/internal/domain/service"
	apperrors "github.com/setuphub/setuphub/pkg/errors"
)

type fakeTokenRepo struct {
	mu       sync.Mutex
	tokens   map[uuid.UUID]*models.PersonalAccessToken
	findErr  error
	touchErr error
	lastUsed chan uuid.UUID
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		tokens:   make(map[uuid.UUID]*models.PersonalAccessToken),
		lastUsed: make(chan uuid.UUID, 8),
	}
}

func (f *fakeTokenRepo) Create(_ context.Context, t *models.PersonalAccessToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.tokens {
		if existing.UserID == t.UserID {
			return apperrors.Conflict("a token already exists for this user", apperrors.ErrTokenExists)
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	f.tokens[t.ID] = &cp
	return nil
}

func (f *fakeTokenRepo) find(match func(*models.PersonalAccessToken) bool) (*models.PersonalAccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, t := range f.tokens {
		if match(t) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("token", apperrors.ErrNotFound)
}

func (f *fakeTokenRepo) FindByID(_ context.Context, id uuid.UUID) (*models.PersonalAccessToken, error) {
	return f.find(func(t *models.PersonalAccessToken) bool { return t.ID == id })
}

func (f *fakeTokenRepo) FindByHash(_ context.Context, hash string) (*models.PersonalAccessToken, error) {
	return f.find(func(t *models.PersonalAccessToken) bool { return t.TokenHash == hash })
}

func (f *fakeTokenRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*models.PersonalAccessToken, error) {
	return f.find(func(t *models.PersonalAccessToken) bool { return t.UserID == userID })
}

func (f *fakeTokenRepo) ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, err := f.FindByUserID(ctx, userID)
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeTokenRepo) Rotate(_ context.Context, id uuid.UUID, hash string, createdAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[id]
	if !ok {
		return apperrors.NotFound("token", apperrors.ErrNotFound)
	}
	t.TokenHash = hash
	t.CreatedAt = createdAt
	t.LastUsedAt = nil
	return nil
}

func (f *fakeTokenRepo) UpdateLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	if t, ok := f.tokens[id]; ok {
		t.LastUsedAt = &at
	}
	err := f.touchErr
	f.mu.Unlock()
	f.lastUsed <- id
	return err
}

func (f *fakeTokenRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[id]; !ok {
		return apperrors.NotFound("token", apperrors.ErrNotFound)
	}
	delete(f.tokens, id)
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == u.Username {
			return apperrors.Conflict("user already exists", apperrors.ErrUserExists)
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user", apperrors.ErrNotFound)
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Username == username })
}

func (f *fakeUserRepo) FindByProviderSubject(_ context.Context, provider, subject string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Provider == provider && u.ProviderSubject == subject })
}

func (f *fakeUserRepo) Update(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := f.FindByUsername(ctx, username)
	return err == nil, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.Session
	users    *fakeUserRepo
}

func newFakeSessionRepo(users *fakeUserRepo) *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*models.Session), users: users}
}

func (f *fakeSessionRepo) Create(_ context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	f.mu.Lock()
	s, ok := f.sessions[id]
	f.mu.Unlock()
	if !ok {
		return nil, apperrors.NotFound("session", apperrors.ErrNotFound)
	}
	cp := *s
	if user, err := f.users.FindByID(ctx, s.UserID); err == nil {
		cp.User = user
	}
	return &cp, nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.sessions {
		if s.ExpiresAt.Before(before) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

type fakeSetupRepo struct {
	mu     sync.Mutex
	setups map[uuid.UUID]*models.Setup
	err    error
}

func newFakeSetupRepo(setups ...*models.Setup) *fakeSetupRepo {
	f := &fakeSetupRepo{setups: make(map[uuid.UUID]*models.Setup)}
	for _, s := range setups {
		f.setups[s.ID] = s
	}
	return f
}

func (f *fakeSetupRepo) Upsert(_ context.Context, s *models.Setup) (*models.Setup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, existing := range f.setups {
		if existing.UserID == s.UserID && existing.EditorName == s.EditorName {
			existing.DisplayName = s.DisplayName
			existing.Description = s.Description
			existing.Content = s.Content
			cp := *existing
			return &cp, nil
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cp := *s
	f.setups[s.ID] = &cp
	return s, nil
}

func (f *fakeSetupRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Setup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.setups[id]
	if !ok {
		return nil, apperrors.NotFound("setup", apperrors.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSetupRepo) Update(_ context.Context, id uuid.UUID, changes map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.setups[id]
	if !ok {
		return apperrors.NotFound("setup", apperrors.ErrNotFound)
	}
	for k, v := range changes {
		switch k {
		case "display_name":
			s.DisplayName = v.(string)
		case "description":
			s.Description = v.(string)
		case "is_public":
			s.IsPublic = v.(bool)
		}
	}
	return nil
}

func (f *fakeSetupRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.setups, id)
	return nil
}

func (f *fakeSetupRepo) ListPublic(_ context.Context, q repository.SetupQuery) ([]*models.Setup, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Setup
	for _, s := range f.setups {
		if s.IsPublic {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeSetupRepo) ListByUser(_ context.Context, userID uuid.UUID, includePrivate bool) ([]*models.Setup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Setup
	for _, s := range f.setups {
		if s.UserID == userID && (includePrivate || s.IsPublic) {
			out = append(out, s)
		}
	}
	return out, nil
}

type starKey struct{ user, setup uuid.UUID }

type fakeStarRepo struct {
	mu        sync.Mutex
	stars     map[starKey]bool
	setups    *fakeSetupRepo
	toggleErr error
	reconcile int64
}

func newFakeStarRepo(setups *fakeSetupRepo) *fakeStarRepo {
	return &fakeStarRepo{stars: make(map[starKey]bool), setups: setups}
}

func (f *fakeStarRepo) Toggle(_ context.Context, userID, setupID uuid.UUID) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggleErr != nil {
		return false, 0, f.toggleErr
	}

	f.setups.mu.Lock()
	defer f.setups.mu.Unlock()
	setup, ok := f.setups.setups[setupID]
	if !ok {
		return false, 0, apperrors.NotFound("setup", apperrors.ErrNotFound)
	}

	key := starKey{userID, setupID}
	if f.stars[key] {
		delete(f.stars, key)
		if setup.StarCount > 0 {
			setup.StarCount--
		}
		return false, setup.StarCount, nil
	}
	f.stars[key] = true
	setup.StarCount++
	return true, setup.StarCount, nil
}

func (f *fakeStarRepo) IsStarred(_ context.Context, userID, setupID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stars[starKey{userID, setupID}], nil
}

func (f *fakeStarRepo) ListStarred(context.Context, uuid.UUID, int, int) ([]*models.Setup, error) {
	return nil, nil
}

func (f *fakeStarRepo) ReconcileCounts(context.Context) (int64, error) {
	return f.reconcile, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Put(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeStorage) Get(_ context.Context, key string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, "", domainservice.ErrObjectNotFound
	}
	return data, svgContentType, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func newTestUser(username string) *models.User {
	return &models.User{
		ID:              uuid.New(),
		Username:        username,
		Name:            username,
		Email:           username + "@example.com",
		Provider:        "github",
		ProviderSubject: uuid.NewString(),
	}
}
