package service

import (
	"context"
	"errors"
	"testing"

	"clientdesk/backend/pkg/logger"
	"clientdesk/backend/user/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	users        map[string]*models.User
	getByIDsErr  error
	getByIDErr   error
	batchCalls   int
	lastBatchIDs []string
	lastLogins   []string
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	if f.users == nil {
		f.users = make(map[string]*models.User)
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	f.batchCalls++
	f.lastBatchIDs = ids
	if f.getByIDsErr != nil {
		return nil, f.getByIDsErr
	}
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	f.lastLogins = append(f.lastLogins, id)
	return nil
}

func testLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Level = "error"
	return logger.New(cfg)
}

func TestResolveNamesBatchesAndDedupes(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Name: "Ada"},
		"u2": {ID: "u2", Name: "Grace"},
	}}
	resolver := NewIdentityResolver(repo, testLogger())

	names := resolver.ResolveNames(context.Background(), []string{"u1", "u2", "u1", "u2", "u1"})

	require.Equal(t, 1, repo.batchCalls, "all senders must resolve through one query")
	assert.Len(t, repo.lastBatchIDs, 2)
	assert.Equal(t, "Ada", names["u1"])
	assert.Equal(t, "Grace", names["u2"])
}

func TestResolveNamesFallsBackForMissingUsers(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Name: "Ada"},
	}}
	resolver := NewIdentityResolver(repo, testLogger())

	names := resolver.ResolveNames(context.Background(), []string{"u1", "ghost"})

	assert.Equal(t, "Ada", names["u1"])
	assert.Equal(t, UnknownUser, names["ghost"])
}

func TestResolveNamesSwallowsLookupErrors(t *testing.T) {
	repo := &fakeUserRepo{getByIDsErr: errors.New("connection refused")}
	resolver := NewIdentityResolver(repo, testLogger())

	names := resolver.ResolveNames(context.Background(), []string{"u1", "u2"})

	assert.Equal(t, UnknownUser, names["u1"])
	assert.Equal(t, UnknownUser, names["u2"])
}

func TestResolveNamesEmptyInput(t *testing.T) {
	repo := &fakeUserRepo{}
	resolver := NewIdentityResolver(repo, testLogger())

	names := resolver.ResolveNames(context.Background(), nil)

	assert.Empty(t, names)
	assert.Zero(t, repo.batchCalls)
}

func TestResolveNameSingle(t *testing.T) {
	repo := &fakeUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Name: "Ada"},
	}}
	resolver := NewIdentityResolver(repo, testLogger())

	assert.Equal(t, "Ada", resolver.ResolveName(context.Background(), "u1"))
	assert.Equal(t, UnknownUser, resolver.ResolveName(context.Background(), "ghost"))
	assert.Equal(t, UnknownUser, resolver.ResolveName(context.Background(), ""))
}
