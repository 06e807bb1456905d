package service

import (
	"context"
	"testing"
	"time"

	"clientdesk/backend/crm/models"
	"clientdesk/backend/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeClientRepo struct {
	clients   map[string]*models.Client
	listCalls int
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{clients: make(map[string]*models.Client)}
}

func (f *fakeClientRepo) Create(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = "client-" + client.Name
	}
	if client.Status == "" {
		client.Status = models.ClientActive
	}
	f.clients[client.ID] = client
	return nil
}

func (f *fakeClientRepo) GetByID(ctx context.Context, id string) (*models.Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeClientRepo) List(ctx context.Context) ([]models.Client, error) {
	f.listCalls++
	out := make([]models.Client, 0, len(f.clients))
	for _, c := range f.clients {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeClientRepo) Update(ctx context.Context, client *models.Client) error {
	f.clients[client.ID] = client
	return nil
}

func newTestClientService(repo *fakeClientRepo) *ClientService {
	return NewClientService(repo, cache.NewCacheWithOptions(time.Minute, 0, 100))
}

func TestListIsServedFromCache(t *testing.T) {
	repo := newFakeClientRepo()
	svc := newTestClientService(repo)

	_, err := svc.Create(context.Background(), &models.CreateClientRequest{Name: "Acme", Email: "ops@acme.test"})
	require.NoError(t, err)

	_, err = svc.List(context.Background())
	require.NoError(t, err)
	_, err = svc.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listCalls, "second list must hit the cache")
}

func TestMutationsInvalidateListCache(t *testing.T) {
	repo := newFakeClientRepo()
	svc := newTestClientService(repo)

	created, err := svc.Create(context.Background(), &models.CreateClientRequest{Name: "Acme", Email: "ops@acme.test"})
	require.NoError(t, err)

	_, err = svc.List(context.Background())
	require.NoError(t, err)

	name := "Acme Corp"
	_, err = svc.Update(context.Background(), created.ID, &models.UpdateClientRequest{Name: &name})
	require.NoError(t, err)

	clients, err := svc.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, repo.listCalls, "update must invalidate the cached list")
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme Corp", clients[0].Name)
}

func TestArchiveRetiresWithoutDeleting(t *testing.T) {
	repo := newFakeClientRepo()
	svc := newTestClientService(repo)

	created, err := svc.Create(context.Background(), &models.CreateClientRequest{Name: "Acme", Email: "ops@acme.test"})
	require.NoError(t, err)

	archived, err := svc.Archive(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClientArchived, archived.Status)

	// The record stays readable after archiving
	got, err := svc.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClientArchived, got.Status)
}
