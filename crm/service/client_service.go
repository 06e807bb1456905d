package service

import (
	"context"
	"errors"

	"clientdesk/backend/crm/models"
	"clientdesk/backend/crm/repository"
	"clientdesk/backend/pkg/cache"
	apperrors "clientdesk/backend/pkg/errors"

	"gorm.io/gorm"
)

const clientListCacheKey = "crm:clients:list"

// ClientService handles client records; the admin dashboard list is served
// through the in-memory cache and invalidated on every mutation
type ClientService struct {
	repo  repository.ClientRepository
	cache *cache.Cache
}

func NewClientService(repo repository.ClientRepository, c *cache.Cache) *ClientService {
	return &ClientService{repo: repo, cache: c}
}

func (s *ClientService) Create(ctx context.Context, req *models.CreateClientRequest) (*models.Client, error) {
	client := &models.Client{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, apperrors.NewPersistenceError("failed to create client", err)
	}
	s.invalidate()
	return client, nil
}

func (s *ClientService) GetByID(ctx context.Context, id string) (*models.Client, error) {
	client, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("CLIENT_NOT_FOUND", "Client not found")
		}
		return nil, apperrors.NewPersistenceError("failed to load client", err)
	}
	return client, nil
}

func (s *ClientService) List(ctx context.Context) ([]models.Client, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(clientListCacheKey); ok {
			if clients, ok := cached.([]models.Client); ok {
				return clients, nil
			}
		}
	}

	clients, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to list clients", err)
	}

	if s.cache != nil {
		s.cache.Set(clientListCacheKey, clients)
	}
	return clients, nil
}

func (s *ClientService) Update(ctx context.Context, id string, req *models.UpdateClientRequest) (*models.Client, error) {
	client, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.Email != nil {
		client.Email = *req.Email
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.Company != nil {
		client.Company = *req.Company
	}
	if req.Status != nil {
		client.Status = *req.Status
	}

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, apperrors.NewPersistenceError("failed to update client", err)
	}
	s.invalidate()
	return client, nil
}

// Archive soft-retires a client; conversations are append-only so records
// are never deleted
func (s *ClientService) Archive(ctx context.Context, id string) (*models.Client, error) {
	status := models.ClientArchived
	return s.Update(ctx, id, &models.UpdateClientRequest{Status: &status})
}

func (s *ClientService) invalidate() {
	if s.cache != nil {
		s.cache.Delete(clientListCacheKey)
	}
}
