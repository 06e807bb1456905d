package service

import (
	"context"
	"errors"

	"clientdesk/backend/crm/models"
	"clientdesk/backend/crm/repository"
	apperrors "clientdesk/backend/pkg/errors"

	"gorm.io/gorm"
)

// TaskService handles tasks scoped by client
type TaskService struct {
	repo repository.TaskRepository
}

func NewTaskService(repo repository.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) Create(ctx context.Context, clientID string, req *models.CreateTaskRequest) (*models.Task, error) {
	task := &models.Task{
		ClientID:    clientID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, apperrors.NewPersistenceError("failed to create task", err)
	}
	return task, nil
}

func (s *TaskService) GetByID(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("TASK_NOT_FOUND", "Task not found")
		}
		return nil, apperrors.NewPersistenceError("failed to load task", err)
	}
	return task, nil
}

func (s *TaskService) ListByClient(ctx context.Context, clientID string) ([]models.Task, error) {
	tasks, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, apperrors.NewPersistenceError("failed to list tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) Update(ctx context.Context, id string, req *models.UpdateTaskRequest) (*models.Task, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, apperrors.NewPersistenceError("failed to update task", err)
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.NewPersistenceError("failed to delete task", err)
	}
	return nil
}
