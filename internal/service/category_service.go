package service

import (
	"context"

	"expense_tracker/internal/models"
	"expense_tracker/internal/repository"
)

type CategoryService struct {
	categories repository.CategoryRepo
}

func NewCategoryService(categories repository.CategoryRepo) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	out, err := s.categories.List(ctx)
	if err != nil {
		return nil, dependencyError("list categories", err)
	}
	return out, nil
}

type HealthService struct {
	db repository.HealthRepo
}

func NewHealthService(db repository.HealthRepo) *HealthService {
	return &HealthService{db: db}
}

func (s *HealthService) CheckDatabase(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return dependencyError("database", err)
	}
	return nil
}
