package project

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, ownerID, name, description string) (*Project, error) {
	p := &Project{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Project, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]*Project, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// CanMutate is the permission decision the storage coordinators consult
// before any destructive or structural change. A missing project reads as
// a denial, not an error, so callers stay side-effect free.
func (s *Service) CanMutate(ctx context.Context, projectID, actorID string) (bool, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if errors.Is(err, ErrProjectNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.OwnerID == actorID, nil
}
