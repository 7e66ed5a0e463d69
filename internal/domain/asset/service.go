package asset

import "context"

// Service is the read side: project listings (cache-backed) and per-asset
// lookups. Mutations go through the coordinators.
type Service struct {
	repo  Repository
	auth  Authorizer
	cache ListingCache
}

func NewService(repo Repository, auth Authorizer, cache ListingCache) *Service {
	return &Service{repo: repo, auth: auth, cache: cache}
}

func (s *Service) ListByProject(ctx context.Context, projectID, actorID string) ([]*Asset, error) {
	ok, err := s.auth.CanMutate(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotPermitted
	}

	if items, hit := s.cache.Get(projectID); hit {
		return items, nil
	}

	items, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(projectID, items)
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, assetID, actorID string) (*Asset, error) {
	a, err := s.repo.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	ok, err := s.auth.CanMutate(ctx, a.ProjectID, actorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotPermitted
	}
	return a, nil
}

func (s *Service) GetStatus(ctx context.Context, assetID, actorID string) (Status, error) {
	a, err := s.GetByID(ctx, assetID, actorID)
	if err != nil {
		return "", err
	}
	return a.Status, nil
}
