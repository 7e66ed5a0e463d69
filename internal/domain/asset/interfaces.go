package asset

import "context"

// Collaborator contracts the storage core consumes. All are in-process;
// coordinators receive them explicitly so tests can substitute fakes.

// Authorizer decides whether an actor may mutate assets in a project.
// It must be consulted before any destructive operation.
type Authorizer interface {
	CanMutate(ctx context.Context, projectID, actorID string) (bool, error)
}

// Notifier broadcasts structural changes. Fire-and-forget: a failed
// publish must never affect the outcome of the operation that caused it.
type Notifier interface {
	Publish(event string, payload any)
}

// ListingCache is the read-side cache for project listings. Invalidate is
// called after every structural change.
type ListingCache interface {
	Get(projectID string) ([]*Asset, bool)
	Set(projectID string, items []*Asset)
	Invalidate(projectID string)
}
