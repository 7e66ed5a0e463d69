package cache

import (
	"time"

	"spheroseg/internal/domain/asset"
)

// Listings adapts Store to the asset module's ListingCache contract.
type Listings struct {
	store *Store
}

func NewListings(ttl time.Duration) *Listings {
	return &Listings{store: New(ttl)}
}

func (l *Listings) Get(projectID string) ([]*asset.Asset, bool) {
	v, ok := l.store.Get(projectID)
	if !ok {
		return nil, false
	}
	items, ok := v.([]*asset.Asset)
	return items, ok
}

func (l *Listings) Set(projectID string, items []*asset.Asset) {
	l.store.Set(projectID, items)
}

func (l *Listings) Invalidate(projectID string) {
	l.store.Invalidate(projectID)
}
