package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spheroseg/internal/domain/asset"
)

func TestStoreSetGetInvalidate(t *testing.T) {
	s := New(time.Minute)

	_, ok := s.Get("k")
	assert.False(t, ok)

	s.Set("k", 42)
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	s.Invalidate("k")
	_, ok = s.Get("k")
	assert.False(t, ok)
}

func TestStoreExpiry(t *testing.T) {
	s := New(10 * time.Millisecond)
	s.Set("k", "v")

	time.Sleep(25 * time.Millisecond)
	_, ok := s.Get("k")
	assert.False(t, ok, "expired entries read as misses")
}

func TestListingsRoundTrip(t *testing.T) {
	l := NewListings(time.Minute)
	items := []*asset.Asset{{ID: "a1"}, {ID: "a2"}}

	l.Set("p1", items)
	got, ok := l.Get("p1")
	require.True(t, ok)
	assert.Equal(t, items, got)

	l.Invalidate("p1")
	_, ok = l.Get("p1")
	assert.False(t, ok)
}
