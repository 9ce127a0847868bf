// Package venuecache holds the in-memory venue snapshot the bot searches,
// and the job that keeps it fresh.
package venuecache

import (
	"sync/atomic"
	"time"

	"github.com/gadget-bot/venueshare/models"
)

// Snapshot is an immutable view of every known venue. Callers must not
// modify the slices it hands out.
type Snapshot struct {
	venues    []models.Venue
	byID      map[string]int
	fetchedAt time.Time
}

// NewSnapshot builds a snapshot from venues, keeping their order. Later
// duplicates of an id are dropped.
func NewSnapshot(venues []models.Venue, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		venues:    make([]models.Venue, 0, len(venues)),
		byID:      make(map[string]int, len(venues)),
		fetchedAt: fetchedAt,
	}
	for _, v := range venues {
		if v.ID != "" {
			if _, dup := s.byID[v.ID]; dup {
				continue
			}
			s.byID[v.ID] = len(s.venues)
		}
		s.venues = append(s.venues, v)
	}
	return s
}

func (s *Snapshot) Venues() []models.Venue { return s.venues }

func (s *Snapshot) Len() int { return len(s.venues) }

func (s *Snapshot) FetchedAt() time.Time { return s.fetchedAt }

// Get looks a venue up by id.
func (s *Snapshot) Get(id string) (models.Venue, bool) {
	i, ok := s.byID[id]
	if !ok {
		return models.Venue{}, false
	}
	return s.venues[i], true
}

var emptySnapshot = NewSnapshot(nil, time.Time{})

// Cache serves the current snapshot to any number of readers while a single
// writer replaces it wholesale.
type Cache struct {
	current atomic.Pointer[Snapshot]
}

func New() *Cache {
	c := &Cache{}
	c.current.Store(emptySnapshot)
	return c
}

// Snapshot returns the snapshot in effect right now.
func (c *Cache) Snapshot() *Snapshot {
	return c.current.Load()
}

// Replace swaps in s. A nil snapshot empties the cache.
func (c *Cache) Replace(s *Snapshot) {
	if s == nil {
		s = emptySnapshot
	}
	c.current.Store(s)
}

func (c *Cache) Venues() []models.Venue { return c.Snapshot().Venues() }

func (c *Cache) Len() int { return c.Snapshot().Len() }

func (c *Cache) Get(id string) (models.Venue, bool) { return c.Snapshot().Get(id) }
