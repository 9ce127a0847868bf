package venuecache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gadget-bot/venueshare/models"
)

// Source produces the full current venue list.
type Source interface {
	Fetch(ctx context.Context) ([]models.Venue, error)
}

// Store persists the last good venue list so a restart can serve venues
// before the first fetch completes.
type Store interface {
	Load(ctx context.Context) ([]models.Venue, error)
	Save(ctx context.Context, venues []models.Venue) error
}

// Refresher is the only writer of a Cache.
type Refresher struct {
	cache  *Cache
	source Source
	store  Store
	now    func() time.Time
}

// NewRefresher wires a refresher. store may be nil.
func NewRefresher(cache *Cache, source Source, store Store) *Refresher {
	return &Refresher{cache: cache, source: source, store: store, now: time.Now}
}

// Warm fills the cache from the store. A missing or empty store is not an
// error.
func (r *Refresher) Warm(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	venues, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load venue snapshot: %w", err)
	}
	if len(venues) == 0 {
		log.Info().Msg("No stored venue snapshot to warm the cache with")
		return nil
	}
	r.cache.Replace(NewSnapshot(venues, r.now()))
	log.Info().Int("venues", len(venues)).Msg("Warmed venue cache from store")
	return nil
}

// Refresh fetches the venue list and swaps it into the cache. On fetch
// failure the current snapshot stays in place.
func (r *Refresher) Refresh(ctx context.Context) (*Snapshot, error) {
	venues, err := r.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch venues: %w", err)
	}

	snap := NewSnapshot(venues, r.now())
	r.cache.Replace(snap)
	log.Info().Int("venues", snap.Len()).Msg("Refreshed venue cache")

	if r.store != nil {
		if err := r.store.Save(ctx, snap.Venues()); err != nil {
			log.Error().Err(err).Msg("Failed to persist venue snapshot")
		}
	}
	return snap, nil
}

// Run refreshes every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Venue refresher stopped")
			return
		case <-ticker.C:
			if _, err := r.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Periodic venue refresh failed")
			}
		}
	}
}
