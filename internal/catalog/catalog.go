// Package catalog loads and caches per-city station reference data.
package catalog

import (
	"sync"

	"github.com/lmackenzie/smokewatch/internal/models"
)

// LoadFunc supplies the station catalog for one target city.
type LoadFunc func(cityKey string) ([]models.Station, error)

// Cache memoizes loaded station catalogs per city for the process lifetime.
// The loader runs at most once per key even under concurrent first access;
// concurrent reads after population are lock-free copies of immutable data.
type Cache struct {
	load LoadFunc

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once     sync.Once
	stations []models.Station
	err      error
}

// NewCache creates a catalog cache around the given loader.
func NewCache(load LoadFunc) *Cache {
	return &Cache{
		load:    load,
		entries: make(map[string]*cacheEntry),
	}
}

// Stations returns the cached catalog for a city, loading it on first access.
// A failed load is cached until Invalidate so a flapping reference source
// doesn't get hammered every cycle.
func (c *Cache) Stations(cityKey string) ([]models.Station, error) {
	c.mu.Lock()
	entry, ok := c.entries[cityKey]
	if !ok {
		entry = &cacheEntry{}
		c.entries[cityKey] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		entry.stations, entry.err = c.load(cityKey)
	})
	return entry.stations, entry.err
}

// AllStations returns the catalogs of every registered city merged and sorted
// by (target city, tier, distance descending).
func (c *Cache) AllStations() ([]models.Station, error) {
	var all []models.Station
	for _, key := range CityKeys() {
		stations, err := c.Stations(key)
		if err != nil {
			return nil, err
		}
		all = append(all, stations...)
	}
	SortStations(all)
	return all, nil
}

// Invalidate drops all cached catalogs, forcing a reload on next access.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}
