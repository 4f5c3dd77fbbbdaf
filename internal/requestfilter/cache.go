// Package requestfilter keeps the enabled request filters in memory for the gateway.
package requestfilter

import (
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/pysugar/nexus-console/internal/db"
	"github.com/pysugar/nexus-console/internal/db/models"
	"github.com/pysugar/nexus-console/internal/metrics"
	"gorm.io/gorm"
)

// Cache is a priority-ordered snapshot of the enabled request filters.
type Cache struct {
	db *gorm.DB

	mu       sync.RWMutex
	loaded   bool
	filters  []models.RequestFilter
	loadedAt time.Time
}

// NewCache creates an empty cache. Filters are loaded on first use or by Refresh.
func NewCache(database *gorm.DB) *Cache {
	return &Cache{db: database}
}

// Refresh reloads the enabled filters and returns how many are cached.
func (c *Cache) Refresh() (int, error) {
	filters, err := db.ListEnabledRequestFilters(c.db)
	if err != nil {
		return 0, fmt.Errorf("load request filters: %w", err)
	}

	c.mu.Lock()
	c.filters = filters
	c.loaded = true
	c.loadedAt = time.Now()
	c.mu.Unlock()

	metrics.RequestFiltersCached.Set(float64(len(filters)))
	log.Printf("[RequestFilter] Cache refreshed: %d enabled filters", len(filters))
	return len(filters), nil
}

func (c *Cache) ensureLoaded() {
	c.mu.RLock()
	ok := c.loaded
	c.mu.RUnlock()
	if ok {
		return
	}
	if _, err := c.Refresh(); err != nil {
		log.Printf("[RequestFilter] Initial load failed: %v", err)
	}
}

// Filters returns a copy of every cached filter in evaluation order.
func (c *Cache) Filters() []models.RequestFilter {
	c.ensureLoaded()

	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.filters)
}

// ForProvider returns the filters that apply to a provider: global ones, ones bound
// to its id and ones bound to its group tag.
func (c *Cache) ForProvider(providerID int64, groupTag string) []models.RequestFilter {
	c.ensureLoaded()

	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]models.RequestFilter, 0, len(c.filters))
	for _, f := range c.filters {
		switch f.BindingType {
		case models.FilterBindingProviders:
			if !slices.Contains(f.ProviderIDs, providerID) {
				continue
			}
		case models.FilterBindingGroups:
			if groupTag == "" || !slices.Contains(f.GroupTags, groupTag) {
				continue
			}
		}
		result = append(result, f)
	}
	return result
}

// LoadedAt reports when the cache was last refreshed.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}
