package handlers

import (
	"log"
	"net/http"

	"github.com/pysugar/nexus-console/internal/db"
	"github.com/pysugar/nexus-console/internal/db/models"
	"github.com/pysugar/nexus-console/internal/requestfilter"
	"gorm.io/gorm"
)

// refreshAfterChange reloads the cache after a filter mutation. Failures are
// logged only; the mutation itself succeeded.
func refreshAfterChange(cache *requestfilter.Cache) {
	if _, err := cache.Refresh(); err != nil {
		log.Printf("[RequestFilter] Refresh after change failed: %v", err)
	}
}

func ListRequestFiltersHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := db.ListRequestFilters(database)
		if err != nil {
			writeStoreError(w, r, "list request filters", err)
			return
		}
		writeOK(w, filters)
	}
}

func CreateRequestFilterHandler(database *gorm.DB, cache *requestfilter.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f models.RequestFilter
		if !decodeBody(w, r, &f) {
			return
		}
		if err := db.CreateRequestFilter(database, &f); err != nil {
			writeStoreError(w, r, "create request filter", err)
			return
		}
		refreshAfterChange(cache)
		writeData(w, http.StatusCreated, f)
	}
}

func UpdateRequestFilterHandler(database *gorm.DB, cache *requestfilter.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var f models.RequestFilter
		if !decodeBody(w, r, &f) {
			return
		}
		updated, err := db.UpdateRequestFilter(database, id, &f)
		if err != nil {
			writeStoreError(w, r, "update request filter", err)
			return
		}
		refreshAfterChange(cache)
		writeOK(w, updated)
	}
}

func DeleteRequestFilterHandler(database *gorm.DB, cache *requestfilter.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := db.DeleteRequestFilter(database, id); err != nil {
			writeStoreError(w, r, "delete request filter", err)
			return
		}
		refreshAfterChange(cache)
		writeOK(w, nil)
	}
}

// RefreshRequestFiltersHandler reloads the filter cache and reports its size.
func RefreshRequestFiltersHandler(cache *requestfilter.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := cache.Refresh()
		if err != nil {
			writeStoreError(w, r, "refresh request filters", err)
			return
		}
		writeOK(w, map[string]int{"count": count})
	}
}

// FilterProvidersHandler lists the providers a filter can be bound to.
func FilterProvidersHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		options, err := db.ListProviderOptions(database)
		if err != nil {
			writeStoreError(w, r, "list providers", err)
			return
		}
		writeOK(w, options)
	}
}

func ProviderGroupsHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := db.DistinctProviderGroups(database)
		if err != nil {
			writeStoreError(w, r, "list provider groups", err)
			return
		}
		writeOK(w, groups)
	}
}
