package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/pysugar/nexus-console/internal/db"
	"github.com/pysugar/nexus-console/internal/db/models"
	"github.com/pysugar/nexus-console/internal/util"
	"gorm.io/gorm"
)

func maskProvider(p models.Provider) models.Provider {
	p.Key = util.MaskKey(p.Key)
	p.TypeLabel = db.ProviderTypeLabel(p.ProviderType)
	return p
}

// ListProvidersHandler returns every provider with its key masked.
func ListProvidersHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providers, err := db.ListProviders(database)
		if err != nil {
			writeStoreError(w, r, "list providers", err)
			return
		}
		out := make([]models.Provider, 0, len(providers))
		for _, p := range providers {
			out = append(out, maskProvider(p))
		}
		writeOK(w, out)
	}
}

// CreateProviderHandler validates and stores a new provider.
func CreateProviderHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p models.Provider
		if !decodeBody(w, r, &p) {
			return
		}
		if err := db.CreateProvider(database, &p); err != nil {
			if errors.Is(err, db.ErrInvalid) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusConflict, "failed to create provider (possibly duplicate name)")
			return
		}
		writeData(w, http.StatusCreated, maskProvider(p))
	}
}

// UpdateProviderHandler replaces a provider's settings. An empty key keeps the stored one.
func UpdateProviderHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		var p models.Provider
		if !decodeBody(w, r, &p) {
			return
		}
		updated, err := db.UpdateProvider(database, id, &p)
		if err != nil {
			writeStoreError(w, r, "update provider", err)
			return
		}
		writeOK(w, maskProvider(*updated))
	}
}

func DeleteProviderHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := db.DeleteProvider(database, id); err != nil {
			writeStoreError(w, r, "delete provider", err)
			return
		}
		writeOK(w, nil)
	}
}

// ProviderKeyHandler returns a provider's key unmasked.
func ProviderKeyHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		key, err := db.GetProviderKey(database, id)
		if err != nil {
			writeStoreError(w, r, "load provider key", err)
			return
		}
		writeOK(w, map[string]string{"key": key})
	}
}

func ResetProviderCircuitHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := db.ResetProviderCircuit(database, id); err != nil {
			writeStoreError(w, r, "reset provider circuit", err)
			return
		}
		writeOK(w, nil)
	}
}

func ResetProviderUsageHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := db.ResetProviderTotalUsage(database, id, time.Now()); err != nil {
			writeStoreError(w, r, "reset provider usage", err)
			return
		}
		writeOK(w, nil)
	}
}
