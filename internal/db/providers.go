package db

import (
	"fmt"
	"time"

	"github.com/pysugar/nexus-console/internal/chain"
	"github.com/pysugar/nexus-console/internal/db/models"
	"gorm.io/gorm"
)

// ListProviders returns every provider ordered by priority.
func ListProviders(db *gorm.DB) ([]models.Provider, error) {
	var providers []models.Provider
	err := db.Order("priority ASC").Order("id ASC").Find(&providers).Error
	return providers, err
}

// GetProvider loads one provider.
func GetProvider(db *gorm.DB, id int64) (*models.Provider, error) {
	var p models.Provider
	if err := db.First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// CreateProvider validates and stores a new provider.
func CreateProvider(db *gorm.DB, p *models.Provider) error {
	p.ProviderType = NormalizeProviderType(p.ProviderType)
	if err := ValidateProvider(p); err != nil {
		return invalid(err)
	}
	p.ID = 0
	p.CircuitState = chain.CircuitClosed
	p.CircuitFailureCount = 0
	p.CircuitOpenedAt = nil
	p.TotalCostUSD = 0
	return db.Create(p).Error
}

// UpdateProvider replaces the editable fields of a provider. An empty key keeps
// the stored one; runtime circuit and usage state is never touched.
func UpdateProvider(db *gorm.DB, id int64, p *models.Provider) (*models.Provider, error) {
	existing, err := GetProvider(db, id)
	if err != nil {
		return nil, err
	}

	p.ProviderType = NormalizeProviderType(p.ProviderType)
	if p.Key == "" {
		p.Key = existing.Key
	}
	if err := ValidateProvider(p); err != nil {
		return nil, invalid(err)
	}

	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.CircuitState = existing.CircuitState
	p.CircuitFailureCount = existing.CircuitFailureCount
	p.CircuitOpenedAt = existing.CircuitOpenedAt
	p.TotalCostUSD = existing.TotalCostUSD
	p.TotalCostResetAt = existing.TotalCostResetAt

	if err := db.Save(p).Error; err != nil {
		return nil, fmt.Errorf("save provider %d: %w", id, err)
	}
	return p, nil
}

// DeleteProvider removes a provider.
func DeleteProvider(db *gorm.DB, id int64) error {
	res := db.Delete(&models.Provider{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetProviderCircuit closes the provider's circuit and clears its failure count.
func ResetProviderCircuit(db *gorm.DB, id int64) error {
	return updateProvider(db, id, map[string]any{
		"circuit_state":         chain.CircuitClosed,
		"circuit_failure_count": 0,
		"circuit_opened_at":     nil,
	})
}

// ResetProviderTotalUsage zeroes the accumulated cost used by the total limit.
func ResetProviderTotalUsage(db *gorm.DB, id int64, now time.Time) error {
	return updateProvider(db, id, map[string]any{
		"total_cost_usd":      0,
		"total_cost_reset_at": now,
	})
}

func updateProvider(db *gorm.DB, id int64, values map[string]any) error {
	res := db.Model(&models.Provider{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProviderKey returns the stored upstream key of a provider.
func GetProviderKey(db *gorm.DB, id int64) (string, error) {
	p, err := GetProvider(db, id)
	if err != nil {
		return "", err
	}
	return p.Key, nil
}

// ListProviderOptions returns id/name pairs for request filter binding.
func ListProviderOptions(db *gorm.DB) ([]models.ProviderOption, error) {
	options := []models.ProviderOption{}
	err := db.Model(&models.Provider{}).
		Select("id, name").
		Order("name ASC").
		Scan(&options).Error
	return options, err
}

// DistinctProviderGroups returns the non-empty group tags in use, sorted.
func DistinctProviderGroups(db *gorm.DB) ([]string, error) {
	groups := []string{}
	err := db.Model(&models.Provider{}).
		Where("group_tag IS NOT NULL AND group_tag <> ''").
		Distinct().
		Order("group_tag ASC").
		Pluck("group_tag", &groups).Error
	return groups, err
}
