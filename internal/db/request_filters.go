package db

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pysugar/nexus-console/internal/db/models"
	"gorm.io/gorm"
)

// ValidateRequestFilter checks a filter rule before it is stored.
func ValidateRequestFilter(f *models.RequestFilter) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("filter name is required")
	}
	if strings.TrimSpace(f.Target) == "" {
		return fmt.Errorf("filter target is required")
	}

	switch f.Scope {
	case models.FilterScopeHeader:
		if f.Action != models.FilterActionRemove && f.Action != models.FilterActionSet {
			return fmt.Errorf("header filters support only remove and set, got %q", f.Action)
		}
	case models.FilterScopeBody:
		switch f.Action {
		case models.FilterActionJSONPath, models.FilterActionTextReplace:
		default:
			return fmt.Errorf("body filters support only json_path and text_replace, got %q", f.Action)
		}
	default:
		return fmt.Errorf("unknown filter scope %q", f.Scope)
	}

	if f.Action == models.FilterActionTextReplace {
		switch f.MatchType {
		case "", "contains", "exact":
		case "regex":
			if _, err := regexp.Compile(f.Target); err != nil {
				return fmt.Errorf("invalid regex target: %w", err)
			}
		default:
			return fmt.Errorf("unknown match type %q", f.MatchType)
		}
	}

	switch f.BindingType {
	case "", models.FilterBindingGlobal:
		f.BindingType = models.FilterBindingGlobal
		f.ProviderIDs = nil
		f.GroupTags = nil
	case models.FilterBindingProviders:
		if len(f.ProviderIDs) == 0 {
			return fmt.Errorf("provider binding needs at least one provider")
		}
		f.GroupTags = nil
	case models.FilterBindingGroups:
		if len(f.GroupTags) == 0 {
			return fmt.Errorf("group binding needs at least one group")
		}
		f.ProviderIDs = nil
	default:
		return fmt.Errorf("unknown binding type %q", f.BindingType)
	}
	return nil
}

// ListRequestFilters returns every filter in evaluation order.
func ListRequestFilters(db *gorm.DB) ([]models.RequestFilter, error) {
	var filters []models.RequestFilter
	err := db.Order("priority ASC").Order("id ASC").Find(&filters).Error
	return filters, err
}

// ListEnabledRequestFilters returns the enabled filters in evaluation order.
func ListEnabledRequestFilters(db *gorm.DB) ([]models.RequestFilter, error) {
	var filters []models.RequestFilter
	err := db.Where("is_enabled = ?", true).
		Order("priority ASC").
		Order("id ASC").
		Find(&filters).Error
	return filters, err
}

// CreateRequestFilter validates and stores a new filter.
func CreateRequestFilter(db *gorm.DB, f *models.RequestFilter) error {
	if err := ValidateRequestFilter(f); err != nil {
		return invalid(err)
	}
	f.ID = 0
	return db.Create(f).Error
}

// UpdateRequestFilter replaces a stored filter.
func UpdateRequestFilter(db *gorm.DB, id int64, f *models.RequestFilter) (*models.RequestFilter, error) {
	var existing models.RequestFilter
	if err := db.First(&existing, id).Error; err != nil {
		return nil, notFound(err)
	}
	if err := ValidateRequestFilter(f); err != nil {
		return nil, invalid(err)
	}
	f.ID = existing.ID
	f.CreatedAt = existing.CreatedAt
	if err := db.Save(f).Error; err != nil {
		return nil, fmt.Errorf("save request filter %d: %w", id, err)
	}
	return f, nil
}

// DeleteRequestFilter removes a filter.
func DeleteRequestFilter(db *gorm.DB, id int64) error {
	res := db.Delete(&models.RequestFilter{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
