package db

import (
	"fmt"

	"github.com/pysugar/nexus-console/internal/db/models"
	"github.com/pysugar/nexus-console/internal/logfilter"
	"gorm.io/gorm"
)

// CreateUsageLog stores one usage log.
func CreateUsageLog(db *gorm.DB, entry *models.UsageLog) error {
	return db.Create(entry).Error
}

// GetUsageLog loads a single usage log with its provider chain.
func GetUsageLog(db *gorm.DB, id int64) (*models.UsageLog, error) {
	var entry models.UsageLog
	if err := db.First(&entry, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

// QueryUsageLogs returns the requested page of logs matching f, newest first,
// together with the total number of matching rows.
func QueryUsageLogs(db *gorm.DB, f logfilter.Filters) (*models.UsageLogPage, error) {
	q := applyUsageLogFilters(db.Model(&models.UsageLog{}), f).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count usage logs: %w", err)
	}

	logs := make([]models.UsageLog, 0, f.Limit())
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(f.Limit()).
		Offset(f.Offset()).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list usage logs: %w", err)
	}
	return &models.UsageLogPage{Logs: logs, Total: total}, nil
}

func applyUsageLogFilters(q *gorm.DB, f logfilter.Filters) *gorm.DB {
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.KeyID != nil {
		q = q.Where("key_id = ?", *f.KeyID)
	}
	if f.ProviderID != nil {
		q = q.Where("provider_id = ?", *f.ProviderID)
	}
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if f.StartTime != nil {
		q = q.Where("created_at >= ?", *f.StartTime)
	}
	if f.EndTime != nil {
		q = q.Where("created_at < ?", *f.EndTime)
	}
	if f.ExcludeStatus200 {
		q = q.Where("status_code <> ?", 200)
	} else if f.StatusCode != nil {
		q = q.Where("status_code = ?", *f.StatusCode)
	}
	if f.Model != "" {
		q = q.Where("model = ?", f.Model)
	}
	if f.Endpoint != "" {
		q = q.Where("endpoint = ?", f.Endpoint)
	}
	if f.MinRetry != nil {
		q = q.Where("retry_count >= ?", *f.MinRetry)
	}
	return q
}

// GetUsageStats aggregates request counts and cost over every stored log.
func GetUsageStats(db *gorm.DB) (models.UsageStats, error) {
	var stats models.UsageStats
	err := db.Model(&models.UsageLog{}).
		Select("COUNT(*) AS total_requests, " +
			"COALESCE(SUM(CASE WHEN status_code >= 200 AND status_code < 400 THEN 1 ELSE 0 END), 0) AS success_count, " +
			"COALESCE(SUM(CASE WHEN status_code < 200 OR status_code >= 400 THEN 1 ELSE 0 END), 0) AS error_count, " +
			"COALESCE(SUM(cost_usd), 0) AS total_cost_usd").
		Scan(&stats).Error
	return stats, err
}
