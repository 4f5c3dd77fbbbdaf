package monitor

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/pysugar/nexus-console/internal/db"
	"github.com/pysugar/nexus-console/internal/db/models"
	"github.com/pysugar/nexus-console/internal/metrics"
	"github.com/pysugar/nexus-console/internal/util"
	"gorm.io/gorm"
)

const (
	// MaxRequestBodySize limits request body storage to 1MB
	MaxRequestBodySize = 1024 * 1024
	// MaxResponseBodySize limits response body storage to 512KB
	MaxResponseBodySize = 512 * 1024
	// MaxErrorMessageSize limits stored error messages to 8KB
	MaxErrorMessageSize = 8 * 1024
)

// UsageMonitor records gateway usage and keeps running statistics.
type UsageMonitor struct {
	db  *gorm.DB
	now func() time.Time

	// In-memory stats (updated atomically)
	totalRequests atomic.Int64
	successCount  atomic.Int64
	errorCount    atomic.Int64
	costMicroUSD  atomic.Int64
}

// NewUsageMonitor creates a monitor and seeds its statistics from the database.
func NewUsageMonitor(database *gorm.DB) *UsageMonitor {
	m := &UsageMonitor{db: database, now: time.Now}
	m.loadStatsFromDB()
	return m
}

// Record stores a usage log, its session request and the session's activity in
// one transaction and returns the stored log.
func (m *UsageMonitor) Record(in models.UsageIngest) (*models.UsageLog, error) {
	entry := in.Log
	entry.ID = 0
	now := m.now()
	if entry.CreatedAt == 0 {
		entry.CreatedAt = now.UnixMilli()
	}
	entry.ErrorMessage = util.TruncateBody(entry.ErrorMessage, MaxErrorMessageSize)

	err := m.db.Transaction(func(tx *gorm.DB) error {
		if in.Request != nil && entry.SessionID != "" {
			req := sessionRequestFor(&entry, *in.Request)
			if err := db.CreateSessionRequest(tx, &req); err != nil {
				return fmt.Errorf("store session request: %w", err)
			}
			entry.RequestSequence = req.Sequence
		}

		if err := db.CreateUsageLog(tx, &entry); err != nil {
			return fmt.Errorf("store usage log: %w", err)
		}

		if entry.ProviderID != 0 && entry.CostUSD > 0 {
			err := tx.Model(&models.Provider{}).
				Where("id = ?", entry.ProviderID).
				UpdateColumn("total_cost_usd", gorm.Expr("total_cost_usd + ?", entry.CostUSD)).Error
			if err != nil {
				return fmt.Errorf("add provider cost: %w", err)
			}
		}

		if entry.SessionID != "" {
			err := db.TouchActiveSession(tx, models.ActiveSession{
				SessionID:  entry.SessionID,
				UserID:     entry.UserID,
				KeyID:      entry.KeyID,
				ProviderID: entry.ProviderID,
			}, now)
			if err != nil {
				return fmt.Errorf("touch session: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("[Monitor] Failed to record usage log: %v", err)
		return nil, err
	}

	m.totalRequests.Add(1)
	if isSuccess(entry.StatusCode) {
		m.successCount.Add(1)
	} else {
		m.errorCount.Add(1)
	}
	m.costMicroUSD.Add(int64(entry.CostUSD * 1e6))
	metrics.UsageLogsIngested.WithLabelValues(metrics.StatusClass(entry.StatusCode)).Inc()

	return &entry, nil
}

func sessionRequestFor(entry *models.UsageLog, req models.SessionRequest) models.SessionRequest {
	req.ID = ""
	req.SessionID = entry.SessionID
	if req.Sequence == 0 {
		req.Sequence = entry.RequestSequence
	}
	if req.CreatedAt == 0 {
		req.CreatedAt = entry.CreatedAt
	}
	if req.Model == "" {
		req.Model = entry.Model
	}
	if req.ProviderName == "" {
		req.ProviderName = entry.ProviderName
	}
	if req.StatusCode == 0 {
		req.StatusCode = entry.StatusCode
	}
	if req.InputTokens == 0 {
		req.InputTokens = entry.InputTokens
	}
	if req.OutputTokens == 0 {
		req.OutputTokens = entry.OutputTokens
	}
	if req.CostUSD == 0 {
		req.CostUSD = entry.CostUSD
	}
	if req.DurationMs == nil {
		req.DurationMs = entry.DurationMs
	}

	// Truncate bodies if too large
	req.RequestBody = util.TruncateBody(req.RequestBody, MaxRequestBodySize)
	req.Messages = util.TruncateBody(req.Messages, MaxRequestBodySize)
	req.ResponseBody = util.TruncateBody(req.ResponseBody, MaxResponseBodySize)
	return req
}

// GetStats returns aggregated usage statistics
func (m *UsageMonitor) GetStats() models.UsageStats {
	return models.UsageStats{
		TotalRequests: m.totalRequests.Load(),
		SuccessCount:  m.successCount.Load(),
		ErrorCount:    m.errorCount.Load(),
		TotalCostUSD:  float64(m.costMicroUSD.Load()) / 1e6,
	}
}

// Clear deletes every usage log and resets the statistics. Session captures are kept.
func (m *UsageMonitor) Clear() error {
	if err := m.db.Where("1 = 1").Delete(&models.UsageLog{}).Error; err != nil {
		log.Printf("[Monitor] Failed to clear usage logs: %v", err)
		return err
	}

	m.totalRequests.Store(0)
	m.successCount.Store(0)
	m.errorCount.Store(0)
	m.costMicroUSD.Store(0)

	log.Printf("[Monitor] All usage logs cleared")
	return nil
}

// loadStatsFromDB loads initial statistics from database
func (m *UsageMonitor) loadStatsFromDB() {
	stats, err := db.GetUsageStats(m.db)
	if err != nil {
		log.Printf("[Monitor] Failed to load stats: %v", err)
		return
	}

	m.totalRequests.Store(stats.TotalRequests)
	m.successCount.Store(stats.SuccessCount)
	m.errorCount.Store(stats.ErrorCount)
	m.costMicroUSD.Store(int64(stats.TotalCostUSD * 1e6))

	log.Printf("[Monitor] Loaded stats: total=%d, success=%d, errors=%d", stats.TotalRequests, stats.SuccessCount, stats.ErrorCount)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 400
}
