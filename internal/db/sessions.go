package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pysugar/nexus-console/internal/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateSessionRequest stores a captured session request. A zero Sequence is
// assigned the next free sequence of the session.
func CreateSessionRequest(db *gorm.DB, req *models.SessionRequest) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if req.Sequence == 0 {
			var maxSeq int
			err := tx.Model(&models.SessionRequest{}).
				Where("session_id = ?", req.SessionID).
				Select("COALESCE(MAX(sequence), 0)").
				Scan(&maxSeq).Error
			if err != nil {
				return err
			}
			req.Sequence = maxSeq + 1
		}
		return tx.Create(req).Error
	})
}

// TouchActiveSession marks a session as active, creating it on first sight.
func TouchActiveSession(db *gorm.DB, s models.ActiveSession, now time.Time) error {
	if s.StartedAt.IsZero() {
		s.StartedAt = now
	}
	s.LastSeenAt = now
	s.TerminatedAt = nil
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"provider_id", "last_seen_at", "terminated_at"}),
	}).Create(&s).Error
}

// TerminateActiveSession ends an active session. Sessions that are unknown or
// already terminated yield ErrNotFound.
func TerminateActiveSession(db *gorm.DB, sessionID string, now time.Time) error {
	res := db.Model(&models.ActiveSession{}).
		Where("session_id = ? AND terminated_at IS NULL", sessionID).
		Update("terminated_at", now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetSessionDetails loads one request of a session. A nil sequence selects the latest request.
func GetSessionDetails(db *gorm.DB, sessionID string, sequence *int) (*models.SessionDetails, error) {
	var req models.SessionRequest
	q := db.Where("session_id = ?", sessionID)
	if sequence != nil {
		q = q.Where("sequence = ?", *sequence)
	} else {
		q = q.Order("sequence DESC")
	}
	if err := q.First(&req).Error; err != nil {
		return nil, notFound(err)
	}

	stats, err := sessionStats(db, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}

	details := &models.SessionDetails{
		RequestBody:     rawJSON(req.RequestBody),
		Messages:        rawJSON(req.Messages),
		Response:        rawJSON(req.ResponseBody),
		RequestHeaders:  req.RequestHeaders,
		ResponseHeaders: req.ResponseHeaders,
		RequestMeta:     req.RequestMeta,
		ResponseMeta:    req.ResponseMeta,
		SessionStats:    stats,
		SpecialSettings: req.SpecialSettings,
		CurrentSequence: req.Sequence,
	}
	if details.PrevSequence, err = neighbourSequence(db, sessionID, "sequence < ?", "sequence DESC", req.Sequence); err != nil {
		return nil, err
	}
	if details.NextSequence, err = neighbourSequence(db, sessionID, "sequence > ?", "sequence ASC", req.Sequence); err != nil {
		return nil, err
	}
	return details, nil
}

func neighbourSequence(db *gorm.DB, sessionID, cond, order string, current int) (*int, error) {
	var req models.SessionRequest
	err := db.Select("sequence").
		Where("session_id = ?", sessionID).
		Where(cond, current).
		Order(order).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req.Sequence, nil
}

func sessionStats(db *gorm.DB, sessionID string) (*models.SessionStats, error) {
	var stats models.SessionStats
	err := db.Model(&models.SessionRequest{}).
		Where("session_id = ?", sessionID).
		Select("COUNT(*) AS request_count, " +
			"COALESCE(SUM(input_tokens), 0) AS total_input_tokens, " +
			"COALESCE(SUM(output_tokens), 0) AS total_output_tokens, " +
			"COALESCE(SUM(cost_usd), 0) AS total_cost_usd, " +
			"COALESCE(MIN(created_at), 0) AS first_request_at, " +
			"COALESCE(MAX(created_at), 0) AS last_request_at").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetSessionRequests lists a session's requests. order is "asc" or "desc" by sequence.
func GetSessionRequests(db *gorm.DB, sessionID string, page, pageSize int, order string) (*models.SessionRequestPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	direction := "ASC"
	if order == "desc" {
		direction = "DESC"
	}

	base := db.Model(&models.SessionRequest{}).Where("session_id = ?", sessionID).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	items := make([]models.SessionRequestItem, 0, pageSize)
	err := base.Select("id, sequence, created_at, model, provider_name, status_code, input_tokens, output_tokens, cost_usd, duration_ms").
		Order("sequence " + direction).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return &models.SessionRequestPage{
		Requests: items,
		Total:    total,
		HasMore:  int64(page*pageSize) < total,
	}, nil
}

// HasSessionMessages reports whether captured messages exist for the session,
// or for one request of it when sequence is set.
func HasSessionMessages(db *gorm.DB, sessionID string, sequence *int) (bool, error) {
	q := db.Model(&models.SessionRequest{}).
		Where("session_id = ?", sessionID).
		Where("messages IS NOT NULL AND messages <> ''")
	if sequence != nil {
		q = q.Where("sequence = ?", *sequence)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// rawJSON passes stored JSON through untouched and quotes anything else.
func rawJSON(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("null")
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	quoted, _ := json.Marshal(s)
	return quoted
}
