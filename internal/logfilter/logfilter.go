// Package logfilter maps usage-log list filters to and from URL query parameters.
package logfilter

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100

	// StatusNot200 is the statusCode value meaning "every status except 200".
	StatusNot200 = "!200"
)

// Filters is the query behind the usage-log list.
type Filters struct {
	UserID           *int64
	KeyID            *int64
	ProviderID       *int64
	SessionID        string
	StartTime        *int64 // epoch ms, inclusive
	EndTime          *int64 // epoch ms, exclusive
	StatusCode       *int
	ExcludeStatus200 bool
	Model            string
	Endpoint         string
	MinRetry         *int
	Page             int
	PageSize         int
}

// Parse reads filters from query values. Malformed numbers are ignored.
func Parse(q url.Values) Filters {
	f := Filters{
		UserID:     parseInt64(q.Get("userId")),
		KeyID:      parseInt64(q.Get("keyId")),
		ProviderID: parseInt64(q.Get("providerId")),
		SessionID:  strings.TrimSpace(q.Get("sessionId")),
		StartTime:  parseInt64(q.Get("startTime")),
		EndTime:    parseInt64(q.Get("endTime")),
		Model:      strings.TrimSpace(q.Get("model")),
		Endpoint:   strings.TrimSpace(q.Get("endpoint")),
		MinRetry:   parseInt(q.Get("minRetry")),
		Page:       1,
		PageSize:   DefaultPageSize,
	}

	if status := strings.TrimSpace(q.Get("statusCode")); status == StatusNot200 {
		f.ExcludeStatus200 = true
	} else {
		f.StatusCode = parseInt(status)
	}

	if p := parseInt(q.Get("page")); p != nil && *p > 0 {
		f.Page = *p
	}
	if s := parseInt(q.Get("pageSize")); s != nil && *s > 0 {
		f.PageSize = min(*s, MaxPageSize)
	}
	return f
}

// Values encodes the filters. page is omitted when it is 1 and pageSize when it is the default.
func (f Filters) Values() url.Values {
	q := url.Values{}
	setInt64(q, "userId", f.UserID)
	setInt64(q, "keyId", f.KeyID)
	setInt64(q, "providerId", f.ProviderID)
	if f.SessionID != "" {
		q.Set("sessionId", f.SessionID)
	}
	setInt64(q, "startTime", f.StartTime)
	setInt64(q, "endTime", f.EndTime)
	if f.ExcludeStatus200 {
		q.Set("statusCode", StatusNot200)
	} else if f.StatusCode != nil {
		q.Set("statusCode", strconv.Itoa(*f.StatusCode))
	}
	if f.Model != "" {
		q.Set("model", f.Model)
	}
	if f.Endpoint != "" {
		q.Set("endpoint", f.Endpoint)
	}
	if f.MinRetry != nil {
		q.Set("minRetry", strconv.Itoa(*f.MinRetry))
	}
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 && f.PageSize != DefaultPageSize {
		q.Set("pageSize", strconv.Itoa(f.PageSize))
	}
	return q
}

// CurrentPage returns the page number, treating unset as 1.
func (f Filters) CurrentPage() int {
	if f.Page < 1 {
		return 1
	}
	return f.Page
}

// Limit returns the effective page size.
func (f Filters) Limit() int {
	if f.PageSize <= 0 {
		return DefaultPageSize
	}
	return min(f.PageSize, MaxPageSize)
}

// Offset returns the row offset of the current page.
func (f Filters) Offset() int {
	return (f.CurrentPage() - 1) * f.Limit()
}

// ParseSequence reads the 1-based seq parameter of the session view.
// Anything that is not a positive integer is treated as absent.
func ParseSequence(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func parseInt64(raw string) *int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(raw string) *int {
	v := parseInt64(raw)
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

func setInt64(q url.Values, key string, v *int64) {
	if v != nil {
		q.Set(key, strconv.FormatInt(*v, 10))
	}
}
