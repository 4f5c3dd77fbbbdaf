package handlers

import (
	"net/http"

	"github.com/pysugar/nexus-console/internal/console/monitor"
	"github.com/pysugar/nexus-console/internal/db"
	"github.com/pysugar/nexus-console/internal/db/models"
	"github.com/pysugar/nexus-console/internal/logfilter"
	"gorm.io/gorm"
)

// UsageLogsHandler returns one page of the filtered usage-log list.
func UsageLogsHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := db.QueryUsageLogs(database, logfilter.Parse(r.URL.Query()))
		if err != nil {
			writeStoreError(w, r, "query usage logs", err)
			return
		}
		writeOK(w, page)
	}
}

// UsageLogTraceHandler returns the decision-chain steps and timeline of one log.
func UsageLogTraceHandler(database *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		entry, err := db.GetUsageLog(database, id)
		if err != nil {
			writeStoreError(w, r, "load usage log", err)
			return
		}
		writeOK(w, models.NewUsageLogTrace(*entry, nil))
	}
}

// UsageStatsHandler returns the running totals kept by the monitor.
func UsageStatsHandler(um *monitor.UsageMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, um.GetStats())
	}
}

// IngestUsageLogHandler records a finished request pushed by the gateway.
func IngestUsageLogHandler(um *monitor.UsageMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in models.UsageIngest
		if !decodeBody(w, r, &in) {
			return
		}
		stored, err := um.Record(in)
		if err != nil {
			writeStoreError(w, r, "record usage log", err)
			return
		}
		writeData(w, http.StatusCreated, stored)
	}
}

// ClearUsageLogsHandler deletes every usage log.
func ClearUsageLogsHandler(um *monitor.UsageMonitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := um.Clear(); err != nil {
			writeStoreError(w, r, "clear usage logs", err)
			return
		}
		writeOK(w, nil)
	}
}
