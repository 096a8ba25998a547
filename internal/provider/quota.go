package provider

import (
	"fmt"
	"sync"
	"time"

	"github.com/apkerk/youtube-longitudinal/internal/writer"
)

// QuotaLogger appends one row per successful upstream call to a daily quota
// CSV (spec.md §4.1: "Success calls increment a daily quota log ... whose
// failure never propagates"). A zero-value path disables logging entirely.
type QuotaLogger struct {
	path string
	mu   sync.Mutex

	day        string // UTC YYYY-MM-DD the running total applies to
	cumulative int
}

// NewQuotaLogger builds a QuotaLogger. An empty path makes Record a no-op.
func NewQuotaLogger(path string) *QuotaLogger {
	return &QuotaLogger{path: path}
}

var quotaFields = []string{"timestamp", "endpoint", "units", "cumulative_daily"}

// Record appends one quota-log row, including the running total of units
// spent since UTC midnight (spec.md §4.1: "CSV with timestamp, endpoint,
// units, cumulative_daily"). Any write error is swallowed: quota accounting
// is observability, never a reason to fail a collection run.
func (q *QuotaLogger) Record(endpoint string, units int) {
	if q == nil || q.path == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now().UTC()
	today := now.Format("2006-01-02")
	if today != q.day {
		q.day = today
		q.cumulative = 0
	}
	q.cumulative += units

	row := []string{
		now.Format(time.RFC3339),
		endpoint,
		fmt.Sprintf("%d", units),
		fmt.Sprintf("%d", q.cumulative),
	}
	_ = writer.AppendOne(q.path, quotaFields, row)
}
