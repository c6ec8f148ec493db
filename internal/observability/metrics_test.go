package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/auth/login", "POST", 200, 10*time.Millisecond)
	m.RecordRequest("/auth/login", "POST", 200, 30*time.Millisecond)
	m.RecordRequest("/auth/login", "POST", 401, time.Millisecond)
	m.RecordError("/auth/login", "POST", "UNAUTHORIZED")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/auth/login|POST|200"])
	assert.Equal(t, int64(1), snap.Requests["/auth/login|POST|401"])
	assert.Equal(t, int64(20), snap.AvgLatencyMilli["/auth/login|POST|200"])
	assert.Equal(t, int64(1), snap.Errors["/auth/login|POST|UNAUTHORIZED"])

	// snapshots are copies
	snap.Requests["/auth/login|POST|200"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Requests["/auth/login|POST|200"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "INTERNAL_ERROR")
}
