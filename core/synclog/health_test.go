package synclog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyRows(statuses ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "target", "status", "started_at", "errors", "duration_ms"})
	at := time.Now()
	for i, status := range statuses {
		errs := ""
		if status != "success" {
			errs = `[{"key":"AA1","message":"boom"}]`
		}
		rows.AddRow(fmt.Sprintf("id-%d", i), "sellers", status, at, errs, 1200)
		at = at.Add(-time.Hour)
	}
	return rows
}

func TestHealth(t *testing.T) {
	cfg := Config{HealthWindow: 10, FailingStreak: 3}

	cases := []struct {
		name     string
		statuses []string // newest first
		want     HealthStatus
	}{
		{"NoHistory", nil, HealthHealthy},
		{"AllSuccess", []string{"success", "success", "success"}, HealthHealthy},
		{"RecentPartial", []string{"partial_success", "success"}, HealthDegraded},
		{"OldFailureRecovered", []string{"success", "failed", "success"}, HealthDegraded},
		{"TwoConsecutiveFailures", []string{"failed", "failed", "success"}, HealthDegraded},
		{"ThreeConsecutiveFailures", []string{"failed", "failed", "failed", "success"}, HealthFailing},
		{"StreakBrokenByPartial", []string{"failed", "partial_success", "failed", "failed"}, HealthDegraded},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			mock.ExpectQuery("SELECT .* FROM `sync_logs`").WillReturnRows(historyRows(tc.statuses...))

			report, err := NewHealthAggregator(db, cfg).Health(context.Background(), "sellers")
			require.NoError(t, err)
			assert.Equal(t, tc.want, report.Status)
			assert.Equal(t, len(tc.statuses), report.WindowSize)
		})
	}
}

func TestHealthReportDetails(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery("SELECT .* FROM `sync_logs`").
		WillReturnRows(historyRows("failed", "failed", "success", "partial_success"))

	report, err := NewHealthAggregator(db, Config{HealthWindow: 10, FailingStreak: 3}).
		Health(context.Background(), "sellers")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Failures)
	assert.Equal(t, 1, report.Partials)
	assert.Equal(t, 2, report.ConsecutiveFailures)
	assert.InDelta(t, 0.25, report.SuccessRate, 0.001)
	assert.Equal(t, int64(1200), report.AvgDurationMs)
	require.NotNil(t, report.LastSuccessAt)
	assert.Contains(t, report.LastError, "boom")
}
