package service_test

import (
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveUrgency(t *testing.T) {
	tests := []struct {
		name         string
		priority     model.Priority
		hoursWaiting float64
		want         model.Urgency
	}{
		{"critical priority always critical", model.PriorityCritical, 0, model.UrgencyCritical},
		{"high priority fresh", model.PriorityHigh, 2, model.UrgencyLow},
		{"high priority over four hours", model.PriorityHigh, 5, model.UrgencyHigh},
		{"medium priority over a day", model.PriorityMedium, 30, model.UrgencyHigh},
		{"low priority over a day", model.PriorityLow, 25, model.UrgencyHigh},
		{"medium priority over eight hours", model.PriorityMedium, 9, model.UrgencyMedium},
		{"fresh low priority", model.PriorityLow, 1, model.UrgencyLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.DeriveUrgency(tt.priority, tt.hoursWaiting))
		})
	}
}

func TestDaysWaiting(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, service.DaysWaiting(now, now))
	assert.Equal(t, 0, service.DaysWaiting(now.Add(time.Hour), now))
	assert.Equal(t, 1, service.DaysWaiting(now.Add(-time.Hour), now))
	assert.Equal(t, 2, service.DaysWaiting(now.Add(-30*time.Hour), now))
	assert.Equal(t, 2, service.DaysWaiting(now.Add(-48*time.Hour), now))
}

func TestIsOverdue(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, service.IsOverdue(nil, now))
	assert.False(t, service.IsOverdue(&future, now))
	assert.True(t, service.IsOverdue(&past, now))
}

func TestBuildApprovalAnalytics(t *testing.T) {
	jan := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 5, 10, 0, 0, 0, time.UTC)
	respondedAt := jan.Add(6 * time.Hour)

	branch := &model.Branch{Name: "Downtown"}
	requests := []model.ApprovalRequest{
		{
			RequestType: model.RequestTypeInventoryAdjustment,
			Priority:    model.PriorityHigh,
			Status:      model.ApprovalApproved,
			RequestedAt: jan,
			RespondedAt: &respondedAt,
			Requester:   &model.User{Branch: branch},
		},
		{
			RequestType: model.RequestTypeWasteWriteOff,
			Priority:    model.PriorityLow,
			Status:      model.ApprovalRejected,
			RequestedAt: feb,
			RespondedAt: &respondedAt,
		},
		{
			RequestType: model.RequestTypeWasteWriteOff,
			Priority:    model.PriorityLow,
			Status:      model.ApprovalPending,
			RequestedAt: feb,
		},
	}

	report := service.BuildApprovalAnalytics(requests)

	assert.Equal(t, 3, report.TotalRequests)
	assert.Equal(t, 1, report.ApprovedCount)
	assert.Equal(t, 1, report.RejectedCount)
	assert.Equal(t, 1, report.PendingCount)

	assert.Equal(t, 1, report.ByType[model.RequestTypeInventoryAdjustment.String()].Approved)
	assert.Equal(t, 2, report.ByType[model.RequestTypeWasteWriteOff.String()].Total)
	assert.Equal(t, 2, report.ByPriority[model.PriorityLow.String()].Total)

	// Requests without a resolvable branch land in the Unknown bucket.
	assert.Equal(t, 1, report.ByBranch["Downtown"].Total)
	assert.Equal(t, 2, report.ByBranch["Unknown"].Total)

	require.Len(t, report.MonthlyTrend, 2)
	assert.Equal(t, "2026-01", report.MonthlyTrend[0].Month)
	assert.Equal(t, "2026-02", report.MonthlyTrend[1].Month)
	assert.Equal(t, 1, report.MonthlyTrend[0].Total)
	assert.Equal(t, 2, report.MonthlyTrend[1].Total)

	// Average is taken over the responded requests only.
	assert.InDelta(t, 3.0, report.AvgResponseHours, 0.001)
}

func TestBuildApprovalAnalyticsEmpty(t *testing.T) {
	report := service.BuildApprovalAnalytics(nil)

	assert.Equal(t, 0, report.TotalRequests)
	assert.Zero(t, report.AvgResponseHours)
	assert.Empty(t, report.MonthlyTrend)
	assert.NotNil(t, report.ByType)
}
