package service

import (
	"math"
	"sort"
	"time"

	"backend/internal/model"
)

// DeriveUrgency classifies how badly a pending request needs attention.
// Branches are evaluated top to bottom; the first match wins.
func DeriveUrgency(priority model.Priority, hoursWaiting float64) model.Urgency {
	switch {
	case priority == model.PriorityCritical:
		return model.UrgencyCritical
	case priority == model.PriorityHigh && hoursWaiting > 4:
		return model.UrgencyHigh
	case hoursWaiting > 24:
		return model.UrgencyHigh
	case hoursWaiting > 8:
		return model.UrgencyMedium
	default:
		return model.UrgencyLow
	}
}

// DaysWaiting rounds the elapsed wait up to whole days.
func DaysWaiting(requestedAt, now time.Time) int {
	hours := now.Sub(requestedAt).Hours()
	if hours <= 0 {
		return 0
	}
	return int(math.Ceil(hours / 24))
}

// IsOverdue reports whether a due date exists and has passed. Due dates are
// advisory only; nothing is enforced from them.
func IsOverdue(dueDate *time.Time, now time.Time) bool {
	return dueDate != nil && dueDate.Before(now)
}

// StatusBreakdown counts one group's members by their own status.
type StatusBreakdown struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
}

func (b *StatusBreakdown) add(status model.ApprovalStatus) {
	b.Total++
	switch status {
	case model.ApprovalApproved:
		b.Approved++
	case model.ApprovalRejected:
		b.Rejected++
	case model.ApprovalPending:
		b.Pending++
	}
}

// MonthlyBucket is one month of the request trend, keyed YYYY-MM.
type MonthlyBucket struct {
	Month string `json:"month"`
	StatusBreakdown
}

// ApprovalAnalytics is the aggregate report over a filtered snapshot.
type ApprovalAnalytics struct {
	TotalRequests    int                        `json:"total_requests"`
	ApprovedCount    int                        `json:"approved_count"`
	RejectedCount    int                        `json:"rejected_count"`
	PendingCount     int                        `json:"pending_count"`
	AvgResponseHours float64                    `json:"avg_response_hours"`
	ByType           map[string]StatusBreakdown `json:"by_type"`
	ByPriority       map[string]StatusBreakdown `json:"by_priority"`
	ByBranch         map[string]StatusBreakdown `json:"by_branch"`
	MonthlyTrend     []MonthlyBucket            `json:"monthly_trend"`
}

// BuildApprovalAnalytics folds a snapshot of requests into the aggregate
// report. Pure: no store access, no clock.
func BuildApprovalAnalytics(requests []model.ApprovalRequest) ApprovalAnalytics {
	report := ApprovalAnalytics{
		ByType:       make(map[string]StatusBreakdown),
		ByPriority:   make(map[string]StatusBreakdown),
		ByBranch:     make(map[string]StatusBreakdown),
		MonthlyTrend: []MonthlyBucket{},
	}

	months := make(map[string]*StatusBreakdown)
	var responded int
	var responseHours float64

	for _, req := range requests {
		report.TotalRequests++
		switch req.Status {
		case model.ApprovalApproved:
			report.ApprovedCount++
		case model.ApprovalRejected:
			report.RejectedCount++
		case model.ApprovalPending:
			report.PendingCount++
		}

		if req.RespondedAt != nil {
			responded++
			responseHours += req.RespondedAt.Sub(req.RequestedAt).Hours()
		}

		bump(report.ByType, req.RequestType.String(), req.Status)
		bump(report.ByPriority, req.Priority.String(), req.Status)

		branch := "Unknown"
		if req.Requester != nil && req.Requester.Branch != nil {
			branch = req.Requester.Branch.Name
		}
		bump(report.ByBranch, branch, req.Status)

		month := req.RequestedAt.Format("2006-01")
		bucket, ok := months[month]
		if !ok {
			bucket = &StatusBreakdown{}
			months[month] = bucket
		}
		bucket.add(req.Status)
	}

	if responded > 0 {
		report.AvgResponseHours = responseHours / float64(responded)
	}

	keys := make([]string, 0, len(months))
	for month := range months {
		keys = append(keys, month)
	}
	sort.Strings(keys)
	for _, month := range keys {
		report.MonthlyTrend = append(report.MonthlyTrend, MonthlyBucket{Month: month, StatusBreakdown: *months[month]})
	}

	return report
}

func bump(groups map[string]StatusBreakdown, key string, status model.ApprovalStatus) {
	breakdown := groups[key]
	breakdown.add(status)
	groups[key] = breakdown
}
