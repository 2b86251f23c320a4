package records

import (
	"context"
	"fmt"
	"time"

	"police-dispatch-system/pkg/dispatch"
	"police-dispatch-system/services/report-service/assignment"
)

// Tally is one (status, priority) group count.
type Tally struct {
	CurrentStatus dispatch.Status
	Priority      dispatch.Priority
	Count         int64
}

type Analytics struct {
	TimeRange      string                      `json:"time_range"`
	Total          int64                       `json:"total"`
	ByStatus       map[dispatch.Status]int64   `json:"by_status"`
	ByPriority     map[dispatch.Priority]int64 `json:"by_priority"`
	ResolutionRate float64                     `json:"resolution_rate"`
}

// ParseTimeRange accepts 7d, 30d and 90d; anything else means 30d.
func ParseTimeRange(s string) (string, int) {
	switch s {
	case "7d":
		return s, 7
	case "90d":
		return s, 90
	default:
		return "30d", 30
	}
}

func Summarize(timeRange string, tallies []Tally) Analytics {
	a := Analytics{
		TimeRange:  timeRange,
		ByStatus:   map[dispatch.Status]int64{dispatch.StatusActive: 0, dispatch.StatusInProgress: 0, dispatch.StatusResolved: 0},
		ByPriority: map[dispatch.Priority]int64{dispatch.PriorityEmergency: 0, dispatch.PriorityHigh: 0, dispatch.PriorityNormal: 0},
	}
	for _, t := range tallies {
		if !t.CurrentStatus.Valid() || !t.Priority.Valid() {
			continue
		}
		a.Total += t.Count
		a.ByStatus[t.CurrentStatus] += t.Count
		a.ByPriority[t.Priority] += t.Count
	}
	if a.Total > 0 {
		a.ResolutionRate = float64(a.ByStatus[dispatch.StatusResolved]) / float64(a.Total) * 100
	}
	return a
}

func (s *GormStore) Tally(ctx context.Context, since time.Time) ([]Tally, error) {
	tallies := make([]Tally, 0)
	err := s.db.WithContext(ctx).
		Model(&dispatch.Report{}).
		Select("current_status, priority, count(*) AS count").
		Where("created_at >= ?", since).
		Group("current_status, priority").
		Scan(&tallies).Error
	if err != nil {
		return nil, fmt.Errorf("tally reports: %w: %w", assignment.ErrStoreUnavailable, err)
	}
	return tallies, nil
}
