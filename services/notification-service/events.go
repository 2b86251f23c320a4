package main

import (
	"encoding/json"
	"fmt"

	"police-dispatch-system/pkg/middleware"
	"police-dispatch-system/pkg/queue"

	"github.com/google/uuid"
)

// decodeEvent turns a broker message into the notification to fan out and
// the timeline entry to record.
func decodeEvent(routingKey string, body []byte) (Notification, TimelineEntry, error) {
	switch routingKey {
	case queue.RouteCaseAssigned:
		var ev queue.CaseAssignedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return Notification{}, TimelineEntry{}, fmt.Errorf("decode %s: %w", routingKey, err)
		}
		if ev.ReportID == "" || ev.OfficerID == "" {
			return Notification{}, TimelineEntry{}, fmt.Errorf("decode %s: missing report or officer id", routingKey)
		}
		n := Notification{
			ID:        uuid.NewString(),
			ReportID:  ev.ReportID,
			Type:      TypeCaseAssigned,
			Title:     "Case assigned",
			Message:   fmt.Sprintf("Report %s assigned to officer %s", ev.ReportID, ev.OfficerID),
			Priority:  ev.Priority,
			Emergency: ev.Priority == "EMERGENCY",
			CreatedAt: ev.AssignedAt,
			UserIDs:   []string{ev.OfficerUserID, ev.AssignedBy},
		}
		e := TimelineEntry{
			ReportID: ev.ReportID,
			Event:    routingKey,
			Actor:    ev.AssignedBy,
			Detail:   map[string]string{"officer_id": ev.OfficerID, "status": "in_progress"},
			At:       ev.AssignedAt,
		}
		return n, e, nil

	case queue.RouteReportCreated:
		var ev queue.ReportCreatedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return Notification{}, TimelineEntry{}, fmt.Errorf("decode %s: %w", routingKey, err)
		}
		if ev.ReportID == "" {
			return Notification{}, TimelineEntry{}, fmt.Errorf("decode %s: missing report id", routingKey)
		}
		title := "New report"
		if ev.Priority == "EMERGENCY" {
			title = "New emergency report"
		}
		n := Notification{
			ID:        uuid.NewString(),
			ReportID:  ev.ReportID,
			Type:      TypeNewReport,
			Title:     title,
			Message:   fmt.Sprintf("%s reported (%s)", ev.CrimeType, ev.Priority),
			Priority:  ev.Priority,
			Emergency: ev.Priority == "EMERGENCY",
			CreatedAt: ev.CreatedAt,
			Roles:     []string{middleware.RoleStation},
		}
		e := TimelineEntry{
			ReportID: ev.ReportID,
			Event:    routingKey,
			Detail:   map[string]string{"crime_type": ev.CrimeType, "priority": ev.Priority, "status": "active"},
			At:       ev.CreatedAt,
		}
		return n, e, nil
	}
	return Notification{}, TimelineEntry{}, fmt.Errorf("unknown routing key %q", routingKey)
}
